package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipstream/netcollections/internal/collections"
	"github.com/slipstream/netcollections/internal/health"
	"github.com/slipstream/netcollections/internal/history"
	"github.com/slipstream/netcollections/internal/progress"
	"github.com/slipstream/netcollections/internal/scheduler"
	"github.com/slipstream/netcollections/internal/testutil"
)

type stubDirectory struct {
	names map[collections.NetworkID]string
	shows map[collections.NetworkID][]collections.RemoteShowID
}

func (d *stubDirectory) LookupNetwork(_ context.Context, id collections.NetworkID) (*collections.Network, error) {
	name, ok := d.names[id]
	if !ok {
		return nil, fmt.Errorf("network %d: %w", id, errors.New("not found"))
	}
	return &collections.Network{ID: id, Name: name}, nil
}

func (d *stubDirectory) DiscoverShowsByNetwork(_ context.Context, id collections.NetworkID, page int) (*collections.DiscoverPage, error) {
	return &collections.DiscoverPage{Items: d.shows[id], Page: page, TotalPages: 1}, nil
}

type stubCatalog struct {
	shows       []collections.LocalShow
	collections []collections.Collection
	members     map[string][]string
}

func (c *stubCatalog) QueryShows(context.Context) ([]collections.LocalShow, error) {
	return c.shows, nil
}

func (c *stubCatalog) QueryCollections(context.Context) ([]collections.Collection, error) {
	return c.collections, nil
}

func (c *stubCatalog) CreateCollection(_ context.Context, name string) (*collections.Collection, error) {
	col := collections.Collection{ID: fmt.Sprintf("bs-%d", len(c.collections)+1), Name: name}
	c.collections = append(c.collections, col)
	return &col, nil
}

func (c *stubCatalog) CollectionMembers(_ context.Context, id string) ([]string, error) {
	return c.members[id], nil
}

func (c *stubCatalog) AddMembers(_ context.Context, id string, ids []string) error {
	c.members[id] = append(c.members[id], ids...)
	return nil
}

func newFixture(t *testing.T, networks string) (*NetworkCollectionsTask, *history.Service, *progress.Manager, *stubCatalog) {
	t.Helper()

	directory := &stubDirectory{
		names: map[collections.NetworkID]string{49: "HBO"},
		shows: map[collections.NetworkID][]collections.RemoteShowID{49: {1399, 1438}},
	}
	catalog := &stubCatalog{
		shows: []collections.LocalShow{
			{ID: "got", Name: "Game of Thrones", ProviderIDs: map[string]string{collections.ProviderTmdb: "1399"}},
			{ID: "bb", Name: "Breaking Bad", ProviderIDs: map[string]string{collections.ProviderTmdb: "1396"}},
		},
		members: map[string][]string{},
	}

	tdb := testutil.NewTestDB(t)
	hist := history.NewService(tdb.Conn, tdb.Logger)
	pm := progress.NewManager(zerolog.Nop())

	syncer := collections.NewSyncer(directory, catalog, collections.Options{}, zerolog.Nop())
	syncer.SetCollectionHistory(hist)

	return NewNetworkCollectionsTask(syncer, hist, pm, networks, zerolog.Nop()), hist, pm, catalog
}

func TestNetworkCollectionsTask_RunRecordsReport(t *testing.T) {
	task, hist, pm, catalog := newFixture(t, "49")
	ctx := context.Background()

	require.NoError(t, task.Run(ctx))

	assert.Equal(t, []string{"got"}, catalog.members["bs-1"])

	runs, err := hist.List(ctx, history.ListOptions{})
	require.NoError(t, err)
	require.Len(t, runs.Items, 1)
	assert.Equal(t, 1, runs.Items[0].Succeeded)
	assert.Equal(t, 1, runs.Items[0].Added)

	last, err := hist.LastCollectionFor(ctx, 49)
	require.NoError(t, err)
	assert.Equal(t, "bs-1", last)

	activities := pm.GetAllActivities()
	require.Len(t, activities, 1)
	assert.Equal(t, progress.StatusCompleted, activities[0].Status)
	assert.Equal(t, runs.Items[0].ID, activities[0].Metadata["runId"])
}

func TestNetworkCollectionsTask_RunReportsFailures(t *testing.T) {
	task, _, pm, _ := newFixture(t, "49,7")

	err := task.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 networks failed")

	activities := pm.GetAllActivities()
	require.Len(t, activities, 1)
	assert.Equal(t, progress.StatusCompleted, activities[0].Status)
}

func TestNetworkCollectionsTask_RecordsNetworkHealth(t *testing.T) {
	task, _, _, _ := newFixture(t, "49,7")
	hs := health.NewService(zerolog.Nop())
	task.SetHealthService(hs)

	task.Execute(context.Background(), "")

	assert.True(t, hs.IsHealthy(health.CategoryNetworks, "49"))
	item := hs.GetItem(health.CategoryNetworks, "7")
	require.NotNil(t, item)
	assert.Equal(t, health.StatusError, item.Status)
}

type recordingNotifier struct {
	reports []*collections.Report
}

func (n *recordingNotifier) OnSyncComplete(_ context.Context, report *collections.Report) error {
	n.reports = append(n.reports, report)
	return errors.New("delivery failed")
}

func TestNetworkCollectionsTask_NotifiesEvenWhenDeliveryFails(t *testing.T) {
	task, _, _, _ := newFixture(t, "49")
	notifier := &recordingNotifier{}
	task.SetNotifier(notifier)

	require.NoError(t, task.Run(context.Background()))
	require.Len(t, notifier.reports, 1)
	assert.Equal(t, 1, notifier.reports[0].Succeeded())
}

func TestNetworkCollectionsTask_ExecuteOverride(t *testing.T) {
	task, hist, _, _ := newFixture(t, "49")
	ctx := context.Background()

	report := task.Execute(ctx, "7")
	require.Len(t, report.Results, 1)
	assert.Equal(t, collections.NetworkID(7), report.Results[0].NetworkID)
	assert.Equal(t, collections.StatusFailed, report.Results[0].Status)

	stored, err := hist.Get(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, "7", stored.Config)
}

func TestNetworkCollectionsTask_Cancelled(t *testing.T) {
	task, hist, pm, _ := newFixture(t, "49")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := task.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))

	runs, err := hist.List(context.Background(), history.ListOptions{})
	require.NoError(t, err)
	require.Len(t, runs.Items, 1)
	assert.True(t, runs.Items[0].Cancelled)

	assert.Equal(t, progress.StatusCancelled, pm.GetAllActivities()[0].Status)
}

func TestNetworkCollectionsTask_NilCollaborators(t *testing.T) {
	directory := &stubDirectory{names: map[collections.NetworkID]string{}}
	catalog := &stubCatalog{members: map[string][]string{}}
	syncer := collections.NewSyncer(directory, catalog, collections.Options{}, zerolog.Nop())

	task := NewNetworkCollectionsTask(syncer, nil, nil, "", zerolog.Nop())
	report := task.Execute(context.Background(), "")
	assert.Empty(t, report.Results)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, collections.DiagnosticConfigEmpty, report.Diagnostics[0].Kind)
}

func TestRegisterTasks(t *testing.T) {
	task, hist, pm, _ := newFixture(t, "49")

	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)
	defer sched.Stop()

	require.NoError(t, RegisterNetworkCollectionsTask(sched, task, "0 1 * * 0", false))
	require.NoError(t, RegisterHistoryCleanupTask(sched, hist, pm))

	tasks := sched.ListTasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, HistoryCleanupTaskID, tasks[0].ID)
	assert.Equal(t, NetworkCollectionsTaskID, tasks[1].ID)
	assert.Equal(t, "0 1 * * 0", tasks[1].Cron)
}
