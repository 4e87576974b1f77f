package collections

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options configures a Syncer.
type Options struct {
	// MaxPages bounds discovery per network. Zero uses DefaultMaxPages.
	MaxPages int
}

// Syncer drives a run: parse the configured networks, then for each network
// build its show index, match local shows and upsert the network's collection.
// Networks are processed one at a time and a failure only affects its own network.
type Syncer struct {
	directory NetworkDirectory
	catalog   Catalog
	index     *ShowIndex
	matcher   *Matcher
	upserter  *Upserter
	history   CollectionHistory
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSyncer creates a syncer over the remote directory and the local catalog.
func NewSyncer(directory NetworkDirectory, catalog Catalog, opts Options, logger zerolog.Logger) *Syncer {
	return &Syncer{
		directory: directory,
		catalog:   catalog,
		index:     NewShowIndex(directory, opts.MaxPages, logger),
		matcher:   NewMatcher(logger),
		upserter:  NewUpserter(catalog, logger),
		logger:    logger.With().Str("component", "syncer").Logger(),
		now:       time.Now,
	}
}

// SetCollectionHistory sets the source of collection ids used by earlier runs.
// When set, a network whose name now resolves to a different collection is
// reported with a collection_changed diagnostic.
func (s *Syncer) SetCollectionHistory(h CollectionHistory) {
	s.history = h
}

// Run syncs every network in the comma-separated networks list. It never
// fails: the returned report carries one Result per network that was started.
// Cancellation is checked before each network; networks not yet started when
// ctx is done are skipped and the report is marked cancelled.
func (s *Syncer) Run(ctx context.Context, networks string, sink ProgressSink) *Report {
	if sink == nil {
		sink = NopProgress
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Config:    networks,
		StartedAt: s.now(),
		Results:   make([]Result, 0),
	}
	defer func() {
		report.FinishedAt = s.now()
	}()

	if strings.TrimSpace(networks) == "" {
		s.logger.Warn().Msg("No Tmdb network ids configured, nothing to sync")
		report.Diagnostics = append(report.Diagnostics, Diagnostic{
			Kind:   DiagnosticConfigEmpty,
			Reason: "no network ids configured",
		})
		sink.Report(100)
		return report
	}

	ids, diags := ParseNetworkIDs(networks)
	for _, d := range diags {
		s.logger.Error().Str("token", d.Token).Msg("Found non integer Tmdb network id")
	}
	report.Diagnostics = append(report.Diagnostics, diags...)

	if len(ids) == 0 {
		s.logger.Warn().Str("networks", networks).Msg("No valid Tmdb network ids configured")
		sink.Report(100)
		return report
	}

	s.logger.Info().Str("runId", report.RunID).Int("networks", len(ids)).Msg("Starting network collection sync")
	sink.Report(0)

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			s.logger.Info().
				Int("network", int(id)).
				Int("remaining", len(ids)-i).
				Msg("Sync cancelled, skipping remaining networks")
			report.Cancelled = true
			break
		}

		result := s.syncNetwork(ctx, id)
		report.Results = append(report.Results, result)
		if result.Kind == FailureCancelled {
			report.Cancelled = true
		}

		sink.Report(float64(i+1) / float64(len(ids)) * 100)
	}

	s.logger.Info().
		Str("runId", report.RunID).
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Int("added", report.Added()).
		Bool("cancelled", report.Cancelled).
		Msg("Network collection sync finished")

	return report
}

// syncNetwork runs fetch, match and upsert for a single network.
func (s *Syncer) syncNetwork(ctx context.Context, id NetworkID) Result {
	result := Result{NetworkID: id, Status: StatusSuccess}
	logger := s.logger.With().Int("network", int(id)).Logger()

	fail := func(err error) Result {
		result.Status = StatusFailed
		result.Kind = classify(ctx, err)
		result.Error = err.Error()
		logger.Error().Err(err).Str("kind", string(result.Kind)).Msg("Network sync failed")
		return result
	}

	network, err := s.directory.LookupNetwork(ctx, id)
	if err != nil {
		return fail(fmt.Errorf("%w: network %d: %w", ErrRemoteLookupFailed, id, err))
	}
	if network == nil || strings.TrimSpace(network.Name) == "" {
		return fail(fmt.Errorf("%w: network %d has no name", ErrRemoteLookupFailed, id))
	}
	result.NetworkName = network.Name
	logger = logger.With().Str("name", network.Name).Logger()

	remote, err := s.index.Build(ctx, id)
	if err != nil {
		return fail(err)
	}
	result.RemoteShows = len(remote)

	candidates, err := s.catalog.QueryShows(ctx)
	if err != nil {
		return fail(fmt.Errorf("%w: query shows: %w", ErrCatalogReadFailed, err))
	}

	showIDs, diags := s.matcher.Match(id, candidates, remote)
	result.Matched = len(showIDs)
	result.Diagnostics = append(result.Diagnostics, diags...)

	previous := s.previousCollection(ctx, id)

	upsert, err := s.upserter.Upsert(ctx, network.Name, showIDs)
	if err != nil {
		return fail(err)
	}
	result.CollectionID = upsert.CollectionID
	result.CollectionCreated = upsert.Created
	result.Added = upsert.Added

	if upsert.Shared {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Kind:    DiagnosticCollectionNameShared,
			Network: id,
			Reason:  fmt.Sprintf("more than one collection is named %q", network.Name),
		})
	}
	if previous != "" && previous != upsert.CollectionID {
		logger.Warn().
			Str("previous", previous).
			Str("current", upsert.CollectionID).
			Msg("Network now resolves to a different collection")
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Kind:    DiagnosticCollectionChanged,
			Network: id,
			Reason:  fmt.Sprintf("collection changed from %s to %s", previous, upsert.CollectionID),
		})
	}

	logger.Info().
		Int("remoteShows", result.RemoteShows).
		Int("candidates", len(candidates)).
		Int("matched", result.Matched).
		Int("added", result.Added).
		Bool("created", result.CollectionCreated).
		Msg("Network synced")

	return result
}

func (s *Syncer) previousCollection(ctx context.Context, id NetworkID) string {
	if s.history == nil {
		return ""
	}
	previous, err := s.history.LastCollectionFor(ctx, id)
	if err != nil {
		s.logger.Debug().Err(err).Int("network", int(id)).Msg("Failed to read previous collection")
		return ""
	}
	return previous
}

// classify maps an error to a failure kind. An error raised after the run's
// context ended counts as a cancellation.
func classify(ctx context.Context, err error) FailureKind {
	switch {
	case ctx.Err() != nil:
		return FailureCancelled
	case errors.Is(err, ErrCatalogWriteFailed):
		return FailureCatalogWrite
	case errors.Is(err, ErrCatalogReadFailed):
		return FailureCatalogRead
	default:
		return FailureRemoteLookup
	}
}
