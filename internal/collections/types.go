package collections

import (
	"strconv"
	"strings"
	"time"
)

// ProviderTmdb is the provider id key a catalog show must carry to be matched.
const ProviderTmdb = "Tmdb"

// NetworkID identifies a television network in the remote directory.
type NetworkID int

func (n NetworkID) String() string {
	return strconv.Itoa(int(n))
}

// RemoteShowID identifies a show in the remote directory's namespace.
type RemoteShowID int

// ShowSet is a set of remote show ids.
type ShowSet map[RemoteShowID]struct{}

// Contains reports whether id is in the set.
func (s ShowSet) Contains(id RemoteShowID) bool {
	_, ok := s[id]
	return ok
}

// Network is the remote directory's description of a network.
type Network struct {
	ID   NetworkID `json:"id"`
	Name string    `json:"name"`
}

// DiscoverPage is one page of a paginated discovery query.
type DiscoverPage struct {
	Items      []RemoteShowID
	Page       int
	TotalPages int
}

// LocalShow is a series in the local catalog.
type LocalShow struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	ProviderIDs map[string]string `json:"providerIds,omitempty"`
}

// Collection is a named grouping of shows in the local catalog.
type Collection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DiagnosticKind classifies a non-fatal finding made during a run.
type DiagnosticKind string

const (
	DiagnosticConfigEmpty          DiagnosticKind = "config_empty"
	DiagnosticInvalidNetworkID     DiagnosticKind = "invalid_network_identifier"
	DiagnosticMissingProviderID    DiagnosticKind = "missing_provider_id"
	DiagnosticInvalidProviderID    DiagnosticKind = "invalid_provider_id"
	DiagnosticProviderIDMismatch   DiagnosticKind = "provider_id_mismatch"
	DiagnosticCollectionNameShared DiagnosticKind = "collection_name_shared"
	DiagnosticCollectionChanged    DiagnosticKind = "collection_changed"
)

// Diagnostic is an informational finding. Diagnostics never abort a run.
type Diagnostic struct {
	Kind       DiagnosticKind `json:"kind"`
	Network    NetworkID      `json:"network,omitempty"`
	Token      string         `json:"token,omitempty"`
	ShowID     string         `json:"showId,omitempty"`
	ShowName   string         `json:"showName,omitempty"`
	ProviderID string         `json:"providerId,omitempty"`
	Reason     string         `json:"reason"`
}

// Status is the outcome of one network's sync.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// FailureKind classifies why a network's sync failed.
type FailureKind string

const (
	FailureRemoteLookup FailureKind = "remote_lookup_failed"
	FailureCatalogRead  FailureKind = "catalog_read_failed"
	FailureCatalogWrite FailureKind = "catalog_write_failed"
	FailureCancelled    FailureKind = "cancelled"
)

// Result is the per-network outcome of a run.
type Result struct {
	NetworkID         NetworkID    `json:"networkId"`
	NetworkName       string       `json:"networkName,omitempty"`
	Status            Status       `json:"status"`
	Kind              FailureKind  `json:"kind,omitempty"`
	Error             string       `json:"error,omitempty"`
	CollectionID      string       `json:"collectionId,omitempty"`
	CollectionCreated bool         `json:"collectionCreated"`
	RemoteShows       int          `json:"remoteShows"`
	Matched           int          `json:"matched"`
	Added             int          `json:"added"`
	Diagnostics       []Diagnostic `json:"diagnostics,omitempty"`
}

// Report is the outcome of a whole run.
type Report struct {
	RunID       string       `json:"runId"`
	Config      string       `json:"config"`
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt"`
	Cancelled   bool         `json:"cancelled"`
	Results     []Result     `json:"results"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Succeeded returns the number of networks synced successfully.
func (r *Report) Succeeded() int {
	n := 0
	for i := range r.Results {
		if r.Results[i].Status == StatusSuccess {
			n++
		}
	}
	return n
}

// Failed returns the number of networks whose sync failed.
func (r *Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Added returns the total number of shows added across all networks.
func (r *Report) Added() int {
	n := 0
	for i := range r.Results {
		n += r.Results[i].Added
	}
	return n
}

// ParseNetworkIDs splits a comma-separated list of network ids. Blank tokens
// are ignored; tokens that are not non-negative integers are reported and skipped.
func ParseNetworkIDs(raw string) ([]NetworkID, []Diagnostic) {
	var ids []NetworkID
	var diags []Diagnostic

	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 {
			diags = append(diags, Diagnostic{
				Kind:   DiagnosticInvalidNetworkID,
				Token:  token,
				Reason: "network id must be a non-negative integer",
			})
			continue
		}
		ids = append(ids, NetworkID(n))
	}

	return ids, diags
}
