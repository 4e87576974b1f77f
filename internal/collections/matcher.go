package collections

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Matcher selects the local shows that belong to a network.
type Matcher struct {
	logger zerolog.Logger
}

// NewMatcher creates a matcher.
func NewMatcher(logger zerolog.Logger) *Matcher {
	return &Matcher{
		logger: logger.With().Str("component", "matcher").Logger(),
	}
}

// Match returns the ids of candidates whose Tmdb provider id is in remote, in
// candidate order and without duplicates. Every excluded candidate yields a
// diagnostic.
func (m *Matcher) Match(network NetworkID, candidates []LocalShow, remote ShowSet) ([]string, []Diagnostic) {
	ids := make([]string, 0)
	var diags []Diagnostic
	seen := make(map[string]struct{}, len(candidates))

	for _, show := range candidates {
		value, ok := show.ProviderIDs[ProviderTmdb]
		if !ok || strings.TrimSpace(value) == "" {
			m.logger.Warn().Str("show", show.Name).Msg("Show has no Tmdb id")
			diags = append(diags, Diagnostic{
				Kind:     DiagnosticMissingProviderID,
				Network:  network,
				ShowID:   show.ID,
				ShowName: show.Name,
				Reason:   "missing provider id",
			})
			continue
		}

		tmdbID, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			m.logger.Warn().Str("show", show.Name).Str("tmdbId", value).Msg("Show has a non-integer Tmdb id")
			diags = append(diags, Diagnostic{
				Kind:       DiagnosticInvalidProviderID,
				Network:    network,
				ShowID:     show.ID,
				ShowName:   show.Name,
				ProviderID: value,
				Reason:     "provider id is not an integer",
			})
			continue
		}

		if !remote.Contains(RemoteShowID(tmdbID)) {
			m.logger.Trace().
				Str("show", show.Name).
				Int("tmdbId", tmdbID).
				Int("network", int(network)).
				Msg("Show is not on network")
			diags = append(diags, Diagnostic{
				Kind:       DiagnosticProviderIDMismatch,
				Network:    network,
				ShowID:     show.ID,
				ShowName:   show.Name,
				ProviderID: value,
				Reason:     "mismatch",
			})
			continue
		}

		if _, dup := seen[show.ID]; dup {
			continue
		}
		seen[show.ID] = struct{}{}
		ids = append(ids, show.ID)
	}

	return ids, diags
}
