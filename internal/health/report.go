package health

import (
	"fmt"

	"github.com/slipstream/netcollections/internal/collections"
)

// RecordReport updates network items from a finished run. Networks a run
// did not reach keep their previous status.
func (s *Service) RecordReport(report *collections.Report) {
	if report == nil {
		return
	}

	for _, r := range report.Results {
		id := r.NetworkID.String()
		name := r.NetworkName
		if name == "" {
			name = "Network " + id
		}
		s.RegisterItem(CategoryNetworks, id, name)

		switch {
		case r.Status == collections.StatusSuccess:
			s.ClearStatus(CategoryNetworks, id)
		case r.Kind == collections.FailureCancelled:
			s.SetWarning(CategoryNetworks, id, "Sync cancelled")
		default:
			s.SetError(CategoryNetworks, id, fmt.Sprintf("%s: %s", r.Kind, r.Error))
		}
	}
}

// RecordCheck sets a service item from the outcome of a connection check.
func (s *Service) RecordCheck(id string, err error) {
	if err != nil {
		s.SetError(CategoryServices, id, err.Error())
		return
	}
	s.ClearStatus(CategoryServices, id)
}
