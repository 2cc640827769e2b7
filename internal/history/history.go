// Package history composes a role-scoped read over the report and emergency
// lifecycles. It never writes.
package history

import (
	"context"

	"securegate.org/internal/auth"
	"securegate.org/internal/emergency"
	"securegate.org/internal/report"
)

// View is the per-role history payload.
type View struct {
	Reports     []report.Report       `json:"reports"`
	Emergencies []emergency.Emergency `json:"emergencies"`
}

// Aggregator reads across both lifecycle services.
type Aggregator struct {
	reports     report.Service
	emergencies emergency.Service
}

// New constructs an Aggregator.
func New(reports report.Service, emergencies emergency.Service) *Aggregator {
	return &Aggregator{reports: reports, emergencies: emergencies}
}

// For assembles the history for the given identity.
//
// Residents see their own reports and emergencies, newest-first. Admins see
// every approved report ordered by last update, plus the emergencies they
// personally handled, newest-first.
func (a *Aggregator) For(ctx context.Context, identity auth.Identity) (View, error) {
	if identity.Role == auth.RoleAdmin {
		reports, err := a.reports.ListByStatus(ctx, report.StatusApproved)
		if err != nil {
			return View{}, err
		}
		emergencies, err := a.emergencies.ListByResponder(ctx, identity.UserID)
		if err != nil {
			return View{}, err
		}
		return newView(reports, emergencies), nil
	}

	reports, err := a.reports.ListByAuthor(ctx, identity.UserID)
	if err != nil {
		return View{}, err
	}
	emergencies, err := a.emergencies.ListByAuthor(ctx, identity.UserID)
	if err != nil {
		return View{}, err
	}
	return newView(reports, emergencies), nil
}

// newView keeps both collections non-nil so the JSON payload always carries
// arrays.
func newView(reports []report.Report, emergencies []emergency.Emergency) View {
	if reports == nil {
		reports = []report.Report{}
	}
	if emergencies == nil {
		emergencies = []emergency.Emergency{}
	}
	return View{Reports: reports, Emergencies: emergencies}
}
