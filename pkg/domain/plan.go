package domain

import "slices"

// Plan evaluates catalog limits against current usage counts for one tier.
// It is an immutable value; construct it with PlanFor at the boundary where
// the raw tier string enters the system, then pass it around freely. All
// predicate methods are total and side-effect-free, so callers can render UI
// affordances straight from the booleans.
type Plan struct {
	tier   Tier
	limits TierLimits
}

// PlanFor resolves a raw tier string to its Plan. The only failure mode is an
// unknown tier string, reported as ErrUnknownTier.
func PlanFor(rawTier string) (Plan, error) {
	tier, err := ParseTier(rawTier)
	if err != nil {
		return Plan{}, err
	}

	return Plan{tier: tier, limits: tierCatalog[tier]}, nil
}

// Tier returns the tier this plan was built from.
func (p Plan) Tier() Tier { return p.tier }

// Limits returns the raw catalog row for this plan's tier.
func (p Plan) Limits() TierLimits { return p.limits }

// MaxProjects returns the project limit of the plan's tier.
func (p Plan) MaxProjects() int { return p.limits.MaxProjects }

// MaxPagesPerCrawl returns the per-crawl page limit of the plan's tier.
func (p Plan) MaxPagesPerCrawl() int { return p.limits.MaxPagesPerCrawl }

// CanCreateProject reports whether an owner with currentProjectCount live
// projects may register another one.
func (p Plan) CanCreateProject(currentProjectCount int) bool {
	return currentProjectCount < p.limits.MaxProjects
}

// CanRunVisibilityChecks reports whether requested additional checks fit in
// the period budget given the checks already used. The requested batch must
// fit entirely; partial grants are not a thing.
func (p Plan) CanRunVisibilityChecks(requested, usedThisPeriod int) bool {
	return requested+usedThisPeriod <= p.limits.MaxVisibilityChecksPerPeriod
}

// CanGenerateReport reports whether the plan permits generating a report of
// the given type this month. Both the type gate and the monthly count gate
// must pass.
func (p Plan) CanGenerateReport(usedThisMonth int, reportType ReportType) bool {
	if !slices.Contains(p.limits.AllowedReportTypes, reportType) {
		return false
	}

	return usedThisMonth < p.limits.MaxReportsPerMonth
}

// CanAddPage reports whether a crawl that has already ingested
// currentPageCount pages may ingest one more.
func (p Plan) CanAddPage(currentPageCount int) bool {
	return currentPageCount < p.limits.MaxPagesPerCrawl
}

// MeetsMinimumTier reports whether the plan's tier ranks at or above the
// required tier under the free < starter < pro < agency order.
func (p Plan) MeetsMinimumTier(required Tier) bool {
	return p.tier.rank() >= required.rank()
}
