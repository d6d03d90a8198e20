package domain_test

import (
	"testing"

	"sitescope/pkg/domain"

	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	for _, tier := range domain.Tiers() {
		got, err := domain.ParseTier(string(tier))
		require.NoError(t, err)
		require.Equal(t, tier, got)
	}

	_, err := domain.ParseTier("platinum")
	require.ErrorIs(t, err, domain.ErrUnknownTier)

	// tiers are case-sensitive at the boundary
	_, err = domain.ParseTier("Free")
	require.ErrorIs(t, err, domain.ErrUnknownTier)
}

func TestPlanFor_UnknownTier(t *testing.T) {
	_, err := domain.PlanFor("enterprise")
	require.ErrorIs(t, err, domain.ErrUnknownTier)
}

// Every numeric limit must be non-decreasing as the tier rank increases.
func TestTierLimitsMonotone(t *testing.T) {
	tiers := domain.Tiers()
	for i := 1; i < len(tiers); i++ {
		lower, err := domain.PlanFor(string(tiers[i-1]))
		require.NoError(t, err)
		higher, err := domain.PlanFor(string(tiers[i]))
		require.NoError(t, err)

		ll, hl := lower.Limits(), higher.Limits()
		require.GreaterOrEqual(t, hl.MaxProjects, ll.MaxProjects,
			"MaxProjects must not decrease from %s to %s", tiers[i-1], tiers[i])
		require.GreaterOrEqual(t, hl.MaxPagesPerCrawl, ll.MaxPagesPerCrawl,
			"MaxPagesPerCrawl must not decrease from %s to %s", tiers[i-1], tiers[i])
		require.GreaterOrEqual(t, hl.MaxVisibilityChecksPerPeriod, ll.MaxVisibilityChecksPerPeriod,
			"MaxVisibilityChecksPerPeriod must not decrease from %s to %s", tiers[i-1], tiers[i])
		require.GreaterOrEqual(t, hl.MaxReportsPerMonth, ll.MaxReportsPerMonth,
			"MaxReportsPerMonth must not decrease from %s to %s", tiers[i-1], tiers[i])
		require.GreaterOrEqual(t, len(hl.AllowedReportTypes), len(ll.AllowedReportTypes),
			"AllowedReportTypes must not shrink from %s to %s", tiers[i-1], tiers[i])
	}
}

func TestTierFixedPoints(t *testing.T) {
	free, err := domain.PlanFor("free")
	require.NoError(t, err)
	require.Equal(t, 1, free.MaxProjects())
	require.Equal(t, 10, free.MaxPagesPerCrawl())
	require.Equal(t, 3, free.Limits().MaxVisibilityChecksPerPeriod)
	require.Equal(t, 1, free.Limits().MaxReportsPerMonth)
	require.Equal(t, []domain.ReportType{domain.ReportTypeSummary}, free.Limits().AllowedReportTypes)

	agency, err := domain.PlanFor("agency")
	require.NoError(t, err)
	require.Equal(t, 50, agency.MaxProjects())
	require.Equal(t, 2000, agency.MaxPagesPerCrawl())
}

func TestPlanCanCreateProject(t *testing.T) {
	free, err := domain.PlanFor("free")
	require.NoError(t, err)
	require.True(t, free.CanCreateProject(0))
	require.False(t, free.CanCreateProject(1))

	agency, err := domain.PlanFor("agency")
	require.NoError(t, err)
	require.True(t, agency.CanCreateProject(49))
	require.False(t, agency.CanCreateProject(50))
}

func TestPlanCanRunVisibilityChecks(t *testing.T) {
	free, err := domain.PlanFor("free")
	require.NoError(t, err)

	// free allows 3 per period: 2 requested on top of 1 used fits exactly,
	// 3 requested does not.
	require.True(t, free.CanRunVisibilityChecks(2, 1))
	require.False(t, free.CanRunVisibilityChecks(3, 1))
	require.True(t, free.CanRunVisibilityChecks(0, 3))
	require.False(t, free.CanRunVisibilityChecks(1, 3))
}

func TestPlanCanGenerateReport(t *testing.T) {
	cases := []struct {
		name       string
		tier       string
		used       int
		reportType domain.ReportType
		want       bool
	}{
		{"free first summary", "free", 0, domain.ReportTypeSummary, true},
		{"free monthly limit reached", "free", 1, domain.ReportTypeSummary, false},
		{"free detailed not in tier", "free", 0, domain.ReportTypeDetailed, false},
		{"starter detailed not in tier", "starter", 0, domain.ReportTypeDetailed, false},
		{"pro detailed allowed", "pro", 0, domain.ReportTypeDetailed, true},
		{"agency under limit", "agency", 99, domain.ReportTypeDetailed, true},
		{"agency at limit", "agency", 100, domain.ReportTypeSummary, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := domain.PlanFor(tc.tier)
			require.NoError(t, err)
			require.Equal(t, tc.want, plan.CanGenerateReport(tc.used, tc.reportType))
		})
	}
}

func TestPlanCanAddPage(t *testing.T) {
	free, err := domain.PlanFor("free")
	require.NoError(t, err)
	require.True(t, free.CanAddPage(9))
	require.False(t, free.CanAddPage(10))
}

func TestPlanMeetsMinimumTier(t *testing.T) {
	tiers := domain.Tiers()
	for i, tier := range tiers {
		plan, err := domain.PlanFor(string(tier))
		require.NoError(t, err)
		for j, required := range tiers {
			require.Equal(t, i >= j, plan.MeetsMinimumTier(required),
				"%s meets minimum %s", tier, required)
		}
	}
}
