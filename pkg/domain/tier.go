package domain

import "sitescope/pkg/serrors"

// Tier is a subscription plan level. Tiers are totally ordered:
// free < starter < pro < agency. Every numeric limit in the catalog is
// non-decreasing as the tier rank increases.
type Tier string

const (
	// TierFree is the entry tier every account starts on.
	TierFree Tier = "free"
	// TierStarter is the first paid tier.
	TierStarter Tier = "starter"
	// TierPro is the mid paid tier; the first to unlock detailed reports.
	TierPro Tier = "pro"
	// TierAgency is the top tier.
	TierAgency Tier = "agency"
)

// ReportType identifies the kind of report a customer may generate.
type ReportType string

const (
	// ReportTypeSummary is a one-page overview. Available on every tier.
	ReportTypeSummary ReportType = "summary"
	// ReportTypeDetailed includes per-page breakdowns. Pro and above.
	ReportTypeDetailed ReportType = "detailed"
)

// TierLimits holds the quantitative limits of a single tier.
type TierLimits struct {
	// MaxProjects is the number of projects an owner may have at once.
	MaxProjects int
	// MaxPagesPerCrawl caps how many pages a single crawl may ingest.
	MaxPagesPerCrawl int
	// MaxVisibilityChecksPerPeriod caps visibility checks per billing period.
	MaxVisibilityChecksPerPeriod int
	// MaxReportsPerMonth caps generated reports per calendar month.
	MaxReportsPerMonth int
	// AllowedReportTypes is the set of report types the tier may generate.
	AllowedReportTypes []ReportType
}

// tierCatalog is the static table of plan tiers. The free and agency rows are
// fixed by product contract; starter and pro sit strictly between them on
// every attribute and stay monotone with tier rank.
var tierCatalog = map[Tier]TierLimits{
	TierFree: {
		MaxProjects:                  1,
		MaxPagesPerCrawl:             10,
		MaxVisibilityChecksPerPeriod: 3,
		MaxReportsPerMonth:           1,
		AllowedReportTypes:           []ReportType{ReportTypeSummary},
	},
	TierStarter: {
		MaxProjects:                  3,
		MaxPagesPerCrawl:             100,
		MaxVisibilityChecksPerPeriod: 10,
		MaxReportsPerMonth:           5,
		AllowedReportTypes:           []ReportType{ReportTypeSummary},
	},
	TierPro: {
		MaxProjects:                  10,
		MaxPagesPerCrawl:             500,
		MaxVisibilityChecksPerPeriod: 50,
		MaxReportsPerMonth:           20,
		AllowedReportTypes:           []ReportType{ReportTypeSummary, ReportTypeDetailed},
	},
	TierAgency: {
		MaxProjects:                  50,
		MaxPagesPerCrawl:             2000,
		MaxVisibilityChecksPerPeriod: 200,
		MaxReportsPerMonth:           100,
		AllowedReportTypes:           []ReportType{ReportTypeSummary, ReportTypeDetailed},
	},
}

// tierRanks defines the total order of tiers.
var tierRanks = map[Tier]int{
	TierFree:    0,
	TierStarter: 1,
	TierPro:     2,
	TierAgency:  3,
}

// Tiers returns all known tiers in ascending rank order.
func Tiers() []Tier {
	return []Tier{TierFree, TierStarter, TierPro, TierAgency}
}

// ParseTier validates a raw tier string against the catalog. An unrecognized
// string fails with ErrUnknownTier.
func ParseTier(raw string) (Tier, error) {
	t := Tier(raw)
	if _, ok := tierCatalog[t]; !ok {
		return "", serrors.With(ErrUnknownTier, "unknown tier %q", raw)
	}

	return t, nil
}

// rank returns the position of the tier in the total order. Unknown tiers
// rank below free; they cannot occur on a Tier obtained via PlanFor/ParseTier.
func (t Tier) rank() int {
	if r, ok := tierRanks[t]; ok {
		return r
	}

	return -1
}
