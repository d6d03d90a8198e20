package domain

import (
	"encoding/json"
	"math"
)

// Grade is a coarse A-F bucketing of a 0-100 score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// detailPerformanceScore is the key under which the scoring pipeline may
// stash a performance score in a row's detail map.
const detailPerformanceScore = "performanceScore"

// PageScoreRow carries the per-page numeric scores produced by the scoring
// pipeline. Each category is nullable: a page that could not be evaluated for
// one category still contributes to the others. Details is an opaque map that
// may carry extra signals, notably a performance score.
type PageScoreRow struct {
	// PageID identifies the scored page.
	PageID PageID
	// URL is the page address, kept for display.
	URL string
	// OverallScore is the page's combined 0-100 score, if computed.
	OverallScore *float64
	// TechnicalScore covers markup and crawlability signals.
	TechnicalScore *float64
	// ContentScore covers on-page content quality signals.
	ContentScore *float64
	// AIReadinessScore covers machine-readability for AI agents.
	AIReadinessScore *float64
	// Details is an opaque bag of additional signals.
	Details map[string]any
}

// ScoreSummary is the displayable aggregate over a set of page score rows.
// It is derived on demand and never persisted.
type ScoreSummary struct {
	// OverallScore is the rounded average of the per-page overall scores.
	OverallScore int `json:"overallScore"`
	// LetterGrade buckets OverallScore into A-F.
	LetterGrade Grade `json:"letterGrade"`
	// TechnicalScore is the rounded average of the technical category.
	TechnicalScore int `json:"technicalScore"`
	// ContentScore is the rounded average of the content category.
	ContentScore int `json:"contentScore"`
	// AIReadinessScore is the rounded average of the AI readiness category.
	AIReadinessScore int `json:"aiReadinessScore"`
	// PerformanceScore is the rounded average of the performance scores found
	// in the rows' detail maps.
	PerformanceScore int `json:"performanceScore"`
	// PageCount is the number of rows the summary was derived from.
	PageCount int `json:"pageCount"`
}

// LetterGrade buckets a 0-100 score into a Grade. Boundaries are inclusive on
// the lower bound of each band: 90 is an A, 80 a B, and so on.
func LetterGrade(score int) Grade {
	switch {
	case score >= 90:
		return GradeA
	case score >= 80:
		return GradeB
	case score >= 70:
		return GradeC
	case score >= 60:
		return GradeD
	default:
		return GradeF
	}
}

// AverageScores averages the present values, rounding half up to the nearest
// integer. An empty or all-absent input yields 0: that is the deliberate
// "no data yet" default, not an error.
func AverageScores(values []*float64) int {
	var sum float64
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return 0
	}

	return int(math.Floor(sum/float64(n) + 0.5))
}

// AggregatePageScores derives a ScoreSummary from raw per-page rows. Each
// category is averaged independently: a page missing one category still
// counts toward the categories it does have. The performance score is pulled
// out of each row's detail map and treated as absent when the key is missing
// or the value is not numeric.
func AggregatePageScores(rows []PageScoreRow) ScoreSummary {
	overall := make([]*float64, 0, len(rows))
	technical := make([]*float64, 0, len(rows))
	content := make([]*float64, 0, len(rows))
	aiReadiness := make([]*float64, 0, len(rows))
	performance := make([]*float64, 0, len(rows))

	for _, row := range rows {
		overall = append(overall, row.OverallScore)
		technical = append(technical, row.TechnicalScore)
		content = append(content, row.ContentScore)
		aiReadiness = append(aiReadiness, row.AIReadinessScore)
		performance = append(performance, detailNumber(row.Details, detailPerformanceScore))
	}

	avgOverall := AverageScores(overall)

	return ScoreSummary{
		OverallScore:     avgOverall,
		LetterGrade:      LetterGrade(avgOverall),
		TechnicalScore:   AverageScores(technical),
		ContentScore:     AverageScores(content),
		AIReadinessScore: AverageScores(aiReadiness),
		PerformanceScore: AverageScores(performance),
		PageCount:        len(rows),
	}
}

// detailNumber extracts a numeric value from an opaque detail map. Detail
// maps that went through JSON carry float64 or json.Number; maps built in
// process may carry plain ints.
func detailNumber(details map[string]any, key string) *float64 {
	raw, ok := details[key]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)

		return &f
	case int:
		f := float64(v)

		return &f
	case int64:
		f := float64(v)

		return &f
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return &f
		}

		return nil
	default:
		return nil
	}
}
