package report

// Insight tiers, derived purely from the attendance percentage.
const (
	InsightExcellent = "excellent"
	InsightGood      = "good, maintain consistency"
	InsightBelow     = "below recommended, improve time management"
	InsightCritical  = "critical, contact advisor"
)

var insightNarratives = map[string]string{
	InsightExcellent: "Excellent attendance! Keep up the outstanding work.",
	InsightGood:      "Good attendance overall. Consider maintaining consistency to achieve excellence.",
	InsightBelow:     "Attendance is below recommended levels. Focus on improving time management and prioritizing classes.",
	InsightCritical:  "Critical: Attendance is significantly below acceptable levels. Please contact your academic advisor immediately.",
}

// InsightFor maps an attendance percentage to its narrative tier.
func InsightFor(pct float64) string {
	switch {
	case pct >= 90:
		return InsightExcellent
	case pct >= 75:
		return InsightGood
	case pct >= 60:
		return InsightBelow
	default:
		return InsightCritical
	}
}

// InsightNarrative returns the long-form sentence for a tier, used in the
// report email.
func InsightNarrative(tier string) string {
	return insightNarratives[tier]
}
