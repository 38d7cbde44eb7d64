package domain

import (
	"fmt"
	"strings"
)

// DescribeMetric renders one metric as "Name: 72.5/100 (Strong)".
func DescribeMetric(name string, score float64) string {
	var grade string
	switch {
	case score >= 85:
		grade = "Excellent"
	case score >= 70:
		grade = "Strong"
	case score >= 50:
		grade = "Moderate"
	case score >= 30:
		grade = "Weak"
	default:
		grade = "Very Low"
	}
	return fmt.Sprintf("%s: %g/100 (%s)", name, score, grade)
}

// FeatureSummary renders the per-metric grades, one per line, in canonical
// metric order. The overall score is excluded; callers quote the exact
// rounded OverallCivicScore separately so prose and score never disagree.
func FeatureSummary(scores ScoreSet) string {
	lines := make([]string, 0, len(MetricNames))
	for _, name := range MetricNames {
		score, ok := scores[name]
		if !ok {
			continue
		}
		lines = append(lines, DescribeMetric(name, score))
	}
	return strings.Join(lines, "\n")
}
