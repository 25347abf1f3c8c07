package pipeline

import (
	"fmt"
	"strings"
	"time"

	"sellerpulse/internal/dates"
	"sellerpulse/internal/perception"
)

// validateExtraction scores one extraction attempt for internal
// consistency and returns the list of violations. An empty list means the
// attempt is structurally valid.
//
// Identifier format is deliberately NOT checked here: a malformed ASIN is
// dropped silently by the normalizer, never retried.
func validateExtraction(ext *perception.Extraction) []string {
	var violations []string

	violations = append(violations, validateLabelPair(
		"date_start_label", ext.DateStartLabel,
		"date_end_label", ext.DateEndLabel,
		ext.ExplicitDateStart, ext.ExplicitDateEnd,
		ext.CustomDaysCount, true)...)

	hasCompare := ext.CompareDateStartLabel != "" || ext.CompareDateEndLabel != ""
	if hasCompare {
		if ext.CompareDateStartLabel == "" || ext.CompareDateEndLabel == "" {
			violations = append(violations,
				"compare_date_start_label and compare_date_end_label must both be present or both be absent")
		}
		violations = append(violations, validateLabelPair(
			"compare_date_start_label", ext.CompareDateStartLabel,
			"compare_date_end_label", ext.CompareDateEndLabel,
			ext.ExplicitCompareStart, ext.ExplicitCompareEnd,
			ext.CustomCompareDaysCount, false)...)
	}

	switch ext.Category {
	case "", string(CategoryMetricsQuery), string(CategoryCompareQuery),
		string(CategoryASINProduct), string(CategoryOther):
	default:
		violations = append(violations,
			fmt.Sprintf("category: unknown value %q (valid: metrics_query, compare_query, asin_product, other)", ext.Category))
	}

	if ext.Category == string(CategoryCompareQuery) && !hasCompare {
		violations = append(violations,
			"category is compare_query but no compare labels were extracted")
	}
	if hasCompare && ext.Category != "" && ext.Category != string(CategoryCompareQuery) &&
		ext.Category != string(CategoryASINProduct) {
		violations = append(violations,
			fmt.Sprintf("compare labels present but category is %q; use compare_query", ext.Category))
	}

	return violations
}

// validateLabelPair checks one (start, end) label pair plus its dependent
// explicit/custom fields. The primary pair is required; the compare pair
// is validated only when present.
func validateLabelPair(startName string, start dates.Label, endName string, end dates.Label,
	explicitStart, explicitEnd string, customDays int, required bool) []string {

	var violations []string

	if required && start == "" {
		violations = append(violations, startName+": missing; use \"default\" when the question has no date reference")
	}
	if required && end == "" {
		violations = append(violations, endName+": missing; use \"default\" when the question has no date reference")
	}

	for _, lp := range []struct {
		name  string
		label dates.Label
	}{{startName, start}, {endName, end}} {
		if lp.label == "" || lp.label.Valid() {
			continue
		}
		violations = append(violations,
			fmt.Sprintf("%s: unknown label %q (valid labels: %s)", lp.name, lp.label, labelList()))
	}

	if start.IsExplicit() && explicitStart == "" {
		violations = append(violations, startName+" is explicit_date but explicit start date is missing")
	}
	if end.IsExplicit() && explicitEnd == "" {
		violations = append(violations, endName+" is explicit_date but explicit end date is missing")
	}
	for _, ev := range []struct {
		name  string
		value string
	}{{"explicit start", explicitStart}, {"explicit end", explicitEnd}} {
		if ev.value == "" {
			continue
		}
		if _, err := time.Parse(dates.ISODate, ev.value); err != nil {
			violations = append(violations,
				fmt.Sprintf("%s date %q is not a valid YYYY-MM-DD date", ev.name, ev.value))
		}
	}
	if explicitStart != "" && !start.IsExplicit() {
		violations = append(violations,
			fmt.Sprintf("explicit start date given but %s is %q, not explicit_date", startName, start))
	}
	if explicitEnd != "" && !end.IsExplicit() {
		violations = append(violations,
			fmt.Sprintf("explicit end date given but %s is %q, not explicit_date", endName, end))
	}

	if start.IsCustomPastDays() && customDays <= 0 {
		violations = append(violations,
			startName+" is past_days but custom day count is missing or not positive")
	}
	if customDays > 0 && !start.IsCustomPastDays() && !end.IsCustomPastDays() {
		violations = append(violations,
			fmt.Sprintf("custom day count %d given but neither label is past_days", customDays))
	}
	if n, ok := pastDayAlias(customDays); ok && start.IsCustomPastDays() {
		violations = append(violations,
			fmt.Sprintf("use the predefined label %q instead of past_days with count %d", n, customDays))
	}

	return violations
}

// pastDayAlias reports whether a custom count duplicates a predefined
// past_N_days label.
func pastDayAlias(count int) (dates.Label, bool) {
	for _, l := range dates.All() {
		if n, ok := l.PastDayCount(); ok && n == count {
			return l, true
		}
	}
	return "", false
}

func labelList() string {
	all := dates.All()
	names := make([]string, len(all))
	for i, l := range all {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}
