package perception

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"sellerpulse/internal/asin"
	"sellerpulse/internal/dates"
)

// HeuristicExtractor is a regex-based fallback that works without any LLM
// backend. It covers the common phrasings only; anything it cannot place
// falls back to default labels.
type HeuristicExtractor struct{}

// NewHeuristicExtractor returns the offline fallback extractor.
func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

var (
	pastDaysRe = regexp.MustCompile(`(?:past|last)\s+(\d+)\s+days?`)
	compareRe  = regexp.MustCompile(`\b(?:vs\.?|versus|compared?(?:\s+(?:to|with|against))?)\b`)
)

var standardPastDays = map[int]dates.Label{
	7:   dates.LabelPast7Days,
	14:  dates.LabelPast14Days,
	30:  dates.LabelPast30Days,
	60:  dates.LabelPast60Days,
	90:  dates.LabelPast90Days,
	180: dates.LabelPast180Days,
}

var relativePhrases = []struct {
	phrase string
	label  dates.Label
}{
	{"today", dates.LabelToday},
	{"yesterday", dates.LabelYesterday},
	{"this week", dates.LabelThisWeek},
	{"last week", dates.LabelLastWeek},
	{"this month", dates.LabelThisMonth},
	{"month to date", dates.LabelMTD},
	{"last month", dates.LabelLastMonth},
	{"this year", dates.LabelThisYear},
	{"year to date", dates.LabelYTD},
	{"last year", dates.LabelLastYear},
}

// Extract parses the question with pattern matching alone.
func (h *HeuristicExtractor) Extract(_ context.Context, req Request) (*Extraction, error) {
	question := strings.ToLower(req.Question)

	ext := &Extraction{
		DateStartLabel: dates.LabelDefault,
		DateEndLabel:   dates.LabelDefault,
		Category:       "metrics_query",
	}

	labels, counts := pastDayWindows(question)
	switch {
	case len(labels) > 0:
		ext.DateStartLabel = labels[0]
		ext.DateEndLabel = labels[0]
		ext.CustomDaysCount = counts[0]
	default:
		if label, ok := relativeWindow(question); ok {
			ext.DateStartLabel = label
			ext.DateEndLabel = label
		} else if label, ok := calendarWindow(question); ok {
			ext.DateStartLabel = label
			ext.DateEndLabel = label
		}
	}

	// A compare verb only counts when two distinct windows were found;
	// comparing a single window against itself answers nothing.
	if compareRe.MatchString(question) && len(labels) > 1 {
		// The larger window is the earlier period.
		primary, compare := 0, 1
		if windowSpan(labels[primary], counts[primary]) > windowSpan(labels[compare], counts[compare]) {
			primary, compare = compare, primary
		}
		ext.DateStartLabel = labels[primary]
		ext.DateEndLabel = labels[primary]
		ext.CustomDaysCount = counts[primary]
		ext.CompareDateStartLabel = labels[compare]
		ext.CompareDateEndLabel = labels[compare]
		ext.CustomCompareDaysCount = counts[compare]
		ext.Category = "compare_query"
	}

	if id, ok := asin.FromText(req.Question); ok {
		ext.ASIN = id
		ext.Category = "asin_product"
	}

	return ext, nil
}

// pastDayWindows finds every "past N days" phrase in order of appearance.
func pastDayWindows(question string) ([]dates.Label, []int) {
	var labels []dates.Label
	var counts []int
	for _, m := range pastDaysRe.FindAllStringSubmatch(question, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		if label, ok := standardPastDays[n]; ok {
			labels = append(labels, label)
			counts = append(counts, 0)
		} else {
			labels = append(labels, dates.LabelPastDays)
			counts = append(counts, n)
		}
	}
	return labels, counts
}

func relativeWindow(question string) (dates.Label, bool) {
	for _, rp := range relativePhrases {
		if strings.Contains(question, rp.phrase) {
			return rp.label, true
		}
	}
	return "", false
}

// calendarWindow matches named months and quarters.
func calendarWindow(question string) (dates.Label, bool) {
	for _, label := range dates.All() {
		if !label.IsMonth() && !label.IsQuarter() {
			continue
		}
		if strings.Contains(question, string(label)) {
			return label, true
		}
	}
	return "", false
}

// windowSpan gives the day count a past-days label covers, for ordering
// comparison periods by recency.
func windowSpan(label dates.Label, custom int) int {
	if label == dates.LabelPastDays {
		return custom
	}
	if n, ok := label.PastDayCount(); ok {
		return n
	}
	return 0
}
