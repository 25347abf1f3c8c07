package dates

import "time"

// Label is a symbolic date-range descriptor extracted from a question.
// Labels carry no absolute dates; the Calendar turns them into concrete
// ISO ranges relative to a reference date.
type Label string

const (
	// Relative ranges
	LabelToday     Label = "today"
	LabelYesterday Label = "yesterday"
	LabelThisWeek  Label = "this_week"
	LabelLastWeek  Label = "last_week"
	LabelThisMonth Label = "this_month"
	LabelMTD       Label = "mtd"
	LabelLastMonth Label = "last_month"
	LabelThisYear  Label = "this_year"
	LabelLastYear  Label = "last_year"
	LabelYTD       Label = "ytd"

	// Past X days, predefined counts
	LabelPast7Days   Label = "past_7_days"
	LabelPast14Days  Label = "past_14_days"
	LabelPast30Days  Label = "past_30_days"
	LabelPast60Days  Label = "past_60_days"
	LabelPast90Days  Label = "past_90_days"
	LabelPast180Days Label = "past_180_days"

	// Past X days, custom count (requires CustomDaysCount)
	LabelPastDays Label = "past_days"

	// Named months
	LabelJanuary   Label = "january"
	LabelFebruary  Label = "february"
	LabelMarch     Label = "march"
	LabelApril     Label = "april"
	LabelMay       Label = "may"
	LabelJune      Label = "june"
	LabelJuly      Label = "july"
	LabelAugust    Label = "august"
	LabelSeptember Label = "september"
	LabelOctober   Label = "october"
	LabelNovember  Label = "november"
	LabelDecember  Label = "december"

	// Quarters
	LabelQ1 Label = "q1"
	LabelQ2 Label = "q2"
	LabelQ3 Label = "q3"
	LabelQ4 Label = "q4"

	// Special cases
	LabelExplicitDate Label = "explicit_date" // requires an explicit ISO date value
	LabelDefault      Label = "default"       // no date reference found in text
)

// pastDayCounts maps the predefined past_N_days labels to their counts.
var pastDayCounts = map[Label]int{
	LabelPast7Days:   7,
	LabelPast14Days:  14,
	LabelPast30Days:  30,
	LabelPast60Days:  60,
	LabelPast90Days:  90,
	LabelPast180Days: 180,
}

// monthLabels maps named-month labels to calendar months.
var monthLabels = map[Label]time.Month{
	LabelJanuary:   time.January,
	LabelFebruary:  time.February,
	LabelMarch:     time.March,
	LabelApril:     time.April,
	LabelMay:       time.May,
	LabelJune:      time.June,
	LabelJuly:      time.July,
	LabelAugust:    time.August,
	LabelSeptember: time.September,
	LabelOctober:   time.October,
	LabelNovember:  time.November,
	LabelDecember:  time.December,
}

// quarterStarts maps quarter labels to the first month of the quarter.
var quarterStarts = map[Label]time.Month{
	LabelQ1: time.January,
	LabelQ2: time.April,
	LabelQ3: time.July,
	LabelQ4: time.October,
}

// All returns every valid label. Useful for prompt construction and
// validation messages.
func All() []Label {
	labels := []Label{
		LabelToday, LabelYesterday, LabelThisWeek, LabelLastWeek,
		LabelThisMonth, LabelMTD, LabelLastMonth, LabelThisYear, LabelLastYear, LabelYTD,
		LabelPast7Days, LabelPast14Days, LabelPast30Days, LabelPast60Days, LabelPast90Days, LabelPast180Days,
		LabelPastDays,
		LabelJanuary, LabelFebruary, LabelMarch, LabelApril, LabelMay, LabelJune,
		LabelJuly, LabelAugust, LabelSeptember, LabelOctober, LabelNovember, LabelDecember,
		LabelQ1, LabelQ2, LabelQ3, LabelQ4,
		LabelExplicitDate, LabelDefault,
	}
	return labels
}

var validLabels = func() map[Label]bool {
	m := make(map[Label]bool, len(All()))
	for _, l := range All() {
		m[l] = true
	}
	return m
}()

// Valid reports whether l is a recognized label.
func (l Label) Valid() bool {
	return validLabels[l]
}

// IsExplicit reports whether l requires an explicit date value.
func (l Label) IsExplicit() bool {
	return l == LabelExplicitDate
}

// IsCustomPastDays reports whether l requires a custom day count.
func (l Label) IsCustomPastDays() bool {
	return l == LabelPastDays
}

// IsMonth reports whether l names a calendar month.
func (l Label) IsMonth() bool {
	_, ok := monthLabels[l]
	return ok
}

// IsQuarter reports whether l names a calendar quarter.
func (l Label) IsQuarter() bool {
	_, ok := quarterStarts[l]
	return ok
}

// PastDayCount returns the day count for a predefined past_N_days label.
func (l Label) PastDayCount() (int, bool) {
	n, ok := pastDayCounts[l]
	return n, ok
}
