package pipeline

import (
	"strings"
	"testing"

	"sellerpulse/internal/dates"
	"sellerpulse/internal/perception"
)

func TestValidateExtraction(t *testing.T) {
	tests := []struct {
		name          string
		ext           perception.Extraction
		wantViolation string // substring of an expected violation, "" for valid
	}{
		{
			name: "minimal valid",
			ext: perception.Extraction{
				DateStartLabel: dates.LabelDefault,
				DateEndLabel:   dates.LabelDefault,
				Category:       "metrics_query",
			},
		},
		{
			name: "valid compare with custom days",
			ext: perception.Extraction{
				DateStartLabel:        dates.LabelPastDays,
				DateEndLabel:          dates.LabelPastDays,
				CustomDaysCount:       9,
				CompareDateStartLabel: dates.LabelPast30Days,
				CompareDateEndLabel:   dates.LabelPast30Days,
				Category:              "compare_query",
			},
		},
		{
			name:          "missing labels",
			ext:           perception.Extraction{Category: "metrics_query"},
			wantViolation: "date_start_label: missing",
		},
		{
			name: "unknown label",
			ext: perception.Extraction{
				DateStartLabel: "next_week",
				DateEndLabel:   dates.LabelDefault,
			},
			wantViolation: `unknown label "next_week"`,
		},
		{
			name: "explicit label without value",
			ext: perception.Extraction{
				DateStartLabel:  dates.LabelExplicitDate,
				DateEndLabel:    dates.LabelExplicitDate,
				ExplicitDateEnd: "2025-10-15",
			},
			wantViolation: "explicit start date is missing",
		},
		{
			name: "explicit value not ISO",
			ext: perception.Extraction{
				DateStartLabel:    dates.LabelExplicitDate,
				DateEndLabel:      dates.LabelExplicitDate,
				ExplicitDateStart: "Oct 15",
				ExplicitDateEnd:   "2025-10-15",
			},
			wantViolation: "not a valid YYYY-MM-DD date",
		},
		{
			name: "explicit start value without explicit label",
			ext: perception.Extraction{
				DateStartLabel:    dates.LabelToday,
				DateEndLabel:      dates.LabelToday,
				ExplicitDateStart: "2025-10-15",
			},
			wantViolation: "explicit start date given but date_start_label",
		},
		{
			name: "explicit end value without explicit label",
			ext: perception.Extraction{
				DateStartLabel:  dates.LabelToday,
				DateEndLabel:    dates.LabelToday,
				ExplicitDateEnd: "2025-10-15",
			},
			wantViolation: "explicit end date given but date_end_label",
		},
		{
			name: "compare start label without compare end label",
			ext: perception.Extraction{
				DateStartLabel:        dates.LabelPast7Days,
				DateEndLabel:          dates.LabelPast7Days,
				CompareDateStartLabel: dates.LabelPast30Days,
				Category:              "compare_query",
			},
			wantViolation: "must both be present",
		},
		{
			name: "past_days without count",
			ext: perception.Extraction{
				DateStartLabel: dates.LabelPastDays,
				DateEndLabel:   dates.LabelPastDays,
			},
			wantViolation: "custom day count is missing",
		},
		{
			name: "count duplicating predefined label",
			ext: perception.Extraction{
				DateStartLabel:  dates.LabelPastDays,
				DateEndLabel:    dates.LabelPastDays,
				CustomDaysCount: 30,
			},
			wantViolation: `predefined label "past_30_days"`,
		},
		{
			name: "count without past_days",
			ext: perception.Extraction{
				DateStartLabel:  dates.LabelToday,
				DateEndLabel:    dates.LabelToday,
				CustomDaysCount: 9,
			},
			wantViolation: "neither label is past_days",
		},
		{
			name: "unknown category",
			ext: perception.Extraction{
				DateStartLabel: dates.LabelDefault,
				DateEndLabel:   dates.LabelDefault,
				Category:       "weather_query",
			},
			wantViolation: "category: unknown value",
		},
		{
			name: "compare category without compare labels",
			ext: perception.Extraction{
				DateStartLabel: dates.LabelDefault,
				DateEndLabel:   dates.LabelDefault,
				Category:       "compare_query",
			},
			wantViolation: "no compare labels were extracted",
		},
		{
			name: "compare labels with metrics category",
			ext: perception.Extraction{
				DateStartLabel:        dates.LabelPast7Days,
				DateEndLabel:          dates.LabelPast7Days,
				CompareDateStartLabel: dates.LabelPast30Days,
				CompareDateEndLabel:   dates.LabelPast30Days,
				Category:              "metrics_query",
			},
			wantViolation: "use compare_query",
		},
		{
			name: "malformed asin is not a violation",
			ext: perception.Extraction{
				DateStartLabel: dates.LabelDefault,
				DateEndLabel:   dates.LabelDefault,
				ASIN:           "short1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := validateExtraction(&tt.ext)
			if tt.wantViolation == "" {
				if len(violations) != 0 {
					t.Errorf("unexpected violations: %v", violations)
				}
				return
			}
			joined := strings.Join(violations, "\n")
			if !strings.Contains(joined, tt.wantViolation) {
				t.Errorf("violations %v missing %q", violations, tt.wantViolation)
			}
		})
	}
}
