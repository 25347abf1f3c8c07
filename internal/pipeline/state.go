// Package pipeline resolves free-text seller questions into routed,
// date-resolved query state. It owns the short-circuit hardcoded lookup,
// the bounded extraction retry loop, date label resolution, and final
// category classification.
package pipeline

import "time"

// Category routes a resolved question to its handler.
type Category string

const (
	// CategoryMetricsQuery is a store-level metric question.
	CategoryMetricsQuery Category = "metrics_query"
	// CategoryCompareQuery compares two date ranges.
	CategoryCompareQuery Category = "compare_query"
	// CategoryASINProduct is scoped to one product identifier.
	CategoryASINProduct Category = "asin_product"
	// CategoryHardcoded means a canned-response table entry matched.
	CategoryHardcoded Category = "hardcoded"
	// CategoryOther is a recognized question outside analytics scope.
	CategoryOther Category = "other"
)

// Valid reports whether c is a known routing category.
func (c Category) Valid() bool {
	switch c {
	case CategoryMetricsQuery, CategoryCompareQuery, CategoryASINProduct,
		CategoryHardcoded, CategoryOther:
		return true
	}
	return false
}

// ResolvedState is the single record threaded through one pipeline run.
// It is created per question and never shared across requests.
type ResolvedState struct {
	// Inputs, immutable once set.
	Question      string    `json:"question"`
	ReferenceDate time.Time `json:"reference_date"`

	// Symbolic labels, set by the normalizer.
	DateStartLabel        string `json:"date_start_label,omitempty"`
	DateEndLabel          string `json:"date_end_label,omitempty"`
	CompareDateStartLabel string `json:"compare_date_start_label,omitempty"`
	CompareDateEndLabel   string `json:"compare_date_end_label,omitempty"`

	// Explicit values, present only alongside the explicit_date label.
	ExplicitDateStart    string `json:"explicit_date_start,omitempty"`
	ExplicitDateEnd      string `json:"explicit_date_end,omitempty"`
	ExplicitCompareStart string `json:"explicit_compare_start,omitempty"`
	ExplicitCompareEnd   string `json:"explicit_compare_end,omitempty"`

	// Custom day counts, present only alongside the past_days label.
	CustomDaysCount        int `json:"custom_days_count,omitempty"`
	CustomCompareDaysCount int `json:"custom_compare_days_count,omitempty"`

	// ASIN is the normalized product identifier, or empty. Once set it
	// always satisfies the identifier format.
	ASIN string `json:"asin,omitempty"`

	// Category is provisional after normalization, final after
	// classification.
	Category Category `json:"category"`

	// Resolved ISO ranges, set by date resolution.
	DateStart        string `json:"date_start,omitempty"`
	DateEnd          string `json:"date_end,omitempty"`
	CompareDateStart string `json:"compare_date_start,omitempty"`
	CompareDateEnd   string `json:"compare_date_end,omitempty"`

	// Diagnostic trail of the retry loop.
	NormalizerValid    bool   `json:"normalizer_valid"`
	NormalizerRetries  int    `json:"normalizer_retries"`
	NormalizerFeedback string `json:"normalizer_feedback,omitempty"`

	// DateOrderSwapped records that reversed explicit dates were
	// swap-corrected, a low-confidence signal for telemetry.
	DateOrderSwapped bool `json:"date_order_swapped,omitempty"`

	// Response is set only by the hardcoded short-circuit or by
	// downstream handlers.
	Response string `json:"response,omitempty"`
}

// HasCompare reports whether a second period was extracted.
func (s *ResolvedState) HasCompare() bool {
	return s.CompareDateStartLabel != "" || s.CompareDateStart != ""
}
