// Package perception turns free-text seller questions into structured
// extraction candidates: semantic date labels, an optional ASIN, and a
// provisional question category. The extractor is deliberately treated as
// unreliable; validation and retries live in the pipeline package.
package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sellerpulse/internal/dates"
	"sellerpulse/internal/logging"
)

// Extraction is the extractor's best-effort structured guess. It is NOT
// trusted: any field may be inconsistent until the pipeline validates it.
type Extraction struct {
	DateStartLabel dates.Label `json:"date_start_label"`
	DateEndLabel   dates.Label `json:"date_end_label"`

	CompareDateStartLabel dates.Label `json:"compare_date_start_label,omitempty"`
	CompareDateEndLabel   dates.Label `json:"compare_date_end_label,omitempty"`

	ExplicitDateStart    string `json:"explicit_date_start,omitempty"`
	ExplicitDateEnd      string `json:"explicit_date_end,omitempty"`
	ExplicitCompareStart string `json:"explicit_compare_start,omitempty"`
	ExplicitCompareEnd   string `json:"explicit_compare_end,omitempty"`

	CustomDaysCount        int `json:"custom_days_count,omitempty"`
	CustomCompareDaysCount int `json:"custom_compare_days_count,omitempty"`

	ASIN string `json:"asin,omitempty"`

	// Category is a provisional routing guess: metrics_query,
	// compare_query, asin_product, or other.
	Category string `json:"category,omitempty"`
}

// Turn is a single conversation turn handed to the extractor as context.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request carries one extraction attempt's inputs.
type Request struct {
	Question      string
	ReferenceDate time.Time
	History       []Turn
	// Feedback describes the previous attempt's defects. Empty on the
	// first attempt.
	Feedback string
}

// Extractor is the perception capability the pipeline retries around.
// Implementations are fallible and non-deterministic by contract.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*Extraction, error)
}

// LLMExtractor implements Extractor on top of an LLMClient.
type LLMExtractor struct {
	client LLMClient
	logger *zap.Logger
}

// NewLLMExtractor creates an extractor backed by the given client.
func NewLLMExtractor(client LLMClient) *LLMExtractor {
	return &LLMExtractor{
		client: client,
		logger: logging.For(logging.ComponentPerception),
	}
}

const extractorSystemPrompt = `You are a label extractor for an e-commerce analytics chatbot.
Analyze the seller's question and return ONLY a JSON object, no prose.

## Available date labels

### Relative
today, yesterday, this_week, last_week, this_month, mtd, last_month, this_year, last_year, ytd

### Past X days (predefined counts)
past_7_days, past_14_days, past_30_days, past_60_days, past_90_days, past_180_days

### Past X days (custom counts)
past_days - ONLY for non-standard counts. Requires custom_days_count.
Example: "past 9 days" -> "past_days" with custom_days_count=9.
NEVER use past_days for 7/14/30/60/90/180; use the predefined label.

### Months and quarters
january ... december, q1, q2, q3, q4

### Special
explicit_date - the user gave a specific date ("October 15", "2025-10-15").
  Requires explicit_date_start/explicit_date_end in YYYY-MM-DD.
default - no date reference in the question.

## Rules
1. Always fill date_start_label and date_end_label. Use "default" for both
   when the question mentions no dates.
2. Comparison questions ("X vs Y", "compare ...") additionally fill
   compare_date_start_label/compare_date_end_label. Put the MORE RECENT
   period in the primary pair and the earlier one in the compare pair.
   Custom counts go in custom_days_count (primary) and
   custom_compare_days_count (comparison).
3. If the question names a product by its 10-character alphanumeric ASIN,
   put it in "asin". Otherwise omit the field.
4. Classify the question in "category": one of
   metrics_query (store-level metric question),
   compare_query (two periods compared),
   asin_product (about one specific product),
   other (not an analytics question).

## Output schema
{
  "date_start_label": "...",
  "date_end_label": "...",
  "compare_date_start_label": "...",   // optional
  "compare_date_end_label": "...",     // optional
  "explicit_date_start": "YYYY-MM-DD", // only with explicit_date
  "explicit_date_end": "YYYY-MM-DD",
  "explicit_compare_start": "YYYY-MM-DD",
  "explicit_compare_end": "YYYY-MM-DD",
  "custom_days_count": 0,              // only with past_days
  "custom_compare_days_count": 0,
  "asin": "B0XXXXXXXX",                // optional
  "category": "metrics_query"
}`

// Extract runs one LLM extraction attempt.
func (e *LLMExtractor) Extract(ctx context.Context, req Request) (*Extraction, error) {
	userPrompt := e.buildPrompt(req)

	resp, err := e.client.CompleteWithSystem(ctx, extractorSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("extractor completion failed: %w", err)
	}

	jsonStr := extractJSON(resp)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON object found in extractor response")
	}

	var extraction Extraction
	if err := json.Unmarshal([]byte(jsonStr), &extraction); err != nil {
		return nil, fmt.Errorf("failed to parse extractor JSON: %w", err)
	}

	e.logger.Debug("extraction attempt",
		zap.String("date_start_label", string(extraction.DateStartLabel)),
		zap.String("date_end_label", string(extraction.DateEndLabel)),
		zap.String("category", extraction.Category),
		zap.String("asin", extraction.ASIN))

	return &extraction, nil
}

// buildPrompt assembles the user prompt with history, reference date, and
// retry feedback.
func (e *LLMExtractor) buildPrompt(req Request) string {
	var sb strings.Builder

	if len(req.History) > 0 {
		sb.WriteString("## Recent conversation\n")
		sb.WriteString("Use this context to resolve follow-up references.\n\n")
		for _, turn := range req.History {
			content := turn.Content
			if turn.Role != "user" && len(content) > 400 {
				content = content[:400] + "... (truncated)"
			}
			fmt.Fprintf(&sb, "%s: %s\n", turn.Role, content)
		}
		sb.WriteString("\n---\n\n")
	}

	fmt.Fprintf(&sb, "Today's date is %s.\n\n", req.ReferenceDate.Format(dates.ISODate))

	if req.Feedback != "" {
		sb.WriteString("PREVIOUS ATTEMPT WAS INVALID:\n")
		sb.WriteString(req.Feedback)
		sb.WriteString("\nCorrect these problems and try again.\n\n")
	}

	fmt.Fprintf(&sb, "Question: %q", req.Question)
	return sb.String()
}

// extractJSON finds the first balanced JSON object in a response,
// tolerating markdown fences and surrounding prose.
func extractJSON(response string) string {
	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		ch := response[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return ""
}
