package perception

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"sellerpulse/internal/dates"
)

// mockClient returns canned responses and records prompts.
type mockClient struct {
	responses []string
	err       error
	calls     int
	prompts   []string
	systems   []string
}

func (m *mockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

func (m *mockClient) CompleteWithSystem(_ context.Context, system, prompt string) (string, error) {
	m.systems = append(m.systems, system)
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	idx := m.calls
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.calls++
	return m.responses[idx], nil
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "plain object",
			response: `{"date_start_label": "today"}`,
			want:     `{"date_start_label": "today"}`,
		},
		{
			name:     "markdown fenced",
			response: "```json\n{\"asin\": \"B0B5HN65QQ\"}\n```",
			want:     `{"asin": "B0B5HN65QQ"}`,
		},
		{
			name:     "surrounding prose",
			response: `Here is the extraction: {"category": "other"} hope that helps`,
			want:     `{"category": "other"}`,
		},
		{
			name:     "nested object",
			response: `{"a": {"b": 1}, "c": 2}`,
			want:     `{"a": {"b": 1}, "c": 2}`,
		},
		{
			name:     "brace inside string",
			response: `{"note": "a { brace", "x": 1}`,
			want:     `{"note": "a { brace", "x": 1}`,
		},
		{
			name:     "no JSON",
			response: "I cannot answer that.",
			want:     "",
		},
		{
			name:     "unbalanced",
			response: `{"a": 1`,
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractJSON(tt.response)
			if got != tt.want {
				t.Errorf("extractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLLMExtractorParsesResponse(t *testing.T) {
	client := &mockClient{responses: []string{`{
		"date_start_label": "past_days",
		"date_end_label": "past_days",
		"compare_date_start_label": "past_30_days",
		"compare_date_end_label": "past_30_days",
		"custom_days_count": 9,
		"asin": "B0B5HN65QQ",
		"category": "compare_query"
	}`}}
	ext := NewLLMExtractor(client)

	got, err := ext.Extract(context.Background(), Request{
		Question:      "Compare past 9 days vs past 30 days for ASIN B0B5HN65QQ",
		ReferenceDate: time.Date(2025, 12, 22, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.DateStartLabel != dates.LabelPastDays {
		t.Errorf("DateStartLabel = %q", got.DateStartLabel)
	}
	if got.CustomDaysCount != 9 {
		t.Errorf("CustomDaysCount = %d, want 9", got.CustomDaysCount)
	}
	if got.CompareDateStartLabel != dates.LabelPast30Days {
		t.Errorf("CompareDateStartLabel = %q", got.CompareDateStartLabel)
	}
	if got.ASIN != "B0B5HN65QQ" {
		t.Errorf("ASIN = %q", got.ASIN)
	}
	if got.Category != "compare_query" {
		t.Errorf("Category = %q", got.Category)
	}
}

func TestLLMExtractorPromptContents(t *testing.T) {
	client := &mockClient{responses: []string{`{"date_start_label":"default","date_end_label":"default"}`}}
	ext := NewLLMExtractor(client)

	_, err := ext.Extract(context.Background(), Request{
		Question:      "How are my sales?",
		ReferenceDate: time.Date(2025, 12, 22, 0, 0, 0, 0, time.UTC),
		History: []Turn{
			{Role: "user", Content: "Show revenue for October"},
			{Role: "assistant", Content: "Revenue for October was $12,340."},
		},
		Feedback: "date_start_label: unknown label 'next_week'",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	prompt := client.prompts[0]
	for _, want := range []string{
		"Today's date is 2025-12-22",
		"Show revenue for October",
		"PREVIOUS ATTEMPT WAS INVALID",
		"next_week",
		`"How are my sales?"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\nprompt:\n%s", want, prompt)
		}
	}
	if !strings.Contains(client.systems[0], "past_days") {
		t.Error("system prompt does not describe the label set")
	}
}

func TestLLMExtractorErrors(t *testing.T) {
	tests := []struct {
		name   string
		client *mockClient
	}{
		{"transport error", &mockClient{err: fmt.Errorf("boom")}},
		{"no JSON in response", &mockClient{responses: []string{"sorry, no"}}},
		{"malformed JSON", &mockClient{responses: []string{`{"custom_days_count": "nine"}`}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := NewLLMExtractor(tt.client)
			_, err := ext.Extract(context.Background(), Request{Question: "q", ReferenceDate: time.Now()})
			if err == nil {
				t.Fatal("Extract() expected error")
			}
		})
	}
}

func TestHeuristicExtractor(t *testing.T) {
	ref := time.Date(2025, 12, 22, 0, 0, 0, 0, time.UTC)
	h := NewHeuristicExtractor()

	tests := []struct {
		name        string
		question    string
		wantLabel   dates.Label
		wantCustom  int
		wantCat     string
		wantASIN    string
		wantCompare dates.Label
	}{
		{
			name:      "no dates",
			question:  "How is my store doing?",
			wantLabel: dates.LabelDefault,
			wantCat:   "metrics_query",
		},
		{
			name:      "predefined past days",
			question:  "Show sales for the past 30 days",
			wantLabel: dates.LabelPast30Days,
			wantCat:   "metrics_query",
		},
		{
			name:       "custom past days",
			question:   "Show sales for the past 9 days",
			wantLabel:  dates.LabelPastDays,
			wantCustom: 9,
			wantCat:    "metrics_query",
		},
		{
			name:      "relative phrase",
			question:  "What was revenue last week?",
			wantLabel: dates.LabelLastWeek,
			wantCat:   "metrics_query",
		},
		{
			name:      "named month",
			question:  "How did september go?",
			wantLabel: dates.LabelSeptember,
			wantCat:   "metrics_query",
		},
		{
			name:        "compare two windows",
			question:    "Compare past 9 days vs past 30 days",
			wantLabel:   dates.LabelPastDays,
			wantCustom:  9,
			wantCat:     "compare_query",
			wantCompare: dates.LabelPast30Days,
		},
		{
			name:      "compare verb with single window stays metrics",
			question:  "How does this week compare?",
			wantLabel: dates.LabelThisWeek,
			wantCat:   "metrics_query",
		},
		{
			name:        "compare reversed in text",
			question:    "past 30 days versus past 7 days, which was better?",
			wantLabel:   dates.LabelPast7Days,
			wantCat:     "compare_query",
			wantCompare: dates.LabelPast30Days,
		},
		{
			name:      "asin question",
			question:  "How is B0B5HN65QQ selling this month?",
			wantLabel: dates.LabelThisMonth,
			wantCat:   "asin_product",
			wantASIN:  "B0B5HN65QQ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Extract(context.Background(), Request{Question: tt.question, ReferenceDate: ref})
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got.DateStartLabel != tt.wantLabel {
				t.Errorf("DateStartLabel = %q, want %q", got.DateStartLabel, tt.wantLabel)
			}
			if got.DateEndLabel != tt.wantLabel {
				t.Errorf("DateEndLabel = %q, want %q", got.DateEndLabel, tt.wantLabel)
			}
			if got.CustomDaysCount != tt.wantCustom {
				t.Errorf("CustomDaysCount = %d, want %d", got.CustomDaysCount, tt.wantCustom)
			}
			if got.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", got.Category, tt.wantCat)
			}
			if got.ASIN != tt.wantASIN {
				t.Errorf("ASIN = %q, want %q", got.ASIN, tt.wantASIN)
			}
			if got.CompareDateStartLabel != tt.wantCompare {
				t.Errorf("CompareDateStartLabel = %q, want %q", got.CompareDateStartLabel, tt.wantCompare)
			}
		})
	}
}
