package asin

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		want      string
		wantOK    bool
	}{
		{name: "valid uppercase", candidate: "B0B5HN65QQ", want: "B0B5HN65QQ", wantOK: true},
		{name: "lowercase is normalized", candidate: "b08xyz1234", want: "B08XYZ1234", wantOK: true},
		{name: "surrounding whitespace", candidate: "  B0B5HN65QQ ", want: "B0B5HN65QQ", wantOK: true},
		{name: "too short", candidate: "short1"},
		{name: "too long", candidate: "B0B5HN65QQX"},
		{name: "empty", candidate: ""},
		{name: "punctuation", candidate: "B0B5-N65QQ"},
		{name: "internal space", candidate: "B0B5 N65QQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.candidate)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Normalize(%q) = (%q, %v), want (%q, %v)", tt.candidate, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFromText(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{name: "embedded in question", text: "Compare past 9 days vs past 30 days for ASIN B0B5HN65QQ", want: "B0B5HN65QQ", wantOK: true},
		{name: "lowercase in text", text: "how is b08xyz1234 doing", want: "B08XYZ1234", wantOK: true},
		{name: "prefers B-prefixed candidate", text: "order 1234567890 for B0B5HN65QQ", want: "B0B5HN65QQ", wantOK: true},
		{name: "no identifier", text: "what are my total sales"},
		{name: "nine characters is not enough", text: "check B12345678 please"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromText(tt.text)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("FromText(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
