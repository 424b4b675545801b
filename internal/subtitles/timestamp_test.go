package subtitles

import (
	"math"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{3661.234, "01:01:01,234"},
		{59.9996, "00:01:00,000"},
		{3599.9995, "01:00:00,000"},
		{1.5, "00:00:01,500"},
		{-4, "00:00:00,000"},
		{36000, "10:00:00,000"},
		{math.NaN(), "00:00:00,000"},
		{math.Inf(1), "00:00:00,000"},
		{math.Inf(-1), "00:00:00,000"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("01:01:01,234")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if diff := got - 3661.234; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("ParseTimestamp = %v, want 3661.234", got)
	}
	if _, err := ParseTimestamp("00:00:01.500"); err != nil {
		t.Fatalf("period separator rejected: %v", err)
	}
	for _, bad := range []string{"", "1:2", "00:61:00,000", "aa:00:00,000", "00:00:00"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Errorf("ParseTimestamp(%q) expected error", bad)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, s := range []float64{0, 0.001, 12.345, 5025.5} {
		got, err := ParseTimestamp(FormatTimestamp(s))
		if err != nil {
			t.Fatalf("round trip %v: %v", s, err)
		}
		if diff := got - s; diff > 0.0005 || diff < -0.0005 {
			t.Errorf("round trip %v = %v", s, got)
		}
	}
}
