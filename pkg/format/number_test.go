package format

import "testing"

func TestAmount(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		decimals int
		want     string
	}{
		{"thousands", 1234567.891, 2, "1,234,567.89"},
		{"negative", -1234.5, 2, "-1,234.50"},
		{"no decimals", 999.5, 0, "1,000"},
		{"negative decimals", 12.4, -1, "12"},
		{"negative zero", -0.004, 2, "0.00"},
		{"small", 7, 1, "7.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Amount(tt.value, tt.decimals); got != tt.want {
				t.Errorf("Amount(%v, %d) = %q, want %q", tt.value, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(40, 1); got != "40.0%" {
		t.Errorf("Percent() = %q, want %q", got, "40.0%")
	}
	if got := Percent(-12.375, 2); got != "-12.38%" {
		t.Errorf("Percent() = %q, want %q", got, "-12.38%")
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio(5, true, 2); got != "5.00" {
		t.Errorf("Ratio() = %q", got)
	}
	if got := Ratio(0, false, 2); got != "N/A" {
		t.Errorf("Ratio() = %q, want N/A", got)
	}
	if got := PercentRatio(0, false, 1); got != "N/A" {
		t.Errorf("PercentRatio() = %q, want N/A", got)
	}
	if got := PercentRatio(22.5, true, 1); got != "22.5%" {
		t.Errorf("PercentRatio() = %q", got)
	}
}
