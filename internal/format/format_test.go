package format

import (
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.000"},
		{513, "513"},
		{1234567, "1.234.567"},
	}

	for _, tt := range tests {
		if got := Int(tt.in); got != tt.want {
			t.Errorf("Int(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecimalAndPercent(t *testing.T) {
	if got := Decimal(12.345, 2); got != "12,35" && got != "12,34" {
		t.Errorf("Decimal(12.345, 2) = %q", got)
	}
	if got := Percent(36.5); got != "36,5%" {
		t.Errorf("Percent(36.5) = %q, want %q", got, "36,5%")
	}
	if got := Percent(0); got != "0,0%" {
		t.Errorf("Percent(0) = %q, want %q", got, "0,0%")
	}
}

func TestTimestamp(t *testing.T) {
	if got := Timestamp(time.Time{}); got != "-" {
		t.Errorf("Timestamp(zero) = %q, want %q", got, "-")
	}

	ts := time.Date(2024, time.March, 5, 9, 7, 0, 0, time.Local)
	if got := Timestamp(ts); got != "05/03/2024 às 09:07" {
		t.Errorf("Timestamp() = %q, want %q", got, "05/03/2024 às 09:07")
	}
}
