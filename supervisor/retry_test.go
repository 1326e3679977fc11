package supervisor

import (
	"testing"
	"time"
)

func TestRetryPolicy_Delay(t *testing.T) {
	def := DefaultRetryPolicy()

	tests := []struct {
		name    string
		policy  RetryPolicy
		attempt int
		want    time.Duration
	}{
		{"first attempt", def, 1, 500 * time.Millisecond},
		{"second attempt doubles", def, 2, 1 * time.Second},
		{"third attempt doubles again", def, 3, 2 * time.Second},
		{"fourth attempt", def, 4, 4 * time.Second},
		{"fifth attempt hits cap", def, 5, 5 * time.Second},
		{"far beyond cap stays capped", def, 50, 5 * time.Second},
		{"attempt zero clamps to first", def, 0, 500 * time.Millisecond},
		{
			"zero policy falls back to defaults",
			RetryPolicy{},
			1,
			500 * time.Millisecond,
		},
		{
			"cap below initial uses initial",
			RetryPolicy{InitialDelay: time.Second, MaxDelay: time.Millisecond, Multiplier: 2},
			3,
			time.Second,
		},
		{
			"multiplier below one falls back to default",
			RetryPolicy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 0.5},
			2,
			200 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.Delay(tt.attempt)
			if got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}
