package human_test

import (
	"testing"
	"time"

	"github.com/paraproc/paraproc/human"

	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		scenario string
		given    time.Duration
		style    human.Style
		then     string
	}{
		{"zero", 0, human.Standard, "0.000 sec"},
		{"sub second", 42 * time.Millisecond, human.Standard, "0.042 sec"},
		{"seconds only", 5500 * time.Millisecond, human.Standard, "5.500 sec"},
		{"minutes", 125*time.Second + 500*time.Millisecond, human.Standard, "2 min 5.500 sec"},
		{"hours", 3*time.Hour + 4*time.Minute + 5*time.Second, human.Standard, "3 hr 4 min 5.000 sec"},
		{"days", 26*time.Hour + 3*time.Second, human.Standard, "1 day 2 hr 0 min 3.000 sec"},
		{"short", 90 * time.Second, human.Short, "1m 30.000s"},
		{"long", 90 * time.Second, human.Long, "1 minutes 30.000 seconds"},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.then, human.Duration(tt.given, tt.style))
		})
	}
}
