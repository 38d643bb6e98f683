// Package human formats values for people rather than machines.
package human

import (
	"fmt"
	"strings"
	"time"
)

// Style selects the unit suffixes used by Duration.
type Style int

const (
	Standard Style = iota // 1 day 2 hr 3 min 4.500 sec
	Short                 // 1d 2h 3m 4.500s
	Long                  // 1 days 2 hours 3 minutes 4.500 seconds
)

var suffixes = map[Style][4]string{
	Standard: {" day", " hr", " min", " sec"},
	Short:    {"d", "h", "m", "s"},
	Long:     {" days", " hours", " minutes", " seconds"},
}

// Duration renders d starting from its first non-zero unit. Seconds are
// always present and keep millisecond precision.
func Duration(d time.Duration, style Style) string {
	suffix, ok := suffixes[style]
	if !ok {
		suffix = suffixes[Standard]
	}

	secs := d.Seconds()
	whole := int(secs)
	values := []float64{
		float64(whole / 86400),
		float64(whole % 86400 / 3600),
		float64(whole % 3600 / 60),
		secs - float64(whole/60*60),
	}

	first := len(values) - 1
	for k, v := range values {
		if v > 0 {
			first = k
			break
		}
	}

	parts := make([]string, 0, len(values)-first)
	for k := first; k < len(values); k++ {
		if k < len(values)-1 {
			parts = append(parts, fmt.Sprintf("%d%s", int(values[k]), suffix[k]))
		} else {
			parts = append(parts, fmt.Sprintf("%.3f%s", values[k], suffix[k]))
		}
	}
	return strings.Join(parts, " ")
}
