// Package delta computes period-over-period growth figures and their display
// form.
package delta

import (
	"fmt"
	"math"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
)

// Direction is the sign of a change.
type Direction string

// Directions of change
const (
	Up   Direction = "up"
	Down Direction = "down"
	Flat Direction = "flat"
)

// Result describes the change from an older to a newer value. Magnitude is a
// percentage and is meaningless when IsInfinite is set.
type Result struct {
	Direction  Direction `json:"direction" yaml:"direction"`
	Magnitude  float64   `json:"magnitude" yaml:"magnitude"`
	IsInfinite bool      `json:"isInfinite,omitempty" yaml:"isInfinite,omitempty"`
}

// InfiniteStyle selects how a change from a zero base is displayed.
type InfiniteStyle string

// Display conventions for changes from a zero base
const (
	StyleInfinity InfiniteStyle = constants.InfiniteStyleInfinity
	StyleCapped   InfiniteStyle = constants.InfiniteStyleCapped
)

// Compute returns the percentage change from older to newer. Inputs must be
// finite numbers.
func Compute(newer, older float64) Result {
	if older == 0 {
		if newer == 0 {
			return Result{Direction: Flat}
		}
		return Result{Direction: directionOf(newer), IsInfinite: true}
	}
	magnitude := ((newer - older) / math.Abs(older)) * constants.PercentageMultiplier
	return Result{Direction: directionOf(magnitude), Magnitude: magnitude}
}

func directionOf(v float64) Direction {
	switch {
	case v > 0:
		return Up
	case v < 0:
		return Down
	default:
		return Flat
	}
}

// Rounded returns the magnitude rounded the way it is displayed: whole
// numbers from WholeDeltaThreshold upward, one decimal below it.
func (r Result) Rounded() float64 {
	if math.Abs(r.Magnitude) >= constants.WholeDeltaThreshold {
		return math.Round(r.Magnitude)
	}
	return math.Round(r.Magnitude*10) / 10
}

// Format renders r for display, e.g. "+12.5%", "-150%", "∞".
func Format(r Result, style InfiniteStyle) string {
	if r.IsInfinite {
		sign := ""
		if r.Direction == Down {
			sign = "-"
		}
		if style == StyleCapped {
			return sign + "100%"
		}
		return sign + "∞"
	}

	sign := ""
	if r.Magnitude > 0 {
		sign = "+"
	}
	rounded := r.Rounded()
	if math.Abs(r.Magnitude) >= constants.WholeDeltaThreshold {
		return fmt.Sprintf("%s%.0f%%", sign, rounded)
	}
	if rounded == 0 {
		// Avoid "-0.0%" for tiny negative changes.
		return "0.0%"
	}
	return fmt.Sprintf("%s%.1f%%", sign, rounded)
}

// Arrow returns the glyph shown next to a delta.
func Arrow(d Direction) string {
	switch d {
	case Up:
		return "▲"
	case Down:
		return "▼"
	default:
		return "–"
	}
}
