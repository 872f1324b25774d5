package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Axis identifies which hemisphere letters apply when rendering a coordinate.
type Axis int

const (
	AxisLatitude Axis = iota
	AxisLongitude
)

// ErrInvalidCoordinate is returned for inputs that have no
// degrees/minutes/seconds decomposition (NaN, ±Inf).
var ErrInvalidCoordinate = errors.New("coordinate must be a finite number")

// Sexagesimal decomposition of a decimal-degree coordinate.
// Degrees, Minutes and Seconds are always non-negative; the sign of the
// source value is carried in Negative.
type DMS struct {
	Degrees  int
	Minutes  int
	Seconds  float64
	Negative bool
}

// ToDMS decomposes a signed decimal-degree value into degrees, minutes and
// seconds. Seconds are rounded to 6 decimal places; if rounding lands on
// exactly 60 the carry propagates into minutes (and degrees) so that
// Seconds < 60 always holds.
func ToDMS(coord float64) (DMS, error) {
	if math.IsNaN(coord) || math.IsInf(coord, 0) {
		return DMS{}, fmt.Errorf("to dms: %w", ErrInvalidCoordinate)
	}

	abs := math.Abs(coord)

	degrees := int(math.Floor(abs))
	rem := (abs - math.Floor(abs)) * 60

	minutes := int(math.Floor(rem))
	seconds := math.Round((rem-math.Floor(rem))*60*1e6) / 1e6

	if seconds >= 60 {
		seconds = 0
		minutes++
	}
	if minutes >= 60 {
		minutes = 0
		degrees++
	}

	return DMS{
		Degrees:  degrees,
		Minutes:  minutes,
		Seconds:  seconds,
		Negative: coord < 0,
	}, nil
}

// Hemisphere returns the compass letter for the axis: N/S for latitude,
// E/W for longitude. Zero counts as the positive hemisphere.
func (d DMS) Hemisphere(axis Axis) string {
	if axis == AxisLatitude {
		if d.Negative {
			return "S"
		}
		return "N"
	}

	if d.Negative {
		return "W"
	}
	return "E"
}

// Render the decomposition without a hemisphere letter, e.g. `45° 30' 27"`.
func (d DMS) String() string {
	sec := strconv.FormatFloat(d.Seconds, 'f', -1, 64)
	return fmt.Sprintf("%d° %d' %s\"", d.Degrees, d.Minutes, sec)
}

// FormatDMS renders a decimal-degree value as a display string with the
// hemisphere letter for the given axis, e.g. `40° 42' 46.08" N`.
func FormatDMS(coord float64, axis Axis) (string, error) {
	dms, err := ToDMS(coord)
	if err != nil {
		return "", fmt.Errorf("format dms: %w", err)
	}

	return fmt.Sprintf("%s %s", dms.String(), dms.Hemisphere(axis)), nil
}
