package features

import "fmt"

// Options control windows, thresholds and enabled families. The same Options must
// be used to build training data and serving vectors.
type Options struct {
	RollingWindow     int
	RollingMinPeriods int
	FormShort         int
	FormLong          int
	H2HWindow         int
	DaysRestDefault   float64
	DaysRestCap       float64
	LongRoadTripMiles float64
	Families          []Family
}

// DefaultOptions enables every family with the standard windows
func DefaultOptions() Options {
	fams := make([]Family, len(Families))
	copy(fams, Families)
	return Options{
		RollingWindow:     10,
		RollingMinPeriods: 3,
		FormShort:         3,
		FormLong:          5,
		H2HWindow:         3,
		DaysRestDefault:   2,
		DaysRestCap:       7,
		LongRoadTripMiles: 1500,
		Families:          fams,
	}
}

// Validate checks windows are usable
func (o Options) Validate() error {
	if o.RollingWindow < 1 || o.RollingMinPeriods < 1 || o.RollingMinPeriods > o.RollingWindow {
		return fmt.Errorf("invalid rolling window %d with min periods %d", o.RollingWindow, o.RollingMinPeriods)
	}
	if o.FormShort < 1 || o.FormLong < o.FormShort {
		return fmt.Errorf("invalid form windows %d/%d", o.FormShort, o.FormLong)
	}
	if o.H2HWindow < 1 {
		return fmt.Errorf("invalid head-to-head window %d", o.H2HWindow)
	}
	if o.DaysRestCap <= 0 {
		return fmt.Errorf("invalid days rest cap %.1f", o.DaysRestCap)
	}
	if len(o.Families) == 0 {
		return fmt.Errorf("no feature families enabled")
	}
	for _, f := range o.Families {
		if !validFamily(f) {
			return fmt.Errorf("unknown feature family %q", f)
		}
	}
	return nil
}

func validFamily(f Family) bool {
	for _, known := range Families {
		if f == known {
			return true
		}
	}
	return false
}
