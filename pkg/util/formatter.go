package util

import (
	"fmt"
	"math"
)

// FormatValueFactor prints a value with an engineering prefix: 0.005 A
// becomes "5.000 mA".
func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1 || value == 0:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case absValue >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	case absValue >= 1e-12:
		return fmt.Sprintf("%.3f p%s", value*1e12, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

// FormatFrequency prints a frequency in Hz, kHz or MHz.
func FormatFrequency(freq float64) string {
	switch {
	case freq >= 1e6:
		return fmt.Sprintf("%7.3f MHz", freq/1e6)
	case freq >= 1e3:
		return fmt.Sprintf("%7.3f kHz", freq/1e3)
	default:
		return fmt.Sprintf("%7.3f Hz ", freq)
	}
}

// FormatMagnitude prints a sweep magnitude, switching to scientific notation
// outside [0.001, 1000).
func FormatMagnitude(value float64) string {
	if value >= 1000 || (value < 0.001 && value != 0) {
		return fmt.Sprintf("%8.2e", value)
	}
	return fmt.Sprintf("%8.3g", value)
}

// FormatPhase prints a phase in degrees.
func FormatPhase(value float64) string {
	return fmt.Sprintf("%6.1f", value)
}

// FormatMagnitudePhase prints one sweep sample as name=mag<phase deg.
func FormatMagnitudePhase(name string, mag, phase float64) string {
	return fmt.Sprintf("%s=%s<%sdeg", name, FormatMagnitude(mag), FormatPhase(phase))
}
