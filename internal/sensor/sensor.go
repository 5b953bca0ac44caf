// Package sensor reads the enclosure room temperature with hardware
// abstraction. The real implementation parses a DS18B20 on the Linux
// 1-wire sysfs bus; the fake allows testing without hardware.
package sensor

import "errors"

// ErrUnavailable is returned when no valid reading can be produced.
// Callers must hold their last state rather than act on it.
var ErrUnavailable = errors.New("sensor: reading unavailable")

// Reader reads the room temperature.
type Reader interface {
	// ReadTemperature returns degrees Celsius, or an error wrapping
	// ErrUnavailable when the sensor cannot produce a trustworthy value.
	ReadTemperature() (float64, error)
}
