//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealOutputs drives actual relay hardware through the Linux GPIO
// character device.
type RealOutputs struct {
	chip  *gpiocdev.Chip
	lines map[Channel]*gpiocdev.Line
}

// NewRealOutputs requests the five relay lines as outputs, all released.
// The relay board is active-low, so released means raw value 1.
func NewRealOutputs(pins Pins) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	out := &RealOutputs{chip: chip, lines: make(map[Channel]*gpiocdev.Line)}
	for _, ch := range Channels {
		line, err := chip.RequestLine(pins.pin(ch), gpiocdev.AsOutput(1))
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", ch, pins.pin(ch), err)
		}
		out.lines[ch] = line
	}
	return out, nil
}

// Set energizes or releases one relay.
// Inverts for the active-low board: on = raw 0, off = raw 1.
func (o *RealOutputs) Set(ch Channel, on bool) error {
	line, ok := o.lines[ch]
	if !ok {
		return fmt.Errorf("no line for channel %s", ch)
	}
	raw := 1
	if on {
		raw = 0
	}
	if err := line.SetValue(raw); err != nil {
		return fmt.Errorf("set %s: %w", ch, err)
	}
	return nil
}

// Close releases every relay before freeing GPIO resources, so an exiting
// daemon never leaves a light or the pump energized.
func (o *RealOutputs) Close() error {
	var errs []error
	for ch, line := range o.lines {
		if err := line.SetValue(1); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", ch, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", ch, err))
		}
	}
	if o.chip != nil {
		if err := o.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
