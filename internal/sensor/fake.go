package sensor

// FakeReader is a test double that returns scripted readings.
type FakeReader struct {
	// Readings contains scripted values to return in order.
	// When exhausted, the last reading repeats.
	Readings []float64

	// ReadError, if set, will be returned by ReadTemperature.
	ReadError error

	index int
}

// NewFakeReader creates a FakeReader with the given readings.
func NewFakeReader(readings ...float64) *FakeReader {
	return &FakeReader{Readings: readings}
}

// ReadTemperature returns the next scripted reading.
func (f *FakeReader) ReadTemperature() (float64, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Readings) == 0 {
		return 0, ErrUnavailable
	}
	r := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return r, nil
}
