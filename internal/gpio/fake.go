package gpio

import "sort"

// FakeOutputs is a test double that records relay commands.
type FakeOutputs struct {
	// States holds the latest commanded state per channel.
	States map[Channel]bool

	// History records every Set call in order.
	History []Command

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// Command is one recorded Set call.
type Command struct {
	Channel Channel
	On      bool
}

// NewFakeOutputs creates a FakeOutputs with all channels off.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{States: make(map[Channel]bool)}
}

// Set records the command.
func (f *FakeOutputs) Set(ch Channel, on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.States[ch] = on
	f.History = append(f.History, Command{Channel: ch, On: on})
	return nil
}

// Close marks the outputs as closed.
func (f *FakeOutputs) Close() error {
	f.Closed = true
	return nil
}

// On returns the sorted channels currently commanded on.
func (f *FakeOutputs) On() []Channel {
	var on []Channel
	for ch, state := range f.States {
		if state {
			on = append(on, ch)
		}
	}
	sort.Slice(on, func(i, j int) bool { return on[i] < on[j] })
	return on
}

// Reset clears recorded state.
func (f *FakeOutputs) Reset() {
	f.States = make(map[Channel]bool)
	f.History = nil
	f.Closed = false
	f.SetError = nil
}
