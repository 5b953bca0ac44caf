package store

import "time"

// FakeStore is a test double holding the bloom start in memory.
type FakeStore struct {
	// Start is the current stored value.
	Start time.Time

	// Saves records every SaveBloomStart call.
	Saves []time.Time

	// LoadError, if set, will be returned by LoadBloomStart.
	LoadError error

	// SaveError, if set, will be returned by SaveBloomStart.
	SaveError error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// LoadBloomStart returns the stored value.
func (f *FakeStore) LoadBloomStart() (time.Time, error) {
	if f.LoadError != nil {
		return time.Time{}, f.LoadError
	}
	return f.Start, nil
}

// SaveBloomStart records and stores the value.
func (f *FakeStore) SaveBloomStart(t time.Time) error {
	if f.SaveError != nil {
		return f.SaveError
	}
	f.Start = t
	f.Saves = append(f.Saves, t)
	return nil
}
