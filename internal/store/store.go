// Package store persists the bloom-start timestamp across power loss.
package store

import "time"

// Store owns the persisted bloom-start timestamp. A zero time means bloom
// mode is disabled.
type Store interface {
	// LoadBloomStart returns the persisted bloom start, or the zero time
	// if none has been saved.
	LoadBloomStart() (time.Time, error)

	// SaveBloomStart persists the bloom start. Saving the zero time
	// disables bloom mode.
	SaveBloomStart(t time.Time) error
}
