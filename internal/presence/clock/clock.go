// Package clock abstracts time for the expiry timers and feeds.
package clock

import "time"

// Clock is the time source of the services. Tests swap in clocktest.Fake.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the call. It returns false if the call already ran or
	// was stopped.
	Stop() bool
}

type systemClock struct{}

// System reads the wall clock in UTC.
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now().UTC() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
