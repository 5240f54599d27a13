package clock

import "time"

const layout = "2006-01-02T15:04:05Z"

// Clock abstracts wall-clock reads so reminder timing can be driven by a
// fake in tests. All instants are UTC.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// System returns the real wall clock.
func System() Clock {
	return systemClock{}
}

// Now returns the current UTC time formatted for API responses.
func Now() string {
	return time.Now().UTC().Format(layout)
}
