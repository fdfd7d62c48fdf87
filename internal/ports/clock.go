package ports

import "time"

type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) *time.Ticker
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}
