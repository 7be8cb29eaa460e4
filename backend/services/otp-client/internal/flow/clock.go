package flow

import "time"

// Ticker is the subset of time.Ticker the flow needs, so tests can
// substitute a manual one.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock supplies wall time and tickers.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
}

type realClock struct{}

// RealClock returns the wall clock backed by the time package.
func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Ticker(d time.Duration) Ticker {
	return realTicker{ticker: time.NewTicker(d)}
}

type realTicker struct {
	ticker *time.Ticker
}

func (t realTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t realTicker) Stop() {
	t.ticker.Stop()
}
