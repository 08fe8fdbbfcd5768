package metrics

import "time"

// Recorder receives operational events from the service layer. Implementations
// must be safe for concurrent use.
type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}
