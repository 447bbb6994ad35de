package throttle

import log "github.com/sirupsen/logrus"

// Stats is a point-in-time snapshot of a Throttler's counters.
type Stats struct {
	Calls      uint64 // Calls is the number of Invoke calls accepted
	Executions uint64 // Executions counts runs of the wrapped function, immediate and trailing
	Trailing   uint64 // Trailing counts runs fired from the trailing timer
	Deferred   uint64 // Deferred counts calls captured for a trailing run
	Dropped    uint64 // Dropped counts calls discarded by the max-count and cooldown policies
	Superseded uint64 // Superseded counts captured calls replaced or cancelled before running
	Failures   uint64 // Failures counts trailing runs that returned an error or panicked
	Pending    bool   // Pending reports whether a trailing or cooldown timer is armed
}

// Suppressed returns the number of calls that did not run immediately.
func (s Stats) Suppressed() uint64 {
	return s.Deferred + s.Dropped
}

// Fields returns the snapshot as logrus fields.
func (s Stats) Fields() log.Fields {
	return log.Fields{
		"calls":      s.Calls,
		"executions": s.Executions,
		"trailing":   s.Trailing,
		"deferred":   s.Deferred,
		"dropped":    s.Dropped,
		"superseded": s.Superseded,
		"failures":   s.Failures,
		"pending":    s.Pending,
	}
}
