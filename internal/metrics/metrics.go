// Package metrics records workboard business counters.
package metrics

// Outcomes used for assignment and part creation.
const (
	OutcomeOK               = "ok"
	OutcomeCapacityExceeded = "capacity_exceeded"
	OutcomeNotFound         = "not_found"
	OutcomeInvalid          = "invalid"
	OutcomeError            = "error"
)

// Recorder receives workboard events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordAssignment(outcome string)
	RecordPartCreated(outcome string)
	RecordStatusChange(status string)
	RecordProgressRecompute(progress float64)
	RecordNotification(kind string)
	RecordEventPublish(ok bool)
	RecordRateLimited(route string)
	ObserveInsight(scope string, seconds float64)
}

// Nop discards everything.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) RecordAssignment(string) {}
func (Nop) RecordPartCreated(string) {}
func (Nop) RecordStatusChange(string) {}
func (Nop) RecordProgressRecompute(float64) {}
func (Nop) RecordNotification(string) {}
func (Nop) RecordEventPublish(bool) {}
func (Nop) RecordRateLimited(string) {}
func (Nop) ObserveInsight(string, float64) {}
