package practice

// Kind is one of the recurring proactive session categories.
type Kind string

const (
	KindMorning      Kind = "morning"
	KindMidday       Kind = "midday"
	KindEvening      Kind = "evening"
	KindWeeklyReport Kind = "weekly_report"
)

// DailyKinds are the kinds that go through prompt assembly and completion.
// The weekly report is rendered from progress counters instead.
var DailyKinds = []Kind{KindMorning, KindMidday, KindEvening}

// AllKinds is every kind a registered learner gets a trigger for.
var AllKinds = []Kind{KindMorning, KindMidday, KindEvening, KindWeeklyReport}

// hourOf returns the fixed-zone hour a daily kind fires in. The minute
// within the hour is randomized per learner at registration so simultaneous
// fires do not stampede at the top of the hour.
func hourOf(kind Kind) int {
	switch kind {
	case KindMorning:
		return 9
	case KindMidday:
		return 15
	case KindEvening:
		return 22
	default:
		return 0
	}
}

// TriggerState tracks one trigger occurrence through its lifecycle.
type TriggerState string

const (
	// StateScheduled means the trigger waits for its next due time.
	StateScheduled TriggerState = "SCHEDULED"
	// StateFiring means generation and dispatch are in progress.
	StateFiring TriggerState = "FIRING"
	// StateFired means the last occurrence completed and the trigger is
	// waiting for its next due time.
	StateFired TriggerState = "FIRED"
	// StateMissed means the last occurrence came due while the process could
	// not fire it within the grace period; it was skipped, never queued.
	StateMissed TriggerState = "MISSED"
)
