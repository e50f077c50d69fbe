package tracker

// Event is a classified input emitted by a button, sensor or scheduler.
type Event int

const (
	EventPress Event = iota + 1
	EventRelease
	EventReleaseAfterHold
	EventHeld
	EventSecondaryPress
	EventMotionDetected
	EventMotionCeased
	EventDailyTrigger
)

var eventNames = map[Event]string{
	EventPress:            "press",
	EventRelease:          "release",
	EventReleaseAfterHold: "release-after-hold",
	EventHeld:             "held",
	EventSecondaryPress:   "secondary-press",
	EventMotionDetected:   "motion-detected",
	EventMotionCeased:     "motion-ceased",
	EventDailyTrigger:     "daily-trigger",
}

// String returns the event name.
func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// Action is the tracker entry point an event maps to.
type Action int

const (
	ActionNone Action = iota
	ActionToggle
	ActionStart
	ActionStop
	ActionFinish
	ActionAdvance
)

// ActionFor maps an event to an action. A release that ends a hold does
// nothing because the hold itself already finished the session.
func ActionFor(ev Event) Action {
	switch ev {
	case EventRelease:
		return ActionToggle
	case EventHeld:
		return ActionFinish
	case EventSecondaryPress, EventDailyTrigger:
		return ActionAdvance
	case EventMotionDetected:
		return ActionStart
	case EventMotionCeased:
		return ActionStop
	default:
		return ActionNone
	}
}
