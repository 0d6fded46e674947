package input

// Mode is the input capture level plus whether consumed events are reported as handled.
type Mode struct {
	// Level is 0 (no input), 1 (keyboard), 2 (keyboard, mouse and gamepad) or 3 (as 2 plus the
	// hardware cursor).
	Level int
	// Exclusive is returned by OnDeviceEvent so the host can stop propagating the event.
	Exclusive bool
}

const (
	LevelNone     = 0
	LevelKeyboard = 1
	LevelDevices  = 2
	LevelCursor   = 3
)

type reservationAction int

const (
	reservationKeep reservationAction = iota
	reservationAcquire
	reservationRelease
)

// reservationTransitions is indexed by [old level is 3][new level is 3].
var reservationTransitions = [2][2]reservationAction{
	{reservationKeep, reservationAcquire},
	{reservationRelease, reservationKeep},
}

func holdsCursor(level int) int {
	if level == LevelCursor {
		return 1
	}
	return 0
}

// transition returns the reservation change from one level to another.
func transition(from, to int) reservationAction {
	return reservationTransitions[holdsCursor(from)][holdsCursor(to)]
}
