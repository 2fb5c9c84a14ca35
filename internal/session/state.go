package session

// State is the activity of a session.
type State int

const (
	// Idle means no operation is running.
	Idle State = iota

	// Downloading means the latest firmware is being fetched.
	Downloading

	// Flashing means the firmware is being written to the device.
	Flashing

	// Erasing means the device flash is being wiped.
	Erasing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Downloading:
		return "downloading"
	case Flashing:
		return "flashing"
	case Erasing:
		return "erasing"
	default:
		return "unknown"
	}
}
