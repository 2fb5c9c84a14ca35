package api

// Operation identifies one of the long-running provisioning actions.
type Operation string

const (
	// OperationDownload fetches the latest firmware release into the cache.
	OperationDownload Operation = "download"

	// OperationFlash writes the firmware layout to the device.
	OperationFlash Operation = "flash"

	// OperationErase wipes the whole flash chip.
	OperationErase Operation = "erase"
)

// OperationOutcome is the terminal result of an operation.
type OperationOutcome struct {
	Succeeded bool   `json:"succeeded" yaml:"succeeded"`
	Message   string `json:"message"   yaml:"message"`
}

// EventType describes the kind of an Event.
type EventType string

const (
	// EventProgress carries a percentage.
	EventProgress EventType = "progress"

	// EventLog carries a console line.
	EventLog EventType = "log"

	// EventResult carries the operation outcome.
	EventResult EventType = "result"
)

// Event is the serialized form of a session notification, used for machine-readable output.
type Event struct {
	Type      EventType         `json:"type"                yaml:"type"`
	Operation Operation         `json:"operation,omitempty" yaml:"operation,omitempty"`
	Progress  int               `json:"progress,omitempty"  yaml:"progress,omitempty"`
	Message   string            `json:"message,omitempty"   yaml:"message,omitempty"`
	Outcome   *OperationOutcome `json:"outcome,omitempty"   yaml:"outcome,omitempty"`
}
