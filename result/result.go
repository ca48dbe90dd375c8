package result

import "fmt"

// Code is the 32-bit status value returned by every RTSA API procedure.
type Code uint32

// Band masks
const (
	StateBit   Code = 0x10000000
	WarningBit Code = 0x40000000
	ErrorBit   Code = 0x80000000
)

// Success and transient codes (exact match)
const (
	OK    Code = 0x00000000
	Empty Code = 0x00000001 // no packet available yet
	Retry Code = 0x00000002 // operation in progress, call again
)

// Device state codes
const (
	Idle          Code = 0x10000000
	Connecting    Code = 0x10000001
	Connected     Code = 0x10000002
	Starting      Code = 0x10000003
	Running       Code = 0x10000004
	Stopping      Code = 0x10000005
	Disconnecting Code = 0x10000006
)

// Warning codes
const (
	Warning              Code = 0x40000000
	WarningValueAdjusted Code = 0x40000001 // value was clamped to the allowed range
	WarningValueDisabled Code = 0x40000002 // value is currently disabled
)

// Error codes
const (
	Error                 Code = 0x80000000
	ErrorNotInitialized   Code = 0x80000001
	ErrorNotFound         Code = 0x80000002
	ErrorBusy             Code = 0x80000003
	ErrorNotOpen          Code = 0x80000004
	ErrorNotConnected     Code = 0x80000005
	ErrorInvalidConfig    Code = 0x80000006
	ErrorBufferSize       Code = 0x80000007
	ErrorInvalidChannel   Code = 0x80000008
	ErrorInvalidParameter Code = 0x80000009
	ErrorInvalidSize      Code = 0x8000000a
	ErrorMissingPathsFile Code = 0x8000000b
	ErrorValueInvalid     Code = 0x8000000c
	ErrorValueMalformed   Code = 0x8000000d
)

var names = map[Code]string{
	OK:                    "OK",
	Empty:                 "EMPTY",
	Retry:                 "RETRY",
	Idle:                  "IDLE",
	Connecting:            "CONNECTING",
	Connected:             "CONNECTED",
	Starting:              "STARTING",
	Running:               "RUNNING",
	Stopping:              "STOPPING",
	Disconnecting:         "DISCONNECTING",
	Warning:               "WARNING",
	WarningValueAdjusted:  "WARNING_VALUE_ADJUSTED",
	WarningValueDisabled:  "WARNING_VALUE_DISABLED",
	Error:                 "ERROR",
	ErrorNotInitialized:   "ERROR_NOT_INITIALIZED",
	ErrorNotFound:         "ERROR_NOT_FOUND",
	ErrorBusy:             "ERROR_BUSY",
	ErrorNotOpen:          "ERROR_NOT_OPEN",
	ErrorNotConnected:     "ERROR_NOT_CONNECTED",
	ErrorInvalidConfig:    "ERROR_INVALID_CONFIG",
	ErrorBufferSize:       "ERROR_BUFFER_SIZE",
	ErrorInvalidChannel:   "ERROR_INVALID_CHANNEL",
	ErrorInvalidParameter: "ERROR_INVALID_PARAMETER",
	ErrorInvalidSize:      "ERROR_INVALID_SIZE",
	ErrorMissingPathsFile: "ERROR_MISSING_PATHS_FILE",
	ErrorValueInvalid:     "ERROR_VALUE_INVALID",
	ErrorValueMalformed:   "ERROR_VALUE_MALFORMED",
}

// String returns the driver's symbolic name for the code,
// or its hexadecimal value when the code is not known.
func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("0x%08x", uint32(c))
}

// IsError reports whether the ERROR bit is set.
func (c Code) IsError() bool {
	return c&ErrorBit != 0
}

// IsWarning reports whether the code is a warning (WARNING bit without ERROR bit).
func (c Code) IsWarning() bool {
	return c&ErrorBit == 0 && c&WarningBit != 0
}

// Band is the classification family of a code.
type Band int

const (
	BandUnknown Band = iota
	BandOK
	BandEmpty
	BandRetry
	BandState
	BandWarning
	BandError
)

func (b Band) String() string {
	switch b {
	case BandOK:
		return "ok"
	case BandEmpty:
		return "empty"
	case BandRetry:
		return "retry"
	case BandState:
		return "state"
	case BandWarning:
		return "warning"
	case BandError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a device lifecycle phase decoded from a STATE-band code.
type State int

const (
	StateNone State = iota - 1
	StateIdle
	StateConnecting
	StateConnected
	StateStarting
	StateRunning
	StateStopping
	StateDisconnecting
)

func (s State) String() string {
	if s < StateIdle || s > StateDisconnecting {
		return "none"
	}
	return names[Idle+Code(s)]
}

// Class is the result of classifying a code.
type Class struct {
	Band  Band
	State State // valid only when Band == BandState
	Code  Code
}

// Classify sorts a code into exactly one band.
// OK, EMPTY and RETRY match exactly; the remaining bands
// are tested by mask in the order ERROR, WARNING, STATE.
func Classify(c Code) Class {
	class := Class{Band: BandUnknown, State: StateNone, Code: c}
	switch {
	case c == OK:
		class.Band = BandOK
	case c == Empty:
		class.Band = BandEmpty
	case c == Retry:
		class.Band = BandRetry
	case c&ErrorBit != 0:
		class.Band = BandError
	case c&WarningBit != 0:
		class.Band = BandWarning
	case c&StateBit != 0:
		phase := c &^ StateBit
		if phase <= Disconnecting-Idle {
			class.Band = BandState
			class.State = State(phase)
		}
	}
	return class
}
