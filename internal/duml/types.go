// Package duml decodes and builds frames of the DUML remote-controller
// telemetry protocol: reassembly of a chunked byte stream into frames,
// two-stage checksum validation, and the bit-packed
// rc_button_physical_status_push payload.
package duml

import (
	"encoding/json"
	"errors"
)

// FlightMode is the 2-bit flight-mode switch position carried in payload
// byte 2, bits 0-1.
type FlightMode uint8

const (
	ModeSport FlightMode = iota
	ModeNormal
	ModeTripod
	ModeUnknown
)

// String returns a short ASCII name for m. Any value outside 0..3, and
// ModeUnknown itself, map to "Unknown".
func (m FlightMode) String() string {
	switch m {
	case ModeSport:
		return "Sport"
	case ModeNormal:
		return "Normal"
	case ModeTripod:
		return "Tripod"
	default:
		return "Unknown"
	}
}

// MarshalJSON renders the mode as its name rather than its numeric value.
func (m FlightMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON parses a mode name back into its numeric value; unrecognized
// names decode to ModeUnknown.
func (m *FlightMode) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "Sport":
		*m = ModeSport
	case "Normal":
		*m = ModeNormal
	case "Tripod":
		*m = ModeTripod
	default:
		*m = ModeUnknown
	}
	return nil
}

// FiveD is the 5-direction joystick button state (payload byte 1, bits 3-7).
type FiveD struct {
	Right  bool
	Up     bool
	Down   bool
	Left   bool
	Center bool
}

// Stick is one analog axis pair, centered at 0.
type Stick struct {
	Horizontal int16
	Vertical   int16
}

// Snapshot is the decoded controller state delivered on each controller
// push frame.
type Snapshot struct {
	Pause   bool
	GoHome  bool
	Shutter bool
	Record  bool

	FiveD FiveD

	Custom1 bool
	Custom2 bool
	Custom3 bool

	FlightMode FlightMode

	StickRight Stick
	StickLeft  Stick

	LeftWheel  int16
	RightWheel int16

	// RightWheelDelta is the incremental right-wheel field, range -31..+31.
	RightWheelDelta int8
}

// PayloadLen is the fixed length of the rc_button_physical_status_push
// payload.
const PayloadLen = 17

// ErrShortPayload is returned by DecodePayload when the input is shorter
// than PayloadLen bytes or the destination is nil.
var ErrShortPayload = errors.New("duml: short payload")

// Builder errors.
var (
	// ErrInvalidArgs is returned by BuildFrame when the output span is
	// nil. NewParser does not use it: a nil callback makes it return nil.
	ErrInvalidArgs = errors.New("duml: invalid arguments")
	// ErrBufferTooSmall is returned when the output buffer is smaller
	// than the frame length required to encode the request.
	ErrBufferTooSmall = errors.New("duml: buffer too small")
	// ErrTooLarge is returned when the required frame length exceeds
	// MaxFrameLen.
	ErrTooLarge = errors.New("duml: frame too large")
)

// Wire layout constants (framing protocol, version 1).
const (
	StartByte = 0x55

	MinFrameLen = 13
	MaxFrameLen = 1400

	headerLen = 11 // bytes before the payload: SOF..cmd_id inclusive
	footerLen = 2  // trailing CRC16

	// Version written on emission; the parser ignores this field on
	// frames it receives.
	ProtocolVersion = 1

	// CmdSetRC and CmdIDRCPush together identify the controller-push
	// command pair.
	CmdSetRC    = 0x06
	CmdIDRCPush = 0x05

	// CmdIDRCEnable and CmdIDRCChannel are the two builder
	// conveniences from spec §6.
	CmdIDRCEnable  = 0x24
	CmdIDRCChannel = 0x01
)

// Device types used when addressing sender/receiver fields.
const (
	DevAny    = 0
	DevCamera = 1
	DevApp    = 2
	DevFC     = 3
	DevGimbal = 4
	DevRC     = 6
	DevPC     = 10
)

// PackType distinguishes a request frame from a response frame (flags
// byte bit 7).
type PackType uint8

const (
	PackRequest  PackType = 0
	PackResponse PackType = 1
)

// AckType is the acknowledgement mode (flags byte bits 5-6).
type AckType uint8

const (
	AckNone      AckType = 0
	AckAfterExec AckType = 2
)
