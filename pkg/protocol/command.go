package protocol

import (
	"encoding/hex"
	"strconv"
	"strings"
)

// Command is a parsed protocol line. Each variant carries only the
// typed fields relevant to that command.
type Command interface {
	cmd()
}

// Handshake is the host probing for the device ("WHO_ARE_YOU?").
type Handshake struct{}

// SetCPUName assigns the CPU display name.
type SetCPUName struct {
	Name string
}

// SetGPUName assigns the GPU display name.
type SetGPUName struct {
	Name string
}

// SetHash assigns the identity hash. Validation (length, truncation)
// is the identity store's concern so a rejected value stays visible
// to it.
type SetHash struct {
	Hash string
}

// ImgBegin starts an upload into a slot.
type ImgBegin struct {
	Slot int
	Size uint32
}

// ImgData appends a chunk at a declared offset. Data is already
// hex-decoded.
type ImgData struct {
	Offset uint32
	Data   []byte
}

// ImgEnd finishes an upload, declaring the expected CRC32.
type ImgEnd struct {
	CRC uint32
}

// ImgAbort cancels the active upload.
type ImgAbort struct{}

// ImgDelete removes a slot's persisted image.
type ImgDelete struct {
	Slot int
}

// ImgStatus requests the session and slot report.
type ImgStatus struct{}

// ImgMalformed is a recognized IMG_* command with arguments that
// failed to parse. The engine reports it without touching the
// session.
type ImgMalformed struct {
	Reason string // "PARSE" or "HEXLEN"
}

// Unknown is a line matching no known command, kept distinct so the
// device can ignore commands from a newer host without answering.
type Unknown struct{}

// TelemetryLine carries the recognized field updates of a telemetry
// line. Updates may be empty when nothing was recognized.
type TelemetryLine struct {
	Updates []FieldUpdate
	// Malformed counts recognized keys whose values failed to
	// convert; those keys are absent from Updates.
	Malformed int
}

func (Handshake) cmd()     {}
func (SetCPUName) cmd()    {}
func (SetGPUName) cmd()    {}
func (SetHash) cmd()       {}
func (ImgBegin) cmd()      {}
func (ImgData) cmd()       {}
func (ImgEnd) cmd()        {}
func (ImgAbort) cmd()      {}
func (ImgDelete) cmd()     {}
func (ImgStatus) cmd()     {}
func (ImgMalformed) cmd()  {}
func (Unknown) cmd()       {}
func (TelemetryLine) cmd() {}

// Parse classifies a complete line into a Command. Lines that match
// no known prefix are scanned as telemetry; a TelemetryLine with no
// updates means the line was unrecognized.
func Parse(line string) Command {
	switch {
	case line == "WHO_ARE_YOU?":
		return Handshake{}
	case strings.HasPrefix(line, "NAME_CPU="):
		return SetCPUName{Name: line[len("NAME_CPU="):]}
	case strings.HasPrefix(line, "NAME_GPU="):
		return SetGPUName{Name: line[len("NAME_GPU="):]}
	case strings.HasPrefix(line, "NAME_HASH="):
		return SetHash{Hash: line[len("NAME_HASH="):]}
	case strings.HasPrefix(line, "IMG_"):
		return parseImg(line)
	}
	return parseTelemetry(line)
}

func parseImg(line string) Command {
	switch {
	case strings.HasPrefix(line, "IMG_BEGIN:"):
		rest := line[len("IMG_BEGIN:"):]
		slotStr, sizeStr, ok := strings.Cut(rest, ":")
		if !ok {
			return ImgMalformed{Reason: "PARSE"}
		}
		slot, err := strconv.Atoi(slotStr)
		if err != nil {
			return ImgMalformed{Reason: "PARSE"}
		}
		size, err := strconv.ParseUint(sizeStr, 10, 32)
		if err != nil {
			return ImgMalformed{Reason: "PARSE"}
		}
		return ImgBegin{Slot: slot, Size: uint32(size)}

	case strings.HasPrefix(line, "IMG_DATA:"):
		rest := line[len("IMG_DATA:"):]
		offStr, hexStr, ok := strings.Cut(rest, ":")
		if !ok {
			return ImgMalformed{Reason: "PARSE"}
		}
		off, err := strconv.ParseUint(offStr, 10, 32)
		if err != nil {
			return ImgMalformed{Reason: "PARSE"}
		}
		if len(hexStr)%2 != 0 {
			return ImgMalformed{Reason: "HEXLEN"}
		}
		data, err := hex.DecodeString(hexStr)
		if err != nil {
			return ImgMalformed{Reason: "PARSE"}
		}
		return ImgData{Offset: uint32(off), Data: data}

	case strings.HasPrefix(line, "IMG_END:"):
		crc, err := strconv.ParseUint(line[len("IMG_END:"):], 16, 32)
		if err != nil {
			return ImgMalformed{Reason: "PARSE"}
		}
		return ImgEnd{CRC: uint32(crc)}

	case line == "IMG_ABORT":
		return ImgAbort{}

	case strings.HasPrefix(line, "IMG_DELETE:"):
		slot, err := strconv.Atoi(line[len("IMG_DELETE:"):])
		if err != nil {
			return ImgMalformed{Reason: "PARSE"}
		}
		return ImgDelete{Slot: slot}

	case line == "IMG_STATUS":
		return ImgStatus{}
	}
	// Unrecognized IMG_ command from a newer host. Stay silent so
	// old firmware never fails a protocol it does not speak.
	return Unknown{}
}
