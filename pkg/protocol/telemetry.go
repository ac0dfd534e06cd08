package protocol

import (
	"strconv"
	"strings"
)

// FieldKey identifies a telemetry field.
type FieldKey int

// Telemetry field keys, one per wire token.
const (
	KeyCPULoad FieldKey = iota
	KeyCPUTemp
	KeyGPULoad
	KeyGPUTemp
	KeyVRAM
	KeyRAM
	KeyNetType
	KeyNetSpeed
	KeyDown
	KeyUp
)

// FieldUpdate is one recognized KEY:VALUE token with its converted
// value. Numeric keys use Num (and Num2 for used/total pairs);
// textual keys use Str.
type FieldUpdate struct {
	Key  FieldKey
	Num  float64
	Num2 float64
	Str  string
}

// netStrMax bounds the NET/SPEED strings, matching the device's
// fixed field width.
const netStrMax = 15

// parseTelemetry scans comma-separated KEY:VALUE tokens. Field order
// is free and any subset may be present. A malformed value drops
// only that token.
func parseTelemetry(line string) TelemetryLine {
	var tl TelemetryLine
	for len(line) > 0 {
		token := line
		if i := strings.IndexByte(line, ','); i >= 0 {
			token, line = line[:i], line[i+1:]
		} else {
			line = ""
		}
		key, value, ok := strings.Cut(token, ":")
		if !ok {
			continue
		}
		upd, known, err := convertField(key, value)
		if !known {
			continue
		}
		if err != nil {
			tl.Malformed++
			continue
		}
		tl.Updates = append(tl.Updates, upd)
	}
	return tl
}

func convertField(key, value string) (upd FieldUpdate, known bool, err error) {
	known = true
	switch key {
	case "CPU":
		upd.Key = KeyCPULoad
		upd.Num, err = parseNum(value)
	case "CPUT":
		upd.Key = KeyCPUTemp
		upd.Num, err = parseNum(value)
	case "GPU":
		upd.Key = KeyGPULoad
		upd.Num, err = parseNum(value)
	case "GPUT":
		upd.Key = KeyGPUTemp
		upd.Num, err = parseNum(value)
	case "VRAM":
		upd.Key = KeyVRAM
		upd.Num, upd.Num2, err = parsePair(value)
	case "RAM":
		upd.Key = KeyRAM
		upd.Num, upd.Num2, err = parsePair(value)
	case "NET":
		upd.Key = KeyNetType
		upd.Str = clipStr(value)
	case "SPEED":
		upd.Key = KeyNetSpeed
		upd.Str = clipStr(value)
	case "DOWN":
		upd.Key = KeyDown
		upd.Num, err = parseNum(value)
	case "UP":
		upd.Key = KeyUp
		upd.Num, err = parseNum(value)
	default:
		known = false
	}
	return
}

func parseNum(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// parsePair parses "used/total".
func parsePair(s string) (used, total float64, err error) {
	u, t, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0, strconv.ErrSyntax
	}
	if used, err = parseNum(u); err != nil {
		return
	}
	total, err = parseNum(t)
	return
}

func clipStr(s string) string {
	if len(s) > netStrMax {
		return s[:netStrMax]
	}
	return s
}
