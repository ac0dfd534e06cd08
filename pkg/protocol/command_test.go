package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCommands(t *testing.T) {
	testCases := []struct {
		line   string
		expect Command
	}{
		{"WHO_ARE_YOU?", Handshake{}},
		{"NAME_CPU=Ryzen 9 5900X", SetCPUName{Name: "Ryzen 9 5900X"}},
		{"NAME_GPU=RTX 3080", SetGPUName{Name: "RTX 3080"}},
		{"NAME_HASH=1234ABCD", SetHash{Hash: "1234ABCD"}},
		{"IMG_BEGIN:2:1024", ImgBegin{Slot: 2, Size: 1024}},
		{"IMG_DATA:512:DEADBEEF", ImgData{Offset: 512, Data: []byte{0xde, 0xad, 0xbe, 0xef}}},
		{"IMG_END:0A1B2C3D", ImgEnd{CRC: 0x0a1b2c3d}},
		{"IMG_ABORT", ImgAbort{}},
		{"IMG_DELETE:3", ImgDelete{Slot: 3}},
		{"IMG_STATUS", ImgStatus{}},

		{"IMG_BEGIN:0", ImgMalformed{Reason: "PARSE"}},
		{"IMG_BEGIN:x:1024", ImgMalformed{Reason: "PARSE"}},
		{"IMG_BEGIN:0:-1", ImgMalformed{Reason: "PARSE"}},
		{"IMG_DATA:0:ABC", ImgMalformed{Reason: "HEXLEN"}},
		{"IMG_DATA:0:ZZZZ", ImgMalformed{Reason: "PARSE"}},
		{"IMG_DATA:notanum:AB", ImgMalformed{Reason: "PARSE"}},
		{"IMG_END:nothex", ImgMalformed{Reason: "PARSE"}},
		{"IMG_DELETE:x", ImgMalformed{Reason: "PARSE"}},
		{"IMG_UNKNOWN", Unknown{}},
		{"IMG_PING:1", Unknown{}},
	}
	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			require.Equal(t, tc.expect, Parse(tc.line))
		})
	}
}

func TestParseTelemetry(t *testing.T) {
	testCases := []struct {
		name      string
		line      string
		expect    []FieldUpdate
		malformed int
	}{
		{
			name: "full line",
			line: "CPU:42,CPUT:61.5,GPU:88,GPUT:70,VRAM:4.2/12,RAM:12.1/32,NET:Ethernet,SPEED:1.0 Gbps,DOWN:12.5,UP:1.3",
			expect: []FieldUpdate{
				{Key: KeyCPULoad, Num: 42},
				{Key: KeyCPUTemp, Num: 61.5},
				{Key: KeyGPULoad, Num: 88},
				{Key: KeyGPUTemp, Num: 70},
				{Key: KeyVRAM, Num: 4.2, Num2: 12},
				{Key: KeyRAM, Num: 12.1, Num2: 32},
				{Key: KeyNetType, Str: "Ethernet"},
				{Key: KeyNetSpeed, Str: "1.0 Gbps"},
				{Key: KeyDown, Num: 12.5},
				{Key: KeyUp, Num: 1.3},
			},
		},
		{
			name: "subset in free order",
			line: "UP:0.4,CPU:10",
			expect: []FieldUpdate{
				{Key: KeyUp, Num: 0.4},
				{Key: KeyCPULoad, Num: 10},
			},
		},
		{
			name: "sentinel values pass through",
			line: "CPU:-1,GPUT:-1",
			expect: []FieldUpdate{
				{Key: KeyCPULoad, Num: -1},
				{Key: KeyGPUTemp, Num: -1},
			},
		},
		{
			name:   "unknown keys skipped",
			line:   "FOO:1,CPU:5,BAR:2",
			expect: []FieldUpdate{{Key: KeyCPULoad, Num: 5}},
		},
		{
			name:      "malformed value drops only its token",
			line:      "CPU:abc,GPU:7,RAM:12",
			expect:    []FieldUpdate{{Key: KeyGPULoad, Num: 7}},
			malformed: 2,
		},
		{
			name:   "net string clipped",
			line:   "NET:A Very Long Network Name",
			expect: []FieldUpdate{{Key: KeyNetType, Str: "A Very Long Net"}},
		},
		{
			name:   "tokens without separator skipped",
			line:   "garbage,CPU:3",
			expect: []FieldUpdate{{Key: KeyCPULoad, Num: 3}},
		},
		{
			name: "unrecognized line",
			line: "hello world",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := Parse(tc.line)
			tl, ok := cmd.(TelemetryLine)
			require.True(t, ok)
			require.Equal(t, tc.expect, tl.Updates)
			require.Equal(t, tc.malformed, tl.Malformed)
		})
	}
}
