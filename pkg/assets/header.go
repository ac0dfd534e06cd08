// Package assets manages the four screensaver image slots and the
// chunked upload protocol that replaces them.
package assets

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic marks a valid image file ("SCAR" little-endian).
const Magic uint32 = 0x53434152

// HeaderVersion is the current header layout version.
const HeaderVersion = 1

// Pixel formats.
const (
	FmtRGB565   = 0 // 16-bit color, 2 bytes/pixel
	FmtRGB565A8 = 1 // 16-bit color + 8-bit alpha, 3 bytes/pixel
)

// Fixed panel dimensions.
const (
	ImgWidth  = 240
	ImgHeight = 240
)

// HeaderSize is the encoded header length in bytes.
const HeaderSize = 16

// Size bounds for a whole image file (header + pixels).
const (
	MinImageSize = HeaderSize
	MaxImageSize = HeaderSize + ImgWidth*ImgHeight*3
)

// Header prefixes every persisted image file.
type Header struct {
	Magic    uint32
	Width    uint16
	Height   uint16
	Format   uint8
	Version  uint8
	Reserved uint16
	DataSize uint32
}

var (
	// ErrShortHeader indicates fewer than HeaderSize bytes.
	ErrShortHeader = errors.New("image header truncated")
	// ErrBadMagic indicates the magic value is wrong.
	ErrBadMagic = errors.New("bad image magic")
)

// DecodeHeader parses a header from the front of data.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, ErrShortHeader
	}
	h := Header{
		Magic:    binary.LittleEndian.Uint32(data[0:4]),
		Width:    binary.LittleEndian.Uint16(data[4:6]),
		Height:   binary.LittleEndian.Uint16(data[6:8]),
		Format:   data[8],
		Version:  data[9],
		Reserved: binary.LittleEndian.Uint16(data[10:12]),
		DataSize: binary.LittleEndian.Uint32(data[12:16]),
	}
	if h.Magic != Magic {
		return h, ErrBadMagic
	}
	return h, nil
}

// Encode appends the wire form of the header to dst.
func (h Header) Encode(dst []byte) []byte {
	var b [HeaderSize]byte
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint16(b[4:6], h.Width)
	binary.LittleEndian.PutUint16(b[6:8], h.Height)
	b[8] = h.Format
	b[9] = h.Version
	binary.LittleEndian.PutUint16(b[10:12], h.Reserved)
	binary.LittleEndian.PutUint32(b[12:16], h.DataSize)
	return append(dst, b[:]...)
}

// Validate checks the header against the panel's fixed geometry and
// known formats.
func (h Header) Validate() error {
	if h.Magic != Magic {
		return ErrBadMagic
	}
	if h.Width != ImgWidth || h.Height != ImgHeight {
		return fmt.Errorf("bad dimensions %dx%d", h.Width, h.Height)
	}
	if h.Format != FmtRGB565 && h.Format != FmtRGB565A8 {
		return fmt.Errorf("unknown pixel format %d", h.Format)
	}
	return nil
}

// BytesPerPixel returns the pixel stride for the format.
func (h Header) BytesPerPixel() int {
	if h.Format == FmtRGB565A8 {
		return 3
	}
	return 2
}
