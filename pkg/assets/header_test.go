package assets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validHeader(dataSize uint32) Header {
	return Header{
		Magic:    Magic,
		Width:    ImgWidth,
		Height:   ImgHeight,
		Format:   FmtRGB565,
		Version:  HeaderVersion,
		DataSize: dataSize,
	}
}

func TestHeaderCodec(t *testing.T) {
	h := validHeader(1008)
	h.Format = FmtRGB565A8
	h.Reserved = 0x1234

	enc := h.Encode(nil)
	require.Len(t, enc, HeaderSize)
	// "SCAR" little-endian.
	require.Equal(t, []byte{0x52, 0x41, 0x43, 0x53}, enc[0:4])

	dec, err := DecodeHeader(enc)
	require.NoError(t, err)
	require.Equal(t, h, dec)
}

func TestDecodeHeaderErrors(t *testing.T) {
	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	require.ErrorIs(t, err, ErrShortHeader)

	bad := validHeader(0)
	bad.Magic = 0x12345678
	_, err = DecodeHeader(bad.Encode(nil))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestHeaderValidate(t *testing.T) {
	require.NoError(t, validHeader(0).Validate())

	h := validHeader(0)
	h.Width = 320
	require.Error(t, h.Validate())

	h = validHeader(0)
	h.Format = 9
	require.Error(t, h.Validate())
}

func TestHeaderBytesPerPixel(t *testing.T) {
	h := validHeader(0)
	require.Equal(t, 2, h.BytesPerPixel())
	h.Format = FmtRGB565A8
	require.Equal(t, 3, h.BytesPerPixel())
}
