package pipeline

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngLogo(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: 79, G: 70, B: 229, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncodeDecodeLogo(t *testing.T) {
	blob := pngLogo(t)

	dataURL, err := EncodeLogo(blob)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))

	logo, err := DecodeLogo(dataURL)
	require.NoError(t, err)
	assert.Equal(t, "PNG", logo.ImageType)
	assert.Equal(t, "image/png", logo.MIME)

	cfg, err := png.DecodeConfig(bytes.NewReader(logo.Data))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestEncodeLogoReencodesWideSamples(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray16(image.Rect(0, 0, 20, 10))))
	require.Equal(t, byte(16), buf.Bytes()[24], "source must be a 16-bit png")

	dataURL, err := EncodeLogo(buf.Bytes())
	require.NoError(t, err)
	logo, err := DecodeLogo(dataURL)
	require.NoError(t, err)

	// IHDR bit depth sits at byte 24.
	assert.Equal(t, byte(8), logo.Data[24])
}

func TestEncodeLogoRejectsHugeDimensions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, maxLogoSide+1, 1))))
	_, err := EncodeLogo(buf.Bytes())
	assert.True(t, errors.Is(err, ErrLogoTooLarge))
}

func TestEncodeLogoRejectsNonImage(t *testing.T) {
	_, err := EncodeLogo([]byte("%PDF-1.4 not a logo"))
	assert.True(t, errors.Is(err, ErrNotImage))
}

func TestDecodeLogoErrors(t *testing.T) {
	bmp := append([]byte("BM"), make([]byte, 64)...)
	_, err := EncodeLogo(bmp)
	assert.True(t, errors.Is(err, ErrUnsupportedLogo))

	_, err = DecodeLogo("data:image/bmp;base64," + base64.StdEncoding.EncodeToString(bmp))
	assert.True(t, errors.Is(err, ErrUnsupportedLogo))

	for _, bad := range []string{
		"",
		"https://example.com/logo.png",
		"data:image/png,plain",
		"data:image/png;base64,***",
		"data:text/plain;base64,aGVsbG8=",
	} {
		_, err := DecodeLogo(bad)
		assert.Error(t, err, bad)
	}
}
