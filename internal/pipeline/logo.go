package pipeline

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/h2non/filetype"
)

var (
	ErrNotImage        = errors.New("logo is not an image")
	ErrUnsupportedLogo = errors.New("logo format is not printable (png, jpeg or gif)")
	ErrLogoTooLarge    = errors.New("logo dimensions are too large")
)

// maxLogoSide bounds either logo dimension before it is decoded.
const maxLogoSide = 4096

// Logo is a decoded issuer logo ready to embed in a PDF.
type Logo struct {
	Data []byte
	MIME string
	// ImageType is the gofpdf image type: PNG, JPG or GIF.
	ImageType string
}

// EncodeLogo turns an image file into the data URL kept in the directory.
// Every accepted logo is stored as an 8-bit PNG.
func EncodeLogo(blob []byte) (string, error) {
	if !filetype.IsImage(blob) {
		return "", ErrNotImage
	}
	data, err := normalizeLogo(blob)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// normalizeLogo re-encodes a png, jpeg or gif as a non-interlaced 8-bit
// PNG, the only PNG flavour gofpdf embeds.
func normalizeLogo(data []byte) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, ErrUnsupportedLogo
	}
	if err != nil {
		return nil, errors.Wrap(err, "decode logo")
	}
	if cfg.Width > maxLogoSide || cfg.Height > maxLogoSide {
		return nil, errors.Wrapf(ErrLogoTooLarge, "%dx%d", cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode logo")
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, errors.Wrap(err, "encode logo")
	}
	return buf.Bytes(), nil
}

// DecodeLogo parses a base64 data URL. The declared media type is ignored in
// favour of the sniffed content.
func DecodeLogo(dataURL string) (Logo, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return Logo{}, errors.New("logo is not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return Logo{}, errors.New("logo data URL is not base64")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Logo{}, errors.Wrap(err, "decode logo")
	}
	if !filetype.IsImage(data) {
		return Logo{}, ErrNotImage
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return Logo{}, errors.Wrap(err, "detect logo type")
	}

	logo := Logo{Data: data, MIME: kind.MIME.Value}
	switch kind.Extension {
	case "png":
		logo.ImageType = "PNG"
	case "jpg":
		logo.ImageType = "JPG"
	case "gif":
		logo.ImageType = "GIF"
	default:
		return Logo{}, errors.Wrapf(ErrUnsupportedLogo, "got %s", kind.MIME.Value)
	}
	return logo, nil
}
