package pipeline

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelmaster/internal"
	"labelmaster/internal/directory"
)

func pageCount(t *testing.T, blob []byte) int {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(blob), int64(len(blob)))
	require.NoError(t, err)
	return r.NumPage()
}

func TestRenderLabelsPDFOnePagePerLabel(t *testing.T) {
	logo, err := EncodeLogo(pngLogo(t))
	require.NoError(t, err)
	issuers := directory.New(internal.Issuer{ID: "1", TaxID: "12345678000199", Name: "Alfa", Logo: logo})

	invoices := []internal.Invoice{
		testInvoice("a", "000123", 2),
		testInvoice("b", "77", 3),
	}
	invoices[1].IssuerTaxID = "00000000000000"
	labels := ExpandLabels(invoices, issuers)
	require.Len(t, labels, 5)

	var buf bytes.Buffer
	require.NoError(t, RenderLabelsPDF(labels, DefaultPrintOptions(), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Equal(t, 5, pageCount(t, buf.Bytes()))
}

func TestRenderLabelsPDFBadLogoFallsBack(t *testing.T) {
	broken := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n truncated"))
	labels := ExpandLabels([]internal.Invoice{testInvoice("a", "1", 2)}, nil)
	labels[0].IssuerLogo = broken
	labels[1].IssuerLogo = "not a data url"

	var buf bytes.Buffer
	require.NoError(t, RenderLabelsPDF(labels, PrintOptions{WidthMM: 150, HeightMM: 105}, &buf))
	assert.Equal(t, 2, pageCount(t, buf.Bytes()))
}

func TestRenderLabelsPDFNoLabels(t *testing.T) {
	var buf bytes.Buffer
	err := RenderLabelsPDF(nil, DefaultPrintOptions(), &buf)
	assert.True(t, errors.Is(err, ErrNoLabels))
	assert.Zero(t, buf.Len())
}

func TestRenderLabelsPDFFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "print", "labels.pdf")
	labels := ExpandLabels([]internal.Invoice{testInvoice("a", "9", 1)}, nil)

	require.NoError(t, RenderLabelsPDFFile(labels, DefaultPrintOptions(), out))
	blob, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 1, pageCount(t, blob))
}

func TestRenderLabelsPDFWideSampleLogo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray16(image.Rect(0, 0, 20, 10))))
	raw := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	encoded, err := EncodeLogo(buf.Bytes())
	require.NoError(t, err)

	labels := ExpandLabels([]internal.Invoice{testInvoice("a", "1", 3)}, nil)
	labels[0].IssuerLogo = raw
	labels[1].IssuerLogo = encoded

	var out bytes.Buffer
	require.NoError(t, RenderLabelsPDF(labels, DefaultPrintOptions(), &out))
	assert.Equal(t, 3, pageCount(t, out.Bytes()))
}

func TestRenderLabelsPDFUnencodableBarcode(t *testing.T) {
	labels := ExpandLabels([]internal.Invoice{testInvoice("a", "1", 3)}, nil)
	labels[0].BarcodeValue = "Nº121"
	labels[1].BarcodeValue = ""

	var out bytes.Buffer
	require.NoError(t, RenderLabelsPDF(labels, DefaultPrintOptions(), &out))
	assert.Equal(t, 3, pageCount(t, out.Bytes()))
}
