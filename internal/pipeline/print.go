package pipeline

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/boombuler/barcode/code128"
	"github.com/cockroachdb/errors"
	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/barcode"

	"labelmaster/internal"
)

var ErrNoLabels = errors.New("no labels to print")

type PrintOptions struct {
	WidthMM  float64
	HeightMM float64
}

func DefaultPrintOptions() PrintOptions {
	return PrintOptions{WidthMM: 100, HeightMM: 70}
}

// The layout is drawn on a 100x70 grid and scaled to the page size.
const (
	gridW = 100.0
	gridH = 70.0
	pad   = 4.0
)

type labelPrinter struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	sx, sy float64
	logos  map[string]string
}

// RenderLabelsPDF writes one page per label in the given order.
func RenderLabelsPDF(labels []internal.Label, opts PrintOptions, w io.Writer) error {
	if len(labels) == 0 {
		return ErrNoLabels
	}
	if opts.WidthMM <= 0 || opts.HeightMM <= 0 {
		opts = DefaultPrintOptions()
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: opts.WidthMM, Ht: opts.HeightMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Etiquetas de volume", true)

	p := &labelPrinter{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		sx:    opts.WidthMM / gridW,
		sy:    opts.HeightMM / gridH,
		logos: map[string]string{},
	}
	for _, label := range labels {
		pdf.AddPage()
		p.draw(label)
		if err := pdf.Error(); err != nil {
			return errors.Wrapf(err, "render label %s", label.ID)
		}
	}
	return pdf.Output(w)
}

// RenderLabelsPDFFile is RenderLabelsPDF into a new file.
func RenderLabelsPDFFile(labels []internal.Label, opts PrintOptions, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := RenderLabelsPDF(labels, opts, &buf); err != nil {
		return err
	}
	return os.WriteFile(outputPath, buf.Bytes(), 0o644)
}

func (p *labelPrinter) draw(l internal.Label) {
	pdf := p.pdf

	// header: logo box and barcode
	p.logo(l.IssuerLogo, pad, pad, 30, 20)
	// Encoding first keeps a bad payload from poisoning the document; such
	// labels carry the printed value only.
	if bcode, err := code128.Encode(l.BarcodeValue); err == nil {
		barcode.Barcode(pdf, barcode.Register(bcode), p.x(38), p.y(pad+1), p.w(58), p.h(12), false)
	}
	p.text(38, 18, 58, 3, "Courier", "B", 7, l.BarcodeValue, "C")
	p.line(26)

	// recipient
	p.text(pad, 27, 92, 3, "Helvetica", "B", 5, "DESTINATÁRIO", "L")
	p.text(pad, 30, 92, 4, "Helvetica", "B", 10, l.RecipientName, "L")
	p.text(pad, 35, 56, 3, "Helvetica", "B", 5, "ENDEREÇO", "L")
	p.text(pad, 38, 56, 3.5, "Helvetica", "", 7, l.RecipientAddress, "L")
	p.text(pad, 41.5, 56, 3.5, "Helvetica", "", 7, l.RecipientNeighborhood, "L")
	p.text(62, 35, 34, 3, "Helvetica", "B", 5, "CIDADE / UF", "R")
	p.text(62, 38, 34, 5, "Helvetica", "B", 10, l.RecipientCityUF, "R")

	// product line
	pdf.SetFillColor(241, 245, 249)
	pdf.Rect(p.x(pad), p.y(46), p.w(92), p.h(5), "F")
	p.text(pad+1, 46.5, 90, 4, "Helvetica", "B", 7, l.ProductCode+" — "+l.ProductDesc, "L")

	// footer: invoice number and volume
	pdf.SetLineWidth(0.6)
	p.line(54)
	pdf.SetLineWidth(0.2)
	p.text(pad, 55.5, 50, 3, "Helvetica", "B", 5, "NOTA FISCAL", "L")
	p.text(pad, 58.5, 60, 8, "Helvetica", "B", 20, l.InvoiceNumber, "L")

	pdf.SetFillColor(79, 70, 229)
	pdf.Rect(p.x(72), p.y(56), p.w(24), p.h(6), "F")
	pdf.SetTextColor(255, 255, 255)
	p.text(72, 56, 24, 6, "Helvetica", "B", 9, l.VolumeLabel, "C")
	pdf.SetTextColor(0, 0, 0)
	p.text(60, 63, 36, 3, "Helvetica", "B", 4, "DISTRIBUIÇÃO LOGÍSTICA", "R")
}

// logo draws the issuer logo inside the box, or a placeholder when the logo
// is missing or cannot be embedded.
func (p *labelPrinter) logo(dataURL string, x, y, w, h float64) {
	pdf := p.pdf
	pdf.SetFillColor(248, 250, 252)
	pdf.Rect(p.x(x), p.y(y), p.w(w), p.h(h), "F")

	name, iw, ih, ok := p.registerLogo(dataURL)
	if !ok {
		pdf.SetTextColor(203, 213, 225)
		p.text(x, y+h/2-2, w, 4, "Helvetica", "B", 8, "LOGO", "C")
		pdf.SetTextColor(0, 0, 0)
		return
	}

	boxW, boxH := p.w(w-2), p.h(h-2)
	scale := min(boxW/iw, boxH/ih)
	dw, dh := iw*scale, ih*scale
	dx := p.x(x+1) + (boxW-dw)/2
	dy := p.y(y+1) + (boxH-dh)/2
	pdf.ImageOptions(name, dx, dy, dw, dh, false, gofpdf.ImageOptions{}, 0, "")
}

func (p *labelPrinter) registerLogo(dataURL string) (name string, w, h float64, ok bool) {
	if dataURL == "" {
		return "", 0, 0, false
	}
	if cached, seen := p.logos[dataURL]; seen {
		if cached == "" {
			return "", 0, 0, false
		}
		info := p.pdf.GetImageInfo(cached)
		return cached, info.Width(), info.Height(), true
	}

	p.logos[dataURL] = ""
	logo, err := DecodeLogo(dataURL)
	if err != nil {
		return "", 0, 0, false
	}
	// gofpdf keeps a registration error for the whole document and refuses
	// some valid PNGs, so only a re-encoded copy is handed over.
	data, err := normalizeLogo(logo.Data)
	if err != nil {
		return "", 0, 0, false
	}

	name = "logo" + strconv.Itoa(len(p.logos))
	info := p.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
	if info == nil || p.pdf.Err() {
		return "", 0, 0, false
	}
	p.logos[dataURL] = name
	return name, info.Width(), info.Height(), true
}

func (p *labelPrinter) text(x, y, w, h float64, family, style string, size float64, s, align string) {
	pdf := p.pdf
	pdf.SetFont(family, style, size*min(p.sx, p.sy))
	pdf.SetXY(p.x(x), p.y(y))
	pdf.CellFormat(p.w(w), p.h(h), p.fit(s, p.w(w)), "", 0, align, false, 0, "")
}

// fit truncates s so it does not overflow a cell of width w.
func (p *labelPrinter) fit(s string, w float64) string {
	out := p.tr(s)
	for len(out) > 0 && p.pdf.GetStringWidth(out) > w {
		out = out[:len(out)-1]
	}
	return out
}

func (p *labelPrinter) line(y float64) {
	p.pdf.SetDrawColor(30, 41, 59)
	p.pdf.Line(p.x(pad), p.y(y), p.x(gridW-pad), p.y(y))
}

func (p *labelPrinter) x(v float64) float64 { return v * p.sx }
func (p *labelPrinter) y(v float64) float64 { return v * p.sy }
func (p *labelPrinter) w(v float64) float64 { return v * p.sx }
func (p *labelPrinter) h(v float64) float64 { return v * p.sy }
