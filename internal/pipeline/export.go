package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"labelmaster/internal"
)

var manifestHeaders = []string{
	"label_id", "invoice_id", "invoice_number", "issuer_name", "has_logo",
	"dest_name", "dest_address", "dest_neighborhood", "dest_city_uf",
	"product_code", "product_desc", "volume", "barcode",
}

// ExportLabelsToXLSX writes the print batch as a spreadsheet, one row per
// label, in print order.
func ExportLabelsToXLSX(labels []internal.Label, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range manifestHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, label := range labels {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, label.ID)
		set(2, label.InvoiceID)
		// text keeps leading zeros of the invoice number
		set(3, label.InvoiceNumber)
		set(4, label.IssuerName)
		set(5, label.IssuerLogo != "")
		set(6, label.RecipientName)
		set(7, label.RecipientAddress)
		set(8, label.RecipientNeighborhood)
		set(9, label.RecipientCityUF)
		set(10, label.ProductCode)
		set(11, label.ProductDesc)
		set(12, label.VolumeLabel)
		set(13, label.BarcodeValue)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
