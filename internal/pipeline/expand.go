package pipeline

import (
	"math"
	"strconv"

	"github.com/samber/lo"

	"labelmaster/internal"
	"labelmaster/internal/util"
)

// IssuerLookup resolves branding by tax id. *directory.Directory satisfies it.
type IssuerLookup interface {
	Lookup(taxID string) (internal.Issuer, bool)
}

// ExpandLabels builds one label per declared volume, grouped by invoice in
// input order and by ascending volume within an invoice. It only reads its
// inputs, so equal inputs give equal output.
//
// BarcodeValue is the invoice number followed by the volume index with no
// separator, so invoice "12" volume 3 and invoice "1" volume 23 share "123".
func ExpandLabels(invoices []internal.Invoice, issuers IssuerLookup) []internal.Label {
	labels := make([]internal.Label, 0, labelCapacity(invoices))

	for _, inv := range invoices {
		logo := ""
		if issuers != nil {
			if issuer, ok := issuers.Lookup(util.NormalizeTaxID(inv.IssuerTaxID)); ok {
				logo = issuer.Logo
			}
		}

		productCode, productDesc := internal.NoProductCode, internal.NoProductDescription
		if first, ok := lo.First(inv.Products); ok {
			productCode = orDefault(first.Code, internal.NoProductCode)
			productDesc = orDefault(first.Description, internal.NoProductDescription)
		}

		base := internal.Label{
			InvoiceID:             inv.ID,
			InvoiceNumber:         inv.InvoiceNumber,
			IssuerName:            util.NormalizeText(inv.IssuerName),
			IssuerLogo:            logo,
			RecipientName:         util.NormalizeText(inv.Recipient.Name),
			RecipientAddress:      util.NormalizeText(inv.Recipient.Street + ", " + inv.Recipient.Number),
			RecipientNeighborhood: util.NormalizeText(inv.Recipient.Neighborhood),
			RecipientCityUF:       util.NormalizeText(inv.Recipient.City + "-" + inv.Recipient.UF),
			ProductCode:           util.NormalizeText(productCode),
			ProductDesc:           util.NormalizeText(productDesc),
		}

		totalVolumes := strconv.Itoa(inv.TotalVolumes)
		for i := 1; i <= inv.TotalVolumes; i++ {
			idx := strconv.Itoa(i)
			label := base
			label.ID = inv.ID + "-" + idx
			label.VolumeLabel = idx + "/" + totalVolumes
			label.ProductVolumeLabel = "V " + idx + "/" + totalVolumes
			label.BarcodeValue = inv.InvoiceNumber + idx
			labels = append(labels, label)
		}
	}

	return labels
}

// labelCapacity preallocates for invoices within util.MaxVolumes. Anything
// larger, or a sum that would overflow, grows on demand instead.
func labelCapacity(invoices []internal.Invoice) int {
	total := 0
	for _, inv := range invoices {
		n := inv.TotalVolumes
		if n < 0 || n > util.MaxVolumes {
			return 0
		}
		if total > math.MaxInt32-n {
			return 0
		}
		total += n
	}
	return total
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
