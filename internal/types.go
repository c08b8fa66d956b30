package internal

import "github.com/shopspring/decimal"

const (
	OrderNumberPlaceholder = "---"
	NoProductCode          = "S/C"
	NoProductDescription   = "PRODUTO"
)

type Product struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type Recipient struct {
	Name         string `json:"name"`
	TaxID        string `json:"taxId"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	UF           string `json:"uf"`
}

// Invoice is the normalized view of one NF-e document. It is never mutated
// after extraction.
type Invoice struct {
	ID              string    `json:"id"`
	SourceName      string    `json:"sourceName,omitempty"`
	IssuerName      string    `json:"issuerName"`
	IssuerTradeName string    `json:"issuerTradeName,omitempty"`
	IssuerTaxID     string    `json:"issuerCnpj"`
	InvoiceNumber   string    `json:"invoiceNumber"`
	Recipient       Recipient `json:"recipient"`
	Products        []Product `json:"products"`
	TotalVolumes    int       `json:"totalVolumes"`
	OrderNumber     string    `json:"orderNumber"`
}

// Issuer is a branding entry of the issuer directory. TaxID holds digits only;
// Logo is a base64 data URL.
type Issuer struct {
	ID    string `json:"id"`
	TaxID string `json:"cnpj"`
	Name  string `json:"name"`
	Logo  string `json:"logo"`
}

type Label struct {
	ID                    string `json:"id"`
	InvoiceID             string `json:"invoiceId"`
	InvoiceNumber         string `json:"invoiceNumber"`
	IssuerName            string `json:"issuerName"`
	IssuerLogo            string `json:"issuerLogo"`
	RecipientName         string `json:"destName"`
	RecipientAddress      string `json:"destAddress"`
	RecipientNeighborhood string `json:"destNeighborhood"`
	RecipientCityUF       string `json:"destCityUF"`
	ProductCode           string `json:"productCode"`
	ProductDesc           string `json:"productDesc"`
	VolumeLabel           string `json:"volumeLabel"`
	ProductVolumeLabel    string `json:"productVolumeLabel"`
	BarcodeValue          string `json:"barcodeValue"`
}

type EmailStatus string

const (
	EmailFetched   EmailStatus = "fetched"
	EmailProcessed EmailStatus = "processed"
	EmailSkipped   EmailStatus = "skipped"
	EmailFailed    EmailStatus = "failed"
	EmailPrinted   EmailStatus = "printed"
)

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     EmailStatus
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
