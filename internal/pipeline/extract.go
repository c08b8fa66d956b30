package pipeline

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/net/html/charset"

	"labelmaster/internal"
	"labelmaster/internal/util"
)

// ParseError reports a document that could not be decoded as XML at all.
type ParseError struct {
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid nfe xml: %v", e.Err)
	}
	return fmt.Sprintf("invalid nfe xml %s: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var errNoRoot = errors.New("document has no root element")

// ExtractInvoice parses one NF-e document. Only undecodable XML is an error;
// every missing field falls back to its default.
func ExtractInvoice(raw []byte) (internal.Invoice, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(raw); err != nil {
		return internal.Invoice{}, &ParseError{Err: err}
	}
	if doc.Root() == nil {
		return internal.Invoice{}, &ParseError{Err: errNoRoot}
	}

	nfe := nfeDocument{root: &doc.Element}
	emit := nfe.issuer()
	dest := nfe.recipient()
	ender := dest.child("enderDest")

	inv := internal.Invoice{
		ID:              uuid.NewString(),
		IssuerName:      emit.text("xNome").orEmpty(),
		IssuerTradeName: emit.text("xFant").orEmpty(),
		IssuerTaxID:     emit.text("CNPJ").orElse(emit.text("CPF").orEmpty()),
		InvoiceNumber:   nfe.text("nNF").orEmpty(),
		Recipient: internal.Recipient{
			Name:         dest.text("xNome").orEmpty(),
			TaxID:        dest.text("CNPJ").orElse(dest.text("CPF").orEmpty()),
			Street:       ender.text("xLgr").orEmpty(),
			Number:       ender.text("nro").orEmpty(),
			Neighborhood: ender.text("xBairro").orEmpty(),
			City:         ender.text("xMun").orEmpty(),
			UF:           ender.text("UF").orEmpty(),
		},
		Products:     nfe.products(),
		TotalVolumes: util.ParseVolumes(nfe.transport().child("vol").text("qVol").orEmpty()),
		OrderNumber:  nfe.text("xPed").orElse(internal.OrderNumberPlaceholder),
	}
	return inv, nil
}

// optional is the result of one field lookup.
type optional struct {
	value string
	ok    bool
}

func (o optional) orEmpty() string {
	return o.value
}

// orElse treats a present but blank field as missing.
func (o optional) orElse(fallback string) string {
	if !o.ok || o.value == "" {
		return fallback
	}
	return o.value
}

// node is a possibly missing element; lookups on a missing node yield missing
// values.
type node struct {
	el *etree.Element
}

func (n node) child(tag string) node {
	if n.el == nil {
		return node{}
	}
	return node{el: firstDescendant(n.el, tag)}
}

func (n node) text(tag string) optional {
	c := n.child(tag)
	if c.el == nil {
		return optional{}
	}
	return optional{value: strings.TrimSpace(textContent(c.el)), ok: true}
}

type nfeDocument struct {
	root *etree.Element
}

func (d nfeDocument) issuer() node    { return node{el: d.root}.child("emit") }
func (d nfeDocument) recipient() node { return node{el: d.root}.child("dest") }
func (d nfeDocument) transport() node { return node{el: d.root}.child("transp") }

func (d nfeDocument) text(tag string) optional {
	return node{el: d.root}.text(tag)
}

func (d nfeDocument) products() []internal.Product {
	dets := descendants(d.root, "det")
	out := make([]internal.Product, 0, len(dets))
	for _, det := range dets {
		prod := node{el: det}.child("prod")
		out = append(out, internal.Product{
			Code:        prod.text("cProd").orEmpty(),
			Description: prod.text("xProd").orEmpty(),
			Quantity:    util.ParseQuantity(prod.text("qCom").orEmpty()),
		})
	}
	return out
}

// firstDescendant walks the subtree in document order, excluding el itself.
// Tags are compared by local name so prefixed documents still match.
func firstDescendant(el *etree.Element, tag string) *etree.Element {
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			return c
		}
		if found := firstDescendant(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func descendants(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			if c.Tag == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(el)
	return out
}

func textContent(el *etree.Element) string {
	var b strings.Builder
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, tok := range e.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				b.WriteString(t.Data)
			case *etree.Element:
				walk(t)
			}
		}
	}
	walk(el)
	return b.String()
}
