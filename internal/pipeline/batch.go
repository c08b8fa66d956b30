package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/iter"

	"labelmaster/internal"
)

// Document is one uploaded file of a batch.
type Document struct {
	Name    string
	Content []byte
}

// BatchError rejects a whole batch. Failures keep submission order.
type BatchError struct {
	Total    int
	Failures []*ParseError
}

func (e *BatchError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Error())
	}
	return fmt.Sprintf("batch rejected: %d of %d documents are not valid NF-e XML: %s", len(e.Failures), e.Total, strings.Join(names, "; "))
}

func (e *BatchError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f)
	}
	return out
}

type extraction struct {
	invoice internal.Invoice
	err     *ParseError
}

// ExtractBatch parses every document concurrently and returns the invoices in
// submission order. If any document fails, no invoice is returned.
func ExtractBatch(ctx context.Context, docs []Document) ([]internal.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []internal.Invoice{}, nil
	}

	results := iter.Map(docs, func(doc *Document) extraction {
		inv, err := ExtractInvoice(doc.Content)
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) {
				pe = &ParseError{Err: err}
			}
			pe.Name = doc.Name
			return extraction{err: pe}
		}
		inv.SourceName = doc.Name
		return extraction{invoice: inv}
	})

	var failures []*ParseError
	invoices := make([]internal.Invoice, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			failures = append(failures, r.err)
			continue
		}
		invoices = append(invoices, r.invoice)
	}
	if len(failures) > 0 {
		return nil, &BatchError{Total: len(docs), Failures: failures}
	}
	return invoices, nil
}
