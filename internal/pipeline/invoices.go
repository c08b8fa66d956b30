package pipeline

import (
	"context"
	"sync"

	"labelmaster/internal"
	"labelmaster/internal/directory"
	"labelmaster/internal/logger"
)

// InvoiceBook is the append-only collection of extracted invoices. Commit
// replaces the backing slice, so snapshots stay valid after later writes.
type InvoiceBook struct {
	mu       sync.RWMutex
	invoices []internal.Invoice
}

func NewInvoiceBook() *InvoiceBook {
	return &InvoiceBook{}
}

// Commit appends a whole batch and returns the new size.
func (b *InvoiceBook) Commit(batch []internal.Invoice) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(batch) == 0 {
		return len(b.invoices)
	}
	next := make([]internal.Invoice, 0, len(b.invoices)+len(batch))
	next = append(next, b.invoices...)
	next = append(next, batch...)
	b.invoices = next
	return len(next)
}

func (b *InvoiceBook) Clear() {
	b.mu.Lock()
	b.invoices = nil
	b.mu.Unlock()
}

func (b *InvoiceBook) Snapshot() []internal.Invoice {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.invoices[:len(b.invoices):len(b.invoices)]
}

func (b *InvoiceBook) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.invoices)
}

// Session ties the invoice book to the issuer directory the labels are
// derived from.
type Session struct {
	Book    *InvoiceBook
	Issuers *directory.Directory
	log     *logger.Logger
}

func NewSession(issuers *directory.Directory, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{Book: NewInvoiceBook(), Issuers: issuers, log: log}
}

// Upload extracts a batch and commits it only when every document parsed.
func (s *Session) Upload(ctx context.Context, docs []Document) ([]internal.Invoice, error) {
	invoices, err := ExtractBatch(ctx, docs)
	if err != nil {
		s.log.Warnw("batch rejected", "documents", len(docs), "error", err)
		return nil, err
	}
	size := s.Book.Commit(invoices)
	s.log.Infow("batch committed", "documents", len(docs), "invoices", size)
	return invoices, nil
}

func (s *Session) Clear() {
	s.Book.Clear()
}

// Labels recomputes the full label sequence from the current state.
func (s *Session) Labels() []internal.Label {
	return s.LabelsFor(s.Book.Snapshot())
}

// LabelsFor expands a subset of invoices, such as one email's batch, against
// the session's directory.
func (s *Session) LabelsFor(invoices []internal.Invoice) []internal.Label {
	if s.Issuers == nil {
		return ExpandLabels(invoices, nil)
	}
	return ExpandLabels(invoices, s.Issuers)
}
