package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelmaster/internal"
	"labelmaster/internal/directory"
	"labelmaster/internal/storage"
)

type attachment struct {
	name        string
	contentType string
	content     []byte
}

func buildMessage(t *testing.T, subject string, attachments ...attachment) []byte {
	t.Helper()
	b := enmime.Builder().
		From("Faturamento", "nfe@fornecedor.com.br").
		To("Expedição", "expedicao@example.com").
		Subject(subject).
		Text([]byte("Segue NF-e em anexo."))
	for _, a := range attachments {
		b = b.AddAttachment(a.content, a.contentType, a.name)
	}
	part, err := b.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, part.Encode(&buf))
	return buf.Bytes()
}

func TestExtractNFeFromEmailRaw(t *testing.T) {
	full := readFixture(t, "nfe_full.xml")
	raw := buildMessage(t, "NF-e 123",
		attachment{"nfe.xml", "application/xml", full},
		attachment{"danfe.pdf", "application/pdf", []byte("%PDF-1.4")},
		attachment{"nfe.xml", "text/xml", readFixture(t, "nfe_minimal.xml")},
	)

	mail, err := ExtractNFeFromEmailRaw(raw)
	require.NoError(t, err)

	assert.Equal(t, "NF-e 123", mail.Subject)
	require.Len(t, mail.Documents, 2)
	assert.Equal(t, "nfe.xml", mail.Documents[0].Name)
	assert.Equal(t, "nfe-2.xml", mail.Documents[1].Name)
	assert.Equal(t, full, mail.Documents[0].Content)
	assert.Equal(t, []string{"danfe.pdf"}, mail.Ignored)
}

type processFixture struct {
	db      *storage.DB
	session *Session
	service *ProcessingService
	dir     string
}

func newProcessFixture(t *testing.T) processFixture {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "app.db"), "dist_labels_clients")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	session := NewSession(directory.New(), nil)
	return processFixture{db: db, session: session, service: NewProcessingService(db, session, nil), dir: dir}
}

func (f processFixture) store(t *testing.T, messageID string, raw []byte) internal.EmailRow {
	t.Helper()
	rawPath := filepath.Join(f.dir, messageID+".eml")
	require.NoError(t, os.WriteFile(rawPath, raw, 0o644))
	email, err := f.db.UpsertEmail("imap", messageID, "NF-e", "nfe@fornecedor.com.br", "2026-02-08T00:00:00Z", "hash-"+messageID, rawPath, internal.EmailFetched)
	require.NoError(t, err)
	return email
}

func TestProcessEmailCommitsInvoices(t *testing.T) {
	f := newProcessFixture(t)
	email := f.store(t, "m1", buildMessage(t, "NF-e 123",
		attachment{"nfe.xml", "application/xml", readFixture(t, "nfe_full.xml")},
	))

	res, err := f.service.ProcessEmail(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, internal.EmailProcessed, res.Status)
	require.Len(t, res.Invoices, 1)
	assert.Equal(t, "000123", res.Invoices[0].InvoiceNumber)
	assert.Len(t, f.session.Labels(), 3)

	stored, err := f.db.GetEmailByID(email.ID)
	require.NoError(t, err)
	assert.Equal(t, internal.EmailProcessed, stored.Status)

	runs, err := f.db.CountRuns(email.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, runs)
}

func TestProcessEmailRejectsBrokenBatch(t *testing.T) {
	f := newProcessFixture(t)
	email := f.store(t, "m2", buildMessage(t, "NF-e",
		attachment{"ok.xml", "application/xml", readFixture(t, "nfe_full.xml")},
		attachment{"broken.xml", "application/xml", []byte(`<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe"><NFe><infNFe><emit>`)},
	))

	res, err := f.service.ProcessEmail(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, internal.EmailFailed, res.Status)
	assert.Empty(t, res.Invoices)
	assert.Zero(t, f.session.Book.Len())
}

func TestProcessEmailWithoutNFe(t *testing.T) {
	f := newProcessFixture(t)
	email := f.store(t, "m3", buildMessage(t, "Boleto",
		attachment{"boleto.pdf", "application/pdf", []byte("%PDF-1.4")},
	))

	res, err := f.service.ProcessEmail(context.Background(), email)
	require.NoError(t, err)
	assert.Equal(t, internal.EmailSkipped, res.Status)
}

func TestProcessPending(t *testing.T) {
	f := newProcessFixture(t)
	f.store(t, "p1", buildMessage(t, "NF-e 1", attachment{"a.xml", "application/xml", readFixture(t, "nfe_full.xml")}))
	f.store(t, "p2", buildMessage(t, "NF-e 2", attachment{"b.xml", "application/xml", readFixture(t, "nfe_minimal.xml")}))

	results, err := f.service.ProcessPending(context.Background(), 10, "imap")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Len(t, results[0].Invoices, 1)
	require.Len(t, results[1].Invoices, 1)
	assert.Equal(t, "000123", results[0].Invoices[0].InvoiceNumber)
	assert.Equal(t, "42", results[1].Invoices[0].InvoiceNumber)

	pending, err := f.db.ListEmailsByStatus(internal.EmailFetched, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	f.store(t, "p3", buildMessage(t, "NF-e 3", attachment{"c.xml", "application/xml", readFixture(t, "nfe_minimal.xml")}))
	results, err = f.service.ProcessPending(context.Background(), 10, "gmail")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProcessByProviderMessageID(t *testing.T) {
	f := newProcessFixture(t)
	f.store(t, "byid", buildMessage(t, "NF-e", attachment{"a.xml", "application/xml", readFixture(t, "nfe_minimal.xml")}))

	res, err := f.service.ProcessByProviderMessageID(context.Background(), "imap", "byid")
	require.NoError(t, err)
	assert.Equal(t, internal.EmailProcessed, res.Status)

	_, err = f.service.ProcessByProviderMessageID(context.Background(), "imap", "missing")
	assert.Error(t, err)
}
