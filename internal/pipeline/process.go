package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"labelmaster/internal"
	"labelmaster/internal/logger"
	"labelmaster/internal/storage"
)

type ProcessingService struct {
	db      *storage.DB
	session *Session
	log     *logger.Logger
}

func NewProcessingService(db *storage.DB, session *Session, log *logger.Logger) *ProcessingService {
	if log == nil {
		log = logger.Nop()
	}
	return &ProcessingService{db: db, session: session, log: log}
}

type ProcessResult struct {
	EmailID  int
	Status   internal.EmailStatus
	Invoices []internal.Invoice
}

func (s *ProcessingService) ProcessByProviderMessageID(ctx context.Context, provider, messageID string) (ProcessResult, error) {
	email, err := s.db.MustEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessEmail(ctx, email)
}

// ProcessPending handles fetched emails oldest first. Emails of other
// providers are left for their own listener when provider is set.
func (s *ProcessingService) ProcessPending(ctx context.Context, limit int, provider string) ([]ProcessResult, error) {
	pending, err := s.db.ListEmailsByStatus(internal.EmailFetched, limit)
	if err != nil {
		return nil, err
	}
	var results []ProcessResult
	for _, email := range pending {
		if provider != "" && email.Provider != provider {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.ProcessEmail(ctx, email)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ProcessEmail runs one message's NF-e attachments as a single batch. A batch
// with an undecodable document marks the email failed and commits nothing;
// only storage errors are returned.
func (s *ProcessingService) ProcessEmail(ctx context.Context, email internal.EmailRow) (ProcessResult, error) {
	start := time.Now()
	log := s.log.With("emailId", email.ID, "messageId", email.MessageID)

	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	mail, err := ExtractNFeFromEmailRaw(raw)
	if err != nil {
		log.Warnw("unreadable message", "error", err)
		return s.finish(email, internal.EmailFailed, nil, 0, start)
	}
	if len(mail.Documents) == 0 {
		log.Infow("no nfe attachments", "ignored", mail.Ignored)
		return s.finish(email, internal.EmailSkipped, nil, 0, start)
	}

	invoices, err := s.session.Upload(ctx, mail.Documents)
	var batchErr *BatchError
	if errors.As(err, &batchErr) {
		log.Warnw("nfe batch rejected", "error", batchErr)
		return s.finish(email, internal.EmailFailed, nil, len(batchErr.Failures), start)
	}
	if err != nil {
		return ProcessResult{}, err
	}

	log.Infow("nfe batch committed", "invoices", len(invoices))
	return s.finish(email, internal.EmailProcessed, invoices, 0, start)
}

func (s *ProcessingService) finish(email internal.EmailRow, status internal.EmailStatus, invoices []internal.Invoice, failed int, start time.Time) (ProcessResult, error) {
	if err := s.db.UpdateEmailStatus(email.ID, status); err != nil {
		return ProcessResult{}, err
	}
	volumes := 0
	for _, inv := range invoices {
		volumes += inv.TotalVolumes
	}
	_ = s.db.InsertRun(uuid.NewString(), email.ID,
		map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())},
		map[string]int{"invoices": len(invoices), "labels": volumes, "failedDocuments": failed},
	)
	return ProcessResult{EmailID: email.ID, Status: status, Invoices: invoices}, nil
}
