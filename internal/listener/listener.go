package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"labelmaster/internal"
	"labelmaster/internal/config"
	"labelmaster/internal/connectors"
	gmailconnector "labelmaster/internal/connectors/gmail"
	imapconnector "labelmaster/internal/connectors/imap"
	"labelmaster/internal/logger"
	"labelmaster/internal/pipeline"
	"labelmaster/internal/storage"
)

// ConnectorFactory builds the mail connector for a provider name.
type ConnectorFactory func(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error)

type Service struct {
	db           *storage.DB
	cfg          config.Config
	session      *pipeline.Session
	log          *logger.Logger
	newConnector ConnectorFactory
}

func NewService(db *storage.DB, cfg config.Config, session *pipeline.Session, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{db: db, cfg: cfg, session: session, log: log, newConnector: MakeConnector}
}

// WithConnectorFactory swaps how connectors are built, mainly for tests.
func (s *Service) WithConnectorFactory(f ConnectorFactory) *Service {
	s.newConnector = f
	return s
}

func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(max(s.cfg.MailListenerIntervalSec, 1)) * time.Second
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			s.log.Errorw("listener cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// CycleResult summarizes one fetch, process and print round.
type CycleResult struct {
	Fetched   int
	Processed int
	Printed   []string
}

// RunCycle fetches, processes and optionally prints pending mail. The
// session's invoice book only holds the current cycle's batches and is
// emptied on return.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	defer s.session.Clear()

	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.newConnector(ctx, s.cfg, provider)
	if err != nil {
		return CycleResult{}, err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector, s.log)
	fetched, err := fetchService.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return CycleResult{}, err
	}

	processor := pipeline.NewProcessingService(s.db, s.session, s.log)
	results, err := processor.ProcessPending(ctx, s.cfg.MailListenerProcessBatch, provider)
	if err != nil {
		return CycleResult{}, err
	}

	cycle := CycleResult{Fetched: fetched.Fetched, Processed: len(results)}
	if s.cfg.MailListenerAutoPrint {
		for _, res := range results {
			path, err := s.print(res)
			if err != nil {
				return cycle, err
			}
			if path != "" {
				cycle.Printed = append(cycle.Printed, path)
			}
		}
	}

	s.log.Infow("listener cycle done", "provider", provider, "fetched", cycle.Fetched, "new", fetched.New, "processed", cycle.Processed, "printed", len(cycle.Printed))
	return cycle, nil
}

// print renders the labels of one processed email into its own PDF.
func (s *Service) print(res pipeline.ProcessResult) (string, error) {
	if res.Status != internal.EmailProcessed || len(res.Invoices) == 0 {
		return "", nil
	}
	email, err := s.db.GetEmailByID(res.EmailID)
	if err != nil {
		return "", err
	}
	if email == nil {
		return "", errors.Newf("email %d disappeared", res.EmailID)
	}

	labels := s.session.LabelsFor(res.Invoices)
	filename := fmt.Sprintf("%d_%s.pdf", email.ID, sanitizeMessageID(email.MessageID))
	outputPath := filepath.Join(s.cfg.OutputDir, "listener", filename)
	opts := pipeline.PrintOptions{WidthMM: s.cfg.LabelWidthMM, HeightMM: s.cfg.LabelHeightMM}
	if err := pipeline.RenderLabelsPDFFile(labels, opts, outputPath); err != nil {
		return "", errors.Wrapf(err, "print email %d", email.ID)
	}
	if err := s.db.UpdateEmailStatus(email.ID, internal.EmailPrinted); err != nil {
		return "", err
	}
	s.log.Infow("labels printed", "emailId", email.ID, "labels", len(labels), "path", outputPath)
	return outputPath, nil
}

// MakeConnector is the default ConnectorFactory.
func MakeConnector(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, errors.Newf("unsupported listener provider: %s", provider)
	}
}

func sanitizeMessageID(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_", "@", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
