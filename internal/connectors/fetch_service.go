package connectors

import (
	"context"

	"github.com/cockroachdb/errors"

	"labelmaster/internal/logger"
	"labelmaster/internal/storage"
)

type FetchService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStoreService
	log       *logger.Logger
}

type FetchResult struct {
	Fetched int
	Stored  int
	// New counts messages seen for the first time; refetched messages keep
	// their processing status.
	New int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector, log *logger.Logger) *FetchService {
	if log == nil {
		log = logger.Nop()
	}
	return &FetchService{
		db:        db,
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
		log:       log,
	}
}

func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, errors.Wrap(err, "fetch inbox")
	}

	res := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		known, err := s.db.GetEmailByProviderMessageID(msg.Provider, msg.MessageID)
		if err != nil {
			return res, err
		}
		if _, err := s.store.Store(msg); err != nil {
			return res, errors.Wrapf(err, "store message %s", msg.MessageID)
		}
		res.Stored++
		if known == nil {
			res.New++
		}
	}

	s.log.Infow("mail fetched", "fetched", res.Fetched, "stored", res.Stored, "new", res.New)
	return res, nil
}
