package connectors

import (
	"context"

	"labelmaster/internal"
)

// MailConnector pulls raw messages that may carry NF-e attachments.
type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}
