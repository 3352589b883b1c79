package repository

import (
	"context"
	"io"
	"time"

	"github.com/jwalitptl/specimen-gateway/internal/model"
)

// All repository interfaces in one file
type (
	// OccurrenceBackend is the remote specimen backend. Every call carries
	// the caller's session explicitly.
	OccurrenceBackend interface {
		SearchOccurrences(ctx context.Context, sess *model.Session, q model.FilterQuery) (model.ResultPage[model.OccurrenceSummary], error)
		// FetchOccurrence returns the complete raw detail payload.
		FetchOccurrence(ctx context.Context, sess *model.Session, id int64) ([]byte, error)
		CreateOccurrence(ctx context.Context, sess *model.Session, draft model.OccurrenceDraft) (int64, error)
		UploadAttachments(ctx context.Context, sess *model.Session, id int64, files []Upload) ([]model.AttachmentDetail, error)
		FetchCreateForm(ctx context.Context, sess *model.Session) (*model.CreateForm, error)
	}

	AuthBackend interface {
		Login(ctx context.Context, creds model.Credentials) (string, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, event *model.AuditEvent) error
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}
)

// Upload is one file relayed to the backend attachment endpoint.
type Upload struct {
	FileName string
	Content  io.Reader
}
