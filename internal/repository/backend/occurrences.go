package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/repository"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
)

func (c *Client) SearchOccurrences(ctx context.Context, sess *model.Session, q model.FilterQuery) (model.ResultPage[model.OccurrenceSummary], error) {
	resp, err := c.do(ctx, call{
		op:     "search",
		method: http.MethodGet,
		path:   []string{"search"},
		query:  q.Values(),
		sess:   sess,
	})
	if err != nil {
		return model.ResultPage[model.OccurrenceSummary]{}, err
	}
	if !isSuccess(resp.status) {
		return model.ResultPage[model.OccurrenceSummary]{}, statusError(resp, "search", "")
	}

	var wire model.SearchResponse
	if err := json.Unmarshal(resp.body, &wire); err != nil {
		return model.ResultPage[model.OccurrenceSummary]{}, &apperrors.PageConsistencyError{
			Invariant: "wire_shape",
			Detail:    err.Error(),
		}
	}
	return wire.Page(), nil
}

func (c *Client) FetchOccurrence(ctx context.Context, sess *model.Session, id int64) ([]byte, error) {
	idStr := strconv.FormatInt(id, 10)
	resp, err := c.do(ctx, call{
		op:     "get_occurrence",
		method: http.MethodGet,
		path:   []string{"occurrences", idStr},
		sess:   sess,
	})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.status) {
		return nil, statusError(resp, "occurrence", idStr)
	}
	return resp.body, nil
}

// createResponse accepts both the backend entity field name and the
// snake_case form.
type createResponse struct {
	OccurrenceID      *int64 `json:"OccurrenceID"`
	OccurrenceIDSnake *int64 `json:"occurrence_id"`
}

func (c *Client) CreateOccurrence(ctx context.Context, sess *model.Session, draft model.OccurrenceDraft) (int64, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return 0, fmt.Errorf("failed to encode draft: %w", err)
	}

	resp, err := c.do(ctx, call{
		op:          "create_occurrence",
		method:      http.MethodPost,
		path:        []string{"create"},
		body:        body,
		contentType: "application/json",
		sess:        sess,
	})
	if err != nil {
		return 0, err
	}
	if !isSuccess(resp.status) {
		return 0, statusError(resp, "create", "")
	}

	var created createResponse
	if err := json.Unmarshal(resp.body, &created); err != nil {
		return 0, &apperrors.AggregateShapeError{Reason: "undecodable create response", Err: err}
	}
	switch {
	case created.OccurrenceID != nil:
		return *created.OccurrenceID, nil
	case created.OccurrenceIDSnake != nil:
		return *created.OccurrenceIDSnake, nil
	default:
		return 0, &apperrors.AggregateShapeError{Field: "OccurrenceID", Reason: "missing from create response"}
	}
}

func (c *Client) UploadAttachments(ctx context.Context, sess *model.Session, id int64, files []repository.Upload) ([]model.AttachmentDetail, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.FileName)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("failed to copy %s: %w", f.FileName, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	idStr := strconv.FormatInt(id, 10)
	resp, err := c.do(ctx, call{
		op:          "upload_attachments",
		method:      http.MethodPost,
		path:        []string{"create", idStr, "attachments"},
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
		sess:        sess,
	})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.status) {
		return nil, statusError(resp, "occurrence", idStr)
	}

	var attachments []model.AttachmentDetail
	if err := json.Unmarshal(resp.body, &attachments); err != nil {
		return nil, &apperrors.AggregateShapeError{Field: "attachments", Reason: "undecodable upload response", Err: err}
	}
	for i := range attachments {
		attachments[i].OccurrenceID = id
	}
	return attachments, nil
}
