package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/specimen-gateway/internal/config"
	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/repository"
	"github.com/jwalitptl/specimen-gateway/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
	"github.com/jwalitptl/specimen-gateway/pkg/httputil"
	"github.com/jwalitptl/specimen-gateway/pkg/metrics"
)

var testSession = &model.Session{Token: "tok-123"}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.BackendConfig{
		BaseURL:         srv.URL + "/api/v0_0_2",
		Timeout:         2 * time.Second,
		BreakerFailures: 2,
		BreakerOpenFor:  time.Minute,
	}, metrics.New(prometheus.NewRegistry(), "test"))
	require.NoError(t, err)
	return c
}

func TestSearchOccurrences(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v0_0_2/search", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "req-1", r.Header.Get(httputil.HeaderRequestID))
		assert.Equal(t, "formica", r.URL.Query().Get("species"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"occurrence_results": [{"occurrence_id": 11, "project_name": "Ants", "classification": {"species": "formica"}}],
			"metadata": {"total_results": 11, "current_page": 2, "per_page": 10, "total_pages": 2}
		}`)
	})

	ctx := httputil.WithRequestID(context.Background(), "req-1")
	page, err := c.SearchOccurrences(ctx, testSession, model.FilterQuery{
		Criteria: map[string]string{"species": "formica"},
		Page:     2,
		PerPage:  10,
	})
	require.NoError(t, err)

	assert.Equal(t, 11, page.TotalResults)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(11), page.Items[0].OccurrenceID)
	assert.Equal(t, "formica", page.Items[0].Species())
}

func TestSearchOccurrences_MissingResultsBecomeEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"metadata": {"total_results": 0, "current_page": 1, "per_page": 10, "total_pages": 0}}`)
	})

	page, err := c.SearchOccurrences(context.Background(), testSession, model.FilterQuery{Criteria: map[string]string{"a": "b"}, Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestSearchOccurrences_UndecodableBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>oops</html>`)
	})

	_, err := c.SearchOccurrences(context.Background(), testSession, model.FilterQuery{Criteria: map[string]string{"a": "b"}, Page: 1, PerPage: 10})
	var target *apperrors.PageConsistencyError
	assert.True(t, errors.As(err, &target))
}

func TestFetchOccurrence_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0_0_2/occurrences/99", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.FetchOccurrence(context.Background(), testSession, 99)

	var notFound *apperrors.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "99", notFound.ID)
	assert.True(t, c.Ready())
}

func TestFetchOccurrence_ServerErrorsOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 2; i++ {
		_, err := c.FetchOccurrence(context.Background(), testSession, 1)
		var unavailable *apperrors.UnavailableError
		require.True(t, errors.As(err, &unavailable))
		assert.Equal(t, http.StatusBadGateway, unavailable.Status)
	}
	assert.False(t, c.Ready())

	_, err := c.FetchOccurrence(context.Background(), testSession, 1)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchOccurrence_RequiresSession(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := c.FetchOccurrence(context.Background(), nil, 1)
	var unauth *apperrors.UnauthenticatedError
	assert.True(t, errors.As(err, &unauth))

	expired := &model.Session{Token: "t", ExpiresAt: time.Now().Add(-time.Minute)}
	_, err = c.FetchOccurrence(context.Background(), expired, 1)
	assert.True(t, errors.As(err, &unauth))

	assert.Zero(t, calls.Load())
}

func TestFetchOccurrence_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	payload, err := c.FetchOccurrence(ctx, testSession, 1)
	assert.Nil(t, payload)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, c.Ready())
}

func TestCreateOccurrence(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v0_0_2/create", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 3, body["user_id"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"OccurrenceID": 77}`)
	})

	uid := int64(3)
	id, err := c.CreateOccurrence(context.Background(), testSession, model.OccurrenceDraft{UserID: &uid})
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)
}

func TestCreateOccurrence_BackendRejects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": "project_id is unknown"}`)
	})

	_, err := c.CreateOccurrence(context.Background(), testSession, model.OccurrenceDraft{})
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Equal(t, "project_id is unknown", appErr.Message)
}

func TestUploadAttachments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0_0_2/create/5/attachments", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "a.jpg", files[0].Filename)

		_, _ = io.WriteString(w, `[{"attachment_id": 1, "file_path": "/f/a.jpg"}, {"attachment_id": 2, "file_path": "/f/b.jpg"}]`)
	})

	out, err := c.UploadAttachments(context.Background(), testSession, 5, []repository.Upload{
		{FileName: "a.jpg", Content: strings.NewReader("aaa")},
		{FileName: "b.jpg", Content: strings.NewReader("bbb")},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(5), out[1].OccurrenceID)
	assert.Equal(t, "/f/b.jpg", out[1].FilePath)
}

func TestFetchCreateForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = io.WriteString(w, `{
			"dropdown_list": {"users": [{"user_id": 1, "user_name": "saku"}]},
			"default_value": {"user_id": 1, "project_id": 0, "lifestage": "", "created_at": "2024-05-01T10:00", "classification": {"family": "Formicidae"}}
		}`)
	})

	form, err := c.FetchCreateForm(context.Background(), testSession)
	require.NoError(t, err)

	require.Len(t, form.Dropdowns.Users, 1)
	assert.NotNil(t, form.Dropdowns.Projects)
	assert.Empty(t, form.Dropdowns.Institutions)

	require.NotNil(t, form.Defaults.UserID)
	assert.Equal(t, int64(1), *form.Defaults.UserID)
	assert.Nil(t, form.Defaults.ProjectID)
	assert.Nil(t, form.Defaults.Lifestage)
	require.NotNil(t, form.Defaults.CreatedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), *form.Defaults.CreatedAt)
	require.NotNil(t, form.Defaults.Classification.Family)
	assert.Equal(t, "Formicidae", *form.Defaults.Classification.Family)
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var creds model.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"token": "jwt-abc"}`)
	})

	token, err := c.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-abc", token)

	_, err = c.Login(context.Background(), model.Credentials{Email: "a@b.c", Password: "wrong"})
	var unauth *apperrors.UnauthenticatedError
	assert.True(t, errors.As(err, &unauth))
}
