package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/service/presentation"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
)

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"species=Apis", " project_id =4", "note="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"species": "Apis", "project_id": "4", "note": ""}, got)

	_, err = parseAssignments([]string{"species"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
}

func TestParseEdits(t *testing.T) {
	got, err := parseEdits([]string{"classification.species=Apis cerana", "latitude=35.1"})
	require.NoError(t, err)
	assert.Equal(t, []model.DraftEdit{
		{Path: []string{"classification", "species"}, Value: "Apis cerana"},
		{Path: []string{"latitude"}, Value: "35.1"},
	}, got)
}

func TestSessionStore(t *testing.T) {
	store := &sessionStore{path: filepath.Join(t.TempDir(), "nested", "session")}

	_, err := store.Load()
	var unauth *apperrors.UnauthenticatedError
	require.ErrorAs(t, err, &unauth)

	require.NoError(t, store.Save("tok-1"))
	info, err := os.Stat(store.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}

func TestPrintSearch(t *testing.T) {
	species := "Apis cerana"
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := printSearch(&buf, model.ResultPage[model.OccurrenceSummary]{
		Items: []model.OccurrenceSummary{
			{OccurrenceID: 7, ProjectName: "Bees", Classification: &model.ClassificationDetail{Species: &species}, CreatedAt: &created},
			{OccurrenceID: 8},
		},
		TotalResults: 12, CurrentPage: 1, PerPage: 2, TotalPages: 6,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Apis cerana")
	assert.Contains(t, out, "2024-05-01")
	assert.Contains(t, out, "page 1 of 6, 12 results")

	buf.Reset()
	require.NoError(t, printSearch(&buf, model.ResultPage[model.OccurrenceSummary]{}))
	assert.Equal(t, "no occurrences found\n", buf.String())
}

func TestPrintView(t *testing.T) {
	var buf bytes.Buffer
	err := printView(&buf, presentation.View{
		Title: "Occurrence #3",
		Sections: []presentation.Section{
			{Title: "Basic Information", Fields: []presentation.Field{{Label: "Sex", Value: "female"}}},
			{Title: "Observations (1)", Entries: []presentation.Entry{{Fields: []presentation.Field{{Label: "Observer", Value: "hanako"}}}}},
		},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Occurrence #3")
	assert.Contains(t, out, "female")
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "hanako")
}

func TestSearchCommand(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0_0_2/search", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "Apis", r.URL.Query().Get("species"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"occurrence_results": [{"occurrence_id": 5, "project_name": "Bees"}],
			"metadata": {"total_results": 1, "current_page": 1, "per_page": 10, "total_pages": 1}
		}`))
	}))
	defer backend.Close()

	t.Setenv("SPECIMEN_BACKEND_BASE_URL", backend.URL+"/api/v0_0_2")
	session := filepath.Join(t.TempDir(), "session")
	require.NoError(t, (&sessionStore{path: session}).Save("tok-1"))

	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs([]string{"search", "species=Apis", "--session-file", session})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Bees")
	assert.Contains(t, out.String(), "page 1 of 1, 1 results")
}

func TestSearchCommand_NotLoggedIn(t *testing.T) {
	t.Setenv("SPECIMEN_BACKEND_BASE_URL", "http://127.0.0.1:1/api")

	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"search", "species=Apis", "--session-file", filepath.Join(t.TempDir(), "none")})

	err := cmd.Execute()
	var unauth *apperrors.UnauthenticatedError
	require.ErrorAs(t, err, &unauth)
	assert.Contains(t, err.Error(), "specimenctl login")
}
