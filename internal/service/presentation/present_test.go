package presentation

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/specimen-gateway/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestPresent(t *testing.T) {
	var nilString *string
	var nilFloat *float64

	tests := []struct {
		name      string
		value     any
		wantOK    bool
		wantValue any
	}{
		{name: "nil", value: nil, wantOK: false},
		{name: "nil pointer", value: nilString, wantOK: false},
		{name: "nil float pointer", value: nilFloat, wantOK: false},
		{name: "empty string", value: "", wantOK: false},
		{name: "pointer to empty string", value: ptr(""), wantOK: false},
		{name: "empty measurement", value: ptr(model.Measurement("")), wantOK: false},
		{name: "zero int", value: 0, wantOK: true, wantValue: 0},
		{name: "false", value: false, wantOK: true, wantValue: false},
		{name: "pointer to zero float", value: ptr(0.0), wantOK: true, wantValue: 0.0},
		{name: "string", value: "adult", wantOK: true, wantValue: "adult"},
		{name: "pointer to string", value: ptr("female"), wantOK: true, wantValue: "female"},
		{name: "whitespace is kept", value: " ", wantOK: true, wantValue: " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := Present("Label", tt.value)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "Label", f.Label)
				assert.Equal(t, tt.wantValue, f.Value)
			}
		})
	}
}

func TestPresent_BodyLengthZero(t *testing.T) {
	f, ok := Present("Body Length", 0)
	require.True(t, ok)
	assert.Equal(t, Field{Label: "Body Length", Value: 0}, f)
}

func TestPresent_MissingNote(t *testing.T) {
	var note *string
	_, ok := Present("Note", note)
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	r, err := NewRenderer("2006-01-02 15:04", "Asia/Tokyo")
	require.NoError(t, err)

	agg := &model.OccurrenceAggregate{
		OccurrenceID: 42,
		UserName:     "saku",
		ProjectName:  "Ant survey",
		IndividualID: ptr(int64(0)),
		Lifestage:    ptr(""),
		CreatedAt:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Observations: []model.ObservationDetail{
			{ObserverName: "saku", MethodName: "hand", ObservedAt: time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)},
		},
		Specimens:       []model.SpecimenDetail{},
		Identifications: []model.IdentificationDetail{},
		Attachments: []model.AttachmentDetail{
			{FilePath: "/files/a.jpg"},
		},
	}

	view := r.Render(agg)

	assert.Equal(t, int64(42), view.OccurrenceID)
	titles := make([]string, 0, len(view.Sections))
	for _, s := range view.Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{
		"Basic Information",
		"Location",
		"Observations (1)",
		"Specimens (0)",
		"Identifications (0)",
		"Attachments (1)",
	}, titles)

	basic := view.Sections[0].Fields
	assert.Equal(t, []Field{
		{Label: "User", Value: "saku"},
		{Label: "Project", Value: "Ant survey"},
		{Label: "Individual ID", Value: int64(0)},
		{Label: "Date Created", Value: "2024-05-01 09:00"},
	}, basic)

	assert.Empty(t, view.Sections[1].Fields)

	obs := view.Sections[2].Entries[0].Fields
	assert.Contains(t, obs, Field{Label: "Observed At", Value: "2024-05-01 10:00"})
	assert.NotContains(t, obs, Field{Label: "Behavior", Value: nil})

	assert.Equal(t, []Field{{Label: "File", Value: "/files/a.jpg"}}, view.Sections[5].Entries[0].Fields)
}

func TestRender_Classification(t *testing.T) {
	r, err := NewRenderer("", "UTC")
	require.NoError(t, err)

	agg := &model.OccurrenceAggregate{
		OccurrenceID:   1,
		CreatedAt:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Classification: &model.ClassificationDetail{Family: ptr("Formicidae"), Species: ptr("Formica japonica")},
	}

	view := r.Render(agg)

	var found *Section
	for i := range view.Sections {
		if view.Sections[i].Title == "Classification" {
			found = &view.Sections[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, []Field{
		{Label: "Family", Value: "Formicidae"},
		{Label: "Species", Value: "Formica japonica"},
	}, found.Fields)
}

func TestNewRenderer_UnknownZone(t *testing.T) {
	_, err := NewRenderer("", "Nowhere/Special")
	assert.Error(t, err)
}
