package draft

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
)

func TestApplyEdit_RootAndNestedFields(t *testing.T) {
	d := model.OccurrenceDraft{}

	d, err := ApplyEdit(d, []string{"note"}, "under a stone")
	require.NoError(t, err)
	d, err = ApplyEdit(d, []string{"classification", "species"}, "Formica japonica")
	require.NoError(t, err)
	d, err = ApplyEdit(d, []string{"user_id"}, " 7 ")
	require.NoError(t, err)
	d, err = ApplyEdit(d, []string{"latitude"}, "35.68")
	require.NoError(t, err)
	d, err = ApplyEdit(d, []string{"observation", "observed_at"}, "2024-05-01T09:30")
	require.NoError(t, err)

	require.NotNil(t, d.Note)
	assert.Equal(t, "under a stone", *d.Note)
	require.NotNil(t, d.Classification.Species)
	assert.Equal(t, "Formica japonica", *d.Classification.Species)
	require.NotNil(t, d.UserID)
	assert.Equal(t, int64(7), *d.UserID)
	require.NotNil(t, d.Latitude)
	assert.InDelta(t, 35.68, *d.Latitude, 1e-9)
	require.NotNil(t, d.Observation.ObservedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), *d.Observation.ObservedAt)
}

func TestApplyEdit_DoesNotModifyInput(t *testing.T) {
	species := "Lasius niger"
	original := model.OccurrenceDraft{
		Classification: model.DraftClassification{Species: &species},
	}

	updated, err := ApplyEdit(original, []string{"classification", "species"}, "Lasius flavus")
	require.NoError(t, err)

	assert.Equal(t, "Lasius niger", *original.Classification.Species)
	assert.Equal(t, "Lasius flavus", *updated.Classification.Species)
}

func TestApplyEdit_EmptyValueClears(t *testing.T) {
	note := "x"
	id := int64(3)
	d := model.OccurrenceDraft{Note: &note, LanguageID: &id}

	d, err := ApplyEdit(d, []string{"note"}, "  ")
	require.NoError(t, err)
	d, err = ApplyEdit(d, []string{"language_id"}, "")
	require.NoError(t, err)

	assert.Nil(t, d.Note)
	assert.Nil(t, d.LanguageID)
}

func TestApplyEdit_UnknownPath(t *testing.T) {
	paths := [][]string{
		{"nope"},
		{"classification", "subspecies"},
		{"classification"},
		{"observation", "behavior", "extra"},
		{},
		nil,
	}
	for _, p := range paths {
		_, err := ApplyEdit(model.OccurrenceDraft{}, p, "v")
		var target *PathError
		assert.True(t, errors.As(err, &target), "path %v", p)
	}
}

func TestApplyEdit_InvalidValue(t *testing.T) {
	tests := []struct {
		path  []string
		value string
	}{
		{path: []string{"user_id"}, value: "seven"},
		{path: []string{"longitude"}, value: "east"},
		{path: []string{"identification", "identified_at"}, value: "yesterday"},
	}
	for _, tt := range tests {
		_, err := ApplyEdit(model.OccurrenceDraft{}, tt.path, tt.value)
		var target *ValueError
		assert.True(t, errors.As(err, &target), "path %v", tt.path)
	}
}

func TestApplyEdits(t *testing.T) {
	d, err := ApplyEdits(model.OccurrenceDraft{}, []model.DraftEdit{
		{Path: []string{"sex"}, Value: "female"},
		{Path: []string{"lifestage"}, Value: "adult"},
	})
	require.NoError(t, err)
	require.NotNil(t, d.Sex)
	require.NotNil(t, d.Lifestage)
	assert.Equal(t, "female", *d.Sex)
	assert.Equal(t, "adult", *d.Lifestage)
}

func TestApplyEdits_FailureLeavesDraftUntouched(t *testing.T) {
	note := "original"
	in := model.OccurrenceDraft{Note: &note}

	d, err := ApplyEdits(in, []model.DraftEdit{
		{Path: []string{"sex"}, Value: "female"},
		{Path: []string{"note"}, Value: "changed"},
		{Path: []string{"bogus"}, Value: "x"},
		{Path: []string{"lifestage"}, Value: "adult"},
	})

	var pathErr *PathError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, in, d)
	assert.Nil(t, d.Sex)
	require.NotNil(t, d.Note)
	assert.Equal(t, "original", *d.Note)
	assert.Equal(t, "original", note)
}

func TestParsePath(t *testing.T) {
	assert.Equal(t, []string{"classification", "genus"}, ParsePath("classification.genus"))
	assert.Equal(t, []string{"note"}, ParsePath(" note "))
}

func TestValidate(t *testing.T) {
	err := Validate(model.OccurrenceDraft{})
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Contains(t, appErr.Message, "user_id is required")
	assert.Contains(t, appErr.Message, "project_id is required")
	assert.Contains(t, appErr.Message, "created_at is required")

	d := model.OccurrenceDraft{}
	for _, e := range []model.DraftEdit{
		{Path: []string{"user_id"}, Value: "1"},
		{Path: []string{"project_id"}, Value: "2"},
		{Path: []string{"created_at"}, Value: "2024-05-01"},
	} {
		d, err = ApplyEdit(d, e.Path, e.Value)
		require.NoError(t, err)
	}
	assert.NoError(t, Validate(d))

	d, err = ApplyEdit(d, []string{"latitude"}, "123")
	require.NoError(t, err)
	assert.Error(t, Validate(d))
}
