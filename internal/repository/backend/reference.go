package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jwalitptl/specimen-gateway/internal/model"
)

// defaultValues is the backend's per-user create-page defaults. Zero
// numbers and empty strings mean "no default".
type defaultValues struct {
	UserID         int64   `json:"user_id"`
	ProjectID      int64   `json:"project_id"`
	IndividualID   int64   `json:"individual_id"`
	Lifestage      string  `json:"lifestage"`
	Sex            string  `json:"sex"`
	BodyLength     string  `json:"body_length"`
	CreatedAt      string  `json:"created_at"`
	LanguageID     int64   `json:"language_id"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	PlaceName      string  `json:"place_name"`
	Note           string  `json:"note"`
	Classification struct {
		Species string `json:"species"`
		Genus   string `json:"genus"`
		Family  string `json:"family"`
		Order   string `json:"order"`
		Class   string `json:"class"`
		Phylum  string `json:"phylum"`
		Kingdom string `json:"kingdom"`
		Others  string `json:"others"`
	} `json:"classification"`
	Observation struct {
		UserID     int64  `json:"observation_user_id"`
		MethodID   int64  `json:"observation_method_id"`
		PageID     int64  `json:"page_id"`
		Behavior   string `json:"behavior"`
		ObservedAt string `json:"observed_at"`
	} `json:"observation"`
	Specimen struct {
		MethodID int64 `json:"specimen_methods_id"`
		PageID   int64 `json:"page_id"`
	} `json:"specimen"`
	Identification struct {
		UserID       int64  `json:"identification_user_id"`
		IdentifiedAt string `json:"identified_at"`
		SourceInfo   string `json:"source_info"`
	} `json:"identification"`
}

type createPage struct {
	Dropdowns model.Dropdowns `json:"dropdown_list"`
	Defaults  *defaultValues  `json:"default_value"`
}

func (c *Client) FetchCreateForm(ctx context.Context, sess *model.Session) (*model.CreateForm, error) {
	resp, err := c.do(ctx, call{
		op:     "create_form",
		method: http.MethodGet,
		path:   []string{"create"},
		sess:   sess,
	})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.status) {
		return nil, statusError(resp, "create form", "")
	}

	var page createPage
	if err := json.Unmarshal(resp.body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode create form: %w", err)
	}

	form := &model.CreateForm{Dropdowns: page.Dropdowns}
	form.Dropdowns.Normalize()
	if page.Defaults != nil {
		form.Defaults = page.Defaults.draft()
	}
	return form, nil
}

func (d *defaultValues) draft() model.OccurrenceDraft {
	return model.OccurrenceDraft{
		UserID:       optInt(d.UserID),
		ProjectID:    optInt(d.ProjectID),
		IndividualID: optInt(d.IndividualID),
		Lifestage:    optString(d.Lifestage),
		Sex:          optString(d.Sex),
		BodyLength:   optString(d.BodyLength),
		CreatedAt:    optTime(d.CreatedAt),
		LanguageID:   optInt(d.LanguageID),
		Latitude:     optFloat(d.Latitude),
		Longitude:    optFloat(d.Longitude),
		PlaceName:    optString(d.PlaceName),
		Note:         optString(d.Note),
		Classification: model.DraftClassification{
			Kingdom: optString(d.Classification.Kingdom),
			Phylum:  optString(d.Classification.Phylum),
			Class:   optString(d.Classification.Class),
			Order:   optString(d.Classification.Order),
			Family:  optString(d.Classification.Family),
			Genus:   optString(d.Classification.Genus),
			Species: optString(d.Classification.Species),
			Others:  optString(d.Classification.Others),
		},
		Observation: model.DraftObservation{
			ObserverID: optInt(d.Observation.UserID),
			MethodID:   optInt(d.Observation.MethodID),
			PageID:     optInt(d.Observation.PageID),
			Behavior:   optString(d.Observation.Behavior),
			ObservedAt: optTime(d.Observation.ObservedAt),
		},
		Specimen: model.DraftSpecimen{
			MethodID: optInt(d.Specimen.MethodID),
			PageID:   optInt(d.Specimen.PageID),
		},
		Identification: model.DraftIdentification{
			IdentifierID: optInt(d.Identification.UserID),
			IdentifiedAt: optTime(d.Identification.IdentifiedAt),
			SourceInfo:   optString(d.Identification.SourceInfo),
		},
	}
}

func optInt(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func optFloat(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func optString(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func optTime(v string) *time.Time {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	t, err := model.ParseTimestamp(v)
	if err != nil {
		return nil
	}
	return &t
}
