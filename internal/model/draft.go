package model

import (
	"fmt"
	"strings"
	"time"
)

// OccurrenceDraft is the writable form of an occurrence, edited field by
// field before it is submitted for creation.
type OccurrenceDraft struct {
	UserID       *int64     `json:"user_id,omitempty" validate:"required"`
	ProjectID    *int64     `json:"project_id,omitempty" validate:"required"`
	IndividualID *int64     `json:"individual_id,omitempty"`
	Lifestage    *string    `json:"lifestage,omitempty"`
	Sex          *string    `json:"sex,omitempty"`
	BodyLength   *string    `json:"body_length,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty" validate:"required"`
	LanguageID   *int64     `json:"language_id,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude    *float64   `json:"longitude,omitempty" validate:"omitempty,longitude"`
	PlaceName    *string    `json:"place_name,omitempty"`
	Note         *string    `json:"note,omitempty"`

	Classification DraftClassification `json:"classification"`
	Observation    DraftObservation    `json:"observation"`
	Specimen       DraftSpecimen       `json:"specimen"`
	Identification DraftIdentification `json:"identification"`
}

type DraftClassification struct {
	Kingdom *string `json:"kingdom,omitempty"`
	Phylum  *string `json:"phylum,omitempty"`
	Class   *string `json:"class,omitempty"`
	Order   *string `json:"order,omitempty"`
	Family  *string `json:"family,omitempty"`
	Genus   *string `json:"genus,omitempty"`
	Species *string `json:"species,omitempty"`
	Others  *string `json:"others,omitempty"`
}

type DraftObservation struct {
	ObserverID *int64     `json:"observation_user_id,omitempty"`
	MethodID   *int64     `json:"observation_method_id,omitempty"`
	PageID     *int64     `json:"page_id,omitempty"`
	Behavior   *string    `json:"behavior,omitempty"`
	ObservedAt *time.Time `json:"observed_at,omitempty"`
}

type DraftSpecimen struct {
	MethodID      *int64  `json:"specimen_methods_id,omitempty"`
	PageID        *int64  `json:"page_id,omitempty"`
	InstitutionID *int64  `json:"institution_id,omitempty"`
	CollectionID  *string `json:"collection_id,omitempty"`
}

type DraftIdentification struct {
	IdentifierID *int64     `json:"identification_user_id,omitempty"`
	IdentifiedAt *time.Time `json:"identified_at,omitempty"`
	SourceInfo   *string    `json:"source_info,omitempty"`
}

// DraftEdit is one field change addressed by explicit path segments,
// e.g. ["classification", "species"].
type DraftEdit struct {
	Path  []string `json:"path" binding:"required,min=1"`
	Value string   `json:"value"`
}

// timestampLayouts are the forms accepted from clients and the backend.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 as well as the date and datetime-local
// forms used by HTML inputs. Values without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
