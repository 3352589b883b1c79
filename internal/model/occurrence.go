package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OccurrenceAggregate is one occurrence record with its dependent
// collections. Its JSON form matches the backend detail payload, so
// marshaling an aggregate and assembling the result yields the same value.
type OccurrenceAggregate struct {
	OccurrenceID int64        `json:"occurrence_id"`
	UserID       int64        `json:"user_id"`
	UserName     string       `json:"user_name"`
	ProjectID    int64        `json:"project_id"`
	ProjectName  string       `json:"project_name"`
	IndividualID *int64       `json:"individual_id,omitempty"`
	Lifestage    *string      `json:"lifestage,omitempty"`
	Sex          *string      `json:"sex,omitempty"`
	BodyLength   *Measurement `json:"body_length,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	LanguageID   *int64       `json:"language_id,omitempty"`
	Latitude     *float64     `json:"latitude,omitempty"`
	Longitude    *float64     `json:"longitude,omitempty"`
	PlaceName    *string      `json:"place_name,omitempty"`
	Note         *string      `json:"note,omitempty"`

	// Classification is nil until the occurrence has been classified.
	Classification *ClassificationDetail `json:"classification,omitempty"`

	Observations    []ObservationDetail    `json:"observation"`
	Specimens       []SpecimenDetail       `json:"specimen"`
	Identifications []IdentificationDetail `json:"identification"`
	Attachments     []AttachmentDetail     `json:"attachments"`
}

type ClassificationDetail struct {
	ClassificationID *int64  `json:"classification_id,omitempty"`
	Kingdom          *string `json:"kingdom,omitempty"`
	Phylum           *string `json:"phylum,omitempty"`
	Class            *string `json:"class,omitempty"`
	Order            *string `json:"order,omitempty"`
	Family           *string `json:"family,omitempty"`
	Genus            *string `json:"genus,omitempty"`
	Species          *string `json:"species,omitempty"`
	Others           *string `json:"others,omitempty"`
}

// TaxonFields returns the taxon ranks from kingdom down to species, then others.
func (c *ClassificationDetail) TaxonFields() []*string {
	return []*string{c.Kingdom, c.Phylum, c.Class, c.Order, c.Family, c.Genus, c.Species, c.Others}
}

// IsEmpty reports whether no taxon field carries a value.
func (c *ClassificationDetail) IsEmpty() bool {
	for _, f := range c.TaxonFields() {
		if f != nil && strings.TrimSpace(*f) != "" {
			return false
		}
	}
	return true
}

type ObservationDetail struct {
	ObservationID int64     `json:"observation_id"`
	OccurrenceID  int64     `json:"-"`
	ObserverID    int64     `json:"observation_user_id"`
	ObserverName  string    `json:"observation_user"`
	MethodID      int64     `json:"observation_method_id"`
	MethodName    string    `json:"observation_method_name"`
	PageID        *int64    `json:"page_id,omitempty"`
	Behavior      *string   `json:"behavior,omitempty"`
	ObservedAt    time.Time `json:"observed_at"`
}

type SpecimenDetail struct {
	SpecimenID      int64     `json:"specimen_id"`
	OccurrenceID    int64     `json:"-"`
	PreparatorID    int64     `json:"specimen_user_id"`
	PreparatorName  string    `json:"specimen_user"`
	MethodID        int64     `json:"specimen_methods_id"`
	MethodName      string    `json:"specimen_methods_common"`
	CreatedAt       time.Time `json:"created_at"`
	PageID          *int64    `json:"page_id,omitempty"`
	InstitutionID   int64     `json:"institution_id"`
	InstitutionCode string    `json:"institution_code"`
	CollectionID    *string   `json:"collection_id,omitempty"`
}

type IdentificationDetail struct {
	IdentificationID int64     `json:"identification_id"`
	OccurrenceID     int64     `json:"-"`
	IdentifierID     int64     `json:"identification_user_id"`
	IdentifierName   string    `json:"identification_user"`
	IdentifiedAt     time.Time `json:"identified_at"`
	SourceInfo       *string   `json:"source_info,omitempty"`
}

type AttachmentDetail struct {
	AttachmentID int64   `json:"attachment_id"`
	OccurrenceID int64   `json:"-"`
	FilePath     string  `json:"file_path"`
	FileName     *string `json:"file_name,omitempty"`
	Note         *string `json:"note,omitempty"`
}

// DisplayName is the file name when known, otherwise the stored path.
func (a AttachmentDetail) DisplayName() string {
	if a.FileName != nil && *a.FileName != "" {
		return *a.FileName
	}
	return a.FilePath
}

// OccurrenceSummary is one row of a search result.
type OccurrenceSummary struct {
	OccurrenceID   int64                 `json:"occurrence_id"`
	UserID         int64                 `json:"user_id,omitempty"`
	UserName       string                `json:"user_name,omitempty"`
	ProjectID      int64                 `json:"project_id,omitempty"`
	ProjectName    string                `json:"project_name,omitempty"`
	Classification *ClassificationDetail `json:"classification,omitempty"`
	CreatedAt      *time.Time            `json:"created_at,omitempty"`
}

// Species returns the classified species name, or "" when unclassified.
func (s OccurrenceSummary) Species() string {
	if s.Classification == nil || s.Classification.Species == nil {
		return ""
	}
	return *s.Classification.Species
}

// Measurement holds a free-form measured value. The backend sends it as
// either a JSON string or a JSON number.
type Measurement string

func (m *Measurement) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Measurement(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("measurement must be a string or a number: %w", err)
	}
	*m = Measurement(n.String())
	return nil
}

func (m Measurement) String() string { return string(m) }
