package occurrence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
	jsonvalidator "github.com/jwalitptl/specimen-gateway/pkg/validator"
)

// rawOccurrence mirrors the backend detail payload. Required values are
// pointers so that absence can be told apart from a zero value.
type rawOccurrence struct {
	OccurrenceID   *int64                      `json:"occurrence_id" validate:"required"`
	UserID         *int64                      `json:"user_id" validate:"required"`
	UserName       string                      `json:"user_name"`
	ProjectID      *int64                      `json:"project_id" validate:"required"`
	ProjectName    string                      `json:"project_name"`
	IndividualID   *int64                      `json:"individual_id"`
	Lifestage      *string                     `json:"lifestage"`
	Sex            *string                     `json:"sex"`
	BodyLength     json.RawMessage             `json:"body_length"`
	CreatedAt      *string                     `json:"created_at" validate:"required"`
	LanguageID     *int64                      `json:"language_id"`
	Latitude       *float64                    `json:"latitude"`
	Longitude      *float64                    `json:"longitude"`
	PlaceName      *string                     `json:"place_name"`
	Note           *string                     `json:"note"`
	Classification *model.ClassificationDetail `json:"classification"`

	Observations    []rawObservation    `json:"observation" validate:"dive"`
	Specimens       []rawSpecimen       `json:"specimen" validate:"dive"`
	Identifications []rawIdentification `json:"identification" validate:"dive"`
	Attachments     []rawAttachment     `json:"attachments" validate:"dive"`
}

type rawObservation struct {
	ObservationID int64   `json:"observation_id"`
	ObserverID    int64   `json:"observation_user_id"`
	ObserverName  string  `json:"observation_user"`
	MethodID      int64   `json:"observation_method_id"`
	MethodName    string  `json:"observation_method_name"`
	PageID        *int64  `json:"page_id"`
	Behavior      *string `json:"behavior"`
	ObservedAt    *string `json:"observed_at" validate:"required"`
}

type rawSpecimen struct {
	SpecimenID      int64   `json:"specimen_id"`
	PreparatorID    int64   `json:"specimen_user_id"`
	PreparatorName  string  `json:"specimen_user"`
	MethodID        int64   `json:"specimen_methods_id"`
	MethodName      string  `json:"specimen_methods_common"`
	CreatedAt       *string `json:"created_at" validate:"required"`
	PageID          *int64  `json:"page_id"`
	InstitutionID   int64   `json:"institution_id"`
	InstitutionCode string  `json:"institution_code"`
	CollectionID    *string `json:"collection_id"`
}

type rawIdentification struct {
	IdentificationID int64   `json:"identification_id"`
	IdentifierID     int64   `json:"identification_user_id"`
	IdentifierName   string  `json:"identification_user"`
	IdentifiedAt     *string `json:"identified_at" validate:"required"`
	SourceInfo       *string `json:"source_info"`
}

type rawAttachment struct {
	AttachmentID int64   `json:"attachment_id"`
	FilePath     *string `json:"file_path" validate:"required,min=1"`
	FileName     *string `json:"file_name"`
	Note         *string `json:"note"`
}

var validate = jsonvalidator.New()

// Assemble decodes one backend detail payload into an OccurrenceAggregate.
// Missing collections become empty, item order is kept and a
// classification without any taxon value is dropped. Assembling the JSON
// encoding of the result yields an equal aggregate.
func Assemble(payload []byte) (*model.OccurrenceAggregate, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, &apperrors.AggregateShapeError{Reason: "empty payload"}
	}

	var raw rawOccurrence
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, decodeError(err)
	}

	if err := validate.Struct(raw); err != nil {
		return nil, validationError(err)
	}

	agg := &model.OccurrenceAggregate{
		OccurrenceID: *raw.OccurrenceID,
		UserID:       *raw.UserID,
		UserName:     raw.UserName,
		ProjectID:    *raw.ProjectID,
		ProjectName:  raw.ProjectName,
		IndividualID: raw.IndividualID,
		Lifestage:    raw.Lifestage,
		Sex:          raw.Sex,
		LanguageID:   raw.LanguageID,
		Latitude:     raw.Latitude,
		Longitude:    raw.Longitude,
		PlaceName:    raw.PlaceName,
		Note:         raw.Note,

		Classification: normalizeClassification(raw.Classification),

		Observations:    make([]model.ObservationDetail, 0, len(raw.Observations)),
		Specimens:       make([]model.SpecimenDetail, 0, len(raw.Specimens)),
		Identifications: make([]model.IdentificationDetail, 0, len(raw.Identifications)),
		Attachments:     make([]model.AttachmentDetail, 0, len(raw.Attachments)),
	}

	var err error
	if agg.CreatedAt, err = parseTime("created_at", *raw.CreatedAt); err != nil {
		return nil, err
	}

	if len(raw.BodyLength) > 0 && !bytes.Equal(bytes.TrimSpace(raw.BodyLength), []byte("null")) {
		var m model.Measurement
		if err := m.UnmarshalJSON(raw.BodyLength); err != nil {
			return nil, &apperrors.AggregateShapeError{Field: "body_length", Reason: err.Error(), Err: err}
		}
		agg.BodyLength = &m
	}

	for i, o := range raw.Observations {
		observedAt, err := parseTime(fmt.Sprintf("observation[%d].observed_at", i), *o.ObservedAt)
		if err != nil {
			return nil, err
		}
		agg.Observations = append(agg.Observations, model.ObservationDetail{
			ObservationID: o.ObservationID,
			OccurrenceID:  agg.OccurrenceID,
			ObserverID:    o.ObserverID,
			ObserverName:  o.ObserverName,
			MethodID:      o.MethodID,
			MethodName:    o.MethodName,
			PageID:        o.PageID,
			Behavior:      o.Behavior,
			ObservedAt:    observedAt,
		})
	}

	for i, s := range raw.Specimens {
		createdAt, err := parseTime(fmt.Sprintf("specimen[%d].created_at", i), *s.CreatedAt)
		if err != nil {
			return nil, err
		}
		agg.Specimens = append(agg.Specimens, model.SpecimenDetail{
			SpecimenID:      s.SpecimenID,
			OccurrenceID:    agg.OccurrenceID,
			PreparatorID:    s.PreparatorID,
			PreparatorName:  s.PreparatorName,
			MethodID:        s.MethodID,
			MethodName:      s.MethodName,
			CreatedAt:       createdAt,
			PageID:          s.PageID,
			InstitutionID:   s.InstitutionID,
			InstitutionCode: s.InstitutionCode,
			CollectionID:    s.CollectionID,
		})
	}

	for i, id := range raw.Identifications {
		identifiedAt, err := parseTime(fmt.Sprintf("identification[%d].identified_at", i), *id.IdentifiedAt)
		if err != nil {
			return nil, err
		}
		agg.Identifications = append(agg.Identifications, model.IdentificationDetail{
			IdentificationID: id.IdentificationID,
			OccurrenceID:     agg.OccurrenceID,
			IdentifierID:     id.IdentifierID,
			IdentifierName:   id.IdentifierName,
			IdentifiedAt:     identifiedAt,
			SourceInfo:       id.SourceInfo,
		})
	}

	for i, a := range raw.Attachments {
		if strings.TrimSpace(*a.FilePath) == "" {
			return nil, &apperrors.AggregateShapeError{Field: fmt.Sprintf("attachments[%d].file_path", i), Reason: "is blank"}
		}
		agg.Attachments = append(agg.Attachments, model.AttachmentDetail{
			AttachmentID: a.AttachmentID,
			OccurrenceID: agg.OccurrenceID,
			FilePath:     *a.FilePath,
			FileName:     a.FileName,
			Note:         a.Note,
		})
	}

	return agg, nil
}

// normalizeClassification clears blank taxon values and drops the
// classification entirely when nothing is left.
func normalizeClassification(c *model.ClassificationDetail) *model.ClassificationDetail {
	if c == nil {
		return nil
	}
	out := *c
	for _, f := range []**string{&out.Kingdom, &out.Phylum, &out.Class, &out.Order, &out.Family, &out.Genus, &out.Species, &out.Others} {
		if *f != nil && strings.TrimSpace(**f) == "" {
			*f = nil
		}
	}
	if out.IsEmpty() {
		return nil
	}
	return &out
}

func parseTime(field, value string) (time.Time, error) {
	t, err := model.ParseTimestamp(value)
	if err != nil {
		return time.Time{}, &apperrors.AggregateShapeError{Field: field, Reason: "not a timestamp", Err: err}
	}
	return t, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &apperrors.AggregateShapeError{
			Field:  typeErr.Field,
			Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			Err:    err,
		}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &apperrors.AggregateShapeError{
			Reason: fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset),
			Err:    err,
		}
	}
	return &apperrors.AggregateShapeError{Reason: err.Error(), Err: err}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &apperrors.AggregateShapeError{Reason: err.Error(), Err: err}
	}
	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	reason := "is required"
	if fe.Tag() != "required" {
		reason = fmt.Sprintf("failed %s check", fe.Tag())
	}
	return &apperrors.AggregateShapeError{Field: field, Reason: reason, Err: err}
}
