package draft

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jwalitptl/specimen-gateway/internal/model"
)

// PathError reports an edit addressed to a field the draft does not have.
type PathError struct {
	Path []string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("unknown draft field %q", strings.Join(e.Path, "."))
}

// ValueError reports a value that cannot be stored in the addressed field.
type ValueError struct {
	Path  []string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %v", e.Value, strings.Join(e.Path, "."), e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }

// fieldRef returns a pointer to one optional draft field: **string,
// **int64, **float64 or **time.Time.
type fieldRef func(d *model.OccurrenceDraft) any

var rootFields = map[string]fieldRef{
	"user_id":       func(d *model.OccurrenceDraft) any { return &d.UserID },
	"project_id":    func(d *model.OccurrenceDraft) any { return &d.ProjectID },
	"individual_id": func(d *model.OccurrenceDraft) any { return &d.IndividualID },
	"lifestage":     func(d *model.OccurrenceDraft) any { return &d.Lifestage },
	"sex":           func(d *model.OccurrenceDraft) any { return &d.Sex },
	"body_length":   func(d *model.OccurrenceDraft) any { return &d.BodyLength },
	"created_at":    func(d *model.OccurrenceDraft) any { return &d.CreatedAt },
	"language_id":   func(d *model.OccurrenceDraft) any { return &d.LanguageID },
	"latitude":      func(d *model.OccurrenceDraft) any { return &d.Latitude },
	"longitude":     func(d *model.OccurrenceDraft) any { return &d.Longitude },
	"place_name":    func(d *model.OccurrenceDraft) any { return &d.PlaceName },
	"note":          func(d *model.OccurrenceDraft) any { return &d.Note },
}

var nestedFields = map[string]map[string]fieldRef{
	"classification": {
		"kingdom": func(d *model.OccurrenceDraft) any { return &d.Classification.Kingdom },
		"phylum":  func(d *model.OccurrenceDraft) any { return &d.Classification.Phylum },
		"class":   func(d *model.OccurrenceDraft) any { return &d.Classification.Class },
		"order":   func(d *model.OccurrenceDraft) any { return &d.Classification.Order },
		"family":  func(d *model.OccurrenceDraft) any { return &d.Classification.Family },
		"genus":   func(d *model.OccurrenceDraft) any { return &d.Classification.Genus },
		"species": func(d *model.OccurrenceDraft) any { return &d.Classification.Species },
		"others":  func(d *model.OccurrenceDraft) any { return &d.Classification.Others },
	},
	"observation": {
		"observation_user_id":   func(d *model.OccurrenceDraft) any { return &d.Observation.ObserverID },
		"observation_method_id": func(d *model.OccurrenceDraft) any { return &d.Observation.MethodID },
		"page_id":               func(d *model.OccurrenceDraft) any { return &d.Observation.PageID },
		"behavior":              func(d *model.OccurrenceDraft) any { return &d.Observation.Behavior },
		"observed_at":           func(d *model.OccurrenceDraft) any { return &d.Observation.ObservedAt },
	},
	"specimen": {
		"specimen_methods_id": func(d *model.OccurrenceDraft) any { return &d.Specimen.MethodID },
		"page_id":             func(d *model.OccurrenceDraft) any { return &d.Specimen.PageID },
		"institution_id":      func(d *model.OccurrenceDraft) any { return &d.Specimen.InstitutionID },
		"collection_id":       func(d *model.OccurrenceDraft) any { return &d.Specimen.CollectionID },
	},
	"identification": {
		"identification_user_id": func(d *model.OccurrenceDraft) any { return &d.Identification.IdentifierID },
		"identified_at":          func(d *model.OccurrenceDraft) any { return &d.Identification.IdentifiedAt },
		"source_info":            func(d *model.OccurrenceDraft) any { return &d.Identification.SourceInfo },
	},
}

func lookup(path []string) (fieldRef, bool) {
	switch len(path) {
	case 1:
		ref, ok := rootFields[path[0]]
		return ref, ok
	case 2:
		group, ok := nestedFields[path[0]]
		if !ok {
			return nil, false
		}
		ref, ok := group[path[1]]
		return ref, ok
	default:
		return nil, false
	}
}

// ApplyEdit returns a copy of d with the field at path set to value. An
// empty value clears the field. d itself is never modified.
func ApplyEdit(d model.OccurrenceDraft, path []string, value string) (model.OccurrenceDraft, error) {
	ref, ok := lookup(path)
	if !ok {
		return d, &PathError{Path: path}
	}

	next := d
	trimmed := strings.TrimSpace(value)

	switch p := ref(&next).(type) {
	case **string:
		if trimmed == "" {
			*p = nil
		} else {
			v := value
			*p = &v
		}
	case **int64:
		if trimmed == "" {
			*p = nil
			break
		}
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return d, &ValueError{Path: path, Value: value, Err: err}
		}
		*p = &n
	case **float64:
		if trimmed == "" {
			*p = nil
			break
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return d, &ValueError{Path: path, Value: value, Err: err}
		}
		*p = &f
	case **time.Time:
		if trimmed == "" {
			*p = nil
			break
		}
		t, err := model.ParseTimestamp(trimmed)
		if err != nil {
			return d, &ValueError{Path: path, Value: value, Err: err}
		}
		*p = &t
	}

	return next, nil
}

// ApplyEdits folds edits over d in order. Either every edit applies or d
// is returned untouched together with the first failure.
func ApplyEdits(d model.OccurrenceDraft, edits []model.DraftEdit) (model.OccurrenceDraft, error) {
	next := d
	for _, e := range edits {
		var err error
		if next, err = ApplyEdit(next, e.Path, e.Value); err != nil {
			return d, err
		}
	}
	return next, nil
}

// ParsePath splits a dotted field name such as "classification.species"
// into path segments. Only command-line and query-string boundaries use it.
func ParsePath(s string) []string {
	return strings.Split(strings.TrimSpace(s), ".")
}
