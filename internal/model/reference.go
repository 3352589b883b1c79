package model

// Dropdowns holds the choice lists offered when creating an occurrence.
type Dropdowns struct {
	Users              []UserOption              `json:"users"`
	Projects           []ProjectOption           `json:"projects"`
	Languages          []LanguageOption          `json:"languages"`
	ObservationMethods []ObservationMethodOption `json:"observation_methods"`
	SpecimenMethods    []SpecimenMethodOption    `json:"specimen_methods"`
	Institutions       []InstitutionOption       `json:"institutions"`
}

type UserOption struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
}

type ProjectOption struct {
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name"`
}

type LanguageOption struct {
	LanguageID     int64  `json:"language_id"`
	LanguageCommon string `json:"language_common"`
}

type ObservationMethodOption struct {
	ObservationMethodID   int64  `json:"observation_method_id"`
	ObservationMethodName string `json:"observation_method_name"`
}

type SpecimenMethodOption struct {
	SpecimenMethodsID     int64  `json:"specimen_methods_id"`
	SpecimenMethodsCommon string `json:"specimen_methods_common"`
}

type InstitutionOption struct {
	InstitutionID   int64  `json:"institution_id"`
	InstitutionCode string `json:"institution_code"`
}

// Normalize replaces missing lists with empty ones.
func (d *Dropdowns) Normalize() {
	if d.Users == nil {
		d.Users = []UserOption{}
	}
	if d.Projects == nil {
		d.Projects = []ProjectOption{}
	}
	if d.Languages == nil {
		d.Languages = []LanguageOption{}
	}
	if d.ObservationMethods == nil {
		d.ObservationMethods = []ObservationMethodOption{}
	}
	if d.SpecimenMethods == nil {
		d.SpecimenMethods = []SpecimenMethodOption{}
	}
	if d.Institutions == nil {
		d.Institutions = []InstitutionOption{}
	}
}

// CreateForm is everything the create page needs: choice lists and the
// signed-in user's default values.
type CreateForm struct {
	Dropdowns Dropdowns       `json:"dropdown_list"`
	Defaults  OccurrenceDraft `json:"default_value"`
}
