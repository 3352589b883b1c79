package draft

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
	jsonvalidator "github.com/jwalitptl/specimen-gateway/pkg/validator"
)

var validate = jsonvalidator.New()

// Validate checks that a draft carries everything the backend needs to
// create an occurrence.
func Validate(d model.OccurrenceDraft) error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewBadRequest("invalid draft", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			problems = append(problems, fe.Field()+" is required")
		default:
			problems = append(problems, fmt.Sprintf("%s must be a valid %s", fe.Field(), fe.Tag()))
		}
	}
	return apperrors.NewBadRequest("invalid draft: "+strings.Join(problems, ", "), err)
}
