package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
	jsonvalidator "github.com/jwalitptl/specimen-gateway/pkg/validator"
)

var configureOnce sync.Once

// ConfigureValidator makes gin's binding validator report JSON field names.
func ConfigureValidator() {
	configureOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(jsonvalidator.JSONTagName)
		}
	})
}

var tagMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"min":      "is too short",
}

// BindingError turns a ShouldBind* failure into a 400 with a readable message.
func BindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		problems := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msg, ok := tagMessages[fe.Tag()]
			if !ok {
				msg = "failed " + fe.Tag() + " check"
			}
			problems = append(problems, fe.Field()+" "+msg)
		}
		return apperrors.NewBadRequest("invalid request: "+strings.Join(problems, ", "), err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperrors.NewBadRequest(fmt.Sprintf("invalid request: %s must be %s", typeErr.Field, typeErr.Type), err)
	}
	return apperrors.NewBadRequest("invalid request body", err)
}
