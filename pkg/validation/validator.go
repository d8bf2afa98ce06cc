package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks `validate` struct tags and reports problems per JSON field name.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct returns nil when s is valid, otherwise a field -> message map.
// Errors that are not validation failures (e.g. a nil pointer passed in) are
// reported under the "_" key.
func (v *Validator) Struct(s any) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := details[field]; seen {
			continue
		}
		details[field] = Message(field, fe.Tag(), fe.Param())
	}
	return details
}

// Message picks the custom message for field/tag, falling back to the default one.
func Message(field, tag, param string) string {
	if custom := CustomMessage(field); custom != nil {
		if msg, ok := custom[tag]; ok {
			return msg
		}
	}
	return DefaultMessage(field, tag, param)
}
