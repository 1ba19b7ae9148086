package analysis

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks req before anything is sent upstream. It returns req unchanged on success.
func Validate(req Request) (Request, error) {
	if isEmpty(req) {
		return req, &ValidationError{Reason: "at least one of ideaName, summary, features, targetAudience, problem, solution is required"}
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return req, err
		}
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field: fieldPath(fe.Namespace()),
				Rule:  fe.Tag(),
				Param: fe.Param(),
			})
		}
		return req, &SchemaError{Fields: fields}
	}
	return req, nil
}

// RequireContent rejects a sanitized request whose identifying fields were all
// stripped to nothing.
func RequireContent(clean Request) error {
	if isEmpty(clean) {
		return &ValidationError{Reason: "request has no content left after sanitizing"}
	}
	return nil
}

func isEmpty(req Request) bool {
	for _, s := range []string{req.IdeaName, req.Summary, req.TargetAudience, req.Problem, req.Solution} {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	for _, f := range req.Features {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// fieldPath drops the root struct name: "Request.features[0]" -> "features[0]".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
