// Package bind decodes and validates JSON request bodies
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	perr "auracast/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
)

// MaxBody caps a request body, a day of features fits many times over
var MaxBody int64 = 1 << 20

type checker struct {
	v  *validator.Validate
	tr ut.Translator
}

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// ValidRequestID reports whether s is a usable correlation id
func ValidRequestID(s string) bool { return requestIDPattern.MatchString(s) }

// shorter wording than the stock english set, plus the request_id tag
var messages = map[string]string{
	"min":        "{0} must be at least {1}",
	"max":        "{0} must be at most {1}",
	"request_id": "{0} must be 1-128 characters of letters, digits, '.', '_', ':' or '-'",
}

var validate = sync.OnceValue(func() checker {
	loc := en.New()
	tr, _ := ut.New(loc, loc).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = entrans.RegisterDefaultTranslations(v, tr)
	_ = v.RegisterValidation("request_id", func(fl validator.FieldLevel) bool {
		return ValidRequestID(fl.Field().String())
	})
	for tag, text := range messages {
		_ = v.RegisterTranslation(tag, tr,
			func(t ut.Translator) error { return t.Add(tag, text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(tag, fe.Field(), fe.Param())
				return msg
			})
	}
	return checker{v: v, tr: tr}
})

// ParseJSON decodes exactly one JSON value into T and validates it
// malformed or oversized bodies are ErrorCodeJSON, failed rules are ErrorCodeValidation naming the field
func ParseJSON[T any](r *http.Request) (T, error) {
	var dst, zero T
	if r.Body == nil || r.Body == http.NoBody {
		return zero, perr.JSONErrf("empty body")
	}
	defer r.Body.Close()

	lr := &io.LimitedReader{R: r.Body, N: MaxBody + 1}
	dec := json.NewDecoder(lr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dst); err != nil {
		switch {
		case lr.N <= 0:
			return zero, perr.JSONErrf("body exceeds %d bytes", MaxBody)
		case errors.Is(err, io.EOF):
			return zero, perr.JSONErrf("empty body")
		}
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	if err := Check(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

// Check runs the validate tags on v
func Check(v any) error {
	c := validate()
	err := c.v.Struct(v)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if errors.As(err, &fes) && len(fes) > 0 {
		return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", fes[0].Translate(c.tr)), fes[0].Field())
	}
	// not a struct, a programming error rather than bad input
	return perr.Wrap(err, perr.ErrorCodeUnknown, "validation not applicable")
}
