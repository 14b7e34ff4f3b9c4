// Package bind decodes and validates control api request bodies and module options
package bind

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "lifesync/internal/platform/errors"
	"lifesync/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

type validatorSvc struct {
	v     *validator.Validate
	trans ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *validatorSvc
)

func get() *validatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		trans, _ := ut.New(enLoc, enLoc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		// messages name the json field a client sent, or the Go field for options
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if tag == "" || tag == "-" {
				return fld.Name
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		short(v, trans, "min", "{0} must be at least {1}")
		short(v, trans, "max", "{0} must be at most {1}")

		vSvc = &validatorSvc{v: v, trans: trans}
	})
	return vSvc
}

func short(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// JSONOptions controls ParseJSON
type JSONOptions struct {
	MaxBytes        int64
	DisallowUnknown bool
	// AllowEmptyBody decodes an empty body as the zero value, so POST /sync
	// with no body starts an incremental run
	AllowEmptyBody bool
}

// ParseJSON decodes the request body into T and validates it
func ParseJSON[T any](r *http.Request, opts ...JSONOptions) (T, error) {
	var zero T
	o := JSONOptions{MaxBytes: 1 << 20, DisallowUnknown: true}
	if len(opts) > 0 {
		o = opts[0]
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.Get().Error().Err(err).Msg("failed to close request body")
		}
	}()

	var body io.Reader = r.Body
	if o.MaxBytes > 0 {
		body = io.LimitReader(body, o.MaxBytes)
	}
	first := make([]byte, 1)
	n, _ := io.ReadFull(body, first)
	if n == 0 {
		switch {
		case o.AllowEmptyBody:
			return zero, nil
		case r.Method == http.MethodGet, r.Method == http.MethodDelete:
			return zero, nil
		}
		return zero, perr.JSONErrf("empty body")
	}

	dec := json.NewDecoder(io.MultiReader(bytes.NewReader(first), body))
	if o.DisallowUnknown {
		dec.DisallowUnknownFields()
	}
	var dst T
	if err := dec.Decode(&dst); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) && o.MaxBytes > 0 {
			return zero, perr.JSONErrf("invalid JSON: body truncated at %d bytes", o.MaxBytes)
		}
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	if err := Validate(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

// Validate runs the shared validator over v. Failures carry
// ErrorCodeValidation and the first offending field
func Validate(v any) error {
	err := get().v.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		logger.Get().Error().Err(inv).Msg("validator internal error")
		return perr.JSONErrf("validation error")
	}
	field, msg := FieldAndMessage(err)
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s", msg), field)
}

// FieldAndMessage returns the first failing field and its translated message
func FieldAndMessage(err error) (field, message string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field(), verrs[0].Translate(get().trans)
	}
	if err == nil {
		return "", ""
	}
	return "", err.Error()
}
