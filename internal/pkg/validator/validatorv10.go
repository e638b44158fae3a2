package validator

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/samber/lo"
)

// ErrTranslatorNotFound is returned when the english translator is missing.
var ErrTranslatorNotFound = errors.New("validator: translator not found")

// V10ValidationError maps snake_case field names to translated messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}
	b, err := json.Marshal(map[string]string(vs))
	if err != nil {
		return "validation error"
	}
	return string(b)
}

// Values returns the field map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// V10Validator is backed by go-playground/validator.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLang := en.New()
	trans, ok := ut.New(enLang, enLang).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &V10Validator{validate: validate, translator: trans}, nil
}

// RegisterEnum adds a string tag that accepts only the given values, with
// "{0} must be one of ..." as its message.
func (v *V10Validator) RegisterEnum(tag string, allowed []string) error {
	if err := v.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && slices.Contains(allowed, s)
	}); err != nil {
		return err
	}

	msg := "{0} must be one of " + joinQuoted(allowed)
	return v.validate.RegisterTranslation(tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, msg, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			out, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				return fe.Error()
			}
			return out
		},
	)
}

func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[lo.SnakeCase(fe.Field())] = fe.Translate(v.translator)
	}
	return out
}

func joinQuoted(values []string) string {
	return strings.Join(lo.Map(values, func(s string, _ int) string { return "'" + s + "'" }), ", ")
}
