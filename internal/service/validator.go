package service

import (
	"errors"
	"reflect"
	"strings"

	"catalog-admin/internal/model"

	"github.com/go-playground/validator/v10"
)

// ErrNotConfirmed is returned when a delete was not confirmed. Nothing is sent.
var ErrNotConfirmed = errors.New("not confirmed")

type FieldError struct {
	Field string
	Rule  string
}

func (f FieldError) Message() string {
	switch f.Rule {
	case "required":
		return f.Field + " is required"
	case "gte":
		return f.Field + " must not be negative"
	case "url":
		return f.Field + " must be a valid URL"
	default:
		return f.Field + " is invalid"
	}
}

// ValidationError rejects an intent before it reaches the backend.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message())
	}
	return strings.Join(msgs, "; ")
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Price is a pointer so that "not entered" and zero stay distinct.
	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		in := sl.Current().Interface().(model.ProductInput)
		switch {
		case in.Price == nil:
			sl.ReportError(in.Price, "price", "Price", "required", "")
		case in.Price.IsNegative():
			sl.ReportError(in.Price, "price", "Price", "gte", "0")
		}
	}, model.ProductInput{})

	return &Validator{validate: validate}
}

// Validate returns a *ValidationError listing every rejected field.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}
