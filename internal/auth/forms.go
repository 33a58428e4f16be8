// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/olegiv/school-site/internal/backend"
)

// SignInForm is the sign-in tab.
type SignInForm struct {
	Email    string `form:"email" validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,password_max"`
}

// SignUpForm is the sign-up tab. A password confirmation mismatch fails
// validation, so the identity service is never called.
type SignUpForm struct {
	FullName        string `form:"full_name" validate:"notblank,max=100"`
	Email           string `form:"email" validate:"required,email,max=254"`
	Password        string `form:"password" validate:"required,password_len"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// FieldErrors maps form field names to messages.
type FieldErrors map[string]string

// First returns one message, preferring fields in order.
func (fe FieldErrors) First(order ...string) string {
	for _, f := range order {
		if msg, ok := fe[f]; ok {
			return msg
		}
	}
	for _, msg := range fe {
		return msg
	}
	return ""
}

var (
	validate   *validator.Validate
	translator ut.Translator
)

const (
	notBlankTag    = "notblank"
	passwordLenTag = "password_len"
	passwordMaxTag = "password_max"
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, translator)

	// Report form field names instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation(passwordLenTag, func(fl validator.FieldLevel) bool {
		n := len(fl.Field().String())
		return n >= backend.MinPasswordLength && n <= backend.MaxPasswordLength
	})
	_ = validate.RegisterValidation(passwordMaxTag, func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= backend.MaxPasswordLength
	})
}

// Validate checks a form struct. It returns nil when the form is valid.
func Validate(form any) FieldErrors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"form": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch {
	case fe.Tag() == "eqfield" && fe.Field() == "confirm_password":
		return "Passwords do not match"
	case fe.Tag() == notBlankTag:
		return "Please enter your full name"
	case fe.Tag() == "email":
		return "Please enter a valid email address"
	case fe.Tag() == passwordLenTag && len(fe.Value().(string)) < backend.MinPasswordLength:
		return fmt.Sprintf("Password must be at least %d characters", backend.MinPasswordLength)
	case fe.Tag() == passwordLenTag || fe.Tag() == passwordMaxTag:
		return fmt.Sprintf("Password must be at most %d characters", backend.MaxPasswordLength)
	}
	return fe.Translate(translator)
}
