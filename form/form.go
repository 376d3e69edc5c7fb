// Package form checks sign-in and sign-up input before any provider call.
package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const DefaultCountry = "India"

// CountryCodes maps the selectable countries to calling codes.
var CountryCodes = map[string]string{
	"USA":    "+1",
	"India":  "+91",
	"UK":     "+44",
	"Canada": "+1",
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSignUp      = errors.New("please check your inputs")
	ErrFieldsRequired     = errors.New("all fields are required")
)

var validate = validator.New()

var phoneFormatting = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

type SignIn struct {
	Email    string `validate:"required,email"`
	Password string `validate:"min=6"`
}

func (f SignIn) Validate() error {
	f.Email = f.TrimmedEmail()
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return nil
}

// TrimmedEmail is what gets submitted to the provider.
func (f SignIn) TrimmedEmail() string {
	return strings.TrimSpace(f.Email)
}

type SignUp struct {
	Name     string `validate:"min=3"`
	Email    string `validate:"required,email"`
	Password string `validate:"min=6"`
	Country  string
	Phone    string `validate:"required"`
}

// Validate checks the trimmed name and email.
func (f SignUp) Validate() error {
	f.Name, f.Email = f.TrimmedName(), f.TrimmedEmail()
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignUp, err)
	}
	if _, ok := CountryCodes[f.country()]; !ok {
		return fmt.Errorf("%w: unknown country %q", ErrInvalidSignUp, f.Country)
	}
	if err := validate.Var(f.PhoneNumber(), "e164"); err != nil {
		return fmt.Errorf("%w: phone: %v", ErrInvalidSignUp, err)
	}
	return nil
}

// PhoneNumber prefixes the selected calling code to the number typed in.
func (f SignUp) PhoneNumber() string {
	return CountryCodes[f.country()] + phoneFormatting.Replace(strings.TrimSpace(f.Phone))
}

func (f SignUp) TrimmedEmail() string {
	return strings.TrimSpace(f.Email)
}

func (f SignUp) TrimmedName() string {
	return strings.TrimSpace(f.Name)
}

func (f SignUp) country() string {
	if f.Country == "" {
		return DefaultCountry
	}
	return f.Country
}

// Contact requires both fields to be non-blank.
func Contact(name, email string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
		return ErrFieldsRequired
	}
	return nil
}
