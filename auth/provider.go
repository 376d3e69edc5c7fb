package auth

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already in use")
	ErrPhoneExists  = errors.New("phone number already in use")
)

// Identity is the signed-in user as the provider reports it.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
	PhoneNumber string
}

// Credentials are returned by a successful sign-in or sign-up.
type Credentials struct {
	Identity     Identity
	IDToken      string
	RefreshToken string
}

// Profile is written right after sign-up. Empty fields are left unchanged.
type Profile struct {
	DisplayName string
	PhoneNumber string
}

type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

type Provider interface {
	Verifier
	SignIn(ctx context.Context, email, password string) (*Credentials, error)
	SignUp(ctx context.Context, email, password string) (*Credentials, error)
	SignOut(ctx context.Context, userID string) error
	User(ctx context.Context, userID string) (*Identity, error)
	UpdateProfile(ctx context.Context, userID string, profile Profile) (*Identity, error)
	LookupByEmail(ctx context.Context, email string) (*Identity, error)
}

// RejectedError carries the provider's human readable reason.
type RejectedError struct {
	Message string
	Err     error
}

func (e *RejectedError) Error() string {
	return e.Message
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// Message returns the text to show the user for err.
func Message(err error) string {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Message
	}
	return err.Error()
}
