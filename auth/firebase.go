package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
)

// Firebase signs users in through Identity Toolkit and manages them through
// the Admin SDK.
type Firebase struct {
	client  *auth.Client
	toolkit *Toolkit
}

func NewFirebase(ctx context.Context, app *firebase.App, toolkit *Toolkit) (*Firebase, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &Firebase{client: client, toolkit: toolkit}, nil
}

func (f *Firebase) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	return f.toolkit.SignInWithPassword(ctx, email, password)
}

func (f *Firebase) SignUp(ctx context.Context, email, password string) (*Credentials, error) {
	return f.toolkit.SignUp(ctx, email, password)
}

// SignOut revokes the refresh tokens so other devices drop the session too.
func (f *Firebase) SignOut(ctx context.Context, userID string) error {
	return f.client.RevokeRefreshTokens(ctx, userID)
}

func (f *Firebase) User(ctx context.Context, userID string) (*Identity, error) {
	user, err := f.client.GetUser(ctx, userID)
	if err != nil {
		return nil, userError(err)
	}
	return identityFromRecord(user), nil
}

func (f *Firebase) UpdateProfile(ctx context.Context, userID string, profile Profile) (*Identity, error) {
	params := &auth.UserToUpdate{}
	if profile.DisplayName != "" {
		params = params.DisplayName(profile.DisplayName)
	}
	if profile.PhoneNumber != "" {
		params = params.PhoneNumber(profile.PhoneNumber)
	}
	user, err := f.client.UpdateUser(ctx, userID, params)
	if err != nil {
		return nil, userError(err)
	}
	return identityFromRecord(user), nil
}

func (f *Firebase) LookupByEmail(ctx context.Context, email string) (*Identity, error) {
	user, err := f.client.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, userError(err)
	}
	return identityFromRecord(user), nil
}

func (f *Firebase) Verify(ctx context.Context, idToken string) (*Identity, error) {
	token, err := f.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return &Identity{
		ID:          token.UID,
		Email:       claim(token.Claims, "email"),
		DisplayName: claim(token.Claims, "name"),
		PhoneNumber: claim(token.Claims, "phone_number"),
	}, nil
}

// CustomToken mints a token for uid, used by the gentoken tool.
func (f *Firebase) CustomToken(ctx context.Context, userID string) (string, error) {
	return f.client.CustomToken(ctx, userID)
}

func identityFromRecord(user *auth.UserRecord) *Identity {
	return &Identity{
		ID:          user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhoneNumber: user.PhoneNumber,
	}
}

func userError(err error) error {
	switch {
	case auth.IsUserNotFound(err):
		return fmt.Errorf("%w: %v", ErrUserNotFound, err)
	case auth.IsPhoneNumberAlreadyExists(err):
		return &RejectedError{Message: "The user with the provided phone number already exists.", Err: ErrPhoneExists}
	}
	return err
}

func claim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}
