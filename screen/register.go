package screen

import (
	"context"
	"log/slog"

	"github.com/klipach/justchat/auth"
	"github.com/klipach/justchat/form"
	"github.com/klipach/justchat/log"
)

type Register struct {
	provider auth.Provider
}

func NewRegister(provider auth.Provider) *Register {
	return &Register{provider: provider}
}

// Submit creates the account, then writes the display name and the phone
// number in separate updates, so a rejected phone number leaves the name in
// place. A failed profile write does not undo the account.
func (r *Register) Submit(ctx context.Context, f form.SignUp) Outcome {
	logger := log.LoggerFromContext(ctx)

	if err := f.Validate(); err != nil {
		return failure(err, "Please check your inputs")
	}
	creds, err := r.provider.SignUp(ctx, f.TrimmedEmail(), f.Password)
	if err != nil {
		logger.Warn("sign up rejected", slog.String(log.ErrorMsgLogField, err.Error()))
		return failure(err, "Registration failed: "+auth.Message(err))
	}

	logger = logger.With(slog.String(log.UserIDLogField, creds.Identity.ID))
	if _, err := r.provider.UpdateProfile(ctx, creds.Identity.ID, auth.Profile{DisplayName: f.TrimmedName()}); err != nil {
		logger.Error("display name update failed", slog.String(log.ErrorMsgLogField, err.Error()))
	}
	if _, err := r.provider.UpdateProfile(ctx, creds.Identity.ID, auth.Profile{PhoneNumber: f.PhoneNumber()}); err != nil {
		logger.Warn("phone number update failed", slog.String(log.ErrorMsgLogField, err.Error()))
	}
	logger.Info("registered")
	return success("Registration successful!", RouteLogin)
}
