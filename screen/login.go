package screen

import (
	"context"
	"errors"
	"log/slog"

	"github.com/klipach/justchat/auth"
	"github.com/klipach/justchat/form"
	"github.com/klipach/justchat/log"
	"github.com/klipach/justchat/session"
)

type Mode string

const (
	ModeEmail Mode = "email"
	ModePhone Mode = "phone"
)

var ErrPhoneLoginUnsupported = errors.New("phone login is not implemented")

type Login struct {
	provider auth.Provider
	session  *session.Session
}

func NewLogin(provider auth.Provider, sess *session.Session) *Login {
	return &Login{provider: provider, session: sess}
}

func (l *Login) Submit(ctx context.Context, mode Mode, email, password string) Outcome {
	logger := log.LoggerFromContext(ctx)

	if mode == ModePhone {
		return failure(ErrPhoneLoginUnsupported, "Phone login is not implemented yet")
	}
	f := form.SignIn{Email: email, Password: password}
	if err := f.Validate(); err != nil {
		return failure(err, "Invalid email or password")
	}
	if err := l.session.Begin(); err != nil {
		return failure(err, "Login Failed: "+err.Error())
	}

	creds, err := l.provider.SignIn(ctx, f.TrimmedEmail(), password)
	if err != nil {
		l.session.Fail()
		logger.Warn("sign in rejected", slog.String(log.ErrorMsgLogField, err.Error()))
		return failure(err, "Login Failed: "+auth.Message(err))
	}
	if err := l.session.Complete(creds); err != nil {
		return failure(err, "Login Failed: "+err.Error())
	}
	logger.Info("signed in", slog.String(log.UserIDLogField, creds.Identity.ID))
	return success("Login Successful!", RouteChatList)
}
