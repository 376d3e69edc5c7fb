package justchat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/klipach/justchat/auth"
	"github.com/klipach/justchat/contract"
	"github.com/klipach/justchat/form"
	"github.com/klipach/justchat/log"
	"github.com/klipach/justchat/render"
	"github.com/klipach/justchat/screen"
	"github.com/klipach/justchat/session"
	"github.com/klipach/justchat/store"
	"github.com/samber/lo"
)

// Settings are the per-deployment knobs of a Server.
type Settings struct {
	ProjectID   string
	Location    *time.Location
	SplashDelay time.Duration
}

// Server holds the dependencies shared by all HTTP functions. A session is
// rebuilt per request from the bearer ID token.
type Server struct {
	provider auth.Provider
	store    store.Store
	logger   *slog.Logger
	settings Settings
	closers  []func() error
}

func NewServer(provider auth.Provider, st store.Store, logger *slog.Logger, settings Settings) *Server {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &Server{provider: provider, store: st, logger: logger, settings: settings}
}

// Logger is the configured root logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Close releases the store and flushes logs.
func (s *Server) Close() error {
	errs := []error{s.store.Close()}
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Mux routes each function by name, the way the functions framework does.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/SignIn", s.SignIn)
	mux.HandleFunc("/SignUp", s.SignUp)
	mux.HandleFunc("/SignOut", s.SignOut)
	mux.HandleFunc("/Splash", s.Splash)
	mux.HandleFunc("/Profile", s.Profile)
	mux.HandleFunc("/Contacts", s.Contacts)
	mux.HandleFunc("/Messages", s.Messages)
	return mux
}

func (s *Server) context(r *http.Request, function string) context.Context {
	ctx := log.WithTrace(r.Context(), r, s.settings.ProjectID)
	return log.WithLogger(ctx, s.logger.With(slog.String(log.FunctionLogField, function)))
}

func (s *Server) allow(ctx context.Context, w http.ResponseWriter, r *http.Request, methods ...string) bool {
	if lo.Contains(methods, r.Method) {
		return true
	}
	log.LoggerFromContext(ctx).Error("invalid method: " + r.Method)
	http.Error(w, "Method Not Implemented", http.StatusNotImplemented)
	return false
}

// authenticate restores the caller's session from the bearer ID token.
func (s *Server) authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request) (context.Context, *session.Session, bool) {
	identity, token, err := auth.Authenticate(r.WithContext(ctx), s.provider)
	if err != nil {
		log.LoggerFromContext(ctx).Error("error while authenticating", slog.String(log.ErrorMsgLogField, err.Error()))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return ctx, nil, false
	}
	logger := log.LoggerFromContext(ctx).With(slog.String(log.UserIDLogField, identity.ID))
	return log.WithLogger(ctx, logger), session.Restore(*identity, token), true
}

func decode(ctx context.Context, w http.ResponseWriter, r *http.Request, v any) bool {
	logger := log.LoggerFromContext(ctx)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("error while reading request body", slog.String(log.ErrorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Error("error while decoding request", slog.String(log.ErrorMsgLogField, err.Error()))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.LoggerFromContext(ctx).Error("error while encoding response", slog.String(log.ErrorMsgLogField, err.Error()))
	}
}

func noticeResponse(out screen.Outcome) contract.NoticeResponse {
	return contract.NoticeResponse{
		Level:  string(out.Notice.Level),
		Notice: out.Notice.Text,
		Next:   string(out.Next),
	}
}

func writeOutcome(ctx context.Context, w http.ResponseWriter, out screen.Outcome) {
	status := http.StatusOK
	if out.Failed() {
		status = statusFor(out.Err)
	}
	writeJSON(ctx, w, status, noticeResponse(out))
}

func statusFor(err error) int {
	var rejected *auth.RejectedError
	switch {
	case errors.Is(err, form.ErrInvalidCredentials),
		errors.Is(err, form.ErrInvalidSignUp),
		errors.Is(err, form.ErrFieldsRequired),
		errors.Is(err, screen.ErrPhoneLoginUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, session.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrAuthInProgress):
		return http.StatusConflict
	case errors.As(err, &rejected):
		return http.StatusUnauthorized
	case errors.Is(err, screen.ErrUnknownContact):
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func (s *Server) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := s.context(r, "SignIn")
	if !s.allow(ctx, w, r, http.MethodPost) {
		return
	}
	var req contract.SignInRequest
	if !decode(ctx, w, r, &req) {
		return
	}

	sess := session.New()
	out := screen.NewLogin(s.provider, sess).Submit(ctx, screen.Mode(req.Mode), req.Email, req.Password)
	if out.Failed() {
		writeOutcome(ctx, w, out)
		return
	}
	user, _ := sess.CurrentUser()
	writeJSON(ctx, w, http.StatusOK, contract.SignInResponse{
		NoticeResponse: noticeResponse(out),
		IDToken:        sess.IDToken(),
		RefreshToken:   sess.RefreshToken(),
		User: contract.User{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			PhoneNumber: user.PhoneNumber,
		},
	})
}

func (s *Server) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := s.context(r, "SignUp")
	if !s.allow(ctx, w, r, http.MethodPost) {
		return
	}
	var req contract.SignUpRequest
	if !decode(ctx, w, r, &req) {
		return
	}

	out := screen.NewRegister(s.provider).Submit(ctx, form.SignUp{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Country:  req.Country,
		Phone:    req.Phone,
	})
	if !out.Failed() {
		writeJSON(ctx, w, http.StatusCreated, noticeResponse(out))
		return
	}
	writeOutcome(ctx, w, out)
}

func (s *Server) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx := s.context(r, "SignOut")
	if !s.allow(ctx, w, r, http.MethodPost) {
		return
	}
	ctx, sess, ok := s.authenticate(ctx, w, r)
	if !ok {
		return
	}
	writeOutcome(ctx, w, screen.NewContactList(sess, s.provider, s.store).SignOut(ctx))
}

// Splash tells a starting client where to go. The bearer token is optional.
func (s *Server) Splash(w http.ResponseWriter, r *http.Request) {
	ctx := s.context(r, "Splash")
	if !s.allow(ctx, w, r, http.MethodGet) {
		return
	}
	sess := session.New()
	if identity, token, err := auth.Authenticate(r.WithContext(ctx), s.provider); err == nil {
		sess = session.Restore(*identity, token)
	}
	route, err := screen.NewSplash(sess, s.settings.SplashDelay).Run(ctx)
	if err != nil {
		return
	}
	writeJSON(ctx, w, http.StatusOK, contract.NoticeResponse{Level: string(screen.LevelInfo), Next: string(route)})
}

func (s *Server) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := s.context(r, "Profile")
	if !s.allow(ctx, w, r, http.MethodGet) {
		return
	}
	ctx, sess, ok := s.authenticate(ctx, w, r)
	if !ok {
		return
	}
	profile, err := screen.NewContactList(sess, s.provider, s.store).Profile(ctx)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(ctx, w, http.StatusOK, profile)
}

// Contacts streams the chat list on GET and adds a contact on POST.
func (s *Server) Contacts(w http.ResponseWriter, r *http.Request) {
	ctx := s.context(r, "Contacts")
	if !s.allow(ctx, w, r, http.MethodGet, http.MethodPost) {
		return
	}
	ctx, sess, ok := s.authenticate(ctx, w, r)
	if !ok {
		return
	}
	contacts := screen.NewContactList(sess, s.provider, s.store)

	if r.Method == http.MethodPost {
		var req contract.AddContactRequest
		if !decode(ctx, w, r, &req) {
			return
		}
		writeOutcome(ctx, w, contacts.Add(ctx, req.Name, req.Email))
		return
	}

	if err := contacts.Mount(ctx); err != nil {
		log.LoggerFromContext(ctx).Error("error while subscribing to contacts", slog.String(log.ErrorMsgLogField, err.Error()))
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}
	defer contacts.Unmount()
	stream(ctx, w, nil, contactsEvent, contacts.Updates(), contacts.Err, func(items []contract.Contact) any {
		return lo.Map(items, func(c contract.Contact, _ int) contract.ChatItem {
			return render.ChatItem(c, s.settings.Location)
		})
	})
}

// Messages streams one conversation on GET and sends into it on POST.
func (s *Server) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := s.context(r, "Messages")
	if !s.allow(ctx, w, r, http.MethodGet, http.MethodPost) {
		return
	}
	ctx, sess, ok := s.authenticate(ctx, w, r)
	if !ok {
		return
	}

	var req contract.SendMessageRequest
	peer := contract.Contact{
		Name:  r.URL.Query().Get("name"),
		Email: r.URL.Query().Get("contact"),
	}
	if r.Method == http.MethodPost {
		if !decode(ctx, w, r, &req) {
			return
		}
		peer.Email = req.ContactEmail
	}
	if strings.TrimSpace(peer.Email) == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	conv, err := screen.OpenChat(ctx, sess, s.provider, s.store, peer, s.settings.Location)
	if err != nil {
		log.LoggerFromContext(ctx).Error("error while opening chat", slog.String(log.ErrorMsgLogField, err.Error()))
		http.Error(w, http.StatusText(statusFor(err)), statusFor(err))
		return
	}
	ctx = log.WithLogger(ctx, log.LoggerFromContext(ctx).With(slog.String(log.ConversationKeyLogField, conv.Key().String())))

	if r.Method == http.MethodPost {
		out := conv.Send(ctx, req.Text)
		if out.Failed() {
			writeOutcome(ctx, w, out)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := conv.Mount(ctx); err != nil {
		log.LoggerFromContext(ctx).Error("error while subscribing to messages", slog.String(log.ErrorMsgLogField, err.Error()))
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}
	defer conv.Unmount()
	header := []event{{name: chatEvent, data: conv.Header()}}
	stream(ctx, w, header, messagesEvent, conv.Updates(), conv.Err, func(items []contract.Message) any {
		return conv.Bubbles(items)
	})
}

// stream writes the lead events, then forwards every list update as an event
// until the client leaves or the subscription ends.
func stream[T any](ctx context.Context, w http.ResponseWriter, lead []event, name string, updates <-chan []T, failure func() error, view func([]T) any) {
	logger := log.LoggerFromContext(ctx)
	events, ok := startEventStream(w)
	if !ok {
		logger.Error("response writer does not support flushing")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	for _, e := range lead {
		if err := events.send(e.name, e.data); err != nil {
			logger.Warn("error while writing event", slog.String(log.ErrorMsgLogField, err.Error()))
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case items, ok := <-updates:
			if !ok {
				if err := failure(); err != nil {
					logger.Error("subscription failed", slog.String(log.ErrorMsgLogField, err.Error()))
					_ = events.send(errorEvent, contract.NoticeResponse{Level: string(screen.LevelError), Notice: err.Error()})
				}
				return
			}
			if err := events.send(name, view(items)); err != nil {
				logger.Warn("error while writing event", slog.String(log.ErrorMsgLogField, err.Error()))
				return
			}
		}
	}
}
