package justchat

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/klipach/justchat/config"
	"github.com/klipach/justchat/log"
)

var (
	serverOnce sync.Once
	server     *Server
	serverErr  error
)

func init() {
	functions.HTTP("SignIn", SignIn)
	functions.HTTP("SignUp", SignUp)
	functions.HTTP("SignOut", SignOut)
	functions.HTTP("Splash", Splash)
	functions.HTTP("Profile", Profile)
	functions.HTTP("Contacts", Contacts)
	functions.HTTP("Messages", Messages)
}

// Default returns the process-wide server, built from the environment on
// first use.
func Default(ctx context.Context) (*Server, error) {
	serverOnce.Do(func() {
		cfg, err := config.Load(ctx)
		if err != nil {
			serverErr = err
			return
		}
		server, serverErr = Build(ctx, cfg)
	})
	return server, serverErr
}

// Use installs srv as the process-wide server. It reports false when a server
// was already in place.
func Use(srv *Server) bool {
	installed := false
	serverOnce.Do(func() {
		server, installed = srv, true
	})
	return installed
}

func serve(handle func(*Server, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		srv, err := Default(context.Background())
		if err != nil {
			logger := slog.New(log.NewCloudLoggingHandler(os.Stderr, slog.LevelError))
			logger.Error("error while starting server", slog.String(log.ErrorMsgLogField, err.Error()))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		handle(srv, w, r)
	}
}

func SignIn(w http.ResponseWriter, r *http.Request) {
	serve((*Server).SignIn)(w, r)
}

func SignUp(w http.ResponseWriter, r *http.Request) {
	serve((*Server).SignUp)(w, r)
}

func SignOut(w http.ResponseWriter, r *http.Request) {
	serve((*Server).SignOut)(w, r)
}

func Splash(w http.ResponseWriter, r *http.Request) {
	serve((*Server).Splash)(w, r)
}

func Profile(w http.ResponseWriter, r *http.Request) {
	serve((*Server).Profile)(w, r)
}

func Contacts(w http.ResponseWriter, r *http.Request) {
	serve((*Server).Contacts)(w, r)
}

func Messages(w http.ResponseWriter, r *http.Request) {
	serve((*Server).Messages)(w, r)
}
