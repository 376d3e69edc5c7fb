package screen

import (
	"context"
	"time"

	"github.com/klipach/justchat/session"
)

const DefaultSplashDelay = 2 * time.Second

type Splash struct {
	session *session.Session
	delay   time.Duration
}

func NewSplash(sess *session.Session, delay time.Duration) *Splash {
	return &Splash{session: sess, delay: delay}
}

// Run waits out the splash delay, then picks the first real screen.
func (s *Splash) Run(ctx context.Context) (Route, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}
	if s.session.State() == session.SignedIn {
		return RouteChatList, nil
	}
	return RouteLogin, nil
}
