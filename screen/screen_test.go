package screen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/klipach/justchat/auth"
	"github.com/klipach/justchat/contract"
	"github.com/klipach/justchat/conversation"
	"github.com/klipach/justchat/form"
	"github.com/klipach/justchat/mocks"
	"github.com/klipach/justchat/session"
	"github.com/klipach/justchat/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func waitUntil[T any](t *testing.T, updates <-chan []T, done func([]T) bool) []T {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case items, ok := <-updates:
			require.True(t, ok, "updates closed")
			if done(items) {
				return items
			}
		case <-deadline:
			t.Fatal("condition not reached")
			return nil
		}
	}
}

func signedIn(t *testing.T, provider *auth.Memory, email string) *session.Session {
	t.Helper()
	ctx := context.Background()
	if _, err := provider.SignUp(ctx, email, "secret1"); err != nil && !errors.Is(err, auth.ErrEmailExists) {
		t.Fatalf("SignUp: %v", err)
	}
	sess := session.New()
	out := NewLogin(provider, sess).Submit(ctx, ModeEmail, email, "secret1")
	require.False(t, out.Failed(), out.Notice.Text)
	return sess
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	rejected := &auth.RejectedError{Message: "The supplied auth credential is incorrect, malformed or has expired."}

	tests := []struct {
		name     string
		mode     Mode
		email    string
		password string
		setup    func(p *mocks.MockProvider)
		notice   string
		next     Route
		state    session.State
	}{
		{
			name:     "phone mode",
			mode:     ModePhone,
			email:    "a@b.com",
			password: "123456",
			notice:   "Phone login is not implemented yet",
			state:    session.SignedOut,
		},
		{
			name:     "short password",
			mode:     ModeEmail,
			email:    "a@b.com",
			password: "12345",
			notice:   "Invalid email or password",
			state:    session.SignedOut,
		},
		{
			name:     "malformed email",
			email:    "a-b.com",
			password: "123456",
			notice:   "Invalid email or password",
			state:    session.SignedOut,
		},
		{
			name:     "provider rejects",
			mode:     ModeEmail,
			email:    "a@b.com",
			password: "123456",
			setup: func(p *mocks.MockProvider) {
				p.EXPECT().SignIn(gomock.Any(), "a@b.com", "123456").Return(nil, rejected)
			},
			notice: "Login Failed: " + rejected.Message,
			state:  session.SignedOut,
		},
		{
			name:     "success trims email",
			mode:     ModeEmail,
			email:    "a@b.com ",
			password: "123456",
			setup: func(p *mocks.MockProvider) {
				p.EXPECT().SignIn(gomock.Any(), "a@b.com", "123456").
					Return(&auth.Credentials{Identity: auth.Identity{ID: "u1"}, IDToken: "t"}, nil)
			},
			notice: "Login Successful!",
			next:   RouteChatList,
			state:  session.SignedIn,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			provider := mocks.NewMockProvider(ctrl)
			if test.setup != nil {
				test.setup(provider)
			}
			sess := session.New()

			out := NewLogin(provider, sess).Submit(ctx, test.mode, test.email, test.password)

			require.Equal(t, test.notice, out.Notice.Text)
			require.Equal(t, test.next, out.Next)
			require.Equal(t, test.state, sess.State())
			require.Equal(t, test.state != session.SignedIn, out.Failed())
		})
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	valid := form.SignUp{Name: " Ann ", Email: "ann@x.com", Password: "secret1", Country: "USA", Phone: "5551234567"}

	t.Run("invalid input never reaches the provider", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		provider := mocks.NewMockProvider(ctrl)
		f := valid
		f.Name = "An"

		out := NewRegister(provider).Submit(ctx, f)
		require.ErrorIs(t, out.Err, form.ErrInvalidSignUp)
		require.Equal(t, "Please check your inputs", out.Notice.Text)
	})

	t.Run("provider rejects", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		provider := mocks.NewMockProvider(ctrl)
		provider.EXPECT().SignUp(gomock.Any(), "ann@x.com", "secret1").
			Return(nil, &auth.RejectedError{Message: "The email address is already in use by another account.", Err: auth.ErrEmailExists})

		out := NewRegister(provider).Submit(ctx, valid)
		require.ErrorIs(t, out.Err, auth.ErrEmailExists)
		require.Equal(t, "Registration failed: The email address is already in use by another account.", out.Notice.Text)
	})

	t.Run("name and phone are written separately", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		provider := mocks.NewMockProvider(ctrl)
		gomock.InOrder(
			provider.EXPECT().SignUp(gomock.Any(), "ann@x.com", "secret1").
				Return(&auth.Credentials{Identity: auth.Identity{ID: "u1"}}, nil),
			provider.EXPECT().UpdateProfile(gomock.Any(), "u1", auth.Profile{DisplayName: "Ann"}).
				Return(&auth.Identity{ID: "u1", DisplayName: "Ann"}, nil),
			provider.EXPECT().UpdateProfile(gomock.Any(), "u1", auth.Profile{PhoneNumber: "+15551234567"}).
				Return(&auth.Identity{ID: "u1", DisplayName: "Ann", PhoneNumber: "+15551234567"}, nil),
		)

		out := NewRegister(provider).Submit(ctx, valid)
		require.False(t, out.Failed())
		require.Equal(t, "Registration successful!", out.Notice.Text)
		require.Equal(t, RouteLogin, out.Next)
	})

	t.Run("reused phone number keeps the display name", func(t *testing.T) {
		provider := auth.NewMemory()
		register := NewRegister(provider)

		require.False(t, register.Submit(ctx, valid).Failed())
		bob := valid
		bob.Name, bob.Email = "Bob", "bob@x.com"
		out := register.Submit(ctx, bob)
		require.False(t, out.Failed())
		require.Equal(t, "Registration successful!", out.Notice.Text)

		user, err := provider.LookupByEmail(ctx, "bob@x.com")
		require.NoError(t, err)
		require.Equal(t, "Bob", user.DisplayName)
		require.Empty(t, user.PhoneNumber)

		ann, err := provider.LookupByEmail(ctx, "ann@x.com")
		require.NoError(t, err)
		require.Equal(t, "+15551234567", ann.PhoneNumber)
	})

	t.Run("profile failure keeps the account", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		provider := mocks.NewMockProvider(ctrl)
		provider.EXPECT().SignUp(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&auth.Credentials{Identity: auth.Identity{ID: "u1"}}, nil)
		provider.EXPECT().UpdateProfile(gomock.Any(), "u1", gomock.Any()).Return(nil, errors.New("quota")).Times(2)

		out := NewRegister(provider).Submit(ctx, valid)
		require.False(t, out.Failed())
	})
}

func TestSplash(t *testing.T) {
	ctx := context.Background()

	route, err := NewSplash(session.New(), 0).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, RouteLogin, route)

	route, err = NewSplash(session.Restore(auth.Identity{ID: "u1"}, "t"), time.Millisecond).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, RouteChatList, route)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewSplash(session.New(), time.Hour).Run(cancelled)
	require.ErrorIs(t, err, context.Canceled)
}

func TestContactList(t *testing.T) {
	ctx := context.Background()
	provider := auth.NewMemory()
	contacts := store.NewMemory()
	sess := signedIn(t, provider, "me@x.com")
	screen := NewContactList(sess, provider, contacts)

	require.NoError(t, screen.Mount(ctx))
	require.ErrorIs(t, screen.Mount(ctx), ErrMounted)
	updates := screen.Updates()
	waitUntil(t, updates, func(c []contract.Contact) bool { return len(c) == 0 })

	out := screen.Add(ctx, "Ann", "ann@x.com")
	require.Equal(t, "Contact added!", out.Notice.Text)
	waitUntil(t, updates, func(c []contract.Contact) bool { return len(c) == 1 })

	contacts.Insert(store.ContactsPath(sess.UserID()), map[string]any{"name": "No Email"})
	contacts.Insert(store.ContactsPath(sess.UserID()), map[string]any{"email": "anon@x.com"})
	got := waitUntil(t, updates, func(c []contract.Contact) bool { return len(c) == 2 })
	require.Equal(t, "Ann", got[0].Name)
	require.Equal(t, contract.Contact{Name: "Unknown", Email: "anon@x.com"}, got[1])
	require.Equal(t, got, screen.Contacts())

	out = screen.Add(ctx, "", "bob@x.com")
	require.Equal(t, "All fields are required", out.Notice.Text)

	screen.Unmount()
	for range updates {
	}
	require.NoError(t, screen.Err())
}

func TestContactListRequiresSession(t *testing.T) {
	screen := NewContactList(session.New(), auth.NewMemory(), store.NewMemory())
	require.ErrorIs(t, screen.Mount(context.Background()), session.ErrNotSignedIn)
	require.ErrorIs(t, screen.Add(context.Background(), "Ann", "ann@x.com").Err, session.ErrNotSignedIn)
}

func TestContactListSubscribeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	contacts := mocks.NewMockContactStore(ctrl)
	boom := errors.New("permission denied")
	contacts.EXPECT().SubscribeContacts(gomock.Any(), "u1").Return(nil, boom)

	screen := NewContactList(session.Restore(auth.Identity{ID: "u1"}, "t"), auth.NewMemory(), contacts)
	require.ErrorIs(t, screen.Mount(context.Background()), boom)
}

func TestContactListProfileAndSignOut(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	sess := session.Restore(auth.Identity{ID: "u1", Email: "me@x.com"}, "t")
	screen := NewContactList(sess, provider, store.NewMemory())

	provider.EXPECT().User(gomock.Any(), "u1").Return(nil, errors.New("offline"))
	profile, err := screen.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, contract.ProfileResponse{Name: "me@x.com", Email: "me@x.com"}, profile)

	provider.EXPECT().User(gomock.Any(), "u1").Return(&auth.Identity{ID: "u1", Email: "me@x.com", DisplayName: "Me"}, nil)
	profile, err = screen.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, "Me", profile.Name)

	provider.EXPECT().SignOut(gomock.Any(), "u1").Return(errors.New("revocation failed"))
	out := screen.SignOut(ctx)
	require.Equal(t, "Logged out", out.Notice.Text)
	require.Equal(t, RouteLogin, out.Next)
	require.Equal(t, session.SignedOut, sess.State())

	_, err = screen.Profile(ctx)
	require.ErrorIs(t, err, session.ErrNotSignedIn)
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "Ann", DisplayName(auth.Identity{DisplayName: "Ann", Email: "ann@x.com"}))
	require.Equal(t, "ann@x.com", DisplayName(auth.Identity{Email: "ann@x.com"}))
	require.Equal(t, "User", DisplayName(auth.Identity{}))
}

func TestChat(t *testing.T) {
	ctx := context.Background()
	provider := auth.NewMemory()
	messages := store.NewMemory()
	alice := signedIn(t, provider, "alice@x.com")
	bob := signedIn(t, provider, "bob@x.com")

	aliceChat, err := OpenChat(ctx, alice, provider, messages, contract.Contact{Name: "Bob", Email: "bob@x.com"}, time.UTC)
	require.NoError(t, err)
	bobChat, err := OpenChat(ctx, bob, provider, messages, contract.Contact{Email: "alice@x.com"}, time.UTC)
	require.NoError(t, err)

	require.Equal(t, aliceChat.Key(), bobChat.Key())
	require.Equal(t, conversation.DeriveKey(alice.UserID(), bob.UserID()), aliceChat.Key())
	require.Equal(t, "Bob", aliceChat.Title())
	require.Equal(t, "Unknown", bobChat.Title())

	require.NoError(t, aliceChat.Mount(ctx))
	defer aliceChat.Unmount()
	updates := aliceChat.Updates()
	waitUntil(t, updates, func(m []contract.Message) bool { return len(m) == 0 })

	require.False(t, bobChat.Send(ctx, "   ").Failed())
	require.False(t, bobChat.Send(ctx, "hi alice").Failed())
	require.False(t, aliceChat.Send(ctx, " hey bob ").Failed())

	got := waitUntil(t, updates, func(m []contract.Message) bool { return len(m) == 2 })
	bubbles := aliceChat.Bubbles(got)
	require.Len(t, bubbles, 2)
	require.Equal(t, "hi alice", bubbles[0].Text)
	require.False(t, bubbles[0].Mine)
	require.Equal(t, "hey bob", bubbles[1].Text)
	require.True(t, bubbles[1].Mine)
	require.Equal(t, got, aliceChat.Messages())
}

func TestChatSendFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	messages := mocks.NewMockMessageStore(ctrl)
	sess := session.Restore(auth.Identity{ID: "u1"}, "t")

	provider.EXPECT().LookupByEmail(gomock.Any(), "bob@x.com").Return(&auth.Identity{ID: "u2"}, nil)
	c, err := OpenChat(ctx, sess, provider, messages, contract.Contact{Name: "Bob", Email: " bob@x.com"}, nil)
	require.NoError(t, err)
	require.Equal(t, conversation.Key("u1_u2"), c.Key())

	messages.EXPECT().AppendMessage(gomock.Any(), c.Key(), gomock.Any()).Return(errors.New("unavailable")).Times(1)
	out := c.Send(ctx, "hello")
	require.True(t, out.Failed())
	require.Equal(t, "Failed to send: unavailable", out.Notice.Text)

	require.Equal(t, Outcome{}, c.Send(ctx, "\n"))
}

func TestOpenChatUnknownContact(t *testing.T) {
	provider := auth.NewMemory()
	sess := signedIn(t, provider, "me@x.com")
	_, err := OpenChat(context.Background(), sess, provider, store.NewMemory(), contract.Contact{Email: "ghost@x.com"}, nil)
	require.ErrorIs(t, err, ErrUnknownContact)

	_, err = OpenChat(context.Background(), session.New(), provider, store.NewMemory(), contract.Contact{Email: "me@x.com"}, nil)
	require.ErrorIs(t, err, session.ErrNotSignedIn)
}
