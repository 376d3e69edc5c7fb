package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidToken = errors.New("invalid id token")

type memoryUser struct {
	identity Identity
	hash     []byte
}

// Memory is an in-process provider for local runs and tests.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]*memoryUser
	byEmail map[string]*memoryUser
	tokens  map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]*memoryUser),
		byEmail: make(map[string]*memoryUser),
		tokens:  make(map[string]string),
	}
}

func (m *Memory) SignUp(_ context.Context, email, password string) (*Credentials, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := m.byEmail[key]; ok {
		return nil, &RejectedError{Message: "The email address is already in use by another account.", Err: ErrEmailExists}
	}
	user := &memoryUser{identity: Identity{ID: uuid.NewString(), Email: email}, hash: hash}
	m.byID[user.identity.ID] = user
	m.byEmail[key] = user
	return m.issue(user), nil
}

func (m *Memory) SignIn(_ context.Context, email, password string) (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byEmail[strings.ToLower(email)]
	if !ok || bcrypt.CompareHashAndPassword(user.hash, []byte(password)) != nil {
		return nil, &RejectedError{Message: "The supplied auth credential is incorrect, malformed or has expired."}
	}
	return m.issue(user), nil
}

func (m *Memory) issue(user *memoryUser) *Credentials {
	token := uuid.NewString()
	m.tokens[token] = user.identity.ID
	return &Credentials{Identity: user.identity, IDToken: token, RefreshToken: uuid.NewString()}
}

func (m *Memory) SignOut(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, id := range m.tokens {
		if id == userID {
			delete(m.tokens, token)
		}
	}
	return nil
}

func (m *Memory) User(_ context.Context, userID string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.byID[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	identity := user.identity
	return &identity, nil
}

func (m *Memory) UpdateProfile(_ context.Context, userID string, profile Profile) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	if profile.PhoneNumber != "" {
		for id, other := range m.byID {
			if id != userID && other.identity.PhoneNumber == profile.PhoneNumber {
				return nil, &RejectedError{Message: "The user with the provided phone number already exists.", Err: ErrPhoneExists}
			}
		}
		user.identity.PhoneNumber = profile.PhoneNumber
	}
	if profile.DisplayName != "" {
		user.identity.DisplayName = profile.DisplayName
	}
	identity := user.identity
	return &identity, nil
}

func (m *Memory) LookupByEmail(_ context.Context, email string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	identity := user.identity
	return &identity, nil
}

func (m *Memory) Verify(_ context.Context, idToken string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.tokens[idToken]
	if !ok {
		return nil, errInvalidToken
	}
	identity := m.byID[id].identity
	return &identity, nil
}
