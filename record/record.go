// Package record turns loosely typed store documents into typed entities.
// Documents come back from Firestore and Postgres as map[string]any; every
// read goes through here before reaching business logic.
package record

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/klipach/justchat/contract"
)

const (
	FieldName      = "name"
	FieldEmail     = "email"
	FieldAddedAt   = "addedAt"
	FieldSenderID  = "senderId"
	FieldMessage   = "message"
	FieldTimestamp = "timestamp"

	UnknownName = "Unknown"
)

var (
	ErrMissingField = errors.New("missing field")
	ErrWrongType    = errors.New("wrong field type")
	ErrBlankField   = errors.New("blank field")
)

// Result is either a parsed entity or the reason it could not be parsed.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

func failed[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// ParseContact requires a non-blank email. A missing name becomes "Unknown".
func ParseContact(raw map[string]any) Result[contract.Contact] {
	email, err := requiredString(raw, FieldEmail)
	if err != nil {
		return failed[contract.Contact](err)
	}
	name, err := stringField(raw, FieldName)
	if err != nil {
		name = UnknownName
	}
	addedAt, err := millisField(raw, FieldAddedAt)
	if err != nil {
		addedAt = 0
	}
	return Result[contract.Contact]{Value: contract.Contact{
		Name:    name,
		Email:   email,
		AddedAt: addedAt,
	}}
}

// ParseMessage requires every field; there is no partial reconstruction.
func ParseMessage(raw map[string]any) Result[contract.Message] {
	senderID, err := requiredString(raw, FieldSenderID)
	if err != nil {
		return failed[contract.Message](err)
	}
	text, err := stringField(raw, FieldMessage)
	if err != nil {
		return failed[contract.Message](err)
	}
	ts, err := millisField(raw, FieldTimestamp)
	if err != nil {
		return failed[contract.Message](err)
	}
	return Result[contract.Message]{Value: contract.Message{
		SenderID:  senderID,
		Message:   text,
		Timestamp: ts,
	}}
}

func stringField(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T", ErrWrongType, key, v)
	}
	return s, nil
}

func requiredString(raw map[string]any, key string) (string, error) {
	s, err := stringField(raw, key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s", ErrBlankField, key)
	}
	return s, nil
}

// millisField accepts the integer encodings the stores hand back: Firestore
// yields int64 (or float64 for values written by JS clients) and may hold a
// native timestamp.
func millisField(raw map[string]any, key string) (int64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %s is not whole", ErrWrongType, key)
		}
		return int64(n), nil
	case time.Time:
		return n.UnixMilli(), nil
	default:
		return 0, fmt.Errorf("%w: %s is %T", ErrWrongType, key, v)
	}
}
