package contact

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/klipach/justchat/contract"
	"github.com/klipach/justchat/form"
	"github.com/klipach/justchat/log"
	"github.com/klipach/justchat/record"
	"github.com/klipach/justchat/store"
	"github.com/samber/lo"
)

var now = time.Now

// Shape keeps the delivered order and drops records without a usable email.
func Shape(ctx context.Context, records []map[string]any) []contract.Contact {
	logger := log.LoggerFromContext(ctx)
	return lo.FilterMap(records, func(raw map[string]any, i int) (contract.Contact, bool) {
		result := record.ParseContact(raw)
		if !result.OK() {
			logger.Debug("contact record dropped",
				slog.Int("index", i),
				slog.String(log.ErrorMsgLogField, result.Err.Error()),
			)
		}
		return result.Value, result.OK()
	})
}

// Add appends a contact for userID. Both fields must be non-blank.
func Add(ctx context.Context, s store.ContactStore, userID, name, email string) error {
	if err := form.Contact(name, email); err != nil {
		return err
	}
	return s.AppendContact(ctx, userID, contract.Contact{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		AddedAt: now().UnixMilli(),
	})
}
