package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/klipach/justchat/contract"
	"github.com/klipach/justchat/conversation"
	"github.com/klipach/justchat/log"
	"github.com/klipach/justchat/record"
	"github.com/klipach/justchat/store"
	"github.com/samber/lo"
)

var now = time.Now

// Shape parses message records in store order. The store query already sorts
// by timestamp, so nothing is reordered here.
func Shape(ctx context.Context, records []map[string]any) []contract.Message {
	logger := log.LoggerFromContext(ctx)
	return lo.FilterMap(records, func(raw map[string]any, i int) (contract.Message, bool) {
		result := record.ParseMessage(raw)
		if !result.OK() {
			logger.Debug("message record dropped",
				slog.Int("index", i),
				slog.String(log.ErrorMsgLogField, result.Err.Error()),
			)
		}
		return result.Value, result.OK()
	})
}

func IsMine(msg contract.Message, userID string) bool {
	return msg.SenderID == userID
}

// Send appends the trimmed text. Blank text is a no-op.
func Send(ctx context.Context, s store.MessageStore, key conversation.Key, senderID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.AppendMessage(ctx, key, contract.Message{
		SenderID:  senderID,
		Message:   text,
		Timestamp: now().UnixMilli(),
	})
}
