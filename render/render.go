package render

import (
	"strings"
	"time"

	"github.com/klipach/justchat/contract"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

const (
	clockLayout  = "03:04 PM"
	chatSubtitle = "Tap to chat"
)

var (
	policy     = bluemonday.UGCPolicy()
	extensions = blackfriday.CommonExtensions | blackfriday.HardLineBreak
)

// HTML renders message markdown and strips anything unsafe, including raw
// HTML typed by the sender.
func HTML(text string) string {
	unsafe := blackfriday.Run([]byte(text), blackfriday.WithExtensions(extensions))
	return strings.TrimSpace(string(policy.SanitizeBytes(unsafe)))
}

// Clock formats epoch millis as "hh:mm AM".
func Clock(millis int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(millis).In(loc).Format(clockLayout)
}

func Bubble(msg contract.Message, mine bool, loc *time.Location) contract.Bubble {
	return contract.Bubble{
		Text: msg.Message,
		HTML: HTML(msg.Message),
		Time: Clock(msg.Timestamp, loc),
		Mine: mine,
	}
}

func ChatItem(c contract.Contact, loc *time.Location) contract.ChatItem {
	item := contract.ChatItem{Name: c.Name, Email: c.Email, Subtitle: chatSubtitle}
	if c.AddedAt > 0 {
		item.Time = Clock(c.AddedAt, loc)
	}
	return item
}
