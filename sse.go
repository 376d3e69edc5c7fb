package justchat

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	chatEvent     = "chat"
	contactsEvent = "contacts"
	messagesEvent = "messages"
	errorEvent    = "error"
)

type event struct {
	name string
	data any
}

// eventStream writes server-sent events, one JSON document per event.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func startEventStream(w http.ResponseWriter) (*eventStream, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &eventStream{w: w, flusher: flusher}, true
}

func (s *eventStream) send(event string, v any) error {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
