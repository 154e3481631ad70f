package sse

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Time between keepalive pings
const pingPeriod = 30 * time.Second

// Serve streams every value received on events to the client as an SSE
// event named eventName, starting with initial. It returns when the client
// disconnects or events is closed.
func Serve[T any](w http.ResponseWriter, r *http.Request, eventName string, initial T, events <-chan T, logger *slog.Logger) {
	// Check if SSE is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	connectedAt := time.Now()
	logger.Info("sse client connected", slog.String("event", eventName))
	defer func() {
		logger.Info("sse client disconnected",
			slog.String("event", eventName),
			slog.Duration("connection_duration", time.Since(connectedAt)))
	}()

	send := func(v T) bool {
		data, err := json.Marshal(v)
		if err != nil {
			logger.Error("sse failed to encode event", slog.Any("error", err))
			return true
		}
		if _, err := w.Write(FormatMessage(eventName, string(data))); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(initial) {
		return
	}

	// Create ticker for keepalive
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case v, ok := <-events:
			if !ok {
				return
			}
			if !send(v) {
				return
			}

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// FormatMessage formats an SSE message with event name and data.
// Each line of data gets its own "data: " prefix.
func FormatMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	data = strings.ReplaceAll(data, "\r", "")
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}
