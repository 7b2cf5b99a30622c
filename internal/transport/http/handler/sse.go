package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// sseWriter sends headers lazily so that errors raised before the first
// chunk can still be answered with a regular JSON envelope.
type sseWriter struct {
	c       *gin.Context
	flusher http.Flusher
	started bool
}

func newSSEWriter(c *gin.Context) (*sseWriter, bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		return nil, false
	}
	return &sseWriter{c: c, flusher: flusher}, true
}

func (w *sseWriter) start() {
	if w.started {
		return
	}
	w.started = true
	w.c.Header("Content-Type", "text/event-stream")
	w.c.Header("Cache-Control", "no-cache")
	w.c.Header("Connection", "keep-alive")
	w.c.Header("X-Accel-Buffering", "no")
	w.c.Status(http.StatusOK)
}

// Data writes one data frame. Embedded newlines become extra data lines,
// which clients join back with "\n".
func (w *sseWriter) Data(chunk string) error {
	return w.Event("", chunk)
}

func (w *sseWriter) Event(event, data string) error {
	w.start()

	var b strings.Builder
	if event != "" {
		b.WriteString("event: ")
		b.WriteString(event)
		b.WriteByte('\n')
	}
	for _, line := range strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if _, err := w.c.Writer.WriteString(b.String()); err != nil {
		return err
	}
	w.flusher.Flush()
	return nil
}

func (w *sseWriter) JSONEvent(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return w.Event(event, string(raw))
}
