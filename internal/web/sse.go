package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// eventWriter пишет события text/event-stream.
type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newEventWriter(w http.ResponseWriter) (*eventWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &eventWriter{w: w, flusher: flusher}, true
}

// Event отправляет событие. Многострочные данные разбиваются на строки data:.
func (e *eventWriter) Event(name, data string) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\n", name)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&buf, "data: %s\n", line)
	}
	buf.WriteString("\n")
	if _, err := e.w.Write(buf.Bytes()); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}

// JSON отправляет событие с JSON-данными.
func (e *eventWriter) JSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return e.Event(name, string(data))
}

// Ping отправляет комментарий, чтобы прокси не закрывали простаивающее соединение.
func (e *eventWriter) Ping() error {
	if _, err := e.w.Write([]byte(": ping\n\n")); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}
