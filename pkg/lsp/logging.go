package lsp

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/walteh/viewphp-lsp/pkg/debug"
)

var myLoggerId = xid.New().String()

// LSPWriter implements io.Writer to redirect zerolog records to the client
// as window/logMessage notifications.
type LSPWriter struct {
	mu     sync.Mutex
	notify Notifier
	ctx    context.Context
}

func NewLSPWriter(ctx context.Context, notify Notifier) *LSPWriter {
	return &LSPWriter{
		notify: notify,
		ctx:    ctx,
	}
}

// ApplyLSPWriter returns ctx carrying a logger that writes through notify.
func ApplyLSPWriter(ctx context.Context, notify Notifier, level zerolog.Level) context.Context {
	return zerolog.New(NewLSPWriter(context.WithoutCancel(ctx), notify)).
		Level(level).
		With().
		Str("id", myLoggerId).
		Logger().
		Hook(debug.TimeHook{}).
		Hook(debug.CallerHook{}).
		WithContext(ctx)
}

func (w *LSPWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var logEntry map[string]any
	if err := json.Unmarshal(p, &logEntry); err != nil {
		return len(p), nil // malformed entries are dropped
	}

	take := func(key string) string {
		v, _ := logEntry[key].(string)
		delete(logEntry, key)
		return v
	}

	level := ParseMessageTypeFromZerolog(take("level"))
	msg := take("message")
	id := take("id")
	time := take("time")
	source := take("caller")

	// records from loggers we did not create are reported as dependencies
	if id != myLoggerId {
		level = Dependency
	}

	notification := LogMessageParams{
		Type:    level,
		Message: msg,
		Raw:     string(p),
		Extra:   logEntry,
		Time:    time,
		Source:  source,
	}

	if err := w.notify.Notify(w.ctx, "window/logMessage", notification); err != nil {
		return len(p), err
	}
	return len(p), nil
}
