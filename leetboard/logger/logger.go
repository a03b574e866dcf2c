package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
)

type LogType string

const (
	TypeCommand  LogType = "CMD"
	TypeDB       LogType = "DB"
	TypeSystem   LogType = "SYS"
	TypeError    LogType = "ERR"
	TypeUpstream LogType = "NET"
	TypeJob      LogType = "JOB"
)

// CustomHandler renders records as a single colored line:
//
//	[Leetboard] [15:04:05] [INFO] [JOB] message key=value
type CustomHandler struct {
	app   string
	opts  *slog.HandlerOptions
	out   io.Writer
	mu    *sync.Mutex
	attrs []slog.Attr
	group string
}

func NewHandler(app string, level slog.Leveler) *CustomHandler {
	return NewHandlerWithWriter(app, level, os.Stdout)
}

func NewHandlerWithWriter(app string, level slog.Leveler, out io.Writer) *CustomHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &CustomHandler{
		app:  app,
		opts: &slog.HandlerOptions{Level: level},
		out:  out,
		mu:   &sync.Mutex{},
	}
}

// Setup installs the process-wide default logger. format "json" selects the
// stdlib JSON handler, anything else the colored handler.
func Setup(app, format string, level slog.Level, addSource bool) *slog.Logger {
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: addSource})
	} else {
		h = NewHandler(app, level)
	}
	l := slog.New(h)
	slog.SetDefault(l)
	return l
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		merged = append(merged, a)
	}
	return &CustomHandler{app: h.app, opts: h.opts, out: h.out, mu: h.mu, attrs: merged, group: h.group}
}

func (h *CustomHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &CustomHandler{app: h.app, opts: h.opts, out: h.out, mu: h.mu, attrs: h.attrs, group: group}
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	timestamp := r.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var levelColor, levelText string
	switch {
	case r.Level >= slog.LevelError:
		levelColor, levelText = colorRed, "ERROR"
	case r.Level >= slog.LevelWarn:
		levelColor, levelText = colorYellow, "WARN"
	case r.Level >= slog.LevelInfo:
		levelColor, levelText = colorGreen, "INFO"
	default:
		levelColor, levelText = colorPurple, "DEBUG"
	}

	all := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	all = append(all, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		all = append(all, a)
		return true
	})

	logType := TypeSystem
	message := r.Message
	var status string
	var b strings.Builder
	for _, a := range all {
		switch a.Key {
		case "type":
			logType = parseLogType(a.Value.String())
			continue
		case "status":
			status = a.Value.String()
			continue
		}
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}

	if r.Level >= slog.LevelError {
		if file, line := sourceLocation(r); file != "" {
			message = fmt.Sprintf("%s (%s:%d)", message, file, line)
		}
	}
	if status != "" {
		message = fmt.Sprintf("%s [Status: %s]", message, status)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.out, "%s[%s] [%s] [%s%s%s] [%s] %s%s%s\n",
		colorWhite,
		h.app,
		timestamp.Format("15:04:05"),
		levelColor,
		levelText,
		colorWhite,
		logType,
		message,
		b.String(),
		colorReset,
	)
	return err
}

func parseLogType(v string) LogType {
	switch v {
	case "cmd":
		return TypeCommand
	case "db":
		return TypeDB
	case "error":
		return TypeError
	case "net":
		return TypeUpstream
	case "job":
		return TypeJob
	default:
		return TypeSystem
	}
}

func sourceLocation(r slog.Record) (string, int) {
	if r.PC == 0 {
		return "", 0
	}
	frames := runtime.CallersFrames([]uintptr{r.PC})
	f, _ := frames.Next()
	if f.File == "" {
		return "", 0
	}
	return filepath.Base(f.File), f.Line
}
