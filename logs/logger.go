package logs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

type Options struct {
	Level slog.Level
	// Writer receives human readable logs, os.Stderr when nil.
	Writer io.Writer
	// File, when set, receives JSON logs.
	File string
	// Journal also sends logs to the systemd journal.
	Journal bool
}

// ParseLevel accepts debug, info, warn and error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

// New returns a logger fanning records out to every configured handler. The
// returned close function releases the log file and is never nil.
func New(opts Options) (*slog.Logger, func() error, error) {
	closeFn := func() error { return nil }
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	handlerOptions := &slog.HandlerOptions{
		Level: opts.Level,
	}

	terminalHandler := slog.NewTextHandler(writer, handlerOptions)
	handlers := []slog.Handler{terminalHandler}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, closeFn, err
		}
		closeFn = f.Close
		handlers = append(handlers, slog.NewJSONHandler(f, handlerOptions))
	}

	if opts.Journal {
		// The journal keeps its own default level.
		journalHandler, err := slogjournal.NewHandler(&slogjournal.Options{
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "new systemd journal handler", 0)
			record.Add("error", err)
			_ = terminalHandler.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, journalHandler)
		}
	}

	return slog.New(slogmulti.Fanout(handlers...)), closeFn, nil
}

// toJournalKey makes a journal field name: upper case letters, digits and
// underscores.
func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	str = strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' ||
			r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
	return str
}
