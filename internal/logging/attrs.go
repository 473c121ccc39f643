package logging

import (
	"log/slog"
	"time"
)

const (
	FieldComponent = "component"
	FieldStage     = "stage"
	FieldRunID     = "run_id"
	FieldAttempt   = "attempt"
	FieldPath      = "path"
)

func Component(name string) slog.Attr { return slog.String(FieldComponent, name) }

func Stage(name string) slog.Attr { return slog.String(FieldStage, name) }

func RunID(id string) slog.Attr { return slog.String(FieldRunID, id) }

func Attempt(n int) slog.Attr { return slog.Int(FieldAttempt, n) }

func Path(p string) slog.Attr { return slog.String(FieldPath, p) }

func Seconds(key string, d time.Duration) slog.Attr {
	return slog.Float64(key, float64(d.Milliseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
