package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// L é o logger global. Antes de InitLogger descarta tudo, o que mantém os testes silenciosos.
var L = slog.New(slog.NewJSONHandler(io.Discard, nil))

// InitLogger configura o logger global em JSON no stdout.
// Chamar uma vez no startup, depois de carregar a configuração.
func InitLogger(nivel string) {
	L = slog.New(slog.NewJSONHandler(os.Stdout, opcoes(nivel)))
	slog.SetDefault(L)
	L.Info("Logger inicializado", "nivel", strings.ToLower(nivel))
}

// Discard devolve um logger que não escreve nada; útil em testes.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func opcoes(nivel string) *slog.HandlerOptions {
	var level slog.Level
	switch strings.ToLower(nivel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}
}
