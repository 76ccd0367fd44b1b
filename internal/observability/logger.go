package observability

import (
	"github.com/rs/zerolog"

	"github.com/danmuck/meshwap/internal/logging"
)

// InitLogger configures runtime logging once and returns a logger tagged
// with the app name.
func InitLogger(app string) zerolog.Logger {
	logging.ConfigureRuntime()
	return logging.Logger(app).With().Str("app", app).Logger()
}
