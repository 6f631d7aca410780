package seq2seq_data

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/wbrown/seq2seq_data/resources"
)

// Logger is the package logger. It defaults to timestamped JSON on stderr.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// SetLogger replaces the logger used by this package and by resources.
func SetLogger(logger zerolog.Logger) {
	Logger = logger
	resources.SetLogger(logger)
}
