// Package logger builds the zerolog loggers used across the module.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const permission = 0664

// Build configures a logger sink before Make is called.
type Build struct {
	writer io.Writer
	path   string
}

func New() *Build {
	return &Build{}
}

// ToPath appends log lines to the file at path, creating it if needed.
func (b *Build) ToPath(path string) *Build {
	b.path = path
	return b
}

// ToWriter sends log lines to w.
func (b *Build) ToWriter(w io.Writer) *Build {
	b.writer = w
	return b
}

// Make produces a timestamped logger. With no sink configured it writes to
// stdout.
func (b *Build) Make() (zerolog.Logger, error) {
	var w io.Writer = os.Stdout
	if b.writer != nil {
		w = b.writer
	}
	if b.path != "" {
		f, err := os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return zerolog.Nop(), err
		}
		w = zerolog.SyncWriter(f)
	}
	return zerolog.New(w).With().Timestamp().Logger(), nil
}
