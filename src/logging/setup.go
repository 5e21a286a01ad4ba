// Package logging configures the process logger.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log output goes.
type Options struct {
	// File, when set, receives a copy of every line with size based rotation.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Setup points the standard logger at stderr and, optionally, a rotated
// file. The returned closer flushes and closes the file.
func Setup(opts Options) io.Closer {
	log.SetFlags(log.LstdFlags | log.LUTC)
	if opts.File == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil)
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	log.Printf("logging: writing to %s (max %d MB, %d backups)", opts.File, opts.MaxSizeMB, opts.MaxBackups)
	return rotator
}
