package main

import (
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// levelOption maps LOG_LEVEL to a go-kit level filter.
func levelOption(name string) (level.Option, error) {
	switch name {
	case "debug":
		return level.AllowDebug(), nil
	case "info", "":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	default:
		return nil, fmt.Errorf("%s must be debug|info|warn|error, got %q", envLogLevel, name)
	}
}

// newLogger returns a logfmt logger on w with ts and caller prefixes, filtered at levelName.
// An unknown level falls back to info.
func newLogger(w io.Writer, levelName string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	logger = log.WithPrefix(logger, "caller", log.DefaultCaller)

	opt, err := levelOption(levelName)
	if err != nil {
		opt = level.AllowInfo()
	}
	return level.NewFilter(logger, opt)
}
