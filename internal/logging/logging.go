// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Setup applies level and format ("text" or "json") to the standard logger
// and directs it to out
func Setup(level, format string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var formatter logrus.Formatter
	switch format {
	case "", "text":
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	case "json":
		formatter = &logrus.JSONFormatter{}
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	logger := logrus.StandardLogger()
	logger.SetLevel(lvl)
	logger.SetFormatter(formatter)
	if out != nil {
		logger.SetOutput(out)
	}
	return nil
}
