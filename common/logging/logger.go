package logging

import (
	"os"
	"path"
	"time"

	"github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05.000 Z07:00"
const logFileName = "d1pkg.log"
const keepLogsFor = 14 * 24 * time.Hour

type utcFormatter struct {
	logrus.Formatter
}

func (f utcFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	entry.Time = entry.Time.UTC()
	return f.Formatter.Format(entry)
}

func newFormatter(colors bool, json bool) logrus.Formatter {
	if json {
		return &utcFormatter{&logrus.JSONFormatter{TimestampFormat: timestampFormat}}
	}
	return &utcFormatter{&logrus.TextFormatter{
		TimestampFormat:  timestampFormat,
		FullTimestamp:    true,
		ForceColors:      colors,
		DisableColors:    !colors,
		QuoteEmptyFields: true,
	}}
}

// Setup configures the global logger. Console output goes to stderr so that
// command output on stdout stays clean. When dir is set (and not "-") a copy
// of every entry is written to a daily rotated file there.
func Setup(dir string, colors bool, json bool, level string) error {
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)

	formatter := newFormatter(colors, json)
	logrus.SetFormatter(formatter)
	logrus.SetOutput(os.Stderr)

	if dir == "" || dir == "-" {
		return nil
	}
	if err = os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	logFile := path.Join(dir, logFileName)
	writer, err := rotatelogs.New(
		logFile+".%Y%m%d",
		rotatelogs.WithLinkName(logFile),
		rotatelogs.WithMaxAge(keepLogsFor),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return err
	}

	writers := lfshook.WriterMap{}
	for _, l := range logrus.AllLevels {
		writers[l] = writer
	}
	// files are always plain text, colour codes only make sense on a terminal
	logrus.AddHook(lfshook.NewHook(writers, newFormatter(false, json)))
	return nil
}

// SendToDebugLogger adapts printf-style library loggers (the worker pool) onto logrus at debug level.
type SendToDebugLogger struct {
}

func (*SendToDebugLogger) Printf(format string, v ...interface{}) {
	logrus.Debugf(format, v...)
}
