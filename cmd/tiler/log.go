package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/pkg/errors"
	"github.com/shiena/ansicolor"
	"github.com/sirupsen/logrus"

	"github.com/RoninZc/tiler/config"
)

var log = logrus.New()

// newLogger writes to a daily file under out.LogDir and, when enabled, to
// the terminal.
func newLogger(out config.Output) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	logIO := make([]io.Writer, 0, 2)
	if out.LogDir != "" {
		if err := os.MkdirAll(out.LogDir, os.ModePerm); err != nil {
			return nil, errors.Wrap(err, "create log dir")
		}
		filename := filepath.Join(out.LogDir, time.Now().Format("2006-01-02.log"))
		file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return nil, errors.Wrap(err, "open log file")
		}
		logIO = append(logIO, file)
	}
	if out.OutputTerminal {
		logIO = append(logIO, os.Stdout)
	}
	l.SetOutput(ansicolor.NewAnsiColorWriter(io.MultiWriter(logIO...)))

	level, err := logrus.ParseLevel(out.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l, nil
}
