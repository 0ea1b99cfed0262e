package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// L is the application logger. Call sites use the Printf family so log lines
// keep the bracketed-tag convention, e.g. "[task][start] ...".
var L = logrus.New()

// Init routes L to stdout plus a size-rotated file under dir. Empty dir means
// stdout only.
func Init(dir, level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	L.SetLevel(lvl)
	L.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if dir == "" {
		L.SetOutput(os.Stdout)
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		L.SetOutput(os.Stdout)
		L.Printf("[logging] create log dir failed, stdout only: %v", err)
		return
	}
	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "taskhub.log"),
		MaxSize:    20, // MB
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	L.SetOutput(io.MultiWriter(os.Stdout, rotated))
}
