package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = log.New()

func init() {
	env := os.Getenv("ENV")
	logger.Out = os.Stdout
	// Stdout suits docker and systemd. LOG_TO_FILE=true switches to a rotated file.
	if os.Getenv("LOG_TO_FILE") == "true" {
		if w, err := fileWriter(env); err != nil {
			log.Warnf("Failed to set up file logging: %v, falling back to stdout", err)
		} else {
			logger.Out = w
		}
	}

	logger.Formatter = &log.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	}
	logger.SetLevel(level(os.Getenv("LOG_LEVEL")))
}

func fileWriter(env string) (io.Writer, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	logsDir := filepath.Join(cwd, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, err
	}
	name := "mediahub"
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return &lumberjack.Logger{
		Filename:  filepath.Join(logsDir, name+".log"),
		MaxSize:   100, // MB
		MaxAge:    14,
		Compress:  true,
		LocalTime: true,
	}, nil
}

func level(v string) log.Level {
	if v == "" {
		return log.DebugLevel
	}
	l, err := log.ParseLevel(v)
	if err != nil {
		return log.DebugLevel
	}
	return l
}

func GetLogger() *log.Entry {
	function, file, line, _ := runtime.Caller(1)

	functionObject := runtime.FuncForPC(function)
	entry := logger.WithFields(log.Fields{
		"requestId": time.Now().UnixNano() / int64(time.Millisecond),
		"function":  functionObject.Name(),
		"file":      file,
		"line":      line,
	})

	return entry
}
