// internal/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultFlushInterval период сброса буфера файла логов.
const DefaultFlushInterval = time.Second

// Config параметры логгера.
type Config struct {
	Debug bool
	// JSON включает production JSON-вывод вместо цветного консольного.
	JSON bool
	// File дополнительно пишет JSON-логи в файл, если путь задан.
	File string
	// Output поток консольного вывода, по умолчанию os.Stderr.
	Output io.Writer
}

// New создаёт логгер и функцию, которую нужно вызвать перед выходом из программы.
func New(cfg Config) (*zap.Logger, func() error, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Debug {
		level.SetLevel(zap.DebugLevel)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	console := zapcore.Lock(zapcore.AddSync(out))

	var cores []zapcore.Core
	if cfg.JSON {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(productionEncoderConfig()), console, level))
	} else {
		cores = append(cores, newPrettyCore(console, level, cfg.Debug))
	}

	var fileWriter *SafeFileWriter
	if cfg.File != "" {
		w, err := NewSafeFileWriter(cfg.File, DefaultFlushInterval)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		fileWriter = w
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(productionEncoderConfig()), w, level))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if fileWriter != nil {
		logger.Debug("File logging enabled", zap.String("path", fileWriter.Path()))
	}

	cleanup := func() error {
		// Sync для stdout/stderr на некоторых платформах возвращает EINVAL, это не ошибка.
		_ = logger.Sync()
		if fileWriter != nil {
			return fileWriter.Close()
		}
		return nil
	}
	return logger, cleanup, nil
}

func productionEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	return encoderConfig
}

