package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SafeFileWriter – потокобезопасный буферизованный writer для файла логов.
// Реализует zapcore.WriteSyncer; буфер сбрасывается по таймеру и при Sync.
type SafeFileWriter struct {
	mu       sync.Mutex
	writer   *bufio.Writer
	file     *os.File
	ticker   *time.Ticker
	done     chan struct{}
	closed   bool
	filePath string

	// Stats
	writes  uint64
	flushes uint64
	// lastFlushErr ошибка последнего фонового сброса, возвращается из Sync/Close.
	lastFlushErr error
}

// NewSafeFileWriter открывает файл на дозапись и запускает периодический сброс буфера.
func NewSafeFileWriter(filePath string, flushInterval time.Duration) (*SafeFileWriter, error) {
	if flushInterval <= 0 {
		return nil, fmt.Errorf("flush interval must be positive: %s", flushInterval)
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	sfw := &SafeFileWriter{
		writer:   bufio.NewWriter(file),
		file:     file,
		ticker:   time.NewTicker(flushInterval),
		done:     make(chan struct{}),
		filePath: filePath,
	}

	go sfw.periodicFlush()

	return sfw, nil
}

// Write writes data to the file in a thread-safe manner
func (sfw *SafeFileWriter) Write(data []byte) (int, error) {
	sfw.mu.Lock()
	defer sfw.mu.Unlock()

	if sfw.closed {
		return 0, os.ErrClosed
	}

	n, err := sfw.writer.Write(data)
	if err != nil {
		return n, fmt.Errorf("failed to write data: %w", err)
	}

	sfw.writes++
	return n, nil
}

// Sync сбрасывает буфер на диск.
func (sfw *SafeFileWriter) Sync() error {
	sfw.mu.Lock()
	defer sfw.mu.Unlock()

	if sfw.closed {
		return nil
	}
	return sfw.flushLocked()
}

func (sfw *SafeFileWriter) flushLocked() error {
	if err := sfw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}
	if err := sfw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	sfw.flushes++
	return nil
}

// periodicFlush runs in a goroutine to periodically flush the buffer
func (sfw *SafeFileWriter) periodicFlush() {
	for {
		select {
		case <-sfw.ticker.C:
			sfw.mu.Lock()
			if !sfw.closed {
				sfw.lastFlushErr = sfw.flushLocked()
			}
			sfw.mu.Unlock()
		case <-sfw.done:
			return
		}
	}
}

// Close closes the writer and ensures all data is written
func (sfw *SafeFileWriter) Close() error {
	sfw.mu.Lock()
	defer sfw.mu.Unlock()

	if sfw.closed {
		return nil
	}
	sfw.closed = true
	close(sfw.done)
	sfw.ticker.Stop()

	if err := sfw.writer.Flush(); err != nil {
		sfw.file.Close()
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := sfw.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return sfw.lastFlushErr
}

// Path возвращает путь к файлу.
func (sfw *SafeFileWriter) Path() string {
	return sfw.filePath
}

// GetStats returns writer statistics
func (sfw *SafeFileWriter) GetStats() (writes, flushes uint64) {
	sfw.mu.Lock()
	defer sfw.mu.Unlock()
	return sfw.writes, sfw.flushes
}
