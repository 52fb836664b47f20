package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger    *zap.Logger
	debugFile *os.File
	debugOnce sync.Once
	logsDir   string
	level     = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	mu        sync.RWMutex
)

// ConfigureDebug sets the directory for debug logs
func ConfigureDebug(dir string) {
	mu.Lock()
	defer mu.Unlock()
	logsDir = dir
}

// SetLevel changes the minimum level written to the debug log.
func SetLevel(lvl string) error {
	parsed, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return err
	}
	level.SetLevel(parsed)
	return nil
}

// Logger returns the file-backed logger, or a no-op logger when no
// logs directory is configured.
func Logger() *zap.Logger {
	mu.RLock()
	dir := logsDir
	mu.RUnlock()

	if dir == "" {
		return zap.NewNop()
	}

	debugOnce.Do(func() {
		_ = os.MkdirAll(dir, 0o755)
		name := fmt.Sprintf("debug-%s.log", time.Now().Format("20060102-150405"))
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return
		}
		debugFile = f

		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), level)
		logger = zap.New(core)
	})

	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Debug writes a message to the debug log file in the configured directory
func Debug(format string, args ...any) {
	Logger().Sugar().Debugf(format, args...)
}

// CloseDebug flushes and closes the current debug log file.
func CloseDebug() {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		_ = logger.Sync()
	}
	if debugFile != nil {
		_ = debugFile.Close()
	}
}

// CleanupLogs keeps the newest `retention` debug logs and removes the rest.
func CleanupLogs(retention int) {
	mu.RLock()
	dir := logsDir
	mu.RUnlock()

	if dir == "" || retention < 0 {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	var logs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "debug-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		logs = append(logs, name)
	}
	if len(logs) <= retention {
		return
	}

	// Timestamped names sort chronologically
	sort.Sort(sort.Reverse(sort.StringSlice(logs)))
	for _, name := range logs[retention:] {
		path := filepath.Join(dir, name)
		if debugFile != nil && debugFile.Name() == path {
			continue
		}
		_ = os.Remove(path)
	}
}

// Truncate shortens s to at most max runes, ending with an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
