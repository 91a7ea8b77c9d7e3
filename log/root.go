package log

import (
	"os"
	"path/filepath"

	"coin-checkpoints/config"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init installs the process-wide zap logger. Diagnostic output goes to a
// size-rotated file, or to stderr when no log file is configured. It is kept
// apart from the checkpoint file, which only ever holds block lines.
func Init(cfg *config.LogConfig) {
	core := zapcore.NewCore(newEncoder(), newWriteSyncer(cfg), levelOf(cfg.Level))
	zap.ReplaceGlobals(zap.New(core, zap.AddCaller()))
}

func Sync() {
	_ = zap.L().Sync()
}

func newEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("[2006-01-02 15:04:05.000]"),
		EncodeDuration:   zapcore.SecondsDurationEncoder,
		ConsoleSeparator: " ",
	})
}

func newWriteSyncer(cfg *config.LogConfig) zapcore.WriteSyncer {
	if cfg.File == "" {
		return zapcore.Lock(os.Stderr)
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(cfg.Path, cfg.File),
		MaxSize:    200,
		MaxBackups: 10,
		MaxAge:     30,
	})
}

// levelOf falls back to info for unknown names.
func levelOf(name string) zapcore.Level {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
