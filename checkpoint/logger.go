package checkpoint

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02 15:04:05"
)

type Clock func() time.Time

type Option func(*Logger)

func WithClock(clock Clock) Option {
	return func(l *Logger) {
		l.clock = clock
	}
}

// Logger appends timestamped lines to <dir>/<name>-<YYYY-MM-DD>.log.
type Logger struct {
	dir   string
	name  string
	clock Clock

	file *dateFile
	zl   *zap.Logger
}

func New(dir, name string, opts ...Option) (*Logger, error) {
	l := &Logger{
		dir:   dir,
		name:  name,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.file = &dateFile{}
	if err := l.file.open(l.FileName(l.clock()), os.O_APPEND); err != nil {
		return nil, err
	}

	core := zapcore.NewCore(newEncoder(), l.file, zapcore.DebugLevel)
	// Write failures are reported by Log, not printed by zap.
	l.zl = zap.New(core, zap.WithClock(clockAdapter(l.clock)), zap.ErrorOutput(zapcore.AddSync(io.Discard)))
	return l, nil
}

// FileName is the log file path in use on the given day.
func (l *Logger) FileName(day time.Time) string {
	return filepath.Join(l.dir, fmt.Sprintf("%s-%s.log", l.name, day.Format(dateLayout)))
}

func (l *Logger) Path() string {
	return l.file.path()
}

// Log returns the first write failure of the current file; once a write has
// failed every later call fails too, until Rotate opens a new file.
func (l *Logger) Log(msg string) error {
	l.zl.Info(msg)
	return l.file.failure()
}

// Rotate reopens the file for the current day, discarding its content.
func (l *Logger) Rotate() error {
	// Only failures on the reopened file are reported.
	_ = l.Log("Rotating log")
	if err := l.file.open(l.FileName(l.clock()), os.O_TRUNC); err != nil {
		return err
	}
	return l.Log("Log rotation finished")
}

func (l *Logger) Close() error {
	return l.file.Close()
}

func newEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(
		zapcore.EncoderConfig{
			TimeKey:          "ts",
			MessageKey:       "msg",
			LineEnding:       zapcore.DefaultLineEnding,
			EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
			EncodeDuration:   zapcore.SecondsDurationEncoder,
			ConsoleSeparator: " - ",
		})
}

// dateFile is a zapcore.WriteSyncer whose underlying file can be swapped.
type dateFile struct {
	mu   sync.Mutex
	f    *os.File
	name string
	err  error
}

func (d *dateFile) open(name string, mode int) error {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|mode, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open checkpoint log %s", name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f != nil {
		_ = d.f.Close()
	}
	d.f = f
	d.name = name
	d.err = nil
	return nil
}

func (d *dateFile) failure() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *dateFile) path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

func (d *dateFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return 0, d.err
	}
	n, err := d.f.Write(p)
	if err == nil {
		err = d.f.Sync()
	}
	if err != nil {
		d.err = errors.Wrapf(err, "write checkpoint log %s", d.name)
	}
	return n, d.err
}

func (d *dateFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.Sync()
}

func (d *dateFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.Close()
}

type clockAdapter Clock

func (c clockAdapter) Now() time.Time {
	return c()
}

func (c clockAdapter) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}
