package checkpoint

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestFileNamePattern(t *testing.T) {
	clock := &fakeClock{now: time.Date(2014, 12, 30, 11, 16, 53, 0, time.Local)}
	l, err := New(t.TempDir(), "checkpoints", WithClock(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	assert.Equal(t, filepath.Base(l.Path()), "checkpoints-2014-12-30.log")
	assert.MatchRegex(t, filepath.Base(l.Path()), regexp.MustCompile(`^checkpoints-\d{4}-\d{2}-\d{2}\.log$`))
}

func TestLogLineFormat(t *testing.T) {
	clock := &fakeClock{now: time.Date(2014, 12, 30, 11, 16, 53, 0, time.Local)}
	l, err := New(t.TempDir(), "checkpoints", WithClock(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	assert.Equal(t, l.Log("176058\t61 seconds, 2 transactions (culm. 400)"), nil)
	clock.now = clock.now.Add(time.Second)
	assert.Equal(t, l.Log("100% done"), nil)

	lines := readLines(t, l.Path())
	assert.Equal(t, lines, []string{
		"2014-12-30 11:16:53 - 176058\t61 seconds, 2 transactions (culm. 400)",
		"2014-12-30 11:16:54 - 100% done",
	})
}

func TestNewAppendsToExistingFile(t *testing.T) {
	dir := t.TempDir()
	clock := &fakeClock{now: time.Date(2014, 12, 30, 8, 0, 0, 0, time.Local)}

	first, err := New(dir, "checkpoints", WithClock(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	first.Log("first run")
	assert.Equal(t, first.Close(), nil)

	second, err := New(dir, "checkpoints", WithClock(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	second.Log("second run")

	assert.Equal(t, second.Path(), first.Path())
	assert.Equal(t, readLines(t, second.Path()), []string{
		"2014-12-30 08:00:00 - first run",
		"2014-12-30 08:00:00 - second run",
	})
}

func TestRotateSameDayTruncates(t *testing.T) {
	clock := &fakeClock{now: time.Date(2014, 12, 30, 8, 0, 0, 0, time.Local)}
	l, err := New(t.TempDir(), "checkpoints", WithClock(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	assert.Equal(t, l.Log("1\t0 seconds, 1 transactions (culm. 1)"), nil)
	assert.Equal(t, l.Rotate(), nil)

	assert.Equal(t, readLines(t, l.Path()), []string{
		"2014-12-30 08:00:00 - Log rotation finished",
	})
}

func TestRotateNextDayOpensFreshFile(t *testing.T) {
	clock := &fakeClock{now: time.Date(2014, 12, 30, 23, 59, 59, 0, time.Local)}
	l, err := New(t.TempDir(), "checkpoints", WithClock(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	assert.Equal(t, l.Log("before midnight"), nil)
	original := l.Path()

	clock.now = time.Date(2014, 12, 31, 0, 0, 0, 0, time.Local)
	assert.Equal(t, l.Rotate(), nil)
	assert.Equal(t, l.Log("after midnight"), nil)

	assert.NotEqual(t, l.Path(), original)
	assert.Equal(t, filepath.Base(l.Path()), "checkpoints-2014-12-31.log")
	assert.Equal(t, readLines(t, original), []string{
		"2014-12-30 23:59:59 - before midnight",
		"2014-12-31 00:00:00 - Rotating log",
	})
	assert.Equal(t, readLines(t, l.Path()), []string{
		"2014-12-31 00:00:00 - Log rotation finished",
		"2014-12-31 00:00:00 - after midnight",
	})
}

func TestRotateTruncatesStaleFileForNewDay(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "checkpoints-2014-12-31.log")
	if err := os.WriteFile(stale, []byte("stale\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	clock := &fakeClock{now: time.Date(2014, 12, 30, 12, 0, 0, 0, time.Local)}
	l, err := New(dir, "checkpoints", WithClock(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	clock.now = clock.now.Add(24 * time.Hour)
	assert.Equal(t, l.Rotate(), nil)
	assert.Equal(t, readLines(t, stale), []string{
		"2014-12-31 12:00:00 - Log rotation finished",
	})
}

func TestNewFailsOnMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), "checkpoints")
	assert.NotEqual(t, err, nil)
}

// fullDiskLogger returns a logger whose file for the clock's day is a link
// to /dev/full, so every write fails with ENOSPC.
func fullDiskLogger(t *testing.T, clock *fakeClock) *Logger {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("/dev/full is linux only")
	}
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}

	dir := t.TempDir()
	link := filepath.Join(dir, "checkpoints-"+clock.now.Format(dateLayout)+".log")
	if err := os.Symlink("/dev/full", link); err != nil {
		t.Fatal(err)
	}
	l, err := New(dir, "checkpoints", WithClock(clock.Now))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLogReportsWriteFailure(t *testing.T) {
	clock := &fakeClock{now: time.Date(2014, 12, 30, 8, 0, 0, 0, time.Local)}
	l := fullDiskLogger(t, clock)

	err := l.Log("1\t61 seconds, 1 transactions (culm. 1)")
	assert.NotEqual(t, err, nil)
	assert.Equal(t, strings.Contains(err.Error(), "write checkpoint log"), true)

	// Later lines keep failing instead of silently going missing.
	assert.NotEqual(t, l.Log("2\t61 seconds, 1 transactions (culm. 2)"), nil)
}

func TestRotateClearsWriteFailure(t *testing.T) {
	clock := &fakeClock{now: time.Date(2014, 12, 30, 23, 59, 59, 0, time.Local)}
	l := fullDiskLogger(t, clock)
	assert.NotEqual(t, l.Log("before midnight"), nil)

	clock.now = time.Date(2014, 12, 31, 0, 0, 0, 0, time.Local)
	assert.Equal(t, l.Rotate(), nil)
	assert.Equal(t, l.Log("after midnight"), nil)
	assert.Equal(t, readLines(t, l.Path()), []string{
		"2014-12-31 00:00:00 - Log rotation finished",
		"2014-12-31 00:00:00 - after midnight",
	})
}
