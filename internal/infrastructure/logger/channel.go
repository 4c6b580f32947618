package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sync log channels. Each one gets its own file per day.
const (
	ChannelProductSync  = "product-sync"
	ChannelCustomerSync = "customer-sync"
	ChannelOrderSync    = "order-sync"
	ChannelStockSync    = "stock-sync"
	ChannelTaskSync     = "task-sync"
	ChannelEventSync    = "event-sync"
)

// DayLayout is the date part of a channel file name
const DayLayout = "2006-01-02"

const channelFileExt = ".log"

// FileName returns the file name of channel for the given day
func FileName(channel string, day time.Time) string {
	return channel + "-" + day.Format(DayLayout) + channelFileExt
}

// ParseFileName splits a channel file name into channel and day
func ParseFileName(name string) (string, time.Time, bool) {
	base, ok := strings.CutSuffix(filepath.Base(name), channelFileExt)
	if !ok || len(base) < len(DayLayout)+2 {
		return "", time.Time{}, false
	}
	split := len(base) - len(DayLayout)
	if base[split-1] != '-' {
		return "", time.Time{}, false
	}
	day, err := time.Parse(DayLayout, base[split:])
	if err != nil {
		return "", time.Time{}, false
	}
	return base[:split-1], day, true
}

// DailyFile is a zapcore.WriteSyncer that appends to
// <dir>/<channel>-YYYY-MM-DD.log and switches files when the date changes.
type DailyFile struct {
	dir     string
	channel string
	now     func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

var _ zapcore.WriteSyncer = (*DailyFile)(nil)

// NewDailyFile creates a DailyFile. The file is opened on first write.
func NewDailyFile(dir, channel string) *DailyFile {
	return &DailyFile{dir: dir, channel: channel, now: time.Now}
}

// Write implements io.Writer
func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.rotate(); err != nil {
		return 0, err
	}
	return d.file.Write(p)
}

// Sync implements zapcore.WriteSyncer
func (d *DailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

// Close closes the current file
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	d.day = ""
	return err
}

// rotate opens the file for today when none is open or the day changed.
// Caller holds mu.
func (d *DailyFile) rotate() error {
	now := d.now()
	day := now.Format(DayLayout)
	if d.file != nil && day == d.day {
		return nil
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	path := filepath.Join(d.dir, FileName(d.channel, now))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open channel log %s: %w", path, err)
	}

	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = f
	d.day = day
	return nil
}

// Channels hands out loggers that write both to the process logger and to
// a per-channel daily JSON file.
type Channels struct {
	base  *zap.Logger
	dir   string
	level zapcore.LevelEnabler
	now   func() time.Time

	mu    sync.Mutex
	files map[string]*DailyFile
}

// NewChannels creates a channel registry. An empty dir disables the files
// and For only names the base logger.
func NewChannels(base *zap.Logger, dir string, level zapcore.LevelEnabler) *Channels {
	if base == nil {
		base = zap.NewNop()
	}
	if level == nil {
		level = zapcore.InfoLevel
	}
	return &Channels{
		base:  base,
		dir:   dir,
		level: level,
		now:   time.Now,
		files: make(map[string]*DailyFile),
	}
}

// Dir returns the directory holding the channel files
func (c *Channels) Dir() string {
	return c.dir
}

// For returns the logger for channel
func (c *Channels) For(channel string) *zap.Logger {
	named := c.base.Named(channel)
	if c.dir == "" {
		return named
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig(time.RFC3339)),
		c.file(channel),
		c.level,
	)
	return named.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}

func (c *Channels) file(channel string) *DailyFile {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.files[channel]; ok {
		return f
	}
	f := NewDailyFile(c.dir, channel)
	f.now = c.now
	c.files[channel] = f
	return f
}

// Close syncs and closes every open channel file
func (c *Channels) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, f := range c.files {
		if err := f.Sync(); err != nil {
			errs = append(errs, err)
		}
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
