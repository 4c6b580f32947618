package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestFileName(t *testing.T) {
	day := time.Date(2025, 3, 7, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "order-sync-2025-03-07.log", FileName(ChannelOrderSync, day))

	channel, parsed, ok := ParseFileName("/var/log/silvasync/order-sync-2025-03-07.log")
	require.True(t, ok)
	assert.Equal(t, ChannelOrderSync, channel)
	assert.Equal(t, time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC), parsed)

	for _, name := range []string{"order-sync.log", "2025-03-07.log", "order-sync-2025-13-07.log", "order-sync-2025-03-07.txt", "order-sync_2025-03-07.log"} {
		_, _, ok := ParseFileName(name)
		assert.False(t, ok, name)
	}
}

func TestDailyFile_RotatesOnDateChange(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	now := time.Date(2025, 3, 7, 23, 59, 0, 0, time.UTC)

	f := NewDailyFile(dir, ChannelStockSync)
	f.now = func() time.Time { return now }
	t.Cleanup(func() { _ = f.Close() })

	_, err := f.Write([]byte("{\"msg\":\"first\"}\n"))
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = f.Write([]byte("{\"msg\":\"second\"}\n"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	first := readEntries(t, filepath.Join(dir, "stock-sync-2025-03-07.log"))
	second := readEntries(t, filepath.Join(dir, "stock-sync-2025-03-08.log"))
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "first", first[0]["msg"])
	assert.Equal(t, "second", second[0]["msg"])
}

func TestDailyFile_SyncAndCloseBeforeWrite(t *testing.T) {
	f := NewDailyFile(t.TempDir(), ChannelTaskSync)
	assert.NoError(t, f.Sync())
	assert.NoError(t, f.Close())
}

func TestChannels_For(t *testing.T) {
	dir := t.TempDir()
	core, recorded := observer.New(zapcore.DebugLevel)
	channels := NewChannels(zap.New(core), dir, zapcore.InfoLevel)
	channels.now = func() time.Time { return time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC) }

	log := channels.For(ChannelOrderSync)
	log.Debug("not in file")
	log.Info("Order synced", zap.String("order_number", "10001"))
	channels.For(ChannelOrderSync).Warn("Order skipped", zap.String("order_number", "10002"))
	require.NoError(t, channels.Close())

	assert.Equal(t, 3, recorded.Len())
	assert.Equal(t, ChannelOrderSync, recorded.All()[0].LoggerName)

	entries := readEntries(t, filepath.Join(dir, "order-sync-2025-01-02.log"))
	require.Len(t, entries, 2)
	assert.Equal(t, "Order synced", entries[0]["msg"])
	assert.Equal(t, "10001", entries[0]["order_number"])
	assert.Equal(t, ChannelOrderSync, entries[0]["logger"])
	assert.Equal(t, "warn", entries[1]["level"])
}

func TestChannels_WithoutDir(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	channels := NewChannels(zap.New(core), "", nil)

	channels.For(ChannelEventSync).Info("Event handled")

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, ChannelEventSync, recorded.All()[0].LoggerName)
	assert.Empty(t, channels.Dir())
	assert.NoError(t, channels.Close())
}
