package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaforge-labs/gravity-ledger/token"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func readEvents(t *testing.T, dir string) []token.Event {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, "ledger_events_*.jsonl"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()

	var events []token.Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev token.Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestWriterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, quietLogger())
	require.NoError(t, err)

	w.Record(token.Event{
		Type:      token.EventMint,
		To:        "0xUser",
		Amount:    "1000",
		Timestamp: time.Now(),
		TxHash:    "0xabc",
	})
	w.Record(token.Event{
		Type:      token.EventTransfer,
		From:      "0xUser",
		To:        "0xOther",
		Amount:    "500",
		Timestamp: time.Now(),
		TxHash:    "0xdef",
		Metadata:  map[string]interface{}{"net": "490"},
	})
	require.NoError(t, w.Close())

	events := readEvents(t, dir)
	require.Len(t, events, 2)
	assert.Equal(t, token.EventMint, events[0].Type)
	assert.Equal(t, "1000", events[0].Amount)
	assert.Equal(t, token.EventTransfer, events[1].Type)
	assert.Equal(t, "490", events[1].Metadata["net"])
}

// Filling the buffer past its high-water mark hands the backlog to the
// background flusher; nothing may be lost or reordered on the way to disk.
func TestWriterBufferOverflow(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, quietLogger())
	require.NoError(t, err)

	total := 2*defaultBufferSize + 7
	for i := 0; i < total; i++ {
		w.Record(token.Event{
			Type:      token.EventMint,
			To:        "0xUser",
			Amount:    fmt.Sprintf("%d", i),
			Timestamp: time.Now(),
		})
	}
	require.NoError(t, w.Close())

	events := readEvents(t, dir)
	require.Len(t, events, total)
	for i, ev := range events {
		assert.Equal(t, fmt.Sprintf("%d", i), ev.Amount)
	}
}

func TestWriterAsLedgerSink(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, quietLogger())
	require.NoError(t, err)

	l, err := token.NewLedger("Gravity", "GRV", "0xAdmin", "0xTreasury",
		token.WithLogger(quietLogger()), token.WithEventSink(w))
	require.NoError(t, err)

	require.NoError(t, l.Mint("0xAdmin", "0xUser", uint256.NewInt(10000)))
	require.NoError(t, l.Transfer("0xUser", "0xOther", uint256.NewInt(10000)))
	require.NoError(t, w.Close())

	events := readEvents(t, dir)
	// Mint, fee burn, transfer.
	require.Len(t, events, 3)
	assert.Equal(t, token.EventMint, events[0].Type)
	assert.Equal(t, token.EventBurn, events[1].Type)
	assert.Equal(t, token.EventTransfer, events[2].Type)
}
