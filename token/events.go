package token

import (
	"time"
)

type EventType string

const (
	EventMint            EventType = "Mint"
	EventBurn            EventType = "Burn"
	EventTransfer        EventType = "Transfer"
	EventApproval        EventType = "Approval"
	EventRoleGranted     EventType = "RoleGranted"
	EventRoleRevoked     EventType = "RoleRevoked"
	EventPaused          EventType = "Paused"
	EventUnpaused        EventType = "Unpaused"
	EventTreasuryUpdated EventType = "TreasuryUpdated"
	EventAirdrop         EventType = "Airdrop"
	EventAssetRecovered  EventType = "AssetRecovered"
)

// Event is a single audit record. Amounts are decimal strings so the record
// survives JSON encoding without precision loss.
type Event struct {
	Type      EventType              `json:"type"`
	From      string                 `json:"from,omitempty"`
	To        string                 `json:"to,omitempty"`
	Amount    string                 `json:"amount,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	TxHash    string                 `json:"tx_hash"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// EventSink receives every audit event as it is emitted. Record is called
// with the ledger lock held: implementations must return quickly and must
// never call back into the ledger.
type EventSink interface {
	Record(Event)
}

type multiSink []EventSink

func (m multiSink) Record(ev Event) {
	for _, s := range m {
		s.Record(ev)
	}
}

// CombineSinks fans one event stream out to several sinks.
func CombineSinks(sinks ...EventSink) EventSink {
	return multiSink(sinks)
}

// emitEvent appends to the in-memory log and forwards to the sink.
// Caller must hold l.mu.
func (l *Ledger) emitEvent(event Event) {
	l.events = append(l.events, event)
	if l.sink != nil {
		l.sink.Record(event)
	}
}

// Events returns a copy of all audit events recorded so far.
func (l *Ledger) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	events := make([]Event, len(l.events))
	copy(events, l.events)
	return events
}

// EventsByType returns events filtered by type.
func (l *Ledger) EventsByType(eventType EventType) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var filtered []Event
	for _, event := range l.events {
		if event.Type == eventType {
			filtered = append(filtered, event)
		}
	}
	return filtered
}
