package token

// PauseGate: a two-state switch guarding the token surface (mint, burn,
// transfer, transferFrom, approve, airdrop). Role management, treasury
// updates and recovery remain available while paused.

// Paused reports the current pause state.
func (l *Ledger) Paused() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.paused
}

// Pause halts the token surface. ADMIN only. Pausing an already-paused
// ledger is an accepted no-op and emits no event.
func (l *Ledger) Pause(caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireRoleLocked(RoleAdmin, caller); err != nil {
		return err
	}
	if l.paused {
		return nil
	}
	l.paused = true

	l.emitEvent(Event{
		Type:      EventPaused,
		From:      caller,
		Timestamp: timeNow(),
		TxHash:    l.generateTxHash("pause", caller, ""),
	})

	l.log.WithField("by", caller).Warn("ledger paused")
	return nil
}

// Unpause resumes the token surface. ADMIN only, idempotent like Pause.
func (l *Ledger) Unpause(caller string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireRoleLocked(RoleAdmin, caller); err != nil {
		return err
	}
	if !l.paused {
		return nil
	}
	l.paused = false

	l.emitEvent(Event{
		Type:      EventUnpaused,
		From:      caller,
		Timestamp: timeNow(),
		TxHash:    l.generateTxHash("unpause", caller, ""),
	})

	l.log.WithField("by", caller).Info("ledger unpaused")
	return nil
}
