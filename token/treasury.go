package token

import (
	"github.com/sirupsen/logrus"
)

// TreasuryWallet returns the fee-exempt address receiving treasury fees.
func (l *Ledger) TreasuryWallet() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.treasury
}

// UpdateTreasuryWallet points the treasury at a new address. ADMIN only,
// zero address rejected, available while paused.
func (l *Ledger) UpdateTreasuryWallet(caller, newAddress string) error {
	if err := validateAddress(newAddress); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireRoleLocked(RoleAdmin, caller); err != nil {
		return err
	}

	old := l.treasury
	l.treasury = newAddress

	l.emitEvent(Event{
		Type:      EventTreasuryUpdated,
		From:      caller,
		To:        newAddress,
		Timestamp: timeNow(),
		TxHash:    l.generateTxHash("update_treasury", newAddress, ""),
		Metadata:  map[string]interface{}{"old_treasury": old},
	})

	l.log.WithFields(logrus.Fields{
		"old": old, "new": newAddress, "by": caller,
	}).Info("treasury wallet updated")
	return nil
}
