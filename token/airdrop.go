package token

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// Airdrop mints to each recipient in index order. ADMIN only, pause-gated.
// The whole batch is checked against the supply cap with a running total
// before any balance moves, so one over-cap element fails the entire call
// and no partial airdrop is ever observable.
func (l *Ledger) Airdrop(caller string, recipients []string, amounts []*uint256.Int) error {
	if len(recipients) != len(amounts) {
		return fmt.Errorf("%w: %d recipients, %d amounts",
			ErrLengthMismatch, len(recipients), len(amounts))
	}
	for i, recipient := range recipients {
		if err := validateAddress(recipient); err != nil {
			return fmt.Errorf("recipient %d: %w", i, err)
		}
		if err := validateAmount(amounts[i]); err != nil {
			return fmt.Errorf("amount %d: %w", i, err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireRoleLocked(RoleAdmin, caller); err != nil {
		return err
	}
	if err := l.requireNotPausedLocked(); err != nil {
		return err
	}

	// Check phase: simulate the running supply total across the batch.
	running := new(uint256.Int).Set(l.totalSupply)
	for i, amount := range amounts {
		next, err := checkedAdd(running, amount)
		if err != nil || next.Gt(maxSupply) {
			l.log.WithFields(logrus.Fields{
				"index": i, "amount": amount.Dec(), "running": running.Dec(),
			}).Warn("airdrop refused: cap")
			return fmt.Errorf("element %d: %w", i, ErrSupplyCapExceeded)
		}
		running = next
	}

	// Commit phase: nothing below can fail.
	total := new(uint256.Int)
	for i, recipient := range recipients {
		l.creditLocked(recipient, amounts[i])
		l.totalSupply.Add(l.totalSupply, amounts[i])
		total.Add(total, amounts[i])

		l.emitEvent(Event{
			Type:      EventMint,
			To:        recipient,
			Amount:    amounts[i].Dec(),
			Timestamp: timeNow(),
			TxHash:    l.generateTxHash("airdrop_mint", recipient, amounts[i].Dec()),
			Metadata: map[string]interface{}{
				"airdrop":      true,
				"total_supply": l.totalSupply.Dec(),
			},
		})
	}

	l.emitEvent(Event{
		Type:      EventAirdrop,
		From:      caller,
		Amount:    total.Dec(),
		Timestamp: timeNow(),
		TxHash:    l.generateTxHash("airdrop", caller, total.Dec()),
		Metadata: map[string]interface{}{
			"recipients":   len(recipients),
			"total_supply": l.totalSupply.Dec(),
		},
	})

	l.log.WithFields(logrus.Fields{
		"recipients": len(recipients), "total": total.Dec(), "by": caller,
	}).Info("airdrop performed")
	return nil
}
