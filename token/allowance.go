package token

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// Approve sets the spender's allowance over the caller's balance to exactly
// amount; it is not additive. A zero amount clears the allowance. This is a
// set-then-consume model: there is no race-safe increase/decrease primitive
// at this layer, which is a documented limitation rather than a bug.
// Pause-gated.
func (l *Ledger) Approve(caller, spender string, amount *uint256.Int) error {
	if err := validateAddress(caller); err != nil {
		return err
	}
	if err := validateAddress(spender); err != nil {
		return err
	}
	if amount == nil {
		return fmt.Errorf("%w: nil amount", ErrInvalidAmount)
	}
	if caller == spender {
		return fmt.Errorf("%w: cannot approve self", ErrInvalidAddress)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireNotPausedLocked(); err != nil {
		return err
	}

	if l.allowances[caller] == nil {
		l.allowances[caller] = make(map[string]*uint256.Int)
	}
	old := l.allowanceLocked(caller, spender)
	if amount.IsZero() {
		delete(l.allowances[caller], spender)
	} else {
		l.allowances[caller][spender] = new(uint256.Int).Set(amount)
	}

	l.emitEvent(Event{
		Type:      EventApproval,
		From:      caller,
		To:        spender,
		Amount:    amount.Dec(),
		Timestamp: timeNow(),
		TxHash:    l.generateTxHash("approve", caller+":"+spender, amount.Dec()),
		Metadata: map[string]interface{}{
			"old_allowance": old.Dec(),
		},
	})

	l.log.WithFields(logrus.Fields{
		"owner": caller, "spender": spender, "allowance": amount.Dec(),
	}).Info("allowance set")
	return nil
}

// Allowance returns the remaining spend budget for the (owner, spender) pair.
func (l *Ledger) Allowance(owner, spender string) (*uint256.Int, error) {
	if err := validateAddress(owner); err != nil {
		return nil, err
	}
	if err := validateAddress(spender); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(uint256.Int).Set(l.allowanceLocked(owner, spender)), nil
}

// allowanceLocked returns the stored allowance without copying; never nil.
// Caller must hold l.mu.
func (l *Ledger) allowanceLocked(owner, spender string) *uint256.Int {
	if m := l.allowances[owner]; m != nil {
		if a, ok := m[spender]; ok {
			return a
		}
	}
	return new(uint256.Int)
}

// consumeLocked decrements the (owner, spender) allowance by amount.
// Caller must hold l.mu.
func (l *Ledger) consumeLocked(owner, spender string, amount *uint256.Int) error {
	remaining := l.allowanceLocked(owner, spender)
	if remaining.Lt(amount) {
		return fmt.Errorf("%w: allowance %s, requested %s",
			ErrInsufficientAllowance, remaining.Dec(), amount.Dec())
	}

	remaining.Sub(remaining, amount)
	if remaining.IsZero() {
		delete(l.allowances[owner], spender)
	}
	return nil
}
