package token

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// Mint creates amount new tokens for the recipient. ADMIN only, pause-gated,
// and rejected outright when the new supply would breach the cap. The mint is
// atomic: either both the balance and total supply move, or neither does.
func (l *Ledger) Mint(caller, to string, amount *uint256.Int) error {
	if err := validateAddress(to); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireRoleLocked(RoleAdmin, caller); err != nil {
		return err
	}
	if err := l.requireNotPausedLocked(); err != nil {
		return err
	}
	if err := l.checkCapLocked(amount); err != nil {
		l.log.WithFields(logrus.Fields{
			"to": to, "amount": amount.Dec(), "supply": l.totalSupply.Dec(),
		}).Warn("mint refused: cap")
		return err
	}

	l.creditLocked(to, amount)
	l.totalSupply.Add(l.totalSupply, amount)

	l.emitEvent(Event{
		Type:      EventMint,
		To:        to,
		Amount:    amount.Dec(),
		Timestamp: timeNow(),
		TxHash:    l.generateTxHash("mint", to, amount.Dec()),
		Metadata: map[string]interface{}{
			"total_supply": l.totalSupply.Dec(),
			"max_supply":   maxSupply.Dec(),
		},
	})

	l.log.WithFields(logrus.Fields{
		"to": to, "amount": amount.Dec(), "total_supply": l.totalSupply.Dec(),
	}).Info("minted")
	return nil
}

// checkCapLocked rejects a mint that would push supply above the cap.
// Caller must hold l.mu.
func (l *Ledger) checkCapLocked(amount *uint256.Int) error {
	next, err := checkedAdd(l.totalSupply, amount)
	if err != nil {
		return fmt.Errorf("%w: supply", ErrSupplyCapExceeded)
	}
	if next.Gt(maxSupply) {
		return fmt.Errorf("%w: %s would exceed %s", ErrSupplyCapExceeded, next.Dec(), maxSupply.Dec())
	}
	return nil
}

// Burn destroys amount tokens from the caller's own balance. No role
// required; pause-gated.
func (l *Ledger) Burn(caller string, amount *uint256.Int) error {
	if err := validateAddress(caller); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireNotPausedLocked(); err != nil {
		return err
	}
	if err := l.burnLocked(caller, amount, "self_service"); err != nil {
		return err
	}

	l.log.WithFields(logrus.Fields{
		"from": caller, "amount": amount.Dec(), "total_supply": l.totalSupply.Dec(),
	}).Info("burned")
	return nil
}

// burnLocked removes tokens from a holder and from the total supply.
// Caller must hold l.mu.
func (l *Ledger) burnLocked(from string, amount *uint256.Int, reason string) error {
	bal := l.balanceLocked(from)
	if bal.Lt(amount) {
		return fmt.Errorf("%w: balance %s, burn %s", ErrInsufficientBalance, bal.Dec(), amount.Dec())
	}

	l.debitLocked(from, amount)
	l.totalSupply.Sub(l.totalSupply, amount)

	l.emitEvent(Event{
		Type:      EventBurn,
		From:      from,
		Amount:    amount.Dec(),
		Timestamp: timeNow(),
		TxHash:    l.generateTxHash("burn", from, amount.Dec()),
		Metadata: map[string]interface{}{
			"reason":       reason,
			"total_supply": l.totalSupply.Dec(),
		},
	})
	return nil
}

// moveLocked redistributes tokens between two accounts. It never creates or
// destroys supply. Caller must hold l.mu.
func (l *Ledger) moveLocked(from, to string, amount *uint256.Int) error {
	bal := l.balanceLocked(from)
	if bal.Lt(amount) {
		return fmt.Errorf("%w: balance %s, move %s", ErrInsufficientBalance, bal.Dec(), amount.Dec())
	}

	l.debitLocked(from, amount)
	l.creditLocked(to, amount)
	return nil
}
