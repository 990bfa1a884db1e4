package token

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// Transfer moves amount from the caller to the recipient, applying the fee
// split: 1% of the gross to the treasury, 1% burned, the remainder delivered.
// Both fees round down, so transfers under 100 base units pay no fee at all,
// and any transfer touching the treasury wallet is fully exempt. Pause-gated.
func (l *Ledger) Transfer(caller, to string, amount *uint256.Int) error {
	if err := validateAddress(caller); err != nil {
		return err
	}
	if err := validateAddress(to); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	if caller == to {
		return fmt.Errorf("%w: cannot transfer to self", ErrInvalidAddress)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireNotPausedLocked(); err != nil {
		return err
	}
	return l.feeTransferLocked(caller, to, amount, "")
}

// TransferFrom moves amount from the owner to the recipient on the strength
// of a pre-approved allowance held by the caller. The allowance consumed is
// the gross amount requested, not the net delivered. Pause-gated.
func (l *Ledger) TransferFrom(caller, from, to string, amount *uint256.Int) error {
	if err := validateAddress(caller); err != nil {
		return err
	}
	if err := validateAddress(from); err != nil {
		return err
	}
	if err := validateAddress(to); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: cannot transfer to self", ErrInvalidAddress)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireNotPausedLocked(); err != nil {
		return err
	}

	// Check the allowance before touching balances so that a failed transfer
	// never leaves a partially consumed allowance behind.
	if remaining := l.allowanceLocked(from, caller); remaining.Lt(amount) {
		return fmt.Errorf("%w: allowance %s, requested %s",
			ErrInsufficientAllowance, remaining.Dec(), amount.Dec())
	}
	if err := l.feeTransferLocked(from, to, amount, caller); err != nil {
		return err
	}
	// Cannot fail: sufficiency was checked above and nothing else ran since.
	return l.consumeLocked(from, caller, amount)
}

// feeTransferLocked runs the fee-split algorithm. Caller must hold l.mu and
// have validated addresses, amount and pause state. The sender's balance is
// checked against the gross amount up front, so the individual moves below
// cannot fail and the operation is all-or-nothing.
func (l *Ledger) feeTransferLocked(from, to string, amount *uint256.Int, spender string) error {
	bal := l.balanceLocked(from)
	if bal.Lt(amount) {
		return fmt.Errorf("%w: balance %s, transfer %s",
			ErrInsufficientBalance, bal.Dec(), amount.Dec())
	}

	// Treasury is fee-exempt as sender and as receiver.
	if from == l.treasury || to == l.treasury {
		if err := l.moveLocked(from, to, amount); err != nil {
			return err
		}
		l.emitTransferEvent(from, to, amount, spender, nil, nil, amount)
		l.log.WithFields(logrus.Fields{
			"from": from, "to": to, "amount": amount.Dec(),
		}).Info("treasury-exempt transfer")
		return nil
	}

	treasuryFee, burnFee, net := feeSplit(amount)

	if !treasuryFee.IsZero() {
		if err := l.moveLocked(from, l.treasury, treasuryFee); err != nil {
			return err
		}
	}
	if !burnFee.IsZero() {
		if err := l.burnLocked(from, burnFee, "transfer_fee"); err != nil {
			return err
		}
	}
	if err := l.moveLocked(from, to, net); err != nil {
		return err
	}

	l.emitTransferEvent(from, to, amount, spender, treasuryFee, burnFee, net)
	l.log.WithFields(logrus.Fields{
		"from": from, "to": to, "gross": amount.Dec(),
		"treasury_fee": treasuryFee.Dec(), "burn_fee": burnFee.Dec(), "net": net.Dec(),
	}).Info("transfer")
	return nil
}

func (l *Ledger) emitTransferEvent(from, to string, amount *uint256.Int, spender string, treasuryFee, burnFee, net *uint256.Int) {
	metadata := map[string]interface{}{
		"net":          net.Dec(),
		"total_supply": l.totalSupply.Dec(),
	}
	if treasuryFee != nil {
		metadata["treasury_fee"] = treasuryFee.Dec()
		metadata["burn_fee"] = burnFee.Dec()
	} else {
		metadata["treasury_exempt"] = true
	}
	if spender != "" {
		metadata["spender"] = spender
	}

	l.emitEvent(Event{
		Type:      EventTransfer,
		From:      from,
		To:        to,
		Amount:    amount.Dec(),
		Timestamp: timeNow(),
		TxHash:    l.generateTxHash("transfer", from+":"+to, amount.Dec()),
		Metadata:  metadata,
	})
}
