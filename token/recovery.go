package token

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// AssetGateway executes outbound transfers of assets the ledger custodies
// but does not account for: tokens of other ledgers and the native currency.
// A non-nil error means the receiving side rejected the transfer; the whole
// recovery operation then fails with ErrTransferRejected.
type AssetGateway interface {
	TransferAsset(asset, to string, amount *uint256.Int) error
	TransferNative(to string, amount *uint256.Int) error
}

// enterRecovery acquires the shared recovery lock. All recovery operations
// belong to one lock class: while any of them is in flight, a nested attempt
// fails hard instead of blocking.
func (l *Ledger) enterRecovery(op string) error {
	if !l.recoveryBusy.CompareAndSwap(false, true) {
		l.log.WithField("op", op).Error("nested recovery call rejected")
		return fmt.Errorf("%w: %s", ErrReentrancyDetected, op)
	}
	return nil
}

func (l *Ledger) exitRecovery() {
	l.recoveryBusy.Store(false)
}

// CreditForeignAsset records that the ledger received custody of amount of
// another ledger's asset. Collaborator-facing bookkeeping for the recovery
// path.
func (l *Ledger) CreditForeignAsset(asset string, amount *uint256.Int) error {
	if err := validateAddress(asset); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	holding, ok := l.foreignHoldings[asset]
	if !ok {
		holding = new(uint256.Int)
		l.foreignHoldings[asset] = holding
	}
	next, err := checkedAdd(holding, amount)
	if err != nil {
		return err
	}
	holding.Set(next)
	return nil
}

// CreditNative records received native currency.
func (l *Ledger) CreditNative(amount *uint256.Int) error {
	if err := validateAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next, err := checkedAdd(l.nativeHolding, amount)
	if err != nil {
		return err
	}
	l.nativeHolding.Set(next)
	return nil
}

// ForeignHolding returns the recorded custody balance for an asset.
func (l *Ledger) ForeignHolding(asset string) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if holding, ok := l.foreignHoldings[asset]; ok {
		return new(uint256.Int).Set(holding)
	}
	return new(uint256.Int)
}

// NativeHolding returns the recorded native-currency balance.
func (l *Ledger) NativeHolding() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(uint256.Int).Set(l.nativeHolding)
}

// RecoverForeignAsset sends amount of another ledger's asset, held by this
// ledger, to a recipient. ADMIN only, reentrancy-guarded, available while
// paused. The ledger's own asset is rejected here: use RecoverOwnAsset.
// The custody balance is debited only after the gateway confirms the
// transfer, so a rejected transfer leaves no state change behind.
func (l *Ledger) RecoverForeignAsset(caller, asset string, amount *uint256.Int, to string) error {
	if err := validateAddress(asset); err != nil {
		return err
	}
	if err := validateAddress(to); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	if strings.EqualFold(asset, l.Symbol) {
		return fmt.Errorf("%w: %q is this ledger's own asset, use the own-asset recovery path",
			ErrInvalidAddress, asset)
	}

	if err := l.enterRecovery("recover_foreign_asset"); err != nil {
		return err
	}
	defer l.exitRecovery()

	l.mu.Lock()
	if err := l.requireRoleLocked(RoleAdmin, caller); err != nil {
		l.mu.Unlock()
		return err
	}
	holding, ok := l.foreignHoldings[asset]
	if !ok || holding.Lt(amount) {
		l.mu.Unlock()
		return fmt.Errorf("%w: foreign holding of %s", ErrInsufficientBalance, asset)
	}
	l.mu.Unlock()

	// External call, made outside the ledger lock but inside the recovery
	// guard: a callback into any recovery operation fails with
	// ErrReentrancyDetected instead of observing half-finished state.
	if err := l.transferViaGateway(func(gw AssetGateway) error {
		return gw.TransferAsset(asset, to, amount)
	}); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	holding = l.foreignHoldings[asset]
	holding.Sub(holding, amount)
	if holding.IsZero() {
		delete(l.foreignHoldings, asset)
	}
	l.emitRecoveryEvent(caller, to, amount, "foreign", asset)

	l.log.WithFields(logrus.Fields{
		"asset": asset, "to": to, "amount": amount.Dec(), "by": caller,
	}).Info("foreign asset recovered")
	return nil
}

// RecoverOwnAsset moves this ledger's own tokens out of its vault account,
// bounded by the vault balance. ADMIN only, shares the recovery lock class,
// available while paused. No fee split applies.
func (l *Ledger) RecoverOwnAsset(caller string, amount *uint256.Int, to string) error {
	if err := validateAddress(to); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}

	if err := l.enterRecovery("recover_own_asset"); err != nil {
		return err
	}
	defer l.exitRecovery()

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireRoleLocked(RoleAdmin, caller); err != nil {
		return err
	}
	if err := l.moveLocked(l.vault, to, amount); err != nil {
		return err
	}
	l.emitRecoveryEvent(caller, to, amount, "own", l.Symbol)

	l.log.WithFields(logrus.Fields{
		"to": to, "amount": amount.Dec(), "by": caller,
	}).Info("own asset recovered")
	return nil
}

// RecoverNativeCurrency sends native currency held by the ledger to a
// recipient via the gateway. ADMIN only, reentrancy-guarded, available while
// paused.
func (l *Ledger) RecoverNativeCurrency(caller string, amount *uint256.Int, to string) error {
	if err := validateAddress(to); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}

	if err := l.enterRecovery("recover_native_currency"); err != nil {
		return err
	}
	defer l.exitRecovery()

	l.mu.Lock()
	if err := l.requireRoleLocked(RoleAdmin, caller); err != nil {
		l.mu.Unlock()
		return err
	}
	if l.nativeHolding.Lt(amount) {
		l.mu.Unlock()
		return fmt.Errorf("%w: native holding", ErrInsufficientBalance)
	}
	l.mu.Unlock()

	if err := l.transferViaGateway(func(gw AssetGateway) error {
		return gw.TransferNative(to, amount)
	}); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nativeHolding.Sub(l.nativeHolding, amount)
	l.emitRecoveryEvent(caller, to, amount, "native", "")

	l.log.WithFields(logrus.Fields{
		"to": to, "amount": amount.Dec(), "by": caller,
	}).Info("native currency recovered")
	return nil
}

func (l *Ledger) transferViaGateway(send func(AssetGateway) error) error {
	if l.gateway == nil {
		return fmt.Errorf("%w: no asset gateway configured", ErrTransferRejected)
	}
	if err := send(l.gateway); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferRejected, err)
	}
	return nil
}

// emitRecoveryEvent records an asset-recovered audit event. Caller must hold l.mu.
func (l *Ledger) emitRecoveryEvent(caller, to string, amount *uint256.Int, kind, asset string) {
	metadata := map[string]interface{}{"kind": kind}
	if asset != "" {
		metadata["asset"] = asset
	}
	l.emitEvent(Event{
		Type:      EventAssetRecovered,
		From:      caller,
		To:        to,
		Amount:    amount.Dec(),
		Timestamp: timeNow(),
		TxHash:    l.generateTxHash("recover_"+kind, to, amount.Dec()),
		Metadata:  metadata,
	})
}
