package token

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"
)

// Ledger is the token accounting aggregate: balances, supply, allowances,
// role memberships, pause flag and treasury configuration. Every operation
// runs to completion under the ledger mutex, so each call observes and
// mutates a consistent state.
type Ledger struct {
	Name     string
	Symbol   string
	Decimals uint8

	mu          sync.RWMutex
	balances    map[string]*uint256.Int
	allowances  map[string]map[string]*uint256.Int
	totalSupply *uint256.Int

	roles    map[Role]map[string]bool
	paused   bool
	treasury string

	// vault is the ledger's own account, used by the own-asset recovery path.
	vault string

	// Holdings of assets the ledger custodies but does not account for:
	// other tokens and the native currency. Only recovery touches these.
	foreignHoldings map[string]*uint256.Int
	nativeHolding   *uint256.Int
	gateway         AssetGateway
	recoveryBusy    atomic.Bool

	events []Event
	sink   EventSink
	log    *logrus.Logger
}

// Option configures a Ledger at construction time.
type Option func(*Ledger)

// WithLogger replaces the default logrus logger.
func WithLogger(log *logrus.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithEventSink attaches a sink that receives every audit event.
func WithEventSink(sink EventSink) Option {
	return func(l *Ledger) { l.sink = sink }
}

// WithAssetGateway attaches the collaborator that executes foreign-asset and
// native-currency transfers during recovery.
func WithAssetGateway(gw AssetGateway) Option {
	return func(l *Ledger) { l.gateway = gw }
}

// NewLedger creates an empty ledger. The creator is seeded with both ADMIN
// and DEV roles; supply starts at zero and is minted up to the cap later.
func NewLedger(name, symbol, creator, treasury string, opts ...Option) (*Ledger, error) {
	if !validAddress(creator) {
		return nil, fmt.Errorf("%w: creator %q", ErrInvalidAddress, creator)
	}
	if !validAddress(treasury) {
		return nil, fmt.Errorf("%w: treasury %q", ErrInvalidAddress, treasury)
	}

	l := &Ledger{
		Name:            name,
		Symbol:          symbol,
		Decimals:        TokenDecimals,
		balances:        make(map[string]*uint256.Int),
		allowances:      make(map[string]map[string]*uint256.Int),
		totalSupply:     new(uint256.Int),
		roles:           newRoleSet(),
		treasury:        treasury,
		vault:           "vault:" + strings.ToLower(symbol),
		foreignHoldings: make(map[string]*uint256.Int),
		nativeHolding:   new(uint256.Int),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logrus.StandardLogger()
	}

	l.roles[RoleAdmin][creator] = true
	l.roles[RoleDev][creator] = true
	return l, nil
}

// timeNow is swappable in tests that need deterministic event timestamps.
var timeNow = time.Now

func newRoleSet() map[Role]map[string]bool {
	return map[Role]map[string]bool{
		RoleAdmin: make(map[string]bool),
		RoleDev:   make(map[string]bool),
	}
}

// validAddress accepts any short printable string. Control characters are
// rejected so downstream stores can use them as key separators.
func validAddress(address string) bool {
	if address == "" || len(address) >= 256 {
		return false
	}
	for i := 0; i < len(address); i++ {
		if address[i] < 0x20 || address[i] == 0x7f {
			return false
		}
	}
	return true
}

func validateAddress(address string) error {
	if !validAddress(address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return nil
}

// generateTxHash produces a short unique hash identifying an audit event.
func (l *Ledger) generateTxHash(operation, address string, amount string) string {
	data := fmt.Sprintf("%s_%s_%s_%s_%d",
		l.Symbol, operation, address, amount, time.Now().UnixNano())
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("0x%x", hash[:8])
}

// requireNotPaused guards the token surface. Caller must hold l.mu.
func (l *Ledger) requireNotPausedLocked() error {
	if l.paused {
		return ErrContractPaused
	}
	return nil
}

// balanceLocked returns the stored balance without copying; never nil.
// Caller must hold l.mu.
func (l *Ledger) balanceLocked(address string) *uint256.Int {
	if bal, ok := l.balances[address]; ok {
		return bal
	}
	return new(uint256.Int)
}

// creditLocked adds amount to an account. Caller must hold l.mu and must
// have validated that the credit cannot overflow.
func (l *Ledger) creditLocked(address string, amount *uint256.Int) {
	bal, ok := l.balances[address]
	if !ok {
		bal = new(uint256.Int)
		l.balances[address] = bal
	}
	bal.Add(bal, amount)
}

// debitLocked subtracts amount from an account. Caller must hold l.mu and
// must have checked sufficiency.
func (l *Ledger) debitLocked(address string, amount *uint256.Int) {
	bal := l.balances[address]
	bal.Sub(bal, amount)
	if bal.IsZero() {
		delete(l.balances, address)
	}
}

// BalanceOf returns the balance of an address.
func (l *Ledger) BalanceOf(address string) (*uint256.Int, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(uint256.Int).Set(l.balanceLocked(address)), nil
}

// TotalSupply returns the current circulating supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(uint256.Int).Set(l.totalSupply)
}

// VaultAccount returns the ledger's own token account.
func (l *Ledger) VaultAccount() string {
	return l.vault
}

// Status returns a point-in-time summary of the ledger.
func (l *Ledger) Status() map[string]interface{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return map[string]interface{}{
		"name":         l.Name,
		"symbol":       l.Symbol,
		"decimals":     l.Decimals,
		"total_supply": l.totalSupply.Dec(),
		"max_supply":   maxSupply.Dec(),
		"paused":       l.paused,
		"treasury":     l.treasury,
		"admin_count":  len(l.roles[RoleAdmin]),
		"dev_count":    len(l.roles[RoleDev]),
		"accounts":     len(l.balances),
	}
}
