package token

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Snapshot is a serializable copy of ledger state, used by the persistence
// layer. Amounts are decimal strings.
type Snapshot struct {
	Name        string                       `json:"name"`
	Symbol      string                       `json:"symbol"`
	Decimals    uint8                        `json:"decimals"`
	TotalSupply string                       `json:"total_supply"`
	Paused      bool                         `json:"paused"`
	Treasury    string                       `json:"treasury"`
	Balances    map[string]string            `json:"balances"`
	Allowances  map[string]map[string]string `json:"allowances"`
	Roles       map[string][]string          `json:"roles"`
}

// Snapshot captures the full persisted state of the ledger.
func (l *Ledger) Snapshot() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := &Snapshot{
		Name:        l.Name,
		Symbol:      l.Symbol,
		Decimals:    l.Decimals,
		TotalSupply: l.totalSupply.Dec(),
		Paused:      l.paused,
		Treasury:    l.treasury,
		Balances:    make(map[string]string, len(l.balances)),
		Allowances:  make(map[string]map[string]string, len(l.allowances)),
		Roles:       make(map[string][]string, len(l.roles)),
	}

	for addr, bal := range l.balances {
		snap.Balances[addr] = bal.Dec()
	}
	for owner, spenders := range l.allowances {
		if len(spenders) == 0 {
			continue
		}
		m := make(map[string]string, len(spenders))
		for spender, amount := range spenders {
			m[spender] = amount.Dec()
		}
		snap.Allowances[owner] = m
	}
	for role, members := range l.roles {
		accounts := make([]string, 0, len(members))
		for account := range members {
			accounts = append(accounts, account)
		}
		snap.Roles[role.String()] = accounts
	}
	return snap
}

// FromSnapshot rebuilds a ledger from persisted state.
func FromSnapshot(snap *Snapshot, opts ...Option) (*Ledger, error) {
	if err := validateAddress(snap.Treasury); err != nil {
		return nil, fmt.Errorf("snapshot treasury: %w", err)
	}

	l, err := NewLedger(snap.Name, snap.Symbol, snap.Treasury, snap.Treasury, opts...)
	if err != nil {
		return nil, err
	}
	// NewLedger seeds creator roles; the snapshot is authoritative.
	l.roles = newRoleSet()

	l.paused = snap.Paused
	l.Decimals = snap.Decimals

	supply, err := uint256.FromDecimal(snap.TotalSupply)
	if err != nil {
		return nil, fmt.Errorf("snapshot total supply: %w", err)
	}
	l.totalSupply = supply

	held := new(uint256.Int)
	for addr, dec := range snap.Balances {
		if err := validateAddress(addr); err != nil {
			return nil, fmt.Errorf("snapshot balance: %w", err)
		}
		bal, err := uint256.FromDecimal(dec)
		if err != nil {
			return nil, fmt.Errorf("snapshot balance %s: %w", addr, err)
		}
		if _, overflow := held.AddOverflow(held, bal); overflow {
			return nil, fmt.Errorf("snapshot balances overflow at %s", addr)
		}
		l.balances[addr] = bal
	}
	if held.Cmp(supply) != 0 {
		return nil, fmt.Errorf("snapshot supply %s does not match balance total %s",
			supply.Dec(), held.Dec())
	}
	if supply.Gt(maxSupply) {
		return nil, fmt.Errorf("snapshot supply %s exceeds cap %s", supply.Dec(), maxSupply.Dec())
	}
	for owner, spenders := range snap.Allowances {
		if err := validateAddress(owner); err != nil {
			return nil, fmt.Errorf("snapshot allowance owner: %w", err)
		}
		m := make(map[string]*uint256.Int, len(spenders))
		for spender, dec := range spenders {
			if err := validateAddress(spender); err != nil {
				return nil, fmt.Errorf("snapshot allowance spender: %w", err)
			}
			amount, err := uint256.FromDecimal(dec)
			if err != nil {
				return nil, fmt.Errorf("snapshot allowance %s/%s: %w", owner, spender, err)
			}
			m[spender] = amount
		}
		l.allowances[owner] = m
	}
	for roleName, accounts := range snap.Roles {
		role, err := RoleFromString(roleName)
		if err != nil {
			return nil, fmt.Errorf("snapshot roles: %w", err)
		}
		for _, account := range accounts {
			l.roles[role][account] = true
		}
	}
	return l, nil
}
