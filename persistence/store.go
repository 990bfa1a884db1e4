// Package persistence stores ledger snapshots in a bbolt database so a
// restarted daemon resumes with the same balances, allowances, roles and
// flags it shut down with.
package persistence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"github.com/novaforge-labs/gravity-ledger/token"
)

var (
	bucketBalances   = []byte("balances")
	bucketAllowances = []byte("allowances")
	bucketRoles      = []byte("roles")
	bucketMeta       = []byte("meta")

	keyName        = []byte("name")
	keySymbol      = []byte("symbol")
	keyDecimals    = []byte("decimals")
	keyTotalSupply = []byte("total_supply")
	keyPaused      = []byte("paused")
	keyTreasury    = []byte("treasury")
)

// allowanceKeySep joins owner and spender into one bucket key. The ledger
// rejects addresses containing control characters, so NUL never appears
// inside an address and the split on load is unambiguous.
const allowanceKeySep = "\x00"

// Store wraps a bbolt database holding one ledger snapshot.
type Store struct {
	db  *bbolt.DB
	log *logrus.Logger
}

// Open creates or opens the database file.
func Open(path string, log *logrus.Logger) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes the full snapshot in a single transaction, replacing whatever
// was stored before. Either the whole snapshot lands or none of it does.
func (s *Store) Save(snap *token.Snapshot) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketBalances, bucketAllowances, bucketRoles, bucketMeta} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		meta := tx.Bucket(bucketMeta)
		for _, kv := range []struct {
			key   []byte
			value string
		}{
			{keyName, snap.Name},
			{keySymbol, snap.Symbol},
			{keyDecimals, fmt.Sprintf("%d", snap.Decimals)},
			{keyTotalSupply, snap.TotalSupply},
			{keyPaused, fmt.Sprintf("%t", snap.Paused)},
			{keyTreasury, snap.Treasury},
		} {
			if err := meta.Put(kv.key, []byte(kv.value)); err != nil {
				return err
			}
		}

		balances := tx.Bucket(bucketBalances)
		for addr, amount := range snap.Balances {
			if err := balances.Put([]byte(addr), []byte(amount)); err != nil {
				return err
			}
		}

		allowances := tx.Bucket(bucketAllowances)
		for owner, spenders := range snap.Allowances {
			for spender, amount := range spenders {
				key := owner + allowanceKeySep + spender
				if err := allowances.Put([]byte(key), []byte(amount)); err != nil {
					return err
				}
			}
		}

		roles := tx.Bucket(bucketRoles)
		for role, accounts := range snap.Roles {
			data, err := json.Marshal(accounts)
			if err != nil {
				return err
			}
			if err := roles.Put([]byte(role), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save ledger snapshot: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"accounts": len(snap.Balances), "supply": snap.TotalSupply,
	}).Debug("ledger snapshot saved")
	return nil
}

// Load reads the stored snapshot. Returns (nil, nil) when the database holds
// no snapshot yet.
func (s *Store) Load() (*token.Snapshot, error) {
	var snap *token.Snapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return nil
		}

		snap = &token.Snapshot{
			Name:        string(meta.Get(keyName)),
			Symbol:      string(meta.Get(keySymbol)),
			TotalSupply: string(meta.Get(keyTotalSupply)),
			Paused:      string(meta.Get(keyPaused)) == "true",
			Treasury:    string(meta.Get(keyTreasury)),
			Balances:    make(map[string]string),
			Allowances:  make(map[string]map[string]string),
			Roles:       make(map[string][]string),
		}
		if _, err := fmt.Sscanf(string(meta.Get(keyDecimals)), "%d", &snap.Decimals); err != nil {
			return fmt.Errorf("decimals: %w", err)
		}

		if balances := tx.Bucket(bucketBalances); balances != nil {
			if err := balances.ForEach(func(k, v []byte) error {
				snap.Balances[string(k)] = string(v)
				return nil
			}); err != nil {
				return err
			}
		}

		if allowances := tx.Bucket(bucketAllowances); allowances != nil {
			if err := allowances.ForEach(func(k, v []byte) error {
				owner, spender, ok := strings.Cut(string(k), allowanceKeySep)
				if !ok {
					return fmt.Errorf("malformed allowance key %q", k)
				}
				if snap.Allowances[owner] == nil {
					snap.Allowances[owner] = make(map[string]string)
				}
				snap.Allowances[owner][spender] = string(v)
				return nil
			}); err != nil {
				return err
			}
		}

		if roles := tx.Bucket(bucketRoles); roles != nil {
			if err := roles.ForEach(func(k, v []byte) error {
				var accounts []string
				if err := json.Unmarshal(v, &accounts); err != nil {
					return fmt.Errorf("role %s: %w", k, err)
				}
				snap.Roles[string(k)] = accounts
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load ledger snapshot: %w", err)
	}
	return snap, nil
}
