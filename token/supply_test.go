package token

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMint(t *testing.T) {
	t.Run("admin mints to recipient", func(t *testing.T) {
		l := newTestLedger(t)
		err := l.Mint(testAdmin, "0xUser", amt(1000))
		require.NoError(t, err)

		balance, err := l.BalanceOf("0xUser")
		require.NoError(t, err)
		assert.Equal(t, "1000", balance.Dec())
		assert.Equal(t, "1000", l.TotalSupply().Dec())
		assertInvariants(t, l)
	})

	t.Run("non-admin cannot mint", func(t *testing.T) {
		l := newTestLedger(t)
		err := l.Mint("0xStranger", "0xUser", amt(1000))
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.True(t, l.TotalSupply().IsZero())
	})

	t.Run("dev role does not allow minting", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.GrantRole(testAdmin, RoleDev, "0xDev"))
		err := l.Mint("0xDev", "0xUser", amt(1000))
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		l := newTestLedger(t)
		err := l.Mint(testAdmin, "0xUser", amt(0))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("nil amount rejected", func(t *testing.T) {
		l := newTestLedger(t)
		err := l.Mint(testAdmin, "0xUser", nil)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("emits mint event", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xUser", amt(42)))

		events := l.EventsByType(EventMint)
		require.Len(t, events, 1)
		assert.Equal(t, "0xUser", events[0].To)
		assert.Equal(t, "42", events[0].Amount)
		assert.NotEmpty(t, events[0].TxHash)
	})
}

func TestSupplyCap(t *testing.T) {
	t.Run("minting exactly up to the cap succeeds", func(t *testing.T) {
		l := newTestLedger(t)
		err := l.Mint(testAdmin, "0xWhale", MaxSupply())
		require.NoError(t, err)
		assert.Equal(t, maxSupply.Dec(), l.TotalSupply().Dec())
		assertInvariants(t, l)
	})

	t.Run("one unit over the cap fails and leaves state unchanged", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xWhale", MaxSupply()))

		err := l.Mint(testAdmin, "0xWhale", amt(1))
		assert.ErrorIs(t, err, ErrSupplyCapExceeded)
		assert.Equal(t, maxSupply.Dec(), l.TotalSupply().Dec())
		assertInvariants(t, l)
	})

	t.Run("single oversized mint fails", func(t *testing.T) {
		l := newTestLedger(t)
		over := new(uint256.Int).Add(MaxSupply(), amt(1))
		err := l.Mint(testAdmin, "0xWhale", over)
		assert.ErrorIs(t, err, ErrSupplyCapExceeded)
		assert.True(t, l.TotalSupply().IsZero())
	})
}

func TestBurn(t *testing.T) {
	t.Run("holder burns own balance", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xUser", amt(1000)))

		err := l.Burn("0xUser", amt(400))
		require.NoError(t, err)

		balance, _ := l.BalanceOf("0xUser")
		assert.Equal(t, "600", balance.Dec())
		assert.Equal(t, "600", l.TotalSupply().Dec())
		assertInvariants(t, l)
	})

	t.Run("burn requires no role", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xNobody", amt(10)))
		assert.NoError(t, l.Burn("0xNobody", amt(10)))
	})

	t.Run("burn beyond balance fails", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xUser", amt(100)))

		err := l.Burn("0xUser", amt(101))
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		balance, _ := l.BalanceOf("0xUser")
		assert.Equal(t, "100", balance.Dec())
		assertInvariants(t, l)
	})

	t.Run("burn frees cap headroom for future mints", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xUser", MaxSupply()))
		require.NoError(t, l.Burn("0xUser", amt(500)))

		assert.NoError(t, l.Mint(testAdmin, "0xUser", amt(500)))
		assert.Equal(t, maxSupply.Dec(), l.TotalSupply().Dec())
		assertInvariants(t, l)
	})
}
