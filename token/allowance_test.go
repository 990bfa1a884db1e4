package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprove(t *testing.T) {
	t.Run("sets allowance exactly, not additively", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Approve("0xAlice", "0xBob", amt(100)))
		require.NoError(t, l.Approve("0xAlice", "0xBob", amt(70)))

		allowance, err := l.Allowance("0xAlice", "0xBob")
		require.NoError(t, err)
		assert.Equal(t, "70", allowance.Dec())
	})

	t.Run("zero amount clears the allowance", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Approve("0xAlice", "0xBob", amt(100)))
		require.NoError(t, l.Approve("0xAlice", "0xBob", amt(0)))

		allowance, _ := l.Allowance("0xAlice", "0xBob")
		assert.True(t, allowance.IsZero())
	})

	t.Run("self approval rejected", func(t *testing.T) {
		l := newTestLedger(t)
		err := l.Approve("0xAlice", "0xAlice", amt(100))
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("emits approval event", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Approve("0xAlice", "0xBob", amt(100)))

		events := l.EventsByType(EventApproval)
		require.Len(t, events, 1)
		assert.Equal(t, "0xAlice", events[0].From)
		assert.Equal(t, "0xBob", events[0].To)
		assert.Equal(t, "100", events[0].Amount)
	})
}

func TestTransferFrom(t *testing.T) {
	t.Run("consumes the gross allowance", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xAlice", amt(10000)))
		require.NoError(t, l.Approve("0xAlice", "0xSpender", amt(100)))

		require.NoError(t, l.TransferFrom("0xSpender", "0xAlice", "0xBob", amt(60)))

		allowance, _ := l.Allowance("0xAlice", "0xSpender")
		assert.Equal(t, "40", allowance.Dec(), "gross 60 consumed, not the net")

		bob, _ := l.BalanceOf("0xBob")
		assert.Equal(t, "60", bob.Dec(), "sub-100 transfer pays no fee")

		err := l.TransferFrom("0xSpender", "0xAlice", "0xBob", amt(50))
		assert.ErrorIs(t, err, ErrInsufficientAllowance)
		assertInvariants(t, l)
	})

	t.Run("fee split applies to delegated transfers", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xAlice", amt(10000)))
		require.NoError(t, l.Approve("0xAlice", "0xSpender", amt(10000)))

		require.NoError(t, l.TransferFrom("0xSpender", "0xAlice", "0xBob", amt(10000)))

		bob, _ := l.BalanceOf("0xBob")
		treasury, _ := l.BalanceOf(testTreasury)
		assert.Equal(t, "9800", bob.Dec())
		assert.Equal(t, "100", treasury.Dec())
		assert.Equal(t, "9900", l.TotalSupply().Dec())

		allowance, _ := l.Allowance("0xAlice", "0xSpender")
		assert.True(t, allowance.IsZero())
		assertInvariants(t, l)
	})

	t.Run("no allowance means no transfer", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xAlice", amt(1000)))

		err := l.TransferFrom("0xSpender", "0xAlice", "0xBob", amt(10))
		assert.ErrorIs(t, err, ErrInsufficientAllowance)
	})

	t.Run("insufficient balance keeps the allowance intact", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xAlice", amt(50)))
		require.NoError(t, l.Approve("0xAlice", "0xSpender", amt(500)))

		err := l.TransferFrom("0xSpender", "0xAlice", "0xBob", amt(500))
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		allowance, _ := l.Allowance("0xAlice", "0xSpender")
		assert.Equal(t, "500", allowance.Dec(), "failed transfer must not consume allowance")
		assertInvariants(t, l)
	})
}
