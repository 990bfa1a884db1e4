package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeSplit(t *testing.T) {
	t.Run("one percent to treasury, one percent burned", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xAlice", amt(10000)))

		err := l.Transfer("0xAlice", "0xBob", amt(10000))
		require.NoError(t, err)

		alice, _ := l.BalanceOf("0xAlice")
		bob, _ := l.BalanceOf("0xBob")
		treasury, _ := l.BalanceOf(testTreasury)

		assert.Equal(t, "0", alice.Dec(), "sender pays the gross amount")
		assert.Equal(t, "9800", bob.Dec(), "recipient gets gross minus both fees")
		assert.Equal(t, "100", treasury.Dec(), "treasury gets 1%")
		assert.Equal(t, "9900", l.TotalSupply().Dec(), "burn fee reduces supply")
		assertInvariants(t, l)
	})

	t.Run("fees floor down", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xAlice", amt(199)))

		require.NoError(t, l.Transfer("0xAlice", "0xBob", amt(199)))

		bob, _ := l.BalanceOf("0xBob")
		treasury, _ := l.BalanceOf(testTreasury)
		assert.Equal(t, "197", bob.Dec(), "floor(199/100) == 1 per fee")
		assert.Equal(t, "1", treasury.Dec())
		assert.Equal(t, "198", l.TotalSupply().Dec())
		assertInvariants(t, l)
	})

	t.Run("sub-100 transfers pay no fee", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xAlice", amt(99)))

		require.NoError(t, l.Transfer("0xAlice", "0xBob", amt(99)))

		bob, _ := l.BalanceOf("0xBob")
		treasury, _ := l.BalanceOf(testTreasury)
		assert.Equal(t, "99", bob.Dec(), "full amount moves")
		assert.Equal(t, "0", treasury.Dec())
		assert.Equal(t, "99", l.TotalSupply().Dec(), "nothing burned")
		assertInvariants(t, l)
	})

	t.Run("fee burn emits a burn event", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xAlice", amt(10000)))
		require.NoError(t, l.Transfer("0xAlice", "0xBob", amt(10000)))

		burns := l.EventsByType(EventBurn)
		require.Len(t, burns, 1)
		assert.Equal(t, "100", burns[0].Amount)
		assert.Equal(t, "transfer_fee", burns[0].Metadata["reason"])
	})
}

func TestTreasuryExemption(t *testing.T) {
	t.Run("transfer to treasury moves full amount", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xAlice", amt(10000)))

		require.NoError(t, l.Transfer("0xAlice", testTreasury, amt(10000)))

		treasury, _ := l.BalanceOf(testTreasury)
		assert.Equal(t, "10000", treasury.Dec())
		assert.Equal(t, "10000", l.TotalSupply().Dec(), "no burn")
		assertInvariants(t, l)
	})

	t.Run("transfer from treasury moves full amount", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, testTreasury, amt(10000)))

		require.NoError(t, l.Transfer(testTreasury, "0xBob", amt(10000)))

		bob, _ := l.BalanceOf("0xBob")
		assert.Equal(t, "10000", bob.Dec())
		assert.Equal(t, "10000", l.TotalSupply().Dec())
		assertInvariants(t, l)
	})
}

func TestTransfer(t *testing.T) {
	t.Run("insufficient balance leaves no partial state", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xAlice", amt(500)))

		err := l.Transfer("0xAlice", "0xBob", amt(501))
		assert.ErrorIs(t, err, ErrInsufficientBalance)

		alice, _ := l.BalanceOf("0xAlice")
		bob, _ := l.BalanceOf("0xBob")
		treasury, _ := l.BalanceOf(testTreasury)
		assert.Equal(t, "500", alice.Dec())
		assert.Equal(t, "0", bob.Dec())
		assert.Equal(t, "0", treasury.Dec())
		assertInvariants(t, l)
	})

	t.Run("self transfer rejected", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xAlice", amt(500)))
		err := l.Transfer("0xAlice", "0xAlice", amt(100))
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("zero amount rejected", func(t *testing.T) {
		l := newTestLedger(t)
		err := l.Transfer("0xAlice", "0xBob", amt(0))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("no role needed to transfer", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xAlice", amt(200)))
		assert.NoError(t, l.Transfer("0xAlice", "0xBob", amt(200)))
	})

	t.Run("treasury wallet change takes effect for later transfers", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.Mint(testAdmin, "0xAlice", amt(20000)))
		require.NoError(t, l.Transfer("0xAlice", "0xBob", amt(10000)))

		require.NoError(t, l.UpdateTreasuryWallet(testAdmin, "0xNewTreasury"))
		require.NoError(t, l.Transfer("0xAlice", "0xBob", amt(10000)))

		oldTreasury, _ := l.BalanceOf(testTreasury)
		newTreasury, _ := l.BalanceOf("0xNewTreasury")
		assert.Equal(t, "100", oldTreasury.Dec())
		assert.Equal(t, "100", newTreasury.Dec())
		assertInvariants(t, l)
	})
}
