// Package ledger is the single source of truth for asset balances.
// Every value-moving operation in the venue — escrow, fills, refunds,
// fee routing, dividend payouts, collateral locks — goes through
// Transfer or Mint. No other package mutates a balance directly.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/sekex/internal/money"
)

// AssetID is an opaque, globally unique handle for a fungible asset:
// one per issuer's security token, plus the single shared USDT asset.
type AssetID string

// AccountID is an opaque handle for an account. Two AccountIDs compare
// equal exactly when they name the same account.
type AccountID string

var (
	// ErrInsufficientBalance is returned by Transfer when the source
	// account cannot cover the amount.
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	// ErrInvalidAmount is returned when amount <= 0.
	ErrInvalidAmount = errors.New("ledger: invalid amount")
	// ErrAmountTooLarge is returned when amount exceeds money.MaxAmount.
	ErrAmountTooLarge = errors.New("ledger: amount exceeds maximum")
	// ErrOwnerOnly is returned by Mint when called by anyone but the
	// ledger's owner.
	ErrOwnerOnly = errors.New("ledger: restricted to owner")
)

// Ledger tracks non-negative integer balances of (asset, account)
// pairs and the total supply of each asset. For every asset, the sum
// of all account balances always equals that asset's total supply.
type Ledger struct {
	mu       sync.Mutex
	owner    AccountID
	balances map[AssetID]map[AccountID]int64
	supply   map[AssetID]int64
}

// New returns an empty Ledger whose restricted operations (Mint) are
// gated to owner.
func New(owner AccountID) *Ledger {
	return &Ledger{
		owner:    owner,
		balances: make(map[AssetID]map[AccountID]int64),
		supply:   make(map[AssetID]int64),
	}
}

// BalanceOf returns account's balance of asset, 0 if never touched.
func (l *Ledger) BalanceOf(asset AssetID, account AccountID) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[asset][account]
}

// TotalSupply returns the total supply of asset, 0 if never minted.
func (l *Ledger) TotalSupply(asset AssetID) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.supply[asset]
}

// Mint increases to's balance and asset's total supply by amount.
// Restricted to the ledger's owner (the Registry, in practice, acting
// on behalf of the venue's admin capability).
func (l *Ledger) Mint(caller AccountID, asset AssetID, to AccountID, amount int64) error {
	if caller != l.owner {
		return ErrOwnerOnly
	}
	if err := validateAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[asset] == nil {
		l.balances[asset] = make(map[AccountID]int64)
	}
	next := l.balances[asset][to] + amount
	if next > money.MaxAmount {
		return ErrAmountTooLarge
	}
	l.balances[asset][to] = next
	l.supply[asset] += amount
	return nil
}

// Transfer atomically moves amount of asset from from to to. All or
// nothing: on any error, no balance changes.
func (l *Ledger) Transfer(asset AssetID, from, to AccountID, amount int64) error {
	if err := validateAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.balances[asset][from]
	if bal < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, bal, amount)
	}

	if l.balances[asset] == nil {
		l.balances[asset] = make(map[AccountID]int64)
	}
	l.balances[asset][from] = bal - amount
	next := l.balances[asset][to] + amount
	if next > money.MaxAmount {
		return ErrAmountTooLarge
	}
	l.balances[asset][to] = next
	return nil
}

// SetBalance directly sets account's balance of asset to amount,
// without touching total supply. It exists solely for the bootstrap
// hook (Issuer.SetInitialUSDTBalance) where a host's USDT supply is
// already accounted for externally; ordinary operations must use Mint
// or Transfer so that conservation holds. Restricted to the ledger's
// owner.
func (l *Ledger) SetBalance(caller AccountID, asset AssetID, account AccountID, amount int64) error {
	if caller != l.owner {
		return ErrOwnerOnly
	}
	if err := validateAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[asset] == nil {
		l.balances[asset] = make(map[AccountID]int64)
	}
	l.balances[asset][account] = amount
	return nil
}

// Balances returns a snapshot of every (asset, account) balance with a
// nonzero value, for use by internal/storage snapshotting and by
// conservation tests. The returned map is a copy.
func (l *Ledger) Balances() map[AssetID]map[AccountID]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[AssetID]map[AccountID]int64, len(l.balances))
	for asset, accts := range l.balances {
		m := make(map[AccountID]int64, len(accts))
		for acct, bal := range accts {
			if bal != 0 {
				m[acct] = bal
			}
		}
		out[asset] = m
	}
	return out
}

// Restore replaces the ledger's balances and supplies wholesale, used
// by internal/storage to rehydrate a snapshot. Not part of the public
// operational contract — callers outside of restore paths should use
// Mint/Transfer.
func (l *Ledger) Restore(balances map[AssetID]map[AccountID]int64, supply map[AssetID]int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances = make(map[AssetID]map[AccountID]int64, len(balances))
	for asset, accts := range balances {
		m := make(map[AccountID]int64, len(accts))
		for acct, bal := range accts {
			m[acct] = bal
		}
		l.balances[asset] = m
	}
	l.supply = make(map[AssetID]int64, len(supply))
	for asset, s := range supply {
		l.supply[asset] = s
	}
}

// SetOwner reassigns the ledger's restricted-operation owner, guarded
// by the current owner. The mutator behind internal/venue.Owner's
// capability-handle transfer (spec §9).
func (l *Ledger) SetOwner(caller, next AccountID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.owner {
		return ErrOwnerOnly
	}
	l.owner = next
	return nil
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > money.MaxAmount {
		return ErrAmountTooLarge
	}
	return nil
}
