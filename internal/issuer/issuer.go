// Package issuer models a single SME's entity on the venue: its
// whitelist, its pull-based dividend pool, and its governance vote
// tallies. Grounded on the teacher's RippleState trust-line model
// (internal/core/tx/sle/ripple_state.go) for the authorization-gate
// shape, and on its account-root single-owner pattern for the
// restricted operations.
package issuer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/sekex/internal/events"
	"github.com/LeJamon/sekex/internal/ledger"
	"github.com/LeJamon/sekex/internal/money"
)

var (
	ErrOwnerOnly       = errors.New("issuer: restricted to issuer owner")
	ErrNotWhitelisted  = errors.New("issuer: account is not whitelisted")
	ErrNonPositive     = errors.New("issuer: amount must be positive")
	ErrInsufficientPool = errors.New("issuer: treasury balance below distribution amount")
	ErrNoShares        = errors.New("issuer: caller holds no security tokens")
	ErrNothingToClaim  = errors.New("issuer: entitlement already withdrawn")
	ErrAlreadyInitialized = errors.New("issuer: treasury usdt balance already set")
)

// Issuer is a single SME's on-venue entity. Never destroyed once
// created by internal/registry. owner is expected to be the same
// process-wide admin account as the underlying ledger.Ledger's owner,
// per spec §9's single capability-handle model; restricted operations
// that also touch the ledger (SetInitialUSDTBalance) rely on that
// equality.
type Issuer struct {
	mu sync.Mutex

	owner       ledger.AccountID
	companyName string
	security    ledger.AssetID
	usdt        ledger.AssetID
	treasury    ledger.AccountID

	ledger    *ledger.Ledger
	publisher events.Publisher

	whitelist map[ledger.AccountID]bool
	// withdrawn[account] is the cumulative USDT this account has ever
	// pulled across all distributions. Monotone non-decreasing.
	withdrawn map[ledger.AccountID]int64
	// totalDistributed is the cumulative amount ever *declared*
	// distributable by record_dividend_distribution. Monotone
	// non-decreasing; distinct from what has actually been withdrawn.
	totalDistributed int64
	votes            map[ledger.AccountID]int64
}

// New constructs an Issuer whose treasury is auto-whitelisted, per
// spec's lifecycle clause. Callers are expected to be
// internal/registry.Registry.DeployIssuer; New itself does not mint
// the initial supply.
func New(owner ledger.AccountID, companyName string, security, usdt ledger.AssetID, treasury ledger.AccountID, l *ledger.Ledger, pub events.Publisher) *Issuer {
	iss := &Issuer{
		owner:       owner,
		companyName: companyName,
		security:    security,
		usdt:        usdt,
		treasury:    treasury,
		ledger:      l,
		publisher:   pub,
		whitelist:   make(map[ledger.AccountID]bool),
		withdrawn:   make(map[ledger.AccountID]int64),
		votes:       make(map[ledger.AccountID]int64),
	}
	iss.whitelist[treasury] = true
	return iss
}

// SetOwner reassigns this issuer's restricted-operation owner, guarded
// by the current owner. Called alongside every other module's SetOwner
// by internal/venue.Owner.TransferOwnership so a single capability
// transfer stays consistent across the whole venue (spec §9).
func (i *Issuer) SetOwner(caller, next ledger.AccountID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if caller != i.owner {
		return ErrOwnerOnly
	}
	i.owner = next
	return nil
}

func (i *Issuer) CompanyName() string          { return i.companyName }
func (i *Issuer) SecurityToken() ledger.AssetID { return i.security }
func (i *Issuer) USDT() ledger.AssetID          { return i.usdt }
func (i *Issuer) Treasury() ledger.AccountID    { return i.treasury }

// Whitelist idempotently sets account's membership. Restricted to the
// issuer's owner.
func (i *Issuer) Whitelist(caller, account ledger.AccountID, status bool) error {
	if caller != i.owner {
		return ErrOwnerOnly
	}

	i.mu.Lock()
	i.whitelist[account] = status
	i.mu.Unlock()

	i.publisher.PublishShareholderWhitelisted(events.ShareholderWhitelisted{
		Investor: string(account),
		Status:   status,
	})
	return nil
}

// IsWhitelisted reports whether account may hold/trade/claim/vote on
// this issuer's security token.
func (i *Issuer) IsWhitelisted(account ledger.AccountID) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.whitelist[account]
}

// RecordDividendDistribution declares amount of additional USDT
// entitlement, without moving any funds: withdrawal is pull-based via
// ClaimDividend. Restricted to the issuer's owner.
func (i *Issuer) RecordDividendDistribution(caller ledger.AccountID, amount int64) error {
	if caller != i.owner {
		return ErrOwnerOnly
	}
	if amount <= 0 {
		return ErrNonPositive
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.ledger.BalanceOf(i.usdt, i.treasury) < amount {
		return ErrInsufficientPool
	}

	i.totalDistributed += amount
	i.publisher.PublishDividendsDistributed(events.DividendsDistributed{
		IssuerID: i.companyName,
		Amount:   amount,
	})
	return nil
}

// ClaimDividend pays caller the unwithdrawn portion of their
// proportional entitlement:
//
//	entitlement = floor(totalDistributed * balance(security, caller) / totalSupply(security))
//
// A holder who transfers security tokens away before claiming
// forfeits the portion attributable to the shares they no longer
// hold — withdrawn[caller] only ever snapshots the entitlement at
// claim time, it is never retroactively topped up for shares held
// earlier. This is intentional, not a bug: see spec §9.
func (i *Issuer) ClaimDividend(caller ledger.AccountID) (int64, error) {
	if !i.IsWhitelisted(caller) {
		return 0, ErrNotWhitelisted
	}

	balance := i.ledger.BalanceOf(i.security, caller)
	if balance == 0 {
		return 0, ErrNoShares
	}

	i.mu.Lock()
	supply := i.ledger.TotalSupply(i.security)
	if supply == 0 {
		i.mu.Unlock()
		return 0, ErrNoShares
	}
	entitlement, err := money.MulDivFloor(i.totalDistributed, balance, supply)
	if err != nil {
		i.mu.Unlock()
		return 0, err
	}

	already := i.withdrawn[caller]
	if entitlement <= already {
		i.mu.Unlock()
		return 0, ErrNothingToClaim
	}
	delta := entitlement - already
	i.withdrawn[caller] = entitlement
	i.mu.Unlock()

	if err := i.ledger.Transfer(i.usdt, i.treasury, caller, delta); err != nil {
		// Roll back the withdrawn snapshot: the transfer is the real
		// state change, the snapshot must not advance without it.
		i.mu.Lock()
		i.withdrawn[caller] = already
		i.mu.Unlock()
		return 0, fmt.Errorf("issuer: dividend transfer failed: %w", err)
	}

	i.publisher.PublishTokensTransferred(events.TokensTransferred{
		Asset: string(i.usdt), From: string(i.treasury), To: string(caller), Amount: delta,
	})
	i.publisher.PublishDividendClaimed(events.DividendClaimed{
		IssuerID:    i.companyName,
		Shareholder: string(caller),
		Amount:      delta,
	})
	return delta, nil
}

// Withdrawn returns how much caller has withdrawn across all
// distributions to date.
func (i *Issuer) Withdrawn(caller ledger.AccountID) int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.withdrawn[caller]
}

// TotalDividendsDistributed returns the cumulative declared amount.
func (i *Issuer) TotalDividendsDistributed() int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.totalDistributed
}

// CastVote requires whitelist membership and sufficient security-token
// balance, then assigns (never adds to) caller's governance vote
// weight.
func (i *Issuer) CastVote(caller ledger.AccountID, votes int64) error {
	if !i.IsWhitelisted(caller) {
		return ErrNotWhitelisted
	}
	if i.ledger.BalanceOf(i.security, caller) < votes {
		return fmt.Errorf("issuer: insufficient security-token balance for %d votes", votes)
	}

	i.mu.Lock()
	i.votes[caller] = votes
	i.mu.Unlock()

	i.publisher.PublishGovernanceVoteCasted(events.GovernanceVoteCasted{
		IssuerID: i.companyName,
		Voter:    string(caller),
		Votes:    votes,
	})
	return nil
}

// VotesOf returns caller's currently assigned governance vote weight.
func (i *Issuer) VotesOf(caller ledger.AccountID) int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.votes[caller]
}

// SetInitialUSDTBalance is a bootstrap hook for hosts where the
// ledger's USDT supply is funded externally (off the books of Mint):
// it sets the treasury's USDT balance directly, without a backing
// transfer, and only while that balance is still zero. Restricted to
// the issuer's owner.
func (i *Issuer) SetInitialUSDTBalance(caller ledger.AccountID, amount int64) error {
	if caller != i.owner {
		return ErrOwnerOnly
	}
	if amount <= 0 {
		return ErrNonPositive
	}
	if i.ledger.BalanceOf(i.usdt, i.treasury) != 0 {
		return ErrAlreadyInitialized
	}
	return i.ledger.SetBalance(i.owner, i.usdt, i.treasury, amount)
}
