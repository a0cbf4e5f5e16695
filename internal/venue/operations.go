// operations.go gives each mutating core-module call a Venue-level
// entry point bracketed by the reentrancy gate. Read-only views
// (BestBid, ActiveBuyOrders, MeetsSpread, ...) are exposed directly
// through Venue.Books / Venue.Incentive / Venue.Registry / Venue.Ledger
// and need no wrapper here, per spec §5's write-only reentrancy rule.
package venue

import (
	"context"

	"github.com/LeJamon/sekex/internal/issuer"
	"github.com/LeJamon/sekex/internal/ledger"
	"github.com/LeJamon/sekex/internal/orderbook"
)

// TransferOwnership reassigns the venue's admin capability, guarded by
// the current owner, and propagates the new owner to every gated
// module (Ledger, Registry, OrderBook, Incentive, and every deployed
// Issuer) so a single transfer stays consistent across the whole
// venue. All four modules share one owner value by construction, so
// if the first SetOwner call succeeds every subsequent one does too.
func (v *Venue) TransferOwnership(ctx context.Context, caller, next ledger.AccountID) error {
	if err := v.enter(ctx); err != nil {
		return err
	}
	defer v.leave()

	if caller != v.Owner.Current() {
		return ErrOwnerOnly
	}
	if next == "" {
		return ErrZeroAccount
	}

	if err := v.Ledger.SetOwner(caller, next); err != nil {
		return err
	}
	if err := v.Registry.SetOwner(caller, next); err != nil {
		return err
	}
	if err := v.Books.SetOwner(caller, next); err != nil {
		return err
	}
	if err := v.Incentive.SetOwner(caller, next); err != nil {
		return err
	}
	for _, iss := range v.Registry.ListIssuers() {
		if err := iss.SetOwner(caller, next); err != nil {
			return err
		}
	}

	v.Owner.set(next)
	return nil
}

// DeployIssuer registers a new issuer under the venue's shared USDT
// asset.
func (v *Venue) DeployIssuer(ctx context.Context, caller ledger.AccountID, companyName, tokenSymbol string, initialSupply int64, treasury ledger.AccountID) (*issuer.Issuer, error) {
	if err := v.enter(ctx); err != nil {
		return nil, err
	}
	defer v.leave()
	return v.Registry.DeployIssuer(caller, companyName, tokenSymbol, initialSupply, v.usdt, treasury)
}

func (v *Venue) resolveIssuer(token ledger.AssetID) (*issuer.Issuer, error) {
	iss := v.Registry.LookupBySecurityToken(token)
	if iss == nil {
		return nil, ErrUnknownToken
	}
	return iss, nil
}

// Whitelist sets account's whitelist membership on token's issuer.
func (v *Venue) Whitelist(ctx context.Context, caller ledger.AccountID, token ledger.AssetID, account ledger.AccountID, status bool) error {
	if err := v.enter(ctx); err != nil {
		return err
	}
	defer v.leave()

	iss, err := v.resolveIssuer(token)
	if err != nil {
		return err
	}
	return iss.Whitelist(caller, account, status)
}

// RecordDividendDistribution declares amount as newly distributable
// entitlement against token's issuer's treasury.
func (v *Venue) RecordDividendDistribution(ctx context.Context, caller ledger.AccountID, token ledger.AssetID, amount int64) error {
	if err := v.enter(ctx); err != nil {
		return err
	}
	defer v.leave()

	iss, err := v.resolveIssuer(token)
	if err != nil {
		return err
	}
	return iss.RecordDividendDistribution(caller, amount)
}

// ClaimDividend pays caller their unwithdrawn entitlement on token.
func (v *Venue) ClaimDividend(ctx context.Context, caller ledger.AccountID, token ledger.AssetID) (int64, error) {
	if err := v.enter(ctx); err != nil {
		return 0, err
	}
	defer v.leave()

	iss, err := v.resolveIssuer(token)
	if err != nil {
		return 0, err
	}
	return iss.ClaimDividend(caller)
}

// CastVote assigns caller's governance vote weight on token's issuer.
func (v *Venue) CastVote(ctx context.Context, caller ledger.AccountID, token ledger.AssetID, votes int64) error {
	if err := v.enter(ctx); err != nil {
		return err
	}
	defer v.leave()

	iss, err := v.resolveIssuer(token)
	if err != nil {
		return err
	}
	return iss.CastVote(caller, votes)
}

// SubmitBuy submits a BUY order to token's book.
func (v *Venue) SubmitBuy(ctx context.Context, caller ledger.AccountID, token ledger.AssetID, amount, price int64) (*orderbook.Order, error) {
	if err := v.enter(ctx); err != nil {
		return nil, err
	}
	defer v.leave()
	return v.Books.SubmitBuy(caller, token, amount, price)
}

// SubmitSell submits a SELL order to token's book.
func (v *Venue) SubmitSell(ctx context.Context, caller ledger.AccountID, token ledger.AssetID, amount, price int64) (*orderbook.Order, error) {
	if err := v.enter(ctx); err != nil {
		return nil, err
	}
	defer v.leave()
	return v.Books.SubmitSell(caller, token, amount, price)
}

// Cancel cancels orderID, refunding its unfilled escrowed remainder.
func (v *Venue) Cancel(ctx context.Context, caller ledger.AccountID, orderID uint64) error {
	if err := v.enter(ctx); err != nil {
		return err
	}
	defer v.leave()
	return v.Books.Cancel(caller, orderID)
}

// CancelExpired cancels orderID if it has aged past MaxOrderAge.
func (v *Venue) CancelExpired(ctx context.Context, orderID uint64) error {
	if err := v.enter(ctx); err != nil {
		return err
	}
	defer v.leave()
	return v.Books.CancelExpired(orderID)
}

// RegisterProvider enrolls caller as a market maker.
func (v *Venue) RegisterProvider(ctx context.Context, caller ledger.AccountID) error {
	if err := v.enter(ctx); err != nil {
		return err
	}
	defer v.leave()
	return v.Incentive.RegisterProvider(caller)
}

// CreateProgram installs token's incentive schedule.
func (v *Venue) CreateProgram(ctx context.Context, caller ledger.AccountID, token ledger.AssetID, maxSpreadBps, minOrderSize, minLockup, dailyRateBps, durationDays int64) error {
	if err := v.enter(ctx); err != nil {
		return err
	}
	defer v.leave()
	return v.Incentive.CreateProgram(caller, token, maxSpreadBps, minOrderSize, minLockup, dailyRateBps, durationDays)
}

// ToggleProgram flips token's program active flag.
func (v *Venue) ToggleProgram(ctx context.Context, caller ledger.AccountID, token ledger.AssetID, active bool) error {
	if err := v.enter(ctx); err != nil {
		return err
	}
	defer v.leave()
	return v.Incentive.ToggleProgram(caller, token, active)
}

// LockCollateral escrows amount USDT from caller against token.
func (v *Venue) LockCollateral(ctx context.Context, caller ledger.AccountID, token ledger.AssetID, amount int64) error {
	if err := v.enter(ctx); err != nil {
		return err
	}
	defer v.leave()
	return v.Incentive.LockCollateral(caller, token, amount)
}

// ReleaseCollateral refunds caller's locked collateral against token.
func (v *Venue) ReleaseCollateral(ctx context.Context, caller ledger.AccountID, token ledger.AssetID) error {
	if err := v.enter(ctx); err != nil {
		return err
	}
	defer v.leave()
	return v.Incentive.ReleaseCollateral(caller, token)
}

// ClaimRewards pays caller today's snapshot reward for token.
func (v *Venue) ClaimRewards(ctx context.Context, caller ledger.AccountID, token ledger.AssetID) (int64, error) {
	if err := v.enter(ctx); err != nil {
		return 0, err
	}
	defer v.leave()
	return v.Incentive.ClaimRewards(caller, token)
}
