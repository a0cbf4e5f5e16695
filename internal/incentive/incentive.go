// Package incentive runs the market-maker rewards program: providers
// lock USDT collateral against a security token, and are paid a daily
// rate for as long as they keep a qualifying two-sided quote on
// OrderBook. Grounded on the teacher's validator/staking bookkeeping
// shape (internal/core/ledger/manager's balance+cache pairing) adapted
// to collateral-lock-and-reward accounting, with OrderBook queried
// read-only for the spread obligation.
package incentive

import (
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/sekex/internal/clock"
	"github.com/LeJamon/sekex/internal/events"
	"github.com/LeJamon/sekex/internal/ledger"
	"github.com/LeJamon/sekex/internal/money"
	"github.com/LeJamon/sekex/internal/orderbook"
	"github.com/LeJamon/sekex/internal/registry"
)

const secondsPerDay int64 = 86_400

var (
	ErrOwnerOnly          = errors.New("incentive: restricted to module owner")
	ErrAlreadyRegistered  = errors.New("incentive: provider already registered")
	ErrUnknownProvider    = errors.New("incentive: unknown provider")
	ErrNotActiveProvider  = errors.New("incentive: provider is not active")
	ErrUnknownProgram     = errors.New("incentive: no program for this token")
	ErrProgramInactive    = errors.New("incentive: program is not active")
	ErrProgramEnded       = errors.New("incentive: program has ended")
	ErrProgramStillActive = errors.New("incentive: program is still active")
	ErrNoCollateral       = errors.New("incentive: no collateral locked for this token")
	ErrBelowMinLockup     = errors.New("incentive: amount is below the program's minimum lockup")
	ErrInvalidDailyRate   = errors.New("incentive: daily_rate_bps must be in (0, 10000]")
	ErrNothingToClaim     = errors.New("incentive: reward is zero")
)

// Provider is a registered market maker.
type Provider struct {
	Address         ledger.AccountID
	RegisteredAt    int64
	Active          bool
	CumulativeRewards int64
	CurrentLocked   int64
}

// Program is one security token's market-making incentive schedule.
type Program struct {
	SecurityToken ledger.AssetID
	MaxSpreadBps  int64
	MinOrderSize  int64
	MinLockup     int64
	DailyRateBps  int64
	EndTime       int64
	Active        bool
}

func (p *Program) ended(now int64) bool { return now >= p.EndTime }

// Incentive is the market-maker collateral and reward module.
type Incentive struct {
	mu sync.Mutex

	owner    ledger.AccountID
	ledger   *ledger.Ledger
	registry *registry.Registry
	books    *orderbook.OrderBook
	clock    clock.Clock
	pub      events.Publisher

	usdt   ledger.AssetID
	escrow ledger.AccountID

	providers map[ledger.AccountID]*Provider
	programs  map[ledger.AssetID]*Program
	// locked[token][provider] is that provider's collateral against token.
	locked       map[ledger.AssetID]map[ledger.AccountID]int64
	totalRewards map[ledger.AssetID]int64
}

// New constructs an Incentive module. usdt is the settlement asset
// locked as collateral; escrow is the logical account collateral and
// reward funds are held in, distinct from OrderBook's own escrow
// account per spec §5.
func New(owner ledger.AccountID, l *ledger.Ledger, reg *registry.Registry, books *orderbook.OrderBook, usdt ledger.AssetID, escrow ledger.AccountID, c clock.Clock, pub events.Publisher) *Incentive {
	return &Incentive{
		owner:        owner,
		ledger:       l,
		registry:     reg,
		books:        books,
		clock:        c,
		pub:          pub,
		usdt:         usdt,
		escrow:       escrow,
		providers:    make(map[ledger.AccountID]*Provider),
		programs:     make(map[ledger.AssetID]*Program),
		locked:       make(map[ledger.AssetID]map[ledger.AccountID]int64),
		totalRewards: make(map[ledger.AssetID]int64),
	}
}

// SetOwner reassigns the module's restricted-operation owner, guarded
// by the current owner. The mutator behind internal/venue.Owner's
// capability-handle transfer (spec §9).
func (inc *Incentive) SetOwner(caller, next ledger.AccountID) error {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	if caller != inc.owner {
		return ErrOwnerOnly
	}
	inc.owner = next
	return nil
}

// RegisterProvider enrolls caller as a market maker, active by default.
func (inc *Incentive) RegisterProvider(caller ledger.AccountID) error {
	inc.mu.Lock()
	defer inc.mu.Unlock()

	if _, exists := inc.providers[caller]; exists {
		return ErrAlreadyRegistered
	}
	inc.providers[caller] = &Provider{
		Address:      caller,
		RegisteredAt: inc.clock.Now(),
		Active:       true,
	}
	inc.pub.PublishLiquidityProviderRegistered(events.LiquidityProviderRegistered{Provider: string(caller)})
	return nil
}

// Provider returns the registered provider record, or nil.
func (inc *Incentive) Provider(account ledger.AccountID) *Provider {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	p, ok := inc.providers[account]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// DeactivateProvider marks a provider inactive; restricted to the
// module owner. Deactivation does not release locked collateral.
func (inc *Incentive) DeactivateProvider(caller, provider ledger.AccountID) error {
	if caller != inc.owner {
		return ErrOwnerOnly
	}
	inc.mu.Lock()
	p, ok := inc.providers[provider]
	if !ok {
		inc.mu.Unlock()
		return ErrUnknownProvider
	}
	p.Active = false
	inc.mu.Unlock()

	inc.pub.PublishLiquidityProviderDeactivated(events.LiquidityProviderDeactivated{Provider: string(provider)})
	return nil
}

// CreateProgram installs (or replaces) token's incentive schedule.
// Restricted to the module owner.
func (inc *Incentive) CreateProgram(caller ledger.AccountID, token ledger.AssetID, maxSpreadBps, minOrderSize, minLockup, dailyRateBps, durationDays int64) error {
	if caller != inc.owner {
		return ErrOwnerOnly
	}
	if dailyRateBps <= 0 || dailyRateBps > 10_000 {
		return ErrInvalidDailyRate
	}
	if minOrderSize <= 0 || minLockup <= 0 || durationDays <= 0 {
		return money.ErrNonPositive
	}

	now := inc.clock.Now()
	prog := &Program{
		SecurityToken: token,
		MaxSpreadBps:  maxSpreadBps,
		MinOrderSize:  minOrderSize,
		MinLockup:     minLockup,
		DailyRateBps:  dailyRateBps,
		EndTime:       now + durationDays*secondsPerDay,
		Active:        true,
	}

	inc.mu.Lock()
	inc.programs[token] = prog
	inc.mu.Unlock()

	inc.pub.PublishIncentiveProgramCreated(events.IncentiveProgramCreated{
		SecurityToken: string(token),
		DailyRateBps:  dailyRateBps,
		EndTime:       prog.EndTime,
	})
	return nil
}

// ToggleProgram flips token's program active flag. Restricted to the
// module owner.
func (inc *Incentive) ToggleProgram(caller ledger.AccountID, token ledger.AssetID, active bool) error {
	if caller != inc.owner {
		return ErrOwnerOnly
	}

	inc.mu.Lock()
	prog, ok := inc.programs[token]
	if !ok {
		inc.mu.Unlock()
		return ErrUnknownProgram
	}
	prog.Active = active
	inc.mu.Unlock()

	inc.pub.PublishIncentiveProgramUpdated(events.IncentiveProgramUpdated{
		SecurityToken: string(token),
		Active:        active,
	})
	return nil
}

// Program returns a copy of token's program, or nil.
func (inc *Incentive) Program(token ledger.AssetID) *Program {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	p, ok := inc.programs[token]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// LockCollateral escrows amount USDT from caller against token's
// program. Requires an active, registered provider and an active,
// unexpired program, and amount at least the program's min lockup.
func (inc *Incentive) LockCollateral(caller ledger.AccountID, token ledger.AssetID, amount int64) error {
	if err := money.ValidatePositive(amount); err != nil {
		return err
	}

	inc.mu.Lock()
	p, ok := inc.providers[caller]
	if !ok || !p.Active {
		inc.mu.Unlock()
		return ErrNotActiveProvider
	}
	prog, ok := inc.programs[token]
	if !ok {
		inc.mu.Unlock()
		return ErrUnknownProgram
	}
	if prog.ended(inc.clock.Now()) {
		inc.mu.Unlock()
		return ErrProgramEnded
	}
	if !prog.Active {
		inc.mu.Unlock()
		return ErrProgramInactive
	}
	if amount < prog.MinLockup {
		inc.mu.Unlock()
		return ErrBelowMinLockup
	}
	inc.mu.Unlock()

	if err := inc.ledger.Transfer(inc.usdt, caller, inc.escrow, amount); err != nil {
		return fmt.Errorf("incentive: collateral transfer failed: %w", err)
	}
	inc.pub.PublishTokensTransferred(events.TokensTransferred{
		Asset: string(inc.usdt), From: string(caller), To: string(inc.escrow), Amount: amount,
	})

	inc.mu.Lock()
	if inc.locked[token] == nil {
		inc.locked[token] = make(map[ledger.AccountID]int64)
	}
	inc.locked[token][caller] += amount
	p.CurrentLocked += amount
	inc.mu.Unlock()

	inc.pub.PublishCollateralLocked(events.CollateralLocked{
		Provider:      string(caller),
		SecurityToken: string(token),
		Amount:        amount,
	})
	return nil
}

// ReleaseCollateral refunds caller's full locked collateral against
// token, once the program has ended or been deactivated.
func (inc *Incentive) ReleaseCollateral(caller ledger.AccountID, token ledger.AssetID) error {
	inc.mu.Lock()
	prog, ok := inc.programs[token]
	if !ok {
		inc.mu.Unlock()
		return ErrUnknownProgram
	}
	amount := inc.locked[token][caller]
	if amount <= 0 {
		inc.mu.Unlock()
		return ErrNoCollateral
	}
	if prog.Active && !prog.ended(inc.clock.Now()) {
		inc.mu.Unlock()
		return ErrProgramStillActive
	}
	inc.mu.Unlock()

	if err := inc.ledger.Transfer(inc.usdt, inc.escrow, caller, amount); err != nil {
		return fmt.Errorf("incentive: collateral refund failed: %w", err)
	}
	inc.pub.PublishTokensTransferred(events.TokensTransferred{
		Asset: string(inc.usdt), From: string(inc.escrow), To: string(caller), Amount: amount,
	})

	inc.mu.Lock()
	inc.locked[token][caller] = 0
	if p, ok := inc.providers[caller]; ok {
		p.CurrentLocked -= amount
	}
	inc.mu.Unlock()

	inc.pub.PublishCollateralReleased(events.CollateralReleased{
		Provider:      string(caller),
		SecurityToken: string(token),
		Amount:        amount,
	})
	return nil
}

// MeetsSpread reports whether provider currently satisfies token's
// program obligation: a resting bid and ask of at least min_order_size
// each, both owned by provider, at a spread no wider than max_spread.
func (inc *Incentive) MeetsSpread(provider ledger.AccountID, token ledger.AssetID) bool {
	if inc.registry.LookupBySecurityToken(token) == nil {
		return false
	}

	inc.mu.Lock()
	prog, ok := inc.programs[token]
	inc.mu.Unlock()
	if !ok {
		return false
	}

	bidPrice, bidSize := inc.books.BestBid(token)
	askPrice, askSize := inc.books.BestAsk(token)
	if bidPrice == 0 || askPrice == 0 {
		return false
	}

	hasBid := inc.books.HasActiveOrder(provider, token, bidPrice, orderbook.Buy)
	hasAsk := inc.books.HasActiveOrder(provider, token, askPrice, orderbook.Sell)
	if !hasBid || !hasAsk {
		return false
	}
	if bidSize < prog.MinOrderSize || askSize < prog.MinOrderSize {
		return false
	}

	spreadBps, err := money.MulDivFloor(askPrice-bidPrice, 10_000, bidPrice)
	if err != nil {
		return false
	}
	return spreadBps <= prog.MaxSpreadBps
}

// DailyReward returns the USDT reward provider would receive right now
// for token: 0 if the spread obligation is unmet, otherwise
// floor(locked * daily_rate_bps / 10000).
func (inc *Incentive) DailyReward(provider ledger.AccountID, token ledger.AssetID) int64 {
	if !inc.MeetsSpread(provider, token) {
		return 0
	}

	inc.mu.Lock()
	prog := inc.programs[token]
	locked := inc.locked[token][provider]
	inc.mu.Unlock()
	if prog == nil || locked == 0 {
		return 0
	}

	reward, err := money.MulDivBps(locked, prog.DailyRateBps)
	if err != nil {
		return 0
	}
	return reward
}

// ClaimRewards pays provider caller today's snapshot reward for token.
// This recomputes from current state on every call: nothing prevents
// claiming again before a full day elapses as long as the spread
// obligation still holds. Intentional per spec §9's open question on
// accrual: a repeatable snapshot rather than a time-integrated payout.
func (inc *Incentive) ClaimRewards(caller ledger.AccountID, token ledger.AssetID) (int64, error) {
	inc.mu.Lock()
	p, ok := inc.providers[caller]
	if !ok || !p.Active {
		inc.mu.Unlock()
		return 0, ErrNotActiveProvider
	}
	prog, ok := inc.programs[token]
	if !ok {
		inc.mu.Unlock()
		return 0, ErrUnknownProgram
	}
	if prog.ended(inc.clock.Now()) {
		inc.mu.Unlock()
		return 0, ErrProgramEnded
	}
	if !prog.Active {
		inc.mu.Unlock()
		return 0, ErrProgramInactive
	}
	if inc.locked[token][caller] <= 0 {
		inc.mu.Unlock()
		return 0, ErrNoCollateral
	}
	inc.mu.Unlock()

	reward := inc.DailyReward(caller, token)
	if reward <= 0 {
		return 0, ErrNothingToClaim
	}

	if err := inc.ledger.Transfer(inc.usdt, inc.escrow, caller, reward); err != nil {
		return 0, fmt.Errorf("incentive: reward transfer failed: %w", err)
	}
	inc.pub.PublishTokensTransferred(events.TokensTransferred{
		Asset: string(inc.usdt), From: string(inc.escrow), To: string(caller), Amount: reward,
	})

	inc.mu.Lock()
	p.CumulativeRewards += reward
	inc.totalRewards[token] += reward
	inc.mu.Unlock()

	inc.pub.PublishRewardsPaid(events.RewardsPaid{
		Provider:      string(caller),
		SecurityToken: string(token),
		Amount:        reward,
	})
	return reward, nil
}

// TotalRewardsPaid returns the cumulative USDT paid out of this
// module's escrow for token.
func (inc *Incentive) TotalRewardsPaid(token ledger.AssetID) int64 {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	return inc.totalRewards[token]
}
