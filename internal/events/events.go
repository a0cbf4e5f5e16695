// Package events defines the observable event stream described in
// spec §6 and the Publisher interface that Issuer, Registry, OrderBook,
// and Incentive emit through. This mirrors the teacher's
// internal/rpc.EventPublisher: callers depend only on this interface,
// never on a specific transport, so internal/eventstream's websocket
// broadcaster and internal/audit's SQL sink are interchangeable (and
// composable) sinks.
package events

// Side mirrors orderbook.Side without importing it, so this package
// stays a leaf with no dependency on the core packages it's emitted
// from.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "BUY"
	}
	return "SELL"
}

type ExchangeDeployed struct {
	Owner       string
	IssuerID    string
	CompanyName string
}

type TokenCreated struct {
	SecurityToken  string
	Name           string
	Symbol         string
	InitialSupply  int64
}

type ShareholderWhitelisted struct {
	Investor string
	Status   bool
}

type DividendsDistributed struct {
	IssuerID string
	Amount   int64
}

type DividendClaimed struct {
	IssuerID    string
	Shareholder string
	Amount      int64
}

type GovernanceVoteCasted struct {
	IssuerID string
	Voter    string
	Votes    int64
}

type TokensTransferred struct {
	Asset  string
	From   string
	To     string
	Amount int64
}

type OrderCreated struct {
	OrderID       uint64
	Maker         string
	SecurityToken string
	Amount        int64
	Price         int64
	Side          Side
}

type OrderFilled struct {
	RestingOrderID uint64
	RestingMaker   string
	Taker          string
	Amount         int64
	ExecPrice      int64
}

type OrderCancelled struct {
	OrderID uint64
}

type FeesCollected struct {
	Asset     string
	Collector string
	Amount    int64
}

type LiquidityProviderRegistered struct {
	Provider string
}

type LiquidityProviderDeactivated struct {
	Provider string
}

type IncentiveProgramCreated struct {
	SecurityToken string
	DailyRateBps  int64
	EndTime       int64
}

type IncentiveProgramUpdated struct {
	SecurityToken string
	Active        bool
}

type CollateralLocked struct {
	Provider      string
	SecurityToken string
	Amount        int64
}

type CollateralReleased struct {
	Provider      string
	SecurityToken string
	Amount        int64
}

type RewardsPaid struct {
	Provider      string
	SecurityToken string
	Amount        int64
}

// Publisher is implemented by every sink that wants to observe venue
// events. A failed operation never reaches a Publisher: publication
// only happens after every precondition has passed and every write
// has committed, per spec §7.
type Publisher interface {
	PublishExchangeDeployed(ExchangeDeployed)
	PublishTokenCreated(TokenCreated)
	PublishShareholderWhitelisted(ShareholderWhitelisted)
	PublishDividendsDistributed(DividendsDistributed)
	PublishDividendClaimed(DividendClaimed)
	PublishGovernanceVoteCasted(GovernanceVoteCasted)
	PublishTokensTransferred(TokensTransferred)
	PublishOrderCreated(OrderCreated)
	PublishOrderFilled(OrderFilled)
	PublishOrderCancelled(OrderCancelled)
	PublishFeesCollected(FeesCollected)
	PublishLiquidityProviderRegistered(LiquidityProviderRegistered)
	PublishLiquidityProviderDeactivated(LiquidityProviderDeactivated)
	PublishIncentiveProgramCreated(IncentiveProgramCreated)
	PublishIncentiveProgramUpdated(IncentiveProgramUpdated)
	PublishCollateralLocked(CollateralLocked)
	PublishCollateralReleased(CollateralReleased)
	PublishRewardsPaid(RewardsPaid)
}

// Noop discards every event. It is the default Publisher so core
// packages never need a nil check.
type Noop struct{}

func (Noop) PublishExchangeDeployed(ExchangeDeployed)                             {}
func (Noop) PublishTokenCreated(TokenCreated)                                     {}
func (Noop) PublishShareholderWhitelisted(ShareholderWhitelisted)                 {}
func (Noop) PublishDividendsDistributed(DividendsDistributed)                     {}
func (Noop) PublishDividendClaimed(DividendClaimed)                               {}
func (Noop) PublishGovernanceVoteCasted(GovernanceVoteCasted)                     {}
func (Noop) PublishTokensTransferred(TokensTransferred)                           {}
func (Noop) PublishOrderCreated(OrderCreated)                                     {}
func (Noop) PublishOrderFilled(OrderFilled)                                       {}
func (Noop) PublishOrderCancelled(OrderCancelled)                                 {}
func (Noop) PublishFeesCollected(FeesCollected)                                   {}
func (Noop) PublishLiquidityProviderRegistered(LiquidityProviderRegistered)       {}
func (Noop) PublishLiquidityProviderDeactivated(LiquidityProviderDeactivated)     {}
func (Noop) PublishIncentiveProgramCreated(IncentiveProgramCreated)               {}
func (Noop) PublishIncentiveProgramUpdated(IncentiveProgramUpdated)               {}
func (Noop) PublishCollateralLocked(CollateralLocked)                             {}
func (Noop) PublishCollateralReleased(CollateralReleased)                         {}
func (Noop) PublishRewardsPaid(RewardsPaid)                                       {}

var _ Publisher = Noop{}
