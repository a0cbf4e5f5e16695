package events

import "sync"

// Recorder is a Publisher that appends every event it receives, for
// use in tests that assert on the emitted event stream (e.g. the
// self-trade-free and whitelist-gate invariants in spec §8).
type Recorder struct {
	mu                sync.Mutex
	OrdersCreated     []OrderCreated
	OrdersFilled      []OrderFilled
	OrdersCancelled   []OrderCancelled
	FeesCollected     []FeesCollected
	DividendsClaimed  []DividendClaimed
	VotesCasted       []GovernanceVoteCasted
	RewardsPaid       []RewardsPaid
	TokensTransferred []TokensTransferred
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) PublishExchangeDeployed(ExchangeDeployed) {}
func (r *Recorder) PublishTokenCreated(TokenCreated)         {}

func (r *Recorder) PublishShareholderWhitelisted(ShareholderWhitelisted) {}

func (r *Recorder) PublishDividendsDistributed(DividendsDistributed) {}

func (r *Recorder) PublishDividendClaimed(e DividendClaimed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DividendsClaimed = append(r.DividendsClaimed, e)
}

func (r *Recorder) PublishGovernanceVoteCasted(e GovernanceVoteCasted) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.VotesCasted = append(r.VotesCasted, e)
}

func (r *Recorder) PublishTokensTransferred(e TokensTransferred) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.TokensTransferred = append(r.TokensTransferred, e)
}

func (r *Recorder) PublishOrderCreated(e OrderCreated) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.OrdersCreated = append(r.OrdersCreated, e)
}

func (r *Recorder) PublishOrderFilled(e OrderFilled) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.OrdersFilled = append(r.OrdersFilled, e)
}

func (r *Recorder) PublishOrderCancelled(e OrderCancelled) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.OrdersCancelled = append(r.OrdersCancelled, e)
}

func (r *Recorder) PublishFeesCollected(e FeesCollected) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FeesCollected = append(r.FeesCollected, e)
}

func (r *Recorder) PublishLiquidityProviderRegistered(LiquidityProviderRegistered)   {}
func (r *Recorder) PublishLiquidityProviderDeactivated(LiquidityProviderDeactivated) {}
func (r *Recorder) PublishIncentiveProgramCreated(IncentiveProgramCreated)           {}
func (r *Recorder) PublishIncentiveProgramUpdated(IncentiveProgramUpdated)           {}
func (r *Recorder) PublishCollateralLocked(CollateralLocked)                         {}
func (r *Recorder) PublishCollateralReleased(CollateralReleased)                     {}

func (r *Recorder) PublishRewardsPaid(e RewardsPaid) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RewardsPaid = append(r.RewardsPaid, e)
}

var _ Publisher = (*Recorder)(nil)
