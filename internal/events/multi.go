package events

// Multi fans a single event out to every Publisher in Sinks, in order.
// Used by internal/venue to publish to internal/eventstream and
// internal/audit simultaneously.
type Multi struct {
	Sinks []Publisher
}

func NewMulti(sinks ...Publisher) *Multi {
	return &Multi{Sinks: sinks}
}

func (m *Multi) PublishExchangeDeployed(e ExchangeDeployed) {
	for _, s := range m.Sinks {
		s.PublishExchangeDeployed(e)
	}
}

func (m *Multi) PublishTokenCreated(e TokenCreated) {
	for _, s := range m.Sinks {
		s.PublishTokenCreated(e)
	}
}

func (m *Multi) PublishShareholderWhitelisted(e ShareholderWhitelisted) {
	for _, s := range m.Sinks {
		s.PublishShareholderWhitelisted(e)
	}
}

func (m *Multi) PublishDividendsDistributed(e DividendsDistributed) {
	for _, s := range m.Sinks {
		s.PublishDividendsDistributed(e)
	}
}

func (m *Multi) PublishDividendClaimed(e DividendClaimed) {
	for _, s := range m.Sinks {
		s.PublishDividendClaimed(e)
	}
}

func (m *Multi) PublishGovernanceVoteCasted(e GovernanceVoteCasted) {
	for _, s := range m.Sinks {
		s.PublishGovernanceVoteCasted(e)
	}
}

func (m *Multi) PublishTokensTransferred(e TokensTransferred) {
	for _, s := range m.Sinks {
		s.PublishTokensTransferred(e)
	}
}

func (m *Multi) PublishOrderCreated(e OrderCreated) {
	for _, s := range m.Sinks {
		s.PublishOrderCreated(e)
	}
}

func (m *Multi) PublishOrderFilled(e OrderFilled) {
	for _, s := range m.Sinks {
		s.PublishOrderFilled(e)
	}
}

func (m *Multi) PublishOrderCancelled(e OrderCancelled) {
	for _, s := range m.Sinks {
		s.PublishOrderCancelled(e)
	}
}

func (m *Multi) PublishFeesCollected(e FeesCollected) {
	for _, s := range m.Sinks {
		s.PublishFeesCollected(e)
	}
}

func (m *Multi) PublishLiquidityProviderRegistered(e LiquidityProviderRegistered) {
	for _, s := range m.Sinks {
		s.PublishLiquidityProviderRegistered(e)
	}
}

func (m *Multi) PublishLiquidityProviderDeactivated(e LiquidityProviderDeactivated) {
	for _, s := range m.Sinks {
		s.PublishLiquidityProviderDeactivated(e)
	}
}

func (m *Multi) PublishIncentiveProgramCreated(e IncentiveProgramCreated) {
	for _, s := range m.Sinks {
		s.PublishIncentiveProgramCreated(e)
	}
}

func (m *Multi) PublishIncentiveProgramUpdated(e IncentiveProgramUpdated) {
	for _, s := range m.Sinks {
		s.PublishIncentiveProgramUpdated(e)
	}
}

func (m *Multi) PublishCollateralLocked(e CollateralLocked) {
	for _, s := range m.Sinks {
		s.PublishCollateralLocked(e)
	}
}

func (m *Multi) PublishCollateralReleased(e CollateralReleased) {
	for _, s := range m.Sinks {
		s.PublishCollateralReleased(e)
	}
}

func (m *Multi) PublishRewardsPaid(e RewardsPaid) {
	for _, s := range m.Sinks {
		s.PublishRewardsPaid(e)
	}
}

var _ Publisher = (*Multi)(nil)
