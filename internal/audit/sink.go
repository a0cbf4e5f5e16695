package audit

import (
	"context"
	"log"

	"github.com/LeJamon/sekex/internal/events"
)

const sinkBuffer = 1024

// eventRecord is one pending row waiting to be flushed to the Trail.
type eventRecord struct {
	kind    string
	payload any
}

// Sink adapts events.Publisher onto a Trail: every Publish call
// enqueues a record and returns immediately, so a slow or momentarily
// unavailable database never blocks a core mutation (spec §7's
// "publication happens after every write has committed" still holds —
// only the durable recording of that publication is asynchronous).
// Grounded on internal/eventstream.Broadcaster's client send-channel
// pattern, applied here to a single background writer instead of many
// per-connection ones.
type Sink struct {
	trail   *Trail
	nowFunc func() int64
	records chan eventRecord
}

// NewSink returns a Sink that appends to trail, stamping each record
// with nowFunc() at enqueue time.
func NewSink(trail *Trail, nowFunc func() int64) *Sink {
	return &Sink{
		trail:   trail,
		nowFunc: nowFunc,
		records: make(chan eventRecord, sinkBuffer),
	}
}

// Run drains enqueued records into the Trail until ctx is cancelled.
// Intended to run under errgroup alongside the venue's other
// background workers.
func (s *Sink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case rec := <-s.records:
			if err := s.trail.Append(ctx, rec.kind, rec.payload, s.nowFunc()); err != nil {
				log.Printf("audit: appending %s event: %v", rec.kind, err)
			}
		}
	}
}

func (s *Sink) enqueue(kind string, payload any) {
	select {
	case s.records <- eventRecord{kind: kind, payload: payload}:
	default:
		log.Printf("audit: dropping %s event, sink buffer full", kind)
	}
}

func (s *Sink) PublishExchangeDeployed(e events.ExchangeDeployed) {
	s.enqueue("ExchangeDeployed", e)
}

func (s *Sink) PublishTokenCreated(e events.TokenCreated) {
	s.enqueue("TokenCreated", e)
}

func (s *Sink) PublishShareholderWhitelisted(e events.ShareholderWhitelisted) {
	s.enqueue("ShareholderWhitelisted", e)
}

func (s *Sink) PublishDividendsDistributed(e events.DividendsDistributed) {
	s.enqueue("DividendsDistributed", e)
}

func (s *Sink) PublishDividendClaimed(e events.DividendClaimed) {
	s.enqueue("DividendClaimed", e)
}

func (s *Sink) PublishGovernanceVoteCasted(e events.GovernanceVoteCasted) {
	s.enqueue("GovernanceVoteCasted", e)
}

func (s *Sink) PublishTokensTransferred(e events.TokensTransferred) {
	s.enqueue("TokensTransferred", e)
}

func (s *Sink) PublishOrderCreated(e events.OrderCreated) {
	s.enqueue("OrderCreated", e)
}

func (s *Sink) PublishOrderFilled(e events.OrderFilled) {
	s.enqueue("OrderFilled", e)
}

func (s *Sink) PublishOrderCancelled(e events.OrderCancelled) {
	s.enqueue("OrderCancelled", e)
}

func (s *Sink) PublishFeesCollected(e events.FeesCollected) {
	s.enqueue("FeesCollected", e)
}

func (s *Sink) PublishLiquidityProviderRegistered(e events.LiquidityProviderRegistered) {
	s.enqueue("LiquidityProviderRegistered", e)
}

func (s *Sink) PublishLiquidityProviderDeactivated(e events.LiquidityProviderDeactivated) {
	s.enqueue("LiquidityProviderDeactivated", e)
}

func (s *Sink) PublishIncentiveProgramCreated(e events.IncentiveProgramCreated) {
	s.enqueue("IncentiveProgramCreated", e)
}

func (s *Sink) PublishIncentiveProgramUpdated(e events.IncentiveProgramUpdated) {
	s.enqueue("IncentiveProgramUpdated", e)
}

func (s *Sink) PublishCollateralLocked(e events.CollateralLocked) {
	s.enqueue("CollateralLocked", e)
}

func (s *Sink) PublishCollateralReleased(e events.CollateralReleased) {
	s.enqueue("CollateralReleased", e)
}

func (s *Sink) PublishRewardsPaid(e events.RewardsPaid) {
	s.enqueue("RewardsPaid", e)
}

var _ events.Publisher = (*Sink)(nil)
