// Package venue wires Ledger, Registry, OrderBook, and Incentive into
// the single running exchange process: one owner account, one event
// sink fanning out to the audit trail and (optionally) the websocket
// broadcaster, one snapshot backend, and the single-in-flight-mutation
// gate spec §5 requires. Grounded on the teacher's
// internal/peermanagement.Overlay (the central orchestrator wiring
// component lifecycles together) and internal/core/ledger/service
// (the facade a CLI command constructs and drives).
package venue

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/LeJamon/sekex/internal/audit"
	"github.com/LeJamon/sekex/internal/clock"
	"github.com/LeJamon/sekex/internal/config"
	"github.com/LeJamon/sekex/internal/eventstream"
	"github.com/LeJamon/sekex/internal/events"
	"github.com/LeJamon/sekex/internal/incentive"
	"github.com/LeJamon/sekex/internal/ledger"
	"github.com/LeJamon/sekex/internal/orderbook"
	"github.com/LeJamon/sekex/internal/registry"
	"github.com/LeJamon/sekex/internal/storage"
)

var (
	ErrOwnerOnly     = errors.New("venue: restricted to venue owner")
	ErrZeroAccount   = errors.New("venue: account must be non-zero")
	ErrUnknownToken  = errors.New("venue: unknown security token")
	ErrUnknownCompany = errors.New("venue: unknown company")
)

// Venue wires the four core modules behind the single-in-flight-
// mutation gate spec §5 requires (no nested submit/cancel/claim
// re-entry), plus the snapshot/audit/eventstream ambient stack
// SPEC_FULL adds. Every mutating Venue method acquires the gate for
// its duration; read-only views go straight to the underlying module,
// since spec §5 only restricts re-entrant *writes*.
type Venue struct {
	gate *semaphore.Weighted

	Ledger    *ledger.Ledger
	Registry  *registry.Registry
	Books     *orderbook.OrderBook
	Incentive *incentive.Incentive

	Owner  *Owner
	Clock  clock.Clock
	Stream *eventstream.Broadcaster

	store storage.Backend
	trail *audit.Trail
	sink  *audit.Sink

	usdt ledger.AssetID
}

// New constructs a fully wired Venue from cfg: a Ledger, Registry,
// OrderBook, and Incentive module sharing one owner account and one
// event sink (the audit trail, plus the websocket broadcaster when
// enabled), and the configured snapshot backend opened and ready for
// SaveSnapshot/LoadSnapshot.
func New(ctx context.Context, cfg *config.Config) (*Venue, error) {
	owner := ledger.AccountID(cfg.Owner)
	usdt := ledger.AssetID(cfg.USDTAsset)
	obEscrow := ledger.AccountID(cfg.EscrowOB)
	incEscrow := ledger.AccountID(cfg.EscrowIncent)
	feeCollector := ledger.AccountID(cfg.FeeCollector)

	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("venue: opening storage backend: %w", err)
	}

	trail, err := audit.Open(ctx, cfg.Audit.Driver, cfg.Audit.DSN)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("venue: opening audit trail: %w", err)
	}

	clk := clock.System{}
	sink := audit.NewSink(trail, clk.Now)

	var pub events.Publisher = sink
	var stream *eventstream.Broadcaster
	if cfg.Stream.Enabled {
		stream = eventstream.New()
		pub = events.NewMulti(sink, stream)
	}

	l := ledger.New(owner)
	reg := registry.New(owner, l, pub)
	ob := orderbook.New(owner, l, reg, obEscrow, feeCollector, clk, pub)
	if err := ob.SetTradingFeeBps(owner, cfg.TradingFeeBps); err != nil {
		trail.Close()
		store.Close()
		return nil, fmt.Errorf("venue: setting trading fee: %w", err)
	}
	inc := incentive.New(owner, l, reg, ob, usdt, incEscrow, clk, pub)

	return &Venue{
		gate:      semaphore.NewWeighted(1),
		Ledger:    l,
		Registry:  reg,
		Books:     ob,
		Incentive: inc,
		Owner:     newOwner(owner),
		Clock:     clk,
		Stream:    stream,
		store:     store,
		trail:     trail,
		sink:      sink,
		usdt:      usdt,
	}, nil
}

// Run starts the venue's background workers — currently the audit
// sink's flush loop, mirroring the teacher's worker-group pattern in
// internal/peermanagement.Overlay — and blocks until ctx is
// cancelled.
func (v *Venue) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return v.sink.Run(ctx) })
	return g.Wait()
}

// Close releases the venue's storage backend, audit trail, and (if
// enabled) websocket broadcaster.
func (v *Venue) Close() error {
	if v.Stream != nil {
		v.Stream.Close()
	}
	if err := v.trail.Close(); err != nil {
		v.store.Close()
		return fmt.Errorf("venue: closing audit trail: %w", err)
	}
	if err := v.store.Close(); err != nil {
		return fmt.Errorf("venue: closing storage backend: %w", err)
	}
	return nil
}

// SaveSnapshot persists the Ledger's balances and per-asset supply to
// the configured storage backend: the value state Ledger owns (spec
// §3), and the only state a restart cannot safely re-derive. Issuer
// and OrderBook bookkeeping (whitelists, dividend pool accounting,
// resting orders) are intentionally not snapshotted; see DESIGN.md's
// Open Questions for why.
func (v *Venue) SaveSnapshot(ctx context.Context) error {
	if err := v.enter(ctx); err != nil {
		return err
	}
	defer v.leave()
	return storage.SaveLedger(v.store, v.Ledger)
}

// LoadSnapshot restores the Ledger from the configured storage
// backend, if a snapshot exists.
func (v *Venue) LoadSnapshot(ctx context.Context) (bool, error) {
	if err := v.enter(ctx); err != nil {
		return false, err
	}
	defer v.leave()
	return storage.LoadLedger(v.store, v.Ledger)
}

// enter acquires the single-in-flight-mutation gate; leave releases
// it. Every mutating Venue method brackets its work this way so no
// nested submit/cancel/claim call can re-enter while one is already
// executing (spec §5), even when the host multiplexes many goroutines
// onto one Venue.
func (v *Venue) enter(ctx context.Context) error {
	return v.gate.Acquire(ctx, 1)
}

func (v *Venue) leave() { v.gate.Release(1) }
