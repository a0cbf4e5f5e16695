// Package registry maps company names to Issuer handles and allocates
// the security-token asset id for each one. Grounded on the teacher's
// internal/core/ledger/manager.LedgerCache: an LRU sits in front of an
// authoritative map so repeated security-token -> issuer lookups (the
// order book's hot path on every submission) stay O(1) without
// re-scanning the issuer list, per spec §9's design note.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/LeJamon/sekex/internal/events"
	"github.com/LeJamon/sekex/internal/issuer"
	"github.com/LeJamon/sekex/internal/ledger"
)

var (
	ErrOwnerOnly        = errors.New("registry: restricted to registry owner")
	ErrDuplicateCompany = errors.New("registry: company already registered")
)

const lookupCacheSize = 1024

// Registry is the factory and directory of issuers.
type Registry struct {
	mu sync.RWMutex

	owner  ledger.AccountID
	ledger *ledger.Ledger
	pub    events.Publisher

	nextAssetSeq uint64

	byCompany map[string]*issuer.Issuer
	byAsset   map[ledger.AssetID]*issuer.Issuer
	order     []*issuer.Issuer

	lookupCache *lru.Cache[ledger.AssetID, *issuer.Issuer]
}

// New returns an empty Registry. owner gates DeployIssuer and must
// match the Ledger's own owner, since DeployIssuer mints through it.
func New(owner ledger.AccountID, l *ledger.Ledger, pub events.Publisher) *Registry {
	cache, err := lru.New[ledger.AssetID, *issuer.Issuer](lookupCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// lookupCacheSize never is.
		panic(err)
	}
	return &Registry{
		owner:       owner,
		ledger:      l,
		pub:         pub,
		byCompany:   make(map[string]*issuer.Issuer),
		byAsset:     make(map[ledger.AssetID]*issuer.Issuer),
		lookupCache: cache,
	}
}

// DeployIssuer allocates a new security-token asset, mints
// initialSupply to treasury, constructs the Issuer, auto-whitelists
// treasury, and records the company -> issuer mapping. Restricted to
// the registry's owner.
func (r *Registry) DeployIssuer(caller ledger.AccountID, companyName, tokenSymbol string, initialSupply int64, usdt ledger.AssetID, treasury ledger.AccountID) (*issuer.Issuer, error) {
	if caller != r.owner {
		return nil, ErrOwnerOnly
	}
	if companyName == "" {
		return nil, errors.New("registry: company name must be non-empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCompany[companyName]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCompany, companyName)
	}

	seq := atomic.AddUint64(&r.nextAssetSeq, 1)
	security := ledger.AssetID(fmt.Sprintf("%s-%d", tokenSymbol, seq))

	if err := r.ledger.Mint(r.owner, security, treasury, initialSupply); err != nil {
		return nil, fmt.Errorf("registry: minting initial supply: %w", err)
	}

	iss := issuer.New(r.owner, companyName, security, usdt, treasury, r.ledger, r.pub)

	r.byCompany[companyName] = iss
	r.byAsset[security] = iss
	r.order = append(r.order, iss)

	r.pub.PublishExchangeDeployed(events.ExchangeDeployed{
		Owner:       string(r.owner),
		IssuerID:    companyName,
		CompanyName: companyName,
	})
	r.pub.PublishTokenCreated(events.TokenCreated{
		SecurityToken: string(security),
		Name:          companyName,
		Symbol:        tokenSymbol,
		InitialSupply: initialSupply,
	})

	return iss, nil
}

// SetOwner reassigns the registry's restricted-operation owner,
// guarded by the current owner. The mutator behind
// internal/venue.Owner's capability-handle transfer (spec §9).
func (r *Registry) SetOwner(caller, next ledger.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if caller != r.owner {
		return ErrOwnerOnly
	}
	r.owner = next
	return nil
}

// ListIssuers returns every registered issuer, in deployment order.
func (r *Registry) ListIssuers() []*issuer.Issuer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*issuer.Issuer, len(r.order))
	copy(out, r.order)
	return out
}

// LookupByCompany returns the issuer registered under name, or nil.
func (r *Registry) LookupByCompany(name string) *issuer.Issuer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byCompany[name]
}

// LookupBySecurityToken resolves a security-token asset id to its
// issuer in O(1): an LRU cache in front of the authoritative map.
func (r *Registry) LookupBySecurityToken(asset ledger.AssetID) *issuer.Issuer {
	if iss, ok := r.lookupCache.Get(asset); ok {
		return iss
	}

	r.mu.RLock()
	iss, ok := r.byAsset[asset]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	r.lookupCache.Add(asset, iss)
	return iss
}
