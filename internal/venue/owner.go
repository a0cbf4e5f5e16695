package venue

import (
	"sync"

	"github.com/LeJamon/sekex/internal/ledger"
)

// Owner is the process-wide admin capability handle spec §9 asks for:
// a single account whose current holder may reassign it, analogous to
// the teacher's account-root single-key authority model. Venue's
// TransferOwnership is the mutator; Current is read-only.
type Owner struct {
	mu      sync.RWMutex
	current ledger.AccountID
}

func newOwner(initial ledger.AccountID) *Owner {
	return &Owner{current: initial}
}

// Current returns the account presently holding the capability.
func (o *Owner) Current() ledger.AccountID {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}

func (o *Owner) set(next ledger.AccountID) {
	o.mu.Lock()
	o.current = next
	o.mu.Unlock()
}
