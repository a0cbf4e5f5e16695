package storage

import (
	"encoding/json"
	"fmt"

	"github.com/LeJamon/sekex/internal/ledger"
)

// ledgerSnapshotKey is the single key under which the whole Ledger
// balance/supply table is stored: the venue is a single process-wide
// Ledger, not a sharded store, so one blob per snapshot is sufficient.
const ledgerSnapshotKey = "ledger/v1"

// ledgerSnapshot is the on-disk shape of a Ledger: the balances and
// supply maps, exactly what Ledger.Balances/Restore operate on.
type ledgerSnapshot struct {
	Balances map[ledger.AssetID]map[ledger.AccountID]int64 `json:"balances"`
	Supply   map[ledger.AssetID]int64                      `json:"supply"`
}

// SaveLedger serializes l's balances and per-asset supply to b under a
// fixed key, overwriting any prior snapshot.
func SaveLedger(b Backend, l *ledger.Ledger) error {
	snap := ledgerSnapshot{Balances: l.Balances(), Supply: supplyOf(l, l.Balances())}
	blob, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("storage: marshalling ledger snapshot: %w", err)
	}
	return b.Put([]byte(ledgerSnapshotKey), blob)
}

// LoadLedger restores l's balances and supply from b's snapshot, if
// one exists. Returns (false, nil) if no snapshot has been saved yet.
func LoadLedger(b Backend, l *ledger.Ledger) (bool, error) {
	blob, err := b.Get([]byte(ledgerSnapshotKey))
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("storage: reading ledger snapshot: %w", err)
	}

	var snap ledgerSnapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return false, fmt.Errorf("storage: unmarshalling ledger snapshot: %w", err)
	}
	l.Restore(snap.Balances, snap.Supply)
	return true, nil
}

// supplyOf reconstructs the per-asset supply map. Ledger.Balances
// already gives per-account balances; supply is the sum, but asking
// the ledger directly for each asset keeps this exact rather than
// reconstituted from possibly-filtered balances.
func supplyOf(l *ledger.Ledger, balances map[ledger.AssetID]map[ledger.AccountID]int64) map[ledger.AssetID]int64 {
	out := make(map[ledger.AssetID]int64, len(balances))
	for asset := range balances {
		out[asset] = l.TotalSupply(asset)
	}
	return out
}
