package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/LeJamon/sekex/internal/venue"
)

// openVenue constructs a Venue from the loaded configuration and
// restores its last saved Ledger snapshot, if any. The returned close
// function saves a fresh snapshot and releases the venue's resources;
// every one-shot subcommand defers it immediately after opening.
func openVenue(ctx context.Context) (*venue.Venue, func(), error) {
	v, err := venue.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening venue: %w", err)
	}
	if _, err := v.LoadSnapshot(ctx); err != nil {
		v.Close()
		return nil, nil, fmt.Errorf("loading snapshot: %w", err)
	}

	closeFn := func() {
		if err := v.SaveSnapshot(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: saving snapshot: %v\n", err)
		}
		if err := v.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing venue: %v\n", err)
		}
	}
	return v, closeFn, nil
}

// fatalf reports err and exits, matching the teacher's log.Fatal
// convention for unrecoverable CLI errors.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
