package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/instivault/internal/configs"
	"github.com/PolarWolf314/instivault/internal/store"
)

// StatusOptions configures the status workflow.
type StatusOptions struct {
	Store store.RecordStore
}

// StatusResult describes who backups are locked to and what they would contain.
type StatusResult struct {
	Identity       string
	IdentitySource configs.IdentitySource

	ConfigPath   string
	ConfigExists bool

	Driver string

	// Counts is the number of records per collection owned by Identity.
	Counts map[string]int
	Total  int
}

// Status reports the current identity and record counts. Restore uses the
// same counting to refresh state after writing.
func Status(ctx context.Context, opts StatusOptions) (*StatusResult, error) {
	sess, err := openSession(ctx, opts.Store)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	counts, err := countRecords(ctx, sess.store, sess.identity)
	if err != nil {
		return nil, err
	}

	result := &StatusResult{
		Identity:       sess.identity,
		IdentitySource: sess.source,
		ConfigPath:     configs.UserInstivaultSettings.ConfigFilePath(),
		ConfigExists:   configs.UserConfigExists(),
		Driver:         sess.config.Store.Driver,
		Counts:         counts,
	}
	for _, n := range counts {
		result.Total += n
	}

	return result, nil
}

func countRecords(ctx context.Context, st store.RecordStore, identity string) (map[string]int, error) {
	counts := make(map[string]int, len(store.Collections))
	for _, name := range store.Collections {
		recs, err := st.Select(ctx, name, store.Filter{Owner: identity})
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", name, err)
		}
		counts[name] = len(recs)
	}
	return counts, nil
}
