package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/instivault/internal/configs"
	"github.com/PolarWolf314/instivault/internal/store"
)

// session is the state every store-backed workflow starts from.
type session struct {
	config   *configs.UserConfig
	identity string
	source   configs.IdentitySource
	store    store.RecordStore
	close    func() error
}

// openSession loads config, resolves the identity and opens the configured
// record store unless st is provided. Callers must call close.
func openSession(ctx context.Context, st store.RecordStore) (*session, error) {
	userConfig, err := configs.LoadUserConfig()
	if err != nil {
		return nil, fmt.Errorf("loading user config: %w", err)
	}

	identity, source := configs.ResolveIdentity(userConfig)

	s := &session{
		config:   userConfig,
		identity: identity,
		source:   source,
		store:    st,
		close:    func() error { return nil },
	}

	if s.store == nil {
		sqlStore, err := store.Open(ctx, userConfig.Store.Driver, userConfig.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", userConfig.Store.Driver, err)
		}
		s.store = sqlStore
		s.close = sqlStore.Close
	}

	return s, nil
}
