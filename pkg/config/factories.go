package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	storebadger "github.com/pagevol/mds/pkg/store/badger"
)

// StoreConfig decodes the generic store section into the badger store's
// own configuration type. Keeping the section generic here lets the store
// implementation define its knobs without this package mirroring them.
func StoreConfig(cfg *Config) (storebadger.Config, error) {
	var storeCfg storebadger.Config
	if err := mapstructure.Decode(cfg.Store, &storeCfg); err != nil {
		return storebadger.Config{}, fmt.Errorf("failed to decode store config: %w", err)
	}
	if !storeCfg.InMemory && storeCfg.Path == "" {
		return storebadger.Config{}, fmt.Errorf("store.path: required unless store.in_memory is set")
	}
	return storeCfg, nil
}
