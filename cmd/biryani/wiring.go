package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/Brownie44l1/biryani-api/internal/config"
	"github.com/Brownie44l1/biryani-api/internal/model"
	"github.com/Brownie44l1/biryani-api/internal/store"
)

// components owns everything built from config that needs closing.
type components struct {
	runtime  *model.ONNXRuntime
	store    store.Store
	provider model.Provider
}

func (c *components) Close() {
	if c.store != nil {
		_ = c.store.Close()
	}
	if c.runtime != nil {
		_ = c.runtime.Close()
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	return store.Open(ctx, store.Options{
		Driver:     cfg.Store.Driver,
		SQLitePath: cfg.Store.SQLitePath,
		RedisAddr:  cfg.Store.RedisAddr,
		RedisDB:    cfg.Store.RedisDB,
	})
}

// buildProvider picks the model strategy from config. progress may be nil.
func buildProvider(ctx context.Context, cfg *config.Config, progress model.ProgressFunc) (*components, error) {
	runtime, err := model.NewONNXRuntime(cfg.Model.ORTLibrary)
	if err != nil {
		return nil, err
	}
	c := &components{runtime: runtime}

	switch cfg.Model.Strategy {
	case config.StrategyBundled:
		c.provider = &model.BundledProvider{
			FS:         os.DirFS(cfg.Model.BundleDir),
			Descriptor: cfg.Model.Descriptor,
			Runtime:    runtime,
		}
	case config.StrategyRemote:
		kv, err := openStore(ctx, cfg)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.store = kv
		c.provider = &model.RemoteProvider{
			DescriptorURL: cfg.Model.Remote.DescriptorURL,
			WeightsURL:    cfg.Model.Remote.WeightsURL,
			CacheDir:      cfg.Model.Remote.CacheDir,
			Store:         kv,
			Runtime:       runtime,
			Client:        &http.Client{Timeout: cfg.Model.Remote.Timeout},
			Progress:      progress,
		}
	default:
		c.Close()
		return nil, fmt.Errorf("unknown model strategy %q", cfg.Model.Strategy)
	}
	return c, nil
}
