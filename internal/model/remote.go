package model

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/biryani-api/internal/metrics"
	"github.com/Brownie44l1/biryani-api/internal/store"
)

// DescriptorPathKey names the persisted local descriptor path.
const DescriptorPathKey = "biryani.model.path"

// RemoteProvider downloads the descriptor and weights on first use and loads
// the local copy afterwards. A persisted path is trusted as is: the remote
// artifacts are not checked for changes.
type RemoteProvider struct {
	DescriptorURL string
	WeightsURL    string
	CacheDir      string
	Store         store.Store
	Runtime       Runtime
	Client        *http.Client
	Progress      ProgressFunc
}

func (p *RemoteProvider) Acquire(ctx context.Context) (*Handle, error) {
	start := time.Now()

	descriptorPath, err := p.Store.Get(ctx, DescriptorPathKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		descriptorPath, err = p.fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoad, err)
		}
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	default:
		log.Debug().Str("descriptor", descriptorPath).Msg("using cached model")
	}

	h, err := p.load(descriptorPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	metrics.Timing("model.load", time.Since(start), []string{"strategy:remote"})
	return h, nil
}

func (p *RemoteProvider) fetch(ctx context.Context) (string, error) {
	if p.DescriptorURL == "" || p.WeightsURL == "" {
		return "", errors.New("remote model URLs are not configured")
	}
	if err := os.MkdirAll(p.CacheDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	descriptorPath, err := filepath.Abs(filepath.Join(p.CacheDir, DefaultDescriptorFile))
	if err != nil {
		return "", err
	}
	if _, err := download(ctx, client, p.DescriptorURL, descriptorPath, p.Progress); err != nil {
		return "", err
	}
	metrics.Count("model.download", 1, []string{"file:descriptor"})

	meta, err := readMetadataFile(descriptorPath)
	if err != nil {
		return "", err
	}

	weightsPath := filepath.Join(filepath.Dir(descriptorPath), meta.Weights)
	n, err := download(ctx, client, p.WeightsURL, weightsPath, p.Progress)
	if err != nil {
		return "", err
	}
	metrics.Count("model.download", 1, []string{"file:weights"})

	if err := p.Store.Set(ctx, DescriptorPathKey, descriptorPath); err != nil {
		return "", err
	}

	log.Info().
		Str("descriptor", descriptorPath).
		Str("weights", weightsPath).
		Int64("weights_bytes", n).
		Msg("model downloaded")
	return descriptorPath, nil
}

func (p *RemoteProvider) load(descriptorPath string) (*Handle, error) {
	meta, err := readMetadataFile(descriptorPath)
	if err != nil {
		return nil, err
	}

	weightsPath := filepath.Join(filepath.Dir(descriptorPath), meta.Weights)
	if _, err := os.Stat(weightsPath); err != nil {
		return nil, fmt.Errorf("failed to find weights: %w", err)
	}

	scorer, err := p.Runtime.LoadFile(meta, weightsPath)
	if err != nil {
		return nil, err
	}
	return NewHandle(meta, scorer), nil
}

func readMetadataFile(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	return ParseMetadata(raw)
}
