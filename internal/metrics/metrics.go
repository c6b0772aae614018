package metrics

import (
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"
)

// It is safe to use one client from multiple goroutines.
var client statsd.ClientInterface = &statsd.NoOpClient{}

// Init points the package client at a statsd agent. An empty address keeps
// the no-op client.
func Init(addr string, tags []string) error {
	if addr == "" {
		return nil
	}
	c, err := statsd.New(addr, statsd.WithTags(tags))
	if err != nil {
		return err
	}
	client = c
	log.Info().Str("addr", addr).Strs("tags", tags).Msg("metrics client initialized")
	return nil
}

// SetClient swaps the package client and returns the previous one.
func SetClient(c statsd.ClientInterface) statsd.ClientInterface {
	prev := client
	client = c
	return prev
}

func Close() error {
	return client.Close()
}

func Timing(name string, value time.Duration, tags []string) {
	if err := client.Timing(name, value, tags, 1); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("statsd timing failed")
	}
}

func Count(name string, value int64, tags []string) {
	if err := client.Count(name, value, tags, 1); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("statsd count failed")
	}
}

func Gauge(name string, value float64, tags []string) {
	if err := client.Gauge(name, value, tags, 1); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("statsd gauge failed")
	}
}
