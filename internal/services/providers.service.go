package services

import (
	"context"
	"math/rand/v2"
	"sync"

	"healthwatch/internal/models"
)

// ProviderProber reports the status of a single cloud provider.
type ProviderProber interface {
	Probe(ctx context.Context, provider string) (models.ProviderStatus, error)
}

// ProbeProviders probes each provider in turn. A failed probe is recorded as
// DEGRADED with no instances instead of dropping the provider.
func ProbeProviders(ctx context.Context, prober ProviderProber, providers []string) map[string]models.ProviderStatus {
	statuses := make(map[string]models.ProviderStatus, len(providers))
	for _, name := range providers {
		status, err := prober.Probe(ctx, name)
		if err != nil {
			statuses[name] = models.ProviderStatus{
				Health: models.HealthDegraded,
				Error:  err.Error(),
			}
			continue
		}
		statuses[name] = status
	}
	return statuses
}

// SimulatedProviders stands in for cloud APIs: 5-14 instances, uniform load
// and a 10% chance of being degraded.
type SimulatedProviders struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulatedProviders(rng *rand.Rand) *SimulatedProviders {
	return &SimulatedProviders{rng: rng}
}

func (s *SimulatedProviders) Probe(ctx context.Context, provider string) (models.ProviderStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.ProviderStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	health := models.HealthHealthy
	if s.rng.Float64() <= 0.1 {
		health = models.HealthDegraded
	}

	return models.ProviderStatus{
		Instances:   s.rng.IntN(10) + 5,
		LoadPercent: s.rng.Float64() * 100,
		Health:      health,
	}, nil
}
