package services

import (
	"context"
	"math/rand/v2"
	"time"

	"healthwatch/internal/models"
)

// SimulatedSampler generates synthetic readings. Seeded, so two samplers
// with the same seed produce the same sequence of values.
type SimulatedSampler struct {
	rng       *rand.Rand
	providers []string
	prober    *SimulatedProviders
	now       func() time.Time
}

func NewSimulatedSampler(providers []string, seed uint64) *SimulatedSampler {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &SimulatedSampler{
		rng:       rng,
		providers: providers,
		prober:    NewSimulatedProviders(rng),
		now:       time.Now,
	}
}

func (s *SimulatedSampler) Sample(ctx context.Context) (models.Snapshot, error) {
	snap := models.Snapshot{Timestamp: s.now()}

	// the prober shares rng, so its lock guards the draws below too
	if len(s.providers) > 0 {
		snap.Providers = ProbeProviders(ctx, s.prober, s.providers)
	}

	s.prober.mu.Lock()
	snap.CPU = models.Float(s.rng.Float64() * 100)
	snap.Memory = models.Float(s.rng.Float64() * 100)
	snap.Disk = models.Float(s.rng.Float64() * 100)
	snap.Traffic = models.Float(s.rng.Float64() * 1000)
	s.prober.mu.Unlock()

	return snap, nil
}
