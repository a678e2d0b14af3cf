package genetic

import (
	"testing"

	"github.com/cepro/eosbess/genome"
	"github.com/stretchr/testify/assert"
)

func smallCodec() genome.Codec {
	return genome.Codec{
		Horizon:      3,
		BatterySpace: genome.ActionSpace{NumChargeRates: 2},
		NumEVRates:   2,
		MaxStartHour: 2,
	}
}

// sumOfGenes is a trivial fitness: minimised by driving every gene to zero, letting the test
// assert the engine actually converges rather than wandering randomly.
func sumOfGenes(codec genome.Codec) EvaluateFunc {
	return func(g *genome.Genome) (float64, error) {
		chrom, err := codec.Encode(*g)
		if err != nil {
			return 0, err
		}
		total := 0.0
		for _, v := range chrom {
			total += float64(v)
		}
		return total, nil
	}
}

func TestRunConvergesTowardLowerFitness(t *testing.T) {
	codec := smallCodec()
	cfg := Config{
		PopulationSize: 30,
		Mu:             10,
		Lambda:         15,
		Cxpb:           0.6,
		Mutpb:          0.4,
		Indpb:          0.3,
		TournamentSize: 3,
		NumGenerations: 20,
		Seed:           42,
	}

	result, err := Run(cfg, codec, sumOfGenes(codec))
	assert.NoError(t, err)
	assert.Equal(t, 0.0, result.BestFitness)
}

func TestRunIsDeterministicForSameSeed(t *testing.T) {
	codec := smallCodec()
	cfg := Config{
		PopulationSize: 20, Mu: 8, Lambda: 10,
		Cxpb: 0.6, Mutpb: 0.4, Indpb: 0.2,
		TournamentSize: 3, NumGenerations: 10, Seed: 7,
	}

	r1, err1 := Run(cfg, codec, sumOfGenes(codec))
	r2, err2 := Run(cfg, codec, sumOfGenes(codec))

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, r1.Best, r2.Best)
	assert.Equal(t, r1.BestFitness, r2.BestFitness)
}

func TestBoundsFromCodec(t *testing.T) {
	codec := smallCodec()
	bounds := BoundsFromCodec(codec)
	assert.Equal(t, codec.Len(), len(bounds))
	assert.Equal(t, 4, bounds[0]) // battery cardinality: idle+discharge+2 ac rates
	assert.Equal(t, 2, bounds[codec.Horizon])
	assert.Equal(t, 3, bounds[2*codec.Horizon])
}
