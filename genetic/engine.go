// Package genetic implements the μ+λ evolutionary search genetic.py builds with DEAP: a
// population of integer chromosomes evolved by tournament selection, two-point crossover, and
// segment-wise uniform-integer mutation, tracking a single best-ever individual (DEAP's
// HallOfFame(1)).
//
// No Go genetic-algorithm library appears anywhere in the retrieved example pack (five full repos
// plus other_examples/), and DEAP itself has no Go equivalent to import, so this package is
// stdlib-only by necessity rather than by choice — see DESIGN.md.
package genetic

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/cepro/eosbess/genome"
)

// Config holds the GA's tunable parameters. Field names and defaults follow genetic.py's
// setup_deap_environment/optimization constants directly.
type Config struct {
	PopulationSize int     // default 300
	Mu             int     // number of parents kept each generation, default 100
	Lambda         int     // number of offspring produced each generation, default 150
	Cxpb           float64 // probability an offspring is produced by crossover, default 0.6
	Mutpb          float64 // probability an offspring is mutated, default 0.4
	Indpb          float64 // per-gene probability of mutation when an individual is mutated, default 0.2
	TournamentSize int     // default 3
	NumGenerations int     // default 400
	Seed           int64   // seeds the engine's RNG; same seed + same inputs always produces the same plan
}

// DefaultConfig returns genetic.py's constants.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 300,
		Mu:             100,
		Lambda:         150,
		Cxpb:           0.6,
		Mutpb:          0.4,
		Indpb:          0.2,
		TournamentSize: 3,
		NumGenerations: 400,
		Seed:           1,
	}
}

// GeneBounds gives the exclusive upper bound for each position in the chromosome, used both to
// draw the initial population and to redraw a gene during mutation. It is derived from a
// genome.Codec's gene alphabets rather than hardcoded, so the engine has no domain knowledge of
// what a gene means.
type GeneBounds []int

// BoundsFromCodec returns the GeneBounds matching codec's layout. EV gene positions within the
// locked tail (codec.EVLockedFrom) get bound 0, so randomChromosome always draws 0 there and
// mutate never redraws them away from 0 (see mutate's bounds[i] <= 0 guard below) — the same
// "EV charging locked outside the optimization window" invariant genetic.py's mutate() enforces by
// re-zeroing the tail after mutation, enforced here by construction instead. codec.Decode applies
// the same zeroing defensively to any chromosome this engine did not itself produce.
func BoundsFromCodec(codec genome.Codec) GeneBounds {
	bounds := make(GeneBounds, codec.Len())
	for i := 0; i < codec.Horizon; i++ {
		bounds[i] = codec.BatterySpace.Cardinality()
	}
	lockedFrom := codec.EVLockedFrom()
	for i := 0; i < codec.Horizon; i++ {
		if i >= lockedFrom {
			bounds[codec.Horizon+i] = 0
			continue
		}
		bounds[codec.Horizon+i] = codec.NumEVRates
	}
	startSpan := codec.MaxStartHour - codec.MinStartHour + 1
	if startSpan <= 0 {
		startSpan = 1
	}
	bounds[2*codec.Horizon] = startSpan
	return bounds
}

// EvaluateFunc scores a Genome, possibly repairing it in place (package fitness.Evaluator.Evaluate
// satisfies this signature once its Result return value is discarded by the caller).
type EvaluateFunc func(*genome.Genome) (float64, error)

type individual struct {
	chrom   genome.Chromosome
	fitness float64
}

// Result is the outcome of one optimizer run: the best genome found and its fitness.
type Result struct {
	Best        genome.Genome
	BestFitness float64
	Generations int
}

// Run executes the μ+λ search and returns the best individual found, decoded via codec.
func Run(cfg Config, codec genome.Codec, evaluate EvaluateFunc) (Result, error) {
	if cfg.PopulationSize <= 0 || cfg.Mu <= 0 || cfg.Lambda <= 0 {
		return Result{}, fmt.Errorf("population size, mu and lambda must all be positive")
	}

	bounds := BoundsFromCodec(codec)
	rng := rand.New(rand.NewSource(cfg.Seed))

	evalChrom := func(chrom genome.Chromosome) (float64, error) {
		g := codec.Decode(chrom)
		fit, err := evaluate(&g)
		if err != nil {
			return 0, err
		}
		// the evaluator may have repaired g in place; re-encode so the chromosome driving future
		// crossover/mutation reflects the repair, matching genetic.py's in-place individual
		// mutation during evaluate_inner.
		repaired, err := codec.Encode(g)
		if err == nil {
			copy(chrom, repaired)
		}
		return fit, nil
	}

	population := make([]individual, cfg.PopulationSize)
	for i := range population {
		chrom := randomChromosome(bounds, rng)
		fit, err := evalChrom(chrom)
		if err != nil {
			return Result{}, fmt.Errorf("evaluate initial individual %d: %w", i, err)
		}
		population[i] = individual{chrom: chrom, fitness: fit}
	}

	best := bestOf(population)

	for gen := 0; gen < cfg.NumGenerations; gen++ {
		parents := selectTournament(population, cfg.Mu, cfg.TournamentSize, rng)

		offspring := make([]individual, 0, cfg.Lambda)
		for len(offspring) < cfg.Lambda {
			p1 := parents[rng.Intn(len(parents))]
			p2 := parents[rng.Intn(len(parents))]

			var child genome.Chromosome
			if rng.Float64() < cfg.Cxpb {
				c1, _ := twoPointCrossover(p1.chrom, p2.chrom, rng)
				child = c1
			} else {
				child = cloneChromosome(p1.chrom)
			}

			if rng.Float64() < cfg.Mutpb {
				mutate(child, bounds, cfg.Indpb, rng)
			}

			fit, err := evalChrom(child)
			if err != nil {
				return Result{}, fmt.Errorf("evaluate offspring at generation %d: %w", gen, err)
			}
			offspring = append(offspring, individual{chrom: child, fitness: fit})
		}

		// μ+λ replacement: the next generation is the best Mu individuals drawn from parents and
		// offspring combined, so a generation can never regress below its best-seen parent.
		combined := append(append([]individual{}, parents...), offspring...)
		sort.Slice(combined, func(i, j int) bool { return combined[i].fitness < combined[j].fitness })
		if len(combined) > cfg.Mu {
			combined = combined[:cfg.Mu]
		}
		population = combined

		if candidate := bestOf(population); candidate.fitness < best.fitness {
			best = candidate
		}
	}

	bestGenome := codec.Decode(best.chrom)
	return Result{Best: bestGenome, BestFitness: best.fitness, Generations: cfg.NumGenerations}, nil
}

func bestOf(pop []individual) individual {
	best := pop[0]
	for _, ind := range pop[1:] {
		if ind.fitness < best.fitness {
			best = ind
		}
	}
	return best
}

func randomChromosome(bounds GeneBounds, rng *rand.Rand) genome.Chromosome {
	chrom := make(genome.Chromosome, len(bounds))
	for i, b := range bounds {
		if b <= 0 {
			chrom[i] = 0
			continue
		}
		chrom[i] = rng.Intn(b)
	}
	return chrom
}

func cloneChromosome(c genome.Chromosome) genome.Chromosome {
	clone := make(genome.Chromosome, len(c))
	copy(clone, c)
	return clone
}

// selectTournament runs n independent tournaments of size tournSize and returns the winners
// (lowest fitness each), following genetic.py's tools.selTournament usage.
func selectTournament(pop []individual, n, tournSize int, rng *rand.Rand) []individual {
	winners := make([]individual, n)
	for i := 0; i < n; i++ {
		best := pop[rng.Intn(len(pop))]
		for j := 1; j < tournSize; j++ {
			candidate := pop[rng.Intn(len(pop))]
			if candidate.fitness < best.fitness {
				best = candidate
			}
		}
		winners[i] = best
	}
	return winners
}

// twoPointCrossover swaps the segment between two random cut points between a and b, following
// DEAP's cxTwoPoint (used by genetic.py's mate operator).
func twoPointCrossover(a, b genome.Chromosome, rng *rand.Rand) (genome.Chromosome, genome.Chromosome) {
	n := len(a)
	c1, c2 := cloneChromosome(a), cloneChromosome(b)
	if n < 2 {
		return c1, c2
	}

	p1 := rng.Intn(n)
	p2 := rng.Intn(n - 1)
	if p2 >= p1 {
		p2++
	} else {
		p1, p2 = p2, p1
	}

	for i := p1; i < p2; i++ {
		c1[i], c2[i] = c2[i], c1[i]
	}

	return c1, c2
}

// mutate applies DEAP-style segment-wise uniform-integer mutation: each gene is independently
// redrawn within its valid bound with probability indpb.
func mutate(chrom genome.Chromosome, bounds GeneBounds, indpb float64, rng *rand.Rand) {
	for i := range chrom {
		if rng.Float64() >= indpb {
			continue
		}
		if bounds[i] <= 0 {
			continue
		}
		chrom[i] = rng.Intn(bounds[i])
	}
}
