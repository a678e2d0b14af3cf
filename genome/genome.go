package genome

import "fmt"

// Genome is the decoded, typed form of one individual: segment A (per-hour battery action),
// segment B (per-hour EV charge-rate index), and segment C (single appliance start hour), matching
// genetic.py's three-part chromosome (battery genes, ev genes, appliance start gene).
type Genome struct {
	Battery            []BatteryAction
	EVRateIndex        []int
	ApplianceStartHour int
}

// Chromosome is the flat integer slice the genetic engine actually performs crossover and
// mutation on: len(Battery) battery genes, followed by len(EVRateIndex) EV genes, followed by the
// single appliance-start gene. Keeping the flat/typed conversion in one place (Codec) means the GA
// engine never needs to know what a gene "means".
type Chromosome []int

// Codec converts between a Genome and the Chromosome the GA engine mutates, given the per-site
// gene alphabets.
type Codec struct {
	Horizon      int
	BatterySpace ActionSpace
	NumEVRates   int // cardinality of the EV rate-index gene, i.e. len(devices.EV.ChargeRates)

	// OptimizationHours is the length of the EV's executable optimization window, counted from
	// hour 0 of the horizon (spec §3.1/§6.5's optimization.horizon_hours). EV genes at positions
	// [OptimizationHours, Horizon) are the "locked tail" (spec §3.4/§4.3/§4.5): EV charging is not
	// under GA control there, so Decode always forces those positions to rate index 0, regardless
	// of the raw gene value. A value <= 0 or >= Horizon means no lock at all (the EV is
	// controllable across the whole horizon).
	OptimizationHours int

	MinStartHour int // inclusive lower bound for the appliance start-hour gene
	MaxStartHour int // inclusive upper bound for the appliance start-hour gene
}

func (c Codec) Len() int {
	return c.Horizon*2 + 1
}

// EVLockedFrom returns the first horizon index whose EV gene is locked to 0, i.e. the start of the
// locked tail described on OptimizationHours.
func (c Codec) EVLockedFrom() int {
	if c.OptimizationHours <= 0 || c.OptimizationHours >= c.Horizon {
		return c.Horizon
	}
	return c.OptimizationHours
}

// applianceStartSpan is the number of distinct values the appliance start-hour gene can take.
func (c Codec) applianceStartSpan() int {
	span := c.MaxStartHour - c.MinStartHour + 1
	if span <= 0 {
		return 1
	}
	return span
}

func (c Codec) Encode(g Genome) (Chromosome, error) {
	if len(g.Battery) != c.Horizon {
		return nil, fmt.Errorf("genome has %d battery genes, want %d", len(g.Battery), c.Horizon)
	}
	if len(g.EVRateIndex) != c.Horizon {
		return nil, fmt.Errorf("genome has %d ev genes, want %d", len(g.EVRateIndex), c.Horizon)
	}

	chrom := make(Chromosome, 0, c.Len())
	for _, a := range g.Battery {
		v, err := c.BatterySpace.Encode(a)
		if err != nil {
			return nil, fmt.Errorf("encode battery gene: %w", err)
		}
		chrom = append(chrom, v)
	}
	for _, r := range g.EVRateIndex {
		chrom = append(chrom, r)
	}
	chrom = append(chrom, g.ApplianceStartHour-c.MinStartHour)

	return chrom, nil
}

// Decode converts a raw Chromosome into a Genome. Every gene is reduced into its valid range, so
// Decode never errors — this is what lets the GA engine produce and mutate chromosomes with plain
// uniform-integer draws and always get back a legal (if not yet fitness-repaired) Genome. EV genes
// past EVLockedFrom are defensively forced to 0 regardless of the raw gene value (spec §4.3: "Positions
// in B within the non-optimization window are zeroed (defensive)").
func (c Codec) Decode(chrom Chromosome) Genome {
	g := Genome{
		Battery:     make([]BatteryAction, c.Horizon),
		EVRateIndex: make([]int, c.Horizon),
	}

	for i := 0; i < c.Horizon; i++ {
		g.Battery[i] = c.BatterySpace.Decode(chrom[i])
	}
	lockedFrom := c.EVLockedFrom()
	for i := 0; i < c.Horizon; i++ {
		if i >= lockedFrom {
			g.EVRateIndex[i] = 0
			continue
		}
		g.EVRateIndex[i] = reduceMod(chrom[c.Horizon+i], c.NumEVRates)
	}
	g.ApplianceStartHour = c.MinStartHour + reduceMod(chrom[2*c.Horizon], c.applianceStartSpan())

	return g
}

func reduceMod(v, n int) int {
	if n <= 0 {
		return 0
	}
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
