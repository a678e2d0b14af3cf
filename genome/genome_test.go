package genome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionSpaceEncodeDecodeRoundTrip(t *testing.T) {
	space := ActionSpace{NumChargeRates: 3, AllowDCCharge: true}

	actions := []BatteryAction{
		{Kind: Idle},
		{Kind: Discharge},
		{Kind: ACCharge, RateIndex: 0},
		{Kind: ACCharge, RateIndex: 2},
		{Kind: DCCharge, RateIndex: 1},
	}

	for _, a := range actions {
		gene, err := space.Encode(a)
		assert.NoError(t, err)
		assert.Equal(t, a, space.Decode(gene))
	}
}

func TestActionSpaceDecodeNeverErrors(t *testing.T) {
	space := ActionSpace{NumChargeRates: 2, AllowDCCharge: false}
	n := space.Cardinality()
	assert.Equal(t, 4, n)

	for gene := -10; gene < 10; gene++ {
		a := space.Decode(gene)
		_, err := space.Encode(a)
		assert.NoError(t, err, "gene %d decoded to an unencodable action", gene)
	}
}

func TestActionSpaceRejectsDisabledDCCharge(t *testing.T) {
	space := ActionSpace{NumChargeRates: 2, AllowDCCharge: false}
	_, err := space.Encode(BatteryAction{Kind: DCCharge, RateIndex: 0})
	assert.Error(t, err)
}

func TestCodecEncodeDecodeRoundTrip(t *testing.T) {
	codec := Codec{
		Horizon:      4,
		BatterySpace: ActionSpace{NumChargeRates: 2},
		NumEVRates:   3,
		MaxStartHour: 3,
	}

	g := Genome{
		Battery:            []BatteryAction{{Kind: Idle}, {Kind: Discharge}, {Kind: ACCharge, RateIndex: 1}, {Kind: Idle}},
		EVRateIndex:        []int{0, 2, 1, 0},
		ApplianceStartHour: 2,
	}

	chrom, err := codec.Encode(g)
	assert.NoError(t, err)
	assert.Equal(t, codec.Len(), len(chrom))

	decoded := codec.Decode(chrom)
	assert.Equal(t, g, decoded)
}

func TestCodecDecodeReducesOutOfRangeGenes(t *testing.T) {
	codec := Codec{
		Horizon:      1,
		BatterySpace: ActionSpace{NumChargeRates: 1},
		NumEVRates:   2,
		MaxStartHour: 1,
	}

	decoded := codec.Decode(Chromosome{100, -7, 50})
	assert.GreaterOrEqual(t, decoded.EVRateIndex[0], 0)
	assert.Less(t, decoded.EVRateIndex[0], 2)
	assert.GreaterOrEqual(t, decoded.ApplianceStartHour, 0)
	assert.LessOrEqual(t, decoded.ApplianceStartHour, 1)
}
