package decoder

import (
	"encoding/binary"
	"testing"

	"github.com/aristath/pumpstream/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeFixture(t *testing.T, virtualSOL, virtualToken, realSOL, realToken, supply uint64, complete bool) []byte {
	t.Helper()
	buf := make([]byte, StateLayoutSize)
	offset := 0
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[offset:offset+8], v)
		offset += 8
	}
	putU64(0) // discriminator
	putU64(virtualSOL)
	putU64(virtualToken)
	putU64(realSOL)
	putU64(realToken)
	putU64(supply)
	if complete {
		buf[offset] = 1
	}
	offset++
	mint := make([]byte, 32)
	mint[0] = 1
	copy(buf[offset:], mint)
	return buf
}

func TestDecode_RejectsWrongLength(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
}

func TestDecode_RoundTrip(t *testing.T) {
	data := encodeFixture(t, 30_000_000_000, 1_073_000_000_000_000, 5_000_000_000, 500_000_000_000, 1_000_000_000_000, false)

	state, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, uint64(30_000_000_000), state.VirtualSOLReserves)
	assert.Equal(t, uint64(1_073_000_000_000_000), state.VirtualTokenReserves)
	assert.False(t, state.Complete)
	assert.NotEmpty(t, state.Mint)
}

func TestPrice_ExactFormula(t *testing.T) {
	state := &struct{ virtualSOL, virtualToken, realSOL, supply uint64 }{
		virtualSOL: 30_000_000_000, virtualToken: 1_073_000_000_000_000,
		realSOL: 5_000_000_000, supply: 1_000_000_000_000,
	}
	data := encodeFixture(t, state.virtualSOL, state.virtualToken, state.realSOL, 0, state.supply, false)
	decoded, err := Decode(data)
	require.NoError(t, err)

	result, err := Price(decoded, 100)
	require.NoError(t, err)

	wantPriceSOL := (float64(state.virtualSOL) / 1e9) / (float64(state.virtualToken) / 1e6)
	wantMarketCap := wantPriceSOL * 100 * (float64(state.supply) / 1e6)
	wantLiquidity := 2 * (float64(state.realSOL) / 1e9) * 100

	assert.InDelta(t, wantPriceSOL, result.PriceSOL, 1e-15)
	assert.InDelta(t, wantMarketCap, result.MarketCapUSD, 1e-9)
	assert.InDelta(t, wantLiquidity, result.LiquidityUSD, 1e-9)
	assert.Equal(t, domain.PricingValid, result.Validity)
}

func TestPrice_RejectsCompleted(t *testing.T) {
	data := encodeFixture(t, 30_000_000_000, 1_073_000_000_000_000, 85_000_000_000, 0, 1_000_000_000_000, true)
	decoded, err := Decode(data)
	require.NoError(t, err)

	_, err = Price(decoded, 100)
	require.Error(t, err)
}

func TestPrice_CurveProgressClampedAtGraduation(t *testing.T) {
	data := encodeFixture(t, 30_000_000_000, 1_073_000_000_000_000, 90_000_000_000, 0, 1_000_000_000_000, false)
	decoded, err := Decode(data)
	require.NoError(t, err)

	result, err := Price(decoded, 100)
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.CurveProgress)
}
