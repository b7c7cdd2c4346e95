package solana

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodePubkey_RoundTrips(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}

	encoded, err := EncodePubkey(raw)
	require.NoError(t, err)

	decoded, err := DecodePubkey(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestEncodePubkey_RejectsWrongLength(t *testing.T) {
	_, err := EncodePubkey([]byte{1, 2, 3})
	assert.Error(t, err)
}

func tradePayload(discriminator byte, tokenAmount, solAmount uint64) []byte {
	buf := make([]byte, 17)
	buf[0] = discriminator
	binary.LittleEndian.PutUint64(buf[1:9], tokenAmount)
	binary.LittleEndian.PutUint64(buf[9:17], solAmount)
	return buf
}

func TestDecodeTradeInstruction_Buy(t *testing.T) {
	txType, tokenAmount, solAmount, ok := DecodeTradeInstruction(tradePayload(BuyDiscriminator, 1_000_000, 2_000_000_000))

	require.True(t, ok)
	assert.Equal(t, "buy", string(txType))
	assert.Equal(t, uint64(1_000_000), tokenAmount)
	assert.Equal(t, uint64(2_000_000_000), solAmount)
}

func TestDecodeTradeInstruction_Sell(t *testing.T) {
	txType, _, _, ok := DecodeTradeInstruction(tradePayload(SellDiscriminator, 500, 500))

	require.True(t, ok)
	assert.Equal(t, "sell", string(txType))
}

func TestDecodeTradeInstruction_RejectsUnknownDiscriminator(t *testing.T) {
	_, _, _, ok := DecodeTradeInstruction(tradePayload(CreateDiscriminators[0], 1, 1))
	assert.False(t, ok)
}

func TestDecodeTradeInstruction_RejectsShortPayload(t *testing.T) {
	_, _, _, ok := DecodeTradeInstruction([]byte{BuyDiscriminator, 1, 2, 3})
	assert.False(t, ok)
}
