// Package decoder translates raw bonding-curve account bytes into typed
// state, and typed state plus a SOL/USD rate into canonical price,
// liquidity, and market-cap figures.
package decoder

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/aristath/pumpstream/internal/config"
	"github.com/aristath/pumpstream/internal/domain"
	"github.com/aristath/pumpstream/internal/solana"
)

// StateLayoutSize is the exact byte length of the on-chain bonding-curve
// account data this decoder accepts: an 8-byte discriminator, five
// 8-byte reserve/supply fields, a 1-byte complete flag, and a 32-byte
// mint public key.
const StateLayoutSize = 8 + 8*5 + 1 + 32

// DecodeError is returned when raw account bytes cannot be decoded.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoder: %s", e.Reason)
}

// Decode parses a raw bonding-curve account payload into a
// BondingCurveState. It fails with *DecodeError if data is not exactly
// StateLayoutSize bytes; no partial state is returned on error.
func Decode(data []byte) (*domain.BondingCurveState, error) {
	if len(data) != StateLayoutSize {
		return nil, &DecodeError{Reason: fmt.Sprintf("expected %d bytes, got %d", StateLayoutSize, len(data))}
	}

	offset := 0
	readU64 := func() uint64 {
		v := binary.LittleEndian.Uint64(data[offset : offset+8])
		offset += 8
		return v
	}

	discriminator := readU64()
	virtualSOL := readU64()
	virtualToken := readU64()
	realSOL := readU64()
	realToken := readU64()
	totalSupply := readU64()

	complete := data[offset] != 0
	offset++

	mintBytes := data[offset : offset+32]
	mint, err := solana.EncodePubkey(mintBytes)
	if err != nil {
		return nil, &DecodeError{Reason: err.Error()}
	}

	return &domain.BondingCurveState{
		Discriminator:        discriminator,
		VirtualSOLReserves:   virtualSOL,
		VirtualTokenReserves: virtualToken,
		RealSOLReserves:      realSOL,
		RealTokenReserves:    realToken,
		TokenTotalSupply:     totalSupply,
		Complete:             complete,
		Mint:                 mint,
	}, nil
}

const (
	lamportsPerSOL  = 1_000_000_000
	tokenDecimalsDiv = 1_000_000

	minValidPriceSOL = 1e-12
	maxValidPriceSOL = 1000
)

// Price computes the canonical PricingResult for state at the given
// SOL/USD rate, using config.GraduationTargetLamports as the graduation
// target for curve-progress.
func Price(state *domain.BondingCurveState, solUSD float64) (*domain.PricingResult, error) {
	if state.Complete {
		return nil, fmt.Errorf("decoder: bonding curve is complete (graduated)")
	}
	if state.VirtualSOLReserves == 0 || state.VirtualTokenReserves == 0 {
		return nil, fmt.Errorf("decoder: virtual reserves must be non-zero")
	}

	priceSOL := (float64(state.VirtualSOLReserves) / lamportsPerSOL) /
		(float64(state.VirtualTokenReserves) / tokenDecimalsDiv)

	if math.IsNaN(priceSOL) || math.IsInf(priceSOL, 0) {
		return nil, fmt.Errorf("decoder: computed price is non-finite")
	}
	if priceSOL < minValidPriceSOL || priceSOL > maxValidPriceSOL {
		return nil, fmt.Errorf("decoder: computed price %.12f SOL outside valid range", priceSOL)
	}

	priceUSD := priceSOL * solUSD
	marketCapUSD := priceSOL * solUSD * (float64(state.TokenTotalSupply) / tokenDecimalsDiv)
	liquidityUSD := 2 * (float64(state.RealSOLReserves) / lamportsPerSOL) * solUSD

	curveProgress := float64(state.RealSOLReserves) / float64(config.GraduationTargetLamports) * 100
	if curveProgress > 100 {
		curveProgress = 100
	}

	var warnings []string
	if state.RealSOLReserves < lamportsPerSOL/10 {
		warnings = append(warnings, "very low real SOL reserves")
	}
	if marketCapUSD > 50_000_000 {
		warnings = append(warnings, "market cap outlier")
	}

	return &domain.PricingResult{
		PriceSOL:      priceSOL,
		PriceUSD:      priceUSD,
		MarketCapUSD:  marketCapUSD,
		LiquidityUSD:  liquidityUSD,
		CurveProgress: curveProgress,
		Validity:      domain.PricingValid,
		Warnings:      warnings,
	}, nil
}
