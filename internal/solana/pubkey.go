// Package solana holds the small amount of Solana-specific wire encoding
// the core needs: base58 pubkey formatting and the pump.fun program
// constants used to recognize account owners and instruction
// discriminators.
package solana

import (
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/aristath/pumpstream/internal/domain"
)

// PumpFunProgramID is the on-chain program address the stream manager
// filters account-owner and transaction-account subscriptions on.
const PumpFunProgramID = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"

// Create-instruction discriminators: a transaction counts as a create
// when an instruction addressed to PumpFunProgramID has one of these as
// its first data byte.
var CreateDiscriminators = [2]byte{181, 234}

// Buy/sell instruction discriminators, first byte of instruction data
// addressed to PumpFunProgramID. Trade instructions otherwise share the
// same argument layout: an 8-byte Anchor discriminator (dropped here),
// followed by a little-endian u64 token amount and a little-endian u64
// SOL amount (max cost for buy, min output for sell).
const (
	BuyDiscriminator  byte = 102
	SellDiscriminator byte = 51
)

// EncodePubkey renders a raw 32-byte public key as its base58 string
// form, the canonical Solana address representation.
func EncodePubkey(raw []byte) (string, error) {
	if len(raw) != 32 {
		return "", fmt.Errorf("solana: pubkey must be 32 bytes, got %d", len(raw))
	}
	return base58.Encode(raw), nil
}

// DecodePubkey parses a base58 Solana address back to its raw 32-byte
// form.
func DecodePubkey(addr string) ([]byte, error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("solana: invalid base58 address %q: %w", addr, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("solana: decoded pubkey must be 32 bytes, got %d", len(raw))
	}
	return raw, nil
}

// IsCreateInstruction reports whether instructionData begins with one of
// the pump.fun create-instruction discriminator bytes.
func IsCreateInstruction(instructionData []byte) bool {
	if len(instructionData) == 0 {
		return false
	}
	for _, d := range CreateDiscriminators {
		if instructionData[0] == d {
			return true
		}
	}
	return false
}

// ContainsCreateLog reports whether any of the supplied program log
// lines is the pump.fun create-instruction log message.
func ContainsCreateLog(logs []string) bool {
	const marker = "Program log: Instruction: Create"
	for _, l := range logs {
		if l == marker {
			return true
		}
	}
	return false
}

// tradeInstructionArgsSize is the byte length of a trade instruction's
// argument payload that follows its discriminator: a little-endian u64
// token amount and a little-endian u64 SOL amount.
const tradeInstructionArgsSize = 16

// DecodeTradeInstruction recognizes a buy or sell instruction addressed
// to PumpFunProgramID and extracts its token/SOL amounts. It returns
// ok=false for any instruction that isn't a recognized trade, including
// creates, which carry no trade amounts.
func DecodeTradeInstruction(instructionData []byte) (txType domain.TransactionType, tokenAmount, solAmount uint64, ok bool) {
	if len(instructionData) < 1+tradeInstructionArgsSize {
		return "", 0, 0, false
	}

	switch instructionData[0] {
	case BuyDiscriminator:
		txType = domain.TransactionBuy
	case SellDiscriminator:
		txType = domain.TransactionSell
	default:
		return "", 0, 0, false
	}

	args := instructionData[1 : 1+tradeInstructionArgsSize]
	tokenAmount = binary.LittleEndian.Uint64(args[0:8])
	solAmount = binary.LittleEndian.Uint64(args[8:16])
	return txType, tokenAmount, solAmount, true
}
