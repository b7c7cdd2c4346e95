package stream

import (
	"testing"

	"github.com/aristath/pumpstream/internal/feed"
	"github.com/aristath/pumpstream/internal/solana"
	"github.com/stretchr/testify/assert"
)

func TestDetectCreate_ByLogMessage(t *testing.T) {
	m := &Manager{}
	update := feed.TransactionUpdate{
		AccountKeys: []string{solana.PumpFunProgramID, "mintAddr", "userAddr"},
		LogMessages: []string{"Program log: Instruction: Create"},
	}

	mint, isCreate := m.detectCreate(update)

	assert.True(t, isCreate)
	assert.Equal(t, "mintAddr", mint)
}

func TestDetectCreate_ByDiscriminator(t *testing.T) {
	m := &Manager{}
	update := feed.TransactionUpdate{
		AccountKeys: []string{solana.PumpFunProgramID, "mintAddr"},
		Instructions: []feed.InstructionData{
			{ProgramID: solana.PumpFunProgramID, Data: []byte{234, 1, 2}},
		},
	}

	mint, isCreate := m.detectCreate(update)

	assert.True(t, isCreate)
	assert.Equal(t, "mintAddr", mint)
}

func TestDetectCreate_PlainBuyIsNotCreate(t *testing.T) {
	m := &Manager{}
	update := feed.TransactionUpdate{
		AccountKeys: []string{solana.PumpFunProgramID, "mintAddr"},
	}

	mint, isCreate := m.detectCreate(update)

	assert.False(t, isCreate)
	assert.Equal(t, "mintAddr", mint)
}

func TestDetectCreate_IgnoresTransactionsWithoutProgram(t *testing.T) {
	m := &Manager{}
	update := feed.TransactionUpdate{
		AccountKeys: []string{"someOtherProgram", "mintAddr"},
	}

	mint, _ := m.detectCreate(update)
	assert.Empty(t, mint)
}
