package liquidity

import (
	"testing"

	"github.com/aristath/pumpstream/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassifyMomentum_High(t *testing.T) {
	assert.Equal(t, domain.MomentumHigh, classifyMomentum(6, 2, 1))
	assert.Equal(t, domain.MomentumHigh, classifyMomentum(3, 1.5, 1))
}

func TestClassifyMomentum_Declining(t *testing.T) {
	assert.Equal(t, domain.MomentumDeclining, classifyMomentum(-1, -2, 3))
	assert.Equal(t, domain.MomentumDeclining, classifyMomentum(0.5, 1, 2))
}

func TestClassifyMomentum_MediumAndLow(t *testing.T) {
	assert.Equal(t, domain.MomentumMedium, classifyMomentum(1.2, 1, 0.5))
	assert.Equal(t, domain.MomentumLow, classifyMomentum(0.2, 0.1, 0.05))
}
