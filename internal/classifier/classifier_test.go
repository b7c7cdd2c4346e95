package classifier

import (
	"testing"
	"time"

	"github.com/aristath/pumpstream/internal/config"
	"github.com/aristath/pumpstream/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier() *Classifier {
	return New(config.DefaultCategoryThresholds())
}

func TestBandFor_Boundaries(t *testing.T) {
	c := newTestClassifier()

	assert.Equal(t, domain.Category(""), c.BandFor(7_999.99))
	assert.Equal(t, domain.CategoryLow, c.BandFor(8_000))
	assert.Equal(t, domain.CategoryLow, c.BandFor(14_999.99))
	assert.Equal(t, domain.CategoryMedium, c.BandFor(15_000))
	assert.Equal(t, domain.CategoryMedium, c.BandFor(24_999.99))
	assert.Equal(t, domain.CategoryHigh, c.BandFor(25_000))
	assert.Equal(t, domain.CategoryHigh, c.BandFor(34_999.99))
	assert.Equal(t, domain.CategoryAim, c.BandFor(35_000))
	assert.Equal(t, domain.CategoryAim, c.BandFor(104_999.99))
	assert.Equal(t, domain.CategoryGraduated, c.BandFor(105_000))
}

func TestReclassify_SkippingBandEmitsSingleTransition(t *testing.T) {
	c := newTestClassifier()
	now := time.Now()

	next, transition, crossed := c.Reclassify("mint1", domain.CategoryLow, 25_500, now)

	require.True(t, crossed)
	assert.Equal(t, domain.CategoryHigh, next)
	assert.Equal(t, domain.CategoryLow, transition.FromCategory)
	assert.Equal(t, domain.CategoryHigh, transition.ToCategory)
	assert.Equal(t, "market_cap_threshold", transition.Reason)
}

func TestReclassify_NoCrossingReturnsNilTransition(t *testing.T) {
	c := newTestClassifier()
	_, transition, crossed := c.Reclassify("mint1", domain.CategoryLow, 9_000, time.Now())

	assert.False(t, crossed)
	assert.Nil(t, transition)
}

func TestEntersActionableBand(t *testing.T) {
	c := newTestClassifier()
	_, transition, _ := c.Reclassify("mint1", domain.CategoryHigh, 35_100, time.Now())
	assert.True(t, EntersActionableBand(transition))

	_, transition2, _ := c.Reclassify("mint1", domain.CategoryLow, 15_100, time.Now())
	assert.False(t, EntersActionableBand(transition2))
}
