package workers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sav3_backend/internal/models"
)

func TestPickVariant_Deterministic(t *testing.T) {
	variants := []models.CampaignVariant{
		{Name: "a", Weight: 1},
		{Name: "b", Weight: 1},
	}

	first := pickVariant(variants, "campaign-1", "user-1")
	require.NotNil(t, first)
	for i := 0; i < 10; i++ {
		again := pickVariant(variants, "campaign-1", "user-1")
		require.NotNil(t, again)
		assert.Equal(t, first.Name, again.Name, "assignment must be stable")
	}
}

func TestPickVariant_WeightProportions(t *testing.T) {
	variants := []models.CampaignVariant{
		{Name: "heavy", Weight: 9},
		{Name: "light", Weight: 1},
	}

	counts := map[string]int{}
	for i := 0; i < 1000; i++ {
		v := pickVariant(variants, "campaign-1", fmt.Sprintf("user-%d", i))
		require.NotNil(t, v)
		counts[v.Name]++
	}

	// 9:1 split with generous slack for hash noise.
	assert.Greater(t, counts["heavy"], 800)
	assert.Greater(t, counts["light"], 30)
	assert.Equal(t, 1000, counts["heavy"]+counts["light"])
}

func TestPickVariant_EdgeCases(t *testing.T) {
	assert.Nil(t, pickVariant(nil, "c", "u"))

	// All-zero weights fall back to the first variant.
	zero := []models.CampaignVariant{{Name: "only", Weight: 0}}
	v := pickVariant(zero, "c", "u")
	require.NotNil(t, v)
	assert.Equal(t, "only", v.Name)

	// Zero-weight variants are never picked when others carry weight.
	mixed := []models.CampaignVariant{
		{Name: "dead", Weight: 0},
		{Name: "live", Weight: 1},
	}
	for i := 0; i < 50; i++ {
		v := pickVariant(mixed, "c", fmt.Sprintf("u%d", i))
		require.NotNil(t, v)
		assert.Equal(t, "live", v.Name)
	}
}
