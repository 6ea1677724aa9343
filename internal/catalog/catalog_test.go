package catalog

import (
	"testing"

	"github.com/Egham-7/headshot-studio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLookups(t *testing.T) {
	f, ok := FilterByID("confident")
	require.True(t, ok)
	assert.Equal(t, "Confident", f.Name)

	b, ok := BackgroundByID("office")
	require.True(t, ok)
	assert.Equal(t, "Modern Office", b.Name)
	assert.False(t, b.IsCustom())

	custom, ok := BackgroundByID("custom")
	require.True(t, ok)
	assert.True(t, custom.IsCustom())

	_, ok = FilterByID("unknown")
	assert.False(t, ok)
}

func TestCatalogReturnsCopies(t *testing.T) {
	fs := Filters()
	fs[0].Prompt = "tampered"

	f, _ := FilterByID(fs[0].ID)
	assert.NotEqual(t, "tampered", f.Prompt)
	assert.Len(t, Backgrounds(), 5)
}

func TestPlansLookup(t *testing.T) {
	plans, err := NewPlans([]models.PlanConfig{
		{ID: "pro", PriceID: "price_pro", Credits: 50},
		{ID: "business", Name: "Business", PriceID: "price_business", Credits: 150},
	})
	require.NoError(t, err)

	pro, ok := plans.ByID("pro")
	require.True(t, ok)
	assert.Equal(t, "price_pro", pro.PriceID)
	assert.Equal(t, "pro", pro.Name)

	business, ok := plans.ByPriceID("price_business")
	require.True(t, ok)
	assert.Equal(t, 150, business.Credits)

	_, ok = plans.ByPriceID("price_unknown")
	assert.False(t, ok)
	assert.Len(t, plans.All(), 2)
}

func TestPlansRejectDuplicates(t *testing.T) {
	_, err := NewPlans([]models.PlanConfig{
		{ID: "pro", PriceID: "price_pro", Credits: 50},
		{ID: "pro2", PriceID: "price_pro", Credits: 60},
	})
	assert.Error(t, err)

	_, err = NewPlans([]models.PlanConfig{{ID: "free", PriceID: "price_free", Credits: 0}})
	assert.Error(t, err)
}
