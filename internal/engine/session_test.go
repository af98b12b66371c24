package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"configurator-service/internal/models"
	"gorm.io/datatypes"
)

func newSizeColorSession(t *testing.T, variants ...*models.ConcreteVariant) *Session {
	t.Helper()
	catalog, err := BuildCatalog(sizeColorConfig(variants...))
	require.NoError(t, err)
	return NewSession(catalog)
}

func TestSessionStartsIncomplete(t *testing.T) {
	s := newSizeColorSession(t, newVariant(map[string]string{"Size": "S", "Color": "Red"}, 3))

	view := s.View()
	assert.False(t, view.IsValid)
	assert.Nil(t, view.MatchedVariant)
	assert.Equal(t, int64(1000), s.UnitPrice())

	errs := s.Validate()
	require.Len(t, errs, 2)
	assert.Equal(t, CodeMissingRequiredAttribute, errs[0].Code)
	assert.Equal(t, CodeMissingRequiredAttribute, errs[1].Code)
}

func TestSessionZeroStockMatchBlocksCommit(t *testing.T) {
	s := newSizeColorSession(t,
		newVariant(map[string]string{"Size": "S", "Color": "Red"}, 0),
		newVariant(map[string]string{"Size": "S", "Color": "Blue"}, 5),
	)

	s.SetAttribute("Size", "S")
	s.SetAttribute("Color", "Red")

	// the variant is identified so the display layer can show its details,
	// but the state is not purchasable
	view := s.View()
	require.NotNil(t, view.MatchedVariant)
	assert.Equal(t, 0, view.MatchedVariant.StockCount)
	assert.False(t, view.IsValid)

	commit, err := s.Commit(1)
	assert.Nil(t, commit)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, CodeNoMatchingVariant, verrs[0].Code)

	// the recovery path: switching color makes the same session committable
	s.SetAttribute("Color", "Blue")
	commit, err = s.Commit(2)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), commit.UnitPrice)
	assert.Equal(t, int64(2000), commit.TotalPrice)
	assert.Equal(t, 2, commit.Quantity)
	require.NotNil(t, commit.VariantID)
}

func TestSessionCommitTuple(t *testing.T) {
	variant := newVariant(map[string]string{"Size": "M", "Color": "Blue"}, 2)
	s := newSizeColorSession(t, variant)

	s.SetAttribute("Size", "M")
	s.SetAttribute("Color", "Blue")

	commit, err := s.Commit(3)
	require.NoError(t, err)
	assert.Equal(t, "prod-1", commit.ProductID)
	assert.Equal(t, variant.ID, *commit.VariantID)
	assert.Equal(t, map[string]string{"Size": "M", "Color": "Blue"}, commit.Selections)
	assert.Equal(t, int64(3000), commit.TotalPrice)
}

func TestSessionSetAttributeIdempotent(t *testing.T) {
	s := newSizeColorSession(t, newVariant(map[string]string{"Size": "S", "Color": "Red"}, 3))

	s.SetAttribute("Size", "S")
	first := s.View()
	s.SetAttribute("Size", "S")
	s.SetAttribute("Size", "S")

	assert.Equal(t, first, s.View())
	assert.Equal(t, map[string]string{"Size": "S"}, s.Selections())
}

func TestSessionUnknownKeysIgnored(t *testing.T) {
	s := newSizeColorSession(t)

	s.SetAttribute("Material", "Wool")
	s.SetAttribute("Size", "XXL")
	s.SetCustomAnswer("opt-missing", "value")

	assert.Empty(t, s.Selections())
	assert.Empty(t, s.Answers())
}

func TestSessionClearSelection(t *testing.T) {
	s := newSizeColorSession(t)

	s.SetAttribute("Size", "S")
	s.SetAttribute("Size", "")
	assert.Empty(t, s.Selections())
	errs := s.Validate()
	assert.Len(t, errs, 2)
}

func TestSessionSnapshotsStableAcrossMutation(t *testing.T) {
	s := newSizeColorSession(t)

	s.SetAttribute("Size", "S")
	snapshot := s.Selections()

	s.SetAttribute("Color", "Red")
	s.SetAttribute("Size", "M")

	assert.Equal(t, map[string]string{"Size": "S"}, snapshot)
	assert.Equal(t, map[string]string{"Size": "M", "Color": "Red"}, s.Selections())
}

func TestSessionPriceComposition(t *testing.T) {
	variant := newVariant(map[string]string{"Size": "L", "Color": "Red"}, 4)
	variant.PriceOverride = strPtr("12.00")

	cfg := sizeColorConfig(variant)
	cfg.Groups[0].Options[2].PriceModifier = strPtr("1.25") // Large
	cfg.CustomOptions = datatypes.NewJSONSlice([]models.CustomOptionDefinition{{
		ID: "opt-wrap", Name: "GiftWrap", Kind: models.CustomOptionKindCheckbox,
		Choices: []models.CustomOptionChoice{{Label: "Gift wrap", Value: "yes", Price: strPtr("1.50")}},
	}})

	catalog, err := BuildCatalog(cfg)
	require.NoError(t, err)
	s := NewSession(catalog)

	s.SetAttribute("Size", "L")
	s.SetAttribute("Color", "Red")
	// 10.00 base + 12.00 variant override + 1.25 size modifier
	assert.Equal(t, int64(2325), s.UnitPrice())

	s.SetCustomAnswer("opt-wrap", true)
	assert.Equal(t, int64(2475), s.UnitPrice())

	s.SetCustomAnswer("opt-wrap", nil)
	assert.Equal(t, int64(2325), s.UnitPrice())
}

func TestSessionTotalPriceClampsQuantity(t *testing.T) {
	s := newSizeColorSession(t)

	assert.Equal(t, int64(1000), s.TotalPrice(0))
	assert.Equal(t, int64(1000), s.TotalPrice(-5))
	assert.Equal(t, int64(5000), s.TotalPrice(5))
}

func TestSessionFlaggedOptionBlocksCompleteSelection(t *testing.T) {
	cfg := sizeColorConfig(
		newVariant(map[string]string{"Size": "S", "Color": "Red"}, 3),
	)
	cfg.Groups[1].Options[0].OutOfStock = true // Red

	catalog, err := BuildCatalog(cfg)
	require.NoError(t, err)
	s := NewSession(catalog)

	s.SetAttribute("Size", "S")
	s.SetAttribute("Color", "Red")

	errs := s.Validate()
	require.NotEmpty(t, errs)
	var codes []string
	for _, fe := range errs {
		codes = append(codes, fe.Code)
	}
	assert.Contains(t, codes, CodeOptionOutOfStock)
}

func TestSessionRequiredCustomOptionBlocksCommit(t *testing.T) {
	cfg := sizeColorConfig(newVariant(map[string]string{"Size": "S", "Color": "Red"}, 3))
	cfg.CustomOptions = datatypes.NewJSONSlice([]models.CustomOptionDefinition{{
		ID: "opt-monogram", Name: "Monogram", Kind: models.CustomOptionKindText,
		Required: true, PriceModifier: strPtr("2.00"),
	}})

	catalog, err := BuildCatalog(cfg)
	require.NoError(t, err)
	s := NewSession(catalog)

	s.SetAttribute("Size", "S")
	s.SetAttribute("Color", "Red")

	errs := s.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, CodeMissingRequiredCustomOption, errs[0].Code)
	assert.Equal(t, "Monogram", errs[0].Field)
	// the modifier of an unanswered option never prices in
	assert.Equal(t, int64(1000), s.UnitPrice())

	s.SetCustomAnswer("opt-monogram", "JD")
	assert.Nil(t, s.Validate())
	assert.Equal(t, int64(1200), s.UnitPrice())

	commit, err := s.Commit(1)
	require.NoError(t, err)
	assert.Equal(t, "JD", commit.Answers["opt-monogram"])
}
