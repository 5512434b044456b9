package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogStructure(t *testing.T) {
	cats := Catalog()
	assert.Len(t, cats, 3)

	assert.Equal(t, "rent", cats[0].Name)
	assert.Equal(t, 1, cats[0].Param)
	assert.Len(t, cats[0].Subcategories, 8)

	assert.Equal(t, "sale", cats[1].Name)
	assert.Equal(t, 2, cats[1].Param)

	assert.Equal(t, "exchange", cats[2].Name)
	assert.Equal(t, 3, cats[2].Param)
	assert.Len(t, cats[2].Subcategories, 2)
}

func TestSelect(t *testing.T) {
	assert.Len(t, Select(nil), 3)
	assert.Len(t, Select([]string{}), 3)

	selected := Select([]string{"rent", "exchange"})
	assert.Len(t, selected, 2)
	assert.Equal(t, "rent", selected[0].Name)
	assert.Equal(t, "exchange", selected[1].Name)

	assert.Empty(t, Select([]string{"unknown"}))
}

func TestSearchURL(t *testing.T) {
	cats := Catalog()
	url := SearchURL("https://www.boshamlan.com/search?c=%d&t=%d", cats[0], cats[0].Subcategories[1])
	assert.Equal(t, "https://www.boshamlan.com/search?c=1&t=2", url)
}
