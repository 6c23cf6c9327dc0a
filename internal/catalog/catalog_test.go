package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathieu-neron/channelfinder/internal/model"
)

func TestDefault_CoversAllCategoriesInOrder(t *testing.T) {
	c := Default()

	assert.Equal(t, model.Categories, c.Order())
	assert.Equal(t, model.CategoryEntertainment, c.Fallback())
	for _, cat := range model.Categories {
		seeds := c.Seeds(cat)
		assert.GreaterOrEqual(t, len(seeds), 10, "seeds for %s", cat)
		assert.LessOrEqual(t, len(seeds), 16, "seeds for %s", cat)
		assert.NotEmpty(t, c.Keywords(cat), "keywords for %s", cat)
	}
	assert.LessOrEqual(t, len(c.Popular()), 50)
}

func TestSeeds_ReturnsCopy(t *testing.T) {
	c := Default()
	seeds := c.Seeds(model.CategoryTechnology)
	seeds[0] = "mutated"

	assert.Equal(t, "tech", c.Seeds(model.CategoryTechnology)[0])
}

func TestNew_RejectsUnknownCategory(t *testing.T) {
	_, err := New(File{Categories: []CategorySpec{{Key: "cooking", Seeds: []string{"x"}, Keywords: []string{"x"}}}})
	require.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestNew_RejectsDuplicateCategory(t *testing.T) {
	spec := CategorySpec{Key: model.CategorySport, Seeds: []string{"x"}, Keywords: []string{"x"}}
	_, err := New(File{Categories: []CategorySpec{spec, spec}, Default: model.CategorySport})
	require.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestNew_RejectsFallbackOutsideTable(t *testing.T) {
	spec := CategorySpec{Key: model.CategorySport, Seeds: []string{"x"}, Keywords: []string{"x"}}
	_, err := New(File{Categories: []CategorySpec{spec}})
	require.ErrorIs(t, err, ErrInvalidCatalog, "entertainment default is not in a sport-only table")
}

func TestNew_NormalizesPopularNames(t *testing.T) {
	spec := CategorySpec{Key: model.CategoryNews, Seeds: []string{"News "}, Keywords: []string{"NEWS"}}
	c, err := New(File{
		Categories: []CategorySpec{spec},
		Popular:    []string{"@BBCNews", "bbcnews", "  ", "https://t.me/Reuters"},
		Default:    model.CategoryNews,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bbcnews", "reuters"}, c.Popular())
	assert.Equal(t, []string{"news"}, c.Seeds(model.CategoryNews))
	assert.Equal(t, []string{"news"}, c.Keywords(model.CategoryNews))
}

func TestLoad_YAML(t *testing.T) {
	doc := `
categories:
  - key: technology
    label: Tech
    seeds: [tech, programming, coding]
    keywords: [tech, code]
  - key: sport
    seeds: [football]
    keywords: [football]
popular: [github]
default: sport
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []model.Category{model.CategoryTechnology, model.CategorySport}, c.Order())
	assert.Equal(t, "Tech", c.Label(model.CategoryTechnology))
	assert.Equal(t, "sport", c.Label(model.CategorySport))
	assert.Equal(t, model.CategorySport, c.Fallback())
	assert.True(t, c.Has(model.CategorySport))
	assert.False(t, c.Has(model.CategoryNews))
}

func TestLoadOrDefault_EmptyPath(t *testing.T) {
	c, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Len(t, c.Order(), 6)
}
