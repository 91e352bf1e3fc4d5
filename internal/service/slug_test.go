package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilantra/furniture-api/internal/model"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Oak Sofa":              "oak-sofa",
		"  Crème Brûlée Chair ": "creme-brulee-chair",
		"3-Seater / Grey!!":     "3-seater-grey",
		"Ñandú Table":           "nandu-table",
		"???":                   "product",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestUniqueSlug(t *testing.T) {
	repo := newMockProductRepo()
	now := time.UnixMilli(1700000000000)

	slug, err := uniqueSlug(context.Background(), repo, "Oak Sofa", uuid.Nil, now)
	require.NoError(t, err)
	assert.Equal(t, "oak-sofa", slug)

	existing := repo.add(model.Product{Slug: "oak-sofa"})
	slug, err = uniqueSlug(context.Background(), repo, "Oak Sofa", uuid.Nil, now)
	require.NoError(t, err)
	assert.Equal(t, "oak-sofa-1700000000000", slug)

	// A product keeps its own slug on rename to the same name.
	slug, err = uniqueSlug(context.Background(), repo, "Oak Sofa", existing.ID, now)
	require.NoError(t, err)
	assert.Equal(t, "oak-sofa", slug)

	repo.add(model.Product{Slug: "oak-sofa-1700000000000"})
	slug, err = uniqueSlug(context.Background(), repo, "Oak Sofa", uuid.Nil, now)
	require.NoError(t, err)
	assert.NotEqual(t, "oak-sofa", slug)
	assert.NotEqual(t, "oak-sofa-1700000000000", slug)
	assert.Contains(t, slug, "oak-sofa-")
}
