package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nilantra/furniture-api/internal/repository"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify folds a product name into a lowercase ASCII token joined by hyphens.
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	slug := strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(folded), "-"), "-")
	if slug == "" {
		return "product"
	}
	return slug
}

const slugAttempts = 5

// uniqueSlug returns the plain slug when it is free, otherwise the slug
// suffixed with the current time in milliseconds, then random suffixes.
// The store's unique index remains the final arbiter.
func uniqueSlug(ctx context.Context, repo repository.ProductRepository, name string, exclude uuid.UUID, now time.Time) (string, error) {
	base := Slugify(name)
	candidate := base
	for attempt := 0; attempt < slugAttempts; attempt++ {
		taken, err := repo.SlugExists(ctx, candidate, exclude)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		if attempt == 0 {
			candidate = fmt.Sprintf("%s-%d", base, now.UnixMilli())
		} else {
			candidate = randomSuffix(base)
		}
	}
	return "", fmt.Errorf("%w: could not find a free slug for %q", ErrConflict, name)
}

func randomSuffix(base string) string {
	return fmt.Sprintf("%s-%d", base, rand.IntN(1_000_000))
}
