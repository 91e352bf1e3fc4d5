package repository

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "living room", NormalizeCategory("Living-Room"))
	assert.Equal(t, "living room", NormalizeCategory("  living   room "))
	assert.Equal(t, "living room", NormalizeCategory("LIVING_ROOM"))
	assert.Equal(t, "sofa", NormalizeCategory("Sofa"))
}

func TestCategoryPattern(t *testing.T) {
	p := categoryPattern("Living Room")
	assert.Equal(t, "i", p.Options)
	re := regexp.MustCompile("(?i)" + p.Pattern)
	assert.True(t, re.MatchString("living-room"))
	assert.True(t, re.MatchString("Living_Room"))
	assert.True(t, re.MatchString("LIVING ROOM"))
	assert.False(t, re.MatchString("living rooms"))
	assert.False(t, re.MatchString("dining room"))
}

func TestCategoryPattern_QuotesMeta(t *testing.T) {
	p := categoryPattern("a.b")
	re := regexp.MustCompile(p.Pattern)
	assert.True(t, re.MatchString("a.b"))
	assert.False(t, re.MatchString("axb"))
}

func TestDecimal128RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "19.99", "1250.5", "0.01"} {
		d := decimal.RequireFromString(s)
		assert.True(t, d.Equal(fromDecimal128(toDecimal128(d))), s)
	}
}

func TestParseID(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id, parseID(id.String()))
	assert.Equal(t, uuid.Nil, parseID("not-a-uuid"))
}
