package profile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alem-hub/focus-leaderboard/internal/domain/shared"
)

func TestTotalXP(t *testing.T) {
	assert.Equal(t, 240, TotalXP(3, 40))
	assert.Equal(t, 0, TotalXP(1, 0))
	assert.Equal(t, 190, (&UserProfile{Level: 2, XP: 90}).TotalXP())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, (&UserProfile{Level: 1, XP: 99}).Validate())
	assert.True(t, errors.Is((&UserProfile{Level: 0}).Validate(), shared.ErrInvalidLevel))
	assert.True(t, errors.Is((&UserProfile{Level: 2, XP: 100}).Validate(), shared.ErrInvalidXP))
	assert.True(t, errors.Is((&UserProfile{Level: 2, XP: -1}).Validate(), shared.ErrValueOutOfRange))
}

func TestDisplay(t *testing.T) {
	p := &UserProfile{Name: "  ", Email: "sam@example.com"}
	assert.Equal(t, DefaultDisplayName, p.DisplayName())
	assert.Equal(t, "sam", p.Handle())
	assert.False(t, p.HasCountry())

	p = &UserProfile{Name: "Sam", Username: "samk", Country: "KZ"}
	assert.Equal(t, "Sam", p.DisplayName())
	assert.Equal(t, "samk", p.Handle())
	assert.True(t, p.HasCountry())

	assert.Empty(t, (&UserProfile{}).Handle())
	assert.False(t, (*UserProfile)(nil).HasCountry())
}
