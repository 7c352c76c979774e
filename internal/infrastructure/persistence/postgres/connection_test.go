package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBreakerFailure(t *testing.T) {
	assert.False(t, IsBreakerFailure(fmt.Errorf("failed to get profile: %w", ErrNoRows)))
	assert.False(t, IsBreakerFailure(context.Canceled))
	assert.True(t, IsBreakerFailure(context.DeadlineExceeded))
	assert.True(t, IsBreakerFailure(errors.New("connection refused")))
}
