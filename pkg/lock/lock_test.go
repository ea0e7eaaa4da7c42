package lock_test

import (
	"context"
	"testing"

	"github.com/growloop/growloop/pkg/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopAlwaysGrants(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	locker := lock.NewNoop()

	releaseFirst, err := locker.Acquire(ctx, "wf-1:scan")
	require.NoError(t, err)

	// No exclusion: the same key is granted again while held.
	releaseSecond, err := locker.Acquire(ctx, "wf-1:scan")
	require.NoError(t, err)

	assert.NoError(t, releaseFirst(ctx))
	assert.NoError(t, releaseSecond(ctx))
}

var _ lock.Locker = (*lock.Noop)(nil)
