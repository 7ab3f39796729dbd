package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMillisRoundTrip(t *testing.T) {
	in := time.Date(2024, 1, 5, 13, 45, 10, 123_456_789, time.FixedZone("UTC+3", 3*3600))

	out := FromMillis(ToMillis(in))

	assert.True(t, in.Truncate(time.Millisecond).Equal(out))
	assert.Equal(t, time.UTC, out.Location())
}

func TestMillisZero(t *testing.T) {
	assert.True(t, FromMillis(ToMillis(time.Time{})).IsZero())
}

func TestMillisEpoch(t *testing.T) {
	epoch := time.Unix(0, 0).UTC()

	assert.Equal(t, int64(0), ToMillis(epoch))

	out := FromMillis(ToMillis(epoch))
	assert.False(t, out.IsZero())
	assert.True(t, epoch.Equal(out))

	ms := ToMillisPtr(&epoch)
	require.NotNil(t, ms)
	assert.True(t, epoch.Equal(*FromMillisPtr(ms)))
}

func TestMillisPtr(t *testing.T) {
	assert.Nil(t, ToMillisPtr(nil))
	assert.Nil(t, FromMillisPtr(nil))

	in := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	ms := ToMillisPtr(&in)
	require.NotNil(t, ms)

	out := FromMillisPtr(ms)
	require.NotNil(t, out)
	assert.True(t, in.Equal(*out))
}
