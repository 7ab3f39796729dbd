package service

import (
	"bitwise74/invoice-api/internal/store"
	"bitwise74/invoice-api/internal/store/local"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareLinkCleanupSchedule(t *testing.T) {
	repos := map[string]store.ShareLinkRepository{
		local.BackendName: local.NewBackend(local.NewMemory()).ShareLinks,
	}

	c, err := ShareLinkCleanup("@every 1h", repos)
	require.NoError(t, err)
	t.Cleanup(func() { <-c.Stop().Done() })

	assert.Len(t, c.Entries(), 1)

	_, err = ShareLinkCleanup("not a schedule", repos)
	assert.Error(t, err)
}
