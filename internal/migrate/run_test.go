package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersions(t *testing.T) {
	versions, err := Versions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, "001_admin_audit_events", versions[0])
	assert.IsIncreasing(t, versions)
}
