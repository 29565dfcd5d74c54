package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	names, err := discover()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.sql", names[0])
}

func TestVersionOf(t *testing.T) {
	v, err := versionOf("001_init.sql")
	require.NoError(t, err)
	assert.Equal(t, "001", v)

	_, err = versionOf("init.sql")
	assert.Error(t, err)
}
