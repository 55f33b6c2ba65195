package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAddr(t *testing.T) {
	addr, err := listenAddr("localhost", 0)
	require.NoError(t, err)
	assert.Empty(t, addr, "port 0 serves over stdio")

	addr, err = listenAddr("0.0.0.0", 8080)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", addr)

	addr, err = listenAddr("::1", 9000)
	require.NoError(t, err)
	assert.Equal(t, "[::1]:9000", addr)

	for _, port := range []int{-1, 65536} {
		_, err := listenAddr("localhost", port)
		assert.ErrorContains(t, err, "invalid port")
	}
}

func TestMCPServeFlags(t *testing.T) {
	f := mcpServeCmd.Flags()
	require.NotNil(t, f.Lookup("port"))
	assert.Equal(t, "p", f.Lookup("port").Shorthand)
	assert.Equal(t, "localhost", f.Lookup("host").DefValue)
}
