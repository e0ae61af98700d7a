package grpc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConnectionReusesTarget(t *testing.T) {
	p := NewPool(WithBearerToken("t0ken"))
	a, err := p.GetConnection("localhost:50051")
	require.NoError(t, err)
	b, err := p.GetConnection("localhost:50051")
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := p.GetConnection("localhost:50052")
	require.NoError(t, err)
	assert.NotSame(t, a, c)

	require.NoError(t, p.Close())
	d, err := p.GetConnection("localhost:50051")
	require.NoError(t, err)
	assert.NotSame(t, a, d)
	require.NoError(t, p.Close())
}

func TestBearerTokenMetadata(t *testing.T) {
	md, err := bearerToken("abc").GetRequestMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", md["authorization"])
	assert.False(t, bearerToken("abc").RequireTransportSecurity())
}
