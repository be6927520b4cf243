package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wsolStr = "So11111111111111111111111111111111111111112"

func TestPubkeyBase58RoundTrip(t *testing.T) {
	p, err := TryPubkeyFromBase58(wsolStr)
	require.NoError(t, err)
	assert.Equal(t, wsolStr, p.String())
}

func TestTryPubkeyFromBase58_Invalid(t *testing.T) {
	// 非法字符
	_, err := TryPubkeyFromBase58("0OIl")
	assert.Error(t, err)

	// 长度不是 32 字节
	_, err = TryPubkeyFromBase58("abc")
	assert.Error(t, err)
}

func TestPubkeyEquals(t *testing.T) {
	a, err := TryPubkeyFromBase58(wsolStr)
	require.NoError(t, err)
	b := a
	assert.True(t, a.Equals(b))

	b[0] ^= 1
	assert.False(t, a.Equals(b))
}
