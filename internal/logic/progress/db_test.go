package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGcSafeSlot(t *testing.T) {
	// 链高度低于保留窗口时不产生删除上界（否则 uint64 下溢会把全表删空）
	_, ok := gcSafeSlot(0)
	assert.False(t, ok)

	_, ok = gcSafeSlot(gcRetainSlots - 1)
	assert.False(t, ok)

	_, ok = gcSafeSlot(gcRetainSlots)
	assert.False(t, ok)

	safe, ok := gcSafeSlot(gcRetainSlots + 1)
	assert.True(t, ok)
	assert.Equal(t, uint64(1), safe)

	safe, ok = gcSafeSlot(300_000_000)
	assert.True(t, ok)
	assert.Equal(t, 300_000_000-gcRetainSlots, safe)
}
