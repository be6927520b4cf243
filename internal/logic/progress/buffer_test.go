package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotBuffer(t *testing.T) {
	b := newSlotBuffer()
	assert.Zero(t, b.Len())

	b.Add(EventBalance, &SlotRecord{Slot: 1, Status: SlotProcessed})
	b.Add(EventBalance, &SlotRecord{Slot: 2, Status: SlotProcessed})
	b.Add(EventTrade, &SlotRecord{Slot: 1, Status: SlotProcessed})
	assert.Equal(t, 3, b.Len())

	flushed := b.Flush()
	require.Len(t, flushed[EventBalance], 2)
	require.Len(t, flushed[EventTrade], 1)

	// flush 后缓冲清空
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Flush())
}
