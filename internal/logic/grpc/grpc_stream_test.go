package grpc

import (
	"testing"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/stretchr/testify/assert"
)

func TestParseCommitment(t *testing.T) {
	assert.Equal(t, pb.CommitmentLevel_PROCESSED, parseCommitment("processed"))
	assert.Equal(t, pb.CommitmentLevel_CONFIRMED, parseCommitment("confirmed"))
	assert.Equal(t, pb.CommitmentLevel_FINALIZED, parseCommitment("finalized"))
	// 未知值回退到 confirmed
	assert.Equal(t, pb.CommitmentLevel_CONFIRMED, parseCommitment(""))
}

func TestBlockLatencyMs(t *testing.T) {
	now := time.Unix(1_700_000_010, 0)

	ms, ok := blockLatencyMs(&pb.SubscribeUpdateBlock{
		BlockTime: &pb.UnixTimestamp{Timestamp: 1_700_000_000},
	}, now)
	assert.True(t, ok)
	assert.Equal(t, int64(10_000), ms)

	// block_time 是可选字段，某些节点不回填
	_, ok = blockLatencyMs(&pb.SubscribeUpdateBlock{}, now)
	assert.False(t, ok)

	_, ok = blockLatencyMs(nil, now)
	assert.False(t, ok)
}
