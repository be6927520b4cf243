package main

import (
	"testing"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCommitment(t *testing.T) {
	// 未指定时不下发 commitment 字段
	level, err := queryCommitment("")
	require.NoError(t, err)
	assert.Nil(t, level)

	for s, want := range map[string]pb.CommitmentLevel{
		"processed": pb.CommitmentLevel_PROCESSED,
		"confirmed": pb.CommitmentLevel_CONFIRMED,
		"finalized": pb.CommitmentLevel_FINALIZED,
	} {
		level, err := queryCommitment(s)
		require.NoError(t, err)
		require.NotNil(t, level)
		assert.Equal(t, want, *level)
	}

	_, err = queryCommitment("final")
	assert.Error(t, err)
}
