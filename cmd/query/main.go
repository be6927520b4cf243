package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"os"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
)

// query 是 geyser 节点的只读诊断工具，用于部署前后验证节点可用性。
// 用法: query -e <endpoint> -t <x-token> [-commitment <level>] <command> [args]
//
// 支持的命令:
//   ping
//   get-version
//   get-slot
//   get-block-height
//   get-latest-blockhash
//   is-blockhash-valid <blockhash>

var (
	endpoint   = flag.String("e", "", "geyser grpc endpoint")
	xToken     = flag.String("t", "", "x-token for authentication")
	timeout    = flag.Duration("timeout", 10*time.Second, "request timeout")
	commitment = flag.String("commitment", "", "commitment level: processed|confirmed|finalized (default: node side)")
)

// queryCommitment 把命令行取值转为请求里的可选 commitment 字段。
// 空串表示不指定，由节点按默认 commitment 应答。
func queryCommitment(s string) (*pb.CommitmentLevel, error) {
	var level pb.CommitmentLevel
	switch s {
	case "":
		return nil, nil
	case "processed":
		level = pb.CommitmentLevel_PROCESSED
	case "confirmed":
		level = pb.CommitmentLevel_CONFIRMED
	case "finalized":
		level = pb.CommitmentLevel_FINALIZED
	default:
		return nil, fmt.Errorf("invalid commitment level: %q", s)
	}
	return &level, nil
}

func main() {
	flag.Parse()

	if *endpoint == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	level, err := queryCommitment(*commitment)
	if err != nil {
		fail("%v", err)
	}

	conn, err := grpc.NewClient(
		*endpoint,
		grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{InsecureSkipVerify: true})),
	)
	if err != nil {
		fail("connect: %v", err)
	}
	defer conn.Close()

	client := pb.NewGeyserClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if *xToken != "" {
		ctx = metadata.NewOutgoingContext(ctx, metadata.New(map[string]string{"x-token": *xToken}))
	}

	switch cmd := flag.Arg(0); cmd {
	case "ping":
		resp, err := client.Ping(ctx, &pb.PingRequest{Count: 1})
		must(err)
		fmt.Printf("pong: count=%d\n", resp.Count)

	case "get-version":
		resp, err := client.GetVersion(ctx, &pb.GetVersionRequest{})
		must(err)
		fmt.Printf("version: %s\n", resp.Version)

	case "get-slot":
		resp, err := client.GetSlot(ctx, &pb.GetSlotRequest{Commitment: level})
		must(err)
		fmt.Printf("slot: %d\n", resp.Slot)

	case "get-block-height":
		resp, err := client.GetBlockHeight(ctx, &pb.GetBlockHeightRequest{Commitment: level})
		must(err)
		fmt.Printf("block height: %d\n", resp.BlockHeight)

	case "get-latest-blockhash":
		resp, err := client.GetLatestBlockhash(ctx, &pb.GetLatestBlockhashRequest{Commitment: level})
		must(err)
		fmt.Printf("blockhash: %s (slot=%d, last_valid_block_height=%d)\n",
			resp.Blockhash, resp.Slot, resp.LastValidBlockHeight)

	case "is-blockhash-valid":
		if flag.NArg() < 2 {
			fail("is-blockhash-valid requires a blockhash argument")
		}
		resp, err := client.IsBlockhashValid(ctx, &pb.IsBlockhashValidRequest{Blockhash: flag.Arg(1)})
		must(err)
		fmt.Printf("valid: %v (slot=%d)\n", resp.Valid, resp.Slot)

	default:
		fail("unknown command: %s", cmd)
	}
}

func must(err error) {
	if err != nil {
		fail("%v", err)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
