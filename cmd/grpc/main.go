package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"wallet-indexer-sol/internal/config"
	"wallet-indexer-sol/internal/logic/grpc"
	"wallet-indexer-sol/internal/service"
	"wallet-indexer-sol/internal/svc"
	"wallet-indexer-sol/pkg/logger"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"
)

var configFile = flag.String("f", "etc/grpc.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.GrpcConfig
	conf.MustLoad(*configFile, &c)

	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		logx.Errorf("logger init failed: %v", err)
		os.Exit(1)
	}
	defer logger.Sync()

	serviceContext, err := svc.NewGrpcServiceContext(c)
	if err != nil {
		logx.Errorf("service context init failed: %v", err)
		os.Exit(1)
	}
	defer serviceContext.Close()

	lagMonitor, err := service.NewLagMonitorService(&c.RpcConf, serviceContext.SlotTracker)
	if err != nil {
		logx.Errorf("lag monitor init failed: %v", err)
		os.Exit(1)
	}

	blockChan := make(chan *pb.SubscribeUpdateBlock, 200)

	grpcService, err := grpc.NewGrpcStreamManager(serviceContext, blockChan)
	if err != nil {
		logx.Errorf("grpc stream manager init failed: %v", err)
		os.Exit(1)
	}

	sg := zerosvc.NewServiceGroup()
	sg.Add(service.NewProgressService(serviceContext.ProgressManager))
	sg.Add(grpc.NewBlockProcessor(serviceContext, blockChan))
	sg.Add(grpcService)
	sg.Add(lagMonitor)

	logx.Infof("Starting grpc stream service")
	sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logx.Info("Shutting down services...")
	sg.Stop()
}
