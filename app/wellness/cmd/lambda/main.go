package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/env"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/stress_detector/app/wellness/internal/conf"
)

// ConfEnv 配置文件路径的环境变量
const ConfEnv = "WELLNESS_CONF"

var (
	Name    string = "wellness-lambda"
	Version string
)

func main() {
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", Name,
		"service.version", Version,
	)

	path := os.Getenv(ConfEnv)
	if path == "" {
		path = "configs/config.yaml"
	}
	c := config.New(
		config.WithSource(
			env.NewSource(),
			file.NewSource(path),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	// 冷启动时完成依赖注入，之后每次调用复用同一个 HTTP 处理器
	srv, cleanup, err := initServer(bc.Server, bc.Data, bc.Auth, bc.Analyzer, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	log.NewHelper(logger).Info("lambda handler initialized")
	lambda.Start(httpadapter.NewV2(srv).ProxyWithContext)
}
