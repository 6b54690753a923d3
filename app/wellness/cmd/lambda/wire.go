//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final binary.

package main

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"

	"github.com/iWorld-y/stress_detector/app/wellness/internal/conf"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/server"
)

// initServer 构建 HTTP 处理器，由 Lambda 适配器驱动而不监听端口
func initServer(*conf.Server, *conf.Data, *conf.Auth, *conf.Analyzer, log.Logger) (*http.Server, func(), error) {
	panic(wire.Build(server.ProviderSet))
}
