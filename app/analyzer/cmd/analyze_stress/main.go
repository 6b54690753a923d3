package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"strings"

	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/analyzer"
	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/config"
	"github.com/iWorld-y/stress_detector/app/analyzer/pkg/logger"
)

var flagconf string

func init() {
	flag.StringVar(&flagconf, "conf", "app/analyzer/configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}

	// 3. 读取输入：优先使用命令行参数，否则读取标准输入
	text := strings.Join(flag.Args(), " ")
	if text == "" {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			logger.Log.Fatalf("读取标准输入失败: %v", err)
		}
		text = string(data)
	}

	ctx := context.Background()

	// 4. 初始化分析器
	a, err := analyzer.NewFromConfig(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("分析器初始化失败: %v", err)
	}

	// 5. 执行分析并输出 JSON
	analysis, err := a.Analyze(ctx, text)
	if err != nil {
		logger.Log.Fatalf("分析失败: %v", err)
	}
	logger.Log.Debugf("解析来源: %s, 是否修复: %t", analysis.Source, analysis.Repaired)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(analysis.Result); err != nil {
		logger.Log.Fatalf("输出结果失败: %v", err)
	}
}
