package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"

	"folio/internal/application/service"
	"folio/internal/infrastructure/config"
	"folio/internal/infrastructure/logger"
	"folio/internal/infrastructure/svc"
)

// bootstrap 读取配置、设置日志并初始化所有依赖
func bootstrap(ctx context.Context) (*svc.ServiceContext, func(), error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config %s: %w", *configPath, err)
	}

	logCloser := logger.Configure(logger.Options{
		Level:      cfg.Log.Level,
		Pretty:     cfg.Log.Pretty,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		closeQuietly(logCloser)
		return nil, nil, err
	}

	cleanup := func() {
		_ = sc.Close()
		closeQuietly(logCloser)
	}
	return sc, cleanup, nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

// fail 把错误打印给用户；输入错误只显示提示文字
func fail(err error) subcommands.ExitStatus {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintln(os.Stderr, ve.Msg)
		return subcommands.ExitUsageError
	}
	log.Error().Err(err).Msg("command failed")
	return subcommands.ExitFailure
}
