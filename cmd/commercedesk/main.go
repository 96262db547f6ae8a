package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/talkincode/commercedesk/config"
	"github.com/talkincode/commercedesk/internal/adminapi"
	"github.com/talkincode/commercedesk/internal/app"
	"github.com/talkincode/commercedesk/internal/webserver"
)

var (
	cfile    = flag.String("c", "commercedesk.yml", "config file path")
	initdb   = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	showVer  = flag.Bool("v", false, "print version and exit")
	gitShort = "dev"
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println("commercedesk", gitShort)
		return
	}

	cfg := config.LoadConfig(*cfile)
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	server := webserver.Init(cfg, application.DB())
	adminapi.Init(application.CommerceService(), application.AttachmentStore())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			zap.L().Fatal("web server failed", zap.Error(err))
		}
	case sig := <-sigCh:
		zap.L().Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			zap.L().Error("shutdown error", zap.Error(err))
		}
	}
}
