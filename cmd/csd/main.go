package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kallenvale/circuitsage/internal/config"
	"github.com/kallenvale/circuitsage/internal/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml")
	addr := flag.String("addr", ":8090", "listen address")
	envDir := flag.String("env-dir", ".", "directory to look for a .env file in")
	flag.Parse()

	if err := logger.Init("info", ""); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.For("csd")

	cfg, err := config.Load(*configPath, *envDir)
	if err != nil {
		log.Fatal("load config", "error", err)
	}

	d, err := newDaemon(cfg)
	if err != nil {
		log.Fatal("build daemon", "error", err)
	}
	defer d.Close()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	d.registerRoutes(router)

	srv := &http.Server{Addr: *addr, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("csd listening", "addr", *addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			log.Error("shutdown", "error", err)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
