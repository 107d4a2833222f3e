package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"worldmirror/client"
)

// worldmirror 入口：连接服务端，维护本地世界镜像，从标准输入读取按键控制
func main() {
	cfg, err := client.LoadConfigFromEnv()
	if err != nil {
		panic(err)
	}
	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "server websocket url, e.g. ws://localhost:8080/ws")
	flag.StringVar(&cfg.Username, "username", cfg.Username, "display name sent with join_game")
	flag.StringVar(&cfg.LogFile, "log", cfg.LogFile, "log file path (rolling); empty logs to stderr")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.StringVar(&cfg.StatusAddr, "status", cfg.StatusAddr, "status http listen address, e.g. :9090; empty disables")
	flag.BoolVar(&cfg.AutoGreet, "greet", cfg.AutoGreet, "send a chat greeting when a peer comes near")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if err := client.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer client.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		client.Log.Errorf("exit: %v", err)
		client.SyncLogger()
		os.Exit(1)
	}
	client.Log.Info("Shutting down...")
}

func run(ctx context.Context, cfg client.Config) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, err := client.Dial(dialCtx, cfg.ServerURL)
	cancel()
	if err != nil {
		return err
	}
	client.Log.Infof("connected to %s as %q", cfg.ServerURL, cfg.Username)

	session := client.NewSession(cfg, conn, nil)
	session.Post(session.Join)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(ctx)
	})
	g.Go(func() error {
		err := conn.Run(ctx, session.PostMessage)
		session.Post(session.HandleDisconnect)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("connection closed by server")
		}
		return err
	})
	if cfg.StatusAddr != "" {
		srv := &http.Server{Addr: cfg.StatusAddr, Handler: client.NewStatusMux(session)}
		g.Go(func() error {
			client.Log.Infof("status listening on %s", cfg.StatusAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	// 标准输入读取无法被取消，不纳入 errgroup 等待
	go func() {
		if err := client.ReadControls(ctx, os.Stdin, session); err != nil {
			client.Log.Warnf("controls: %v", err)
		}
	}()

	return g.Wait()
}
