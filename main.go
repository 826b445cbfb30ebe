package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg := LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logError("received shutdown signal")
		cancel()
	}()

	pool, err := OpenPool(ctx, cfg)
	if err != nil {
		logError("%s", classifyStartup(err, cfg).Message)
		os.Exit(1)
	}
	defer pool.Close()

	// No protocol traffic is served until the account is confirmed read-only.
	if err := NewVerifier(pool, cfg).VerifyReadOnly(ctx); err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	server := NewServer(ctx, pool)
	logError("MySQL MCP server started (read-only account %q at %s)", cfg.User, cfg.Addr())

	if err := server.Run(); err != nil {
		if err == context.Canceled {
			logError("server shutdown gracefully")
			return
		}
		logError("server error: %v", err)
		os.Exit(1)
	}
}
