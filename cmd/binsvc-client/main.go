// Command binsvc-client is a demo host for binary services.
//
// It registers the binsvc-echo reference service (build it first and place
// the executable under <root>/bin/, or <root>/bin/<GOOS>/), round-trips a few
// calls and waits for an emitted event.
//
// Usage:
//
//	go build -o bin/binsvc-echo ./cmd/binsvc-echo
//	go run ./cmd/binsvc-client -root .
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	binsvc "github.com/smnsjas/go-binsvc"
	"github.com/smnsjas/go-binsvc/events"
	"github.com/smnsjas/go-binsvc/logging"
)

func main() {
	root := flag.String("root", ".", "resource root containing bin/")
	flag.Parse()

	zl, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := logging.NewZap(zl)

	reg := binsvc.New(
		binsvc.WithLogger(logger),
		binsvc.WithRoot(*root),
	)
	defer reg.Close()

	notified := make(chan json.RawMessage, 1)
	err = reg.Register(binsvc.Binding{
		Name:           "echo",
		Binary:         "binsvc-echo",
		DefaultTimeout: 5 * time.Second,
		Events: map[string]events.Handler{
			"notify": func(data json.RawMessage) { notified <- data },
		},
	})
	if err != nil {
		log.Fatalf("register: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	echo := reg.Caller("echo")

	var sum float64
	if err := echo.Invoke(ctx, "sum", &sum, 1, 2, 39); err != nil {
		log.Fatalf("sum: %v", err)
	}
	logger.Info("sum result", "value", sum)

	result, err := echo.Call(ctx, "echo", "hello", true, 7)
	if err != nil {
		log.Fatalf("echo: %v", err)
	}
	logger.Info("echo result", "raw", string(result))

	if _, err := echo.Call(ctx, "emit", "notify", map[string]any{"reason": "demo"}); err != nil {
		log.Fatalf("emit: %v", err)
	}
	select {
	case data := <-notified:
		logger.Info("event received", "data", string(data))
	case <-time.After(5 * time.Second):
		log.Fatal("no event received")
	}

	// A remote failure surfaces as an error on the caller.
	if _, err := echo.Call(ctx, "fail", "intentional"); err != nil {
		logger.Info("expected failure", "err", err.Error())
	}
}
