package observe_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/datasentry/observe"
)

func ExampleNewObserver() {
	cfg := observe.Config{
		ServiceName: "datasentry",
		Version:     "1.0.0",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none"},
		Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
	}

	ctx := context.Background()
	obs, err := observe.NewObserver(ctx, cfg)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer func() {
		_ = obs.Shutdown(ctx)
	}()

	fmt.Println("Observer created successfully")
	// Output:
	// Observer created successfully
}

func ExampleNewObserver_validation() {
	_, err := observe.NewObserver(context.Background(), observe.Config{})
	if errors.Is(err, observe.ErrMissingServiceName) {
		fmt.Println("Caught: missing service name")
	}
	// Output:
	// Caught: missing service name
}

func ExampleCheckMeta_SpanName() {
	meta := observe.CheckMeta{Kind: "relational", Index: 2}
	fmt.Println(meta.SpanName())
	fmt.Println(meta.CheckID())
	// Output:
	// check.exec.relational
	// relational#2
}

func ExampleMiddleware_Wrap() {
	var buf bytes.Buffer
	obs, _ := observe.NewObserver(context.Background(), observe.Config{
		ServiceName: "datasentry",
		Logging:     observe.LoggingConfig{Enabled: true, Level: "info", Writer: &buf},
	})

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	run := mw.Wrap(func(ctx context.Context, meta observe.CheckMeta) (string, error) {
		return "No failures", nil
	})
	status, _ := run(context.Background(), observe.CheckMeta{Kind: "orchestration"})

	fmt.Println(status)
	fmt.Println(strings.Contains(buf.String(), "check execution completed"))
	// Output:
	// No failures
	// true
}

func ExampleNewLoggerWithWriter() {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "connecting", observe.Field{Key: "password", Value: "hunter2"})

	fmt.Println(strings.Contains(buf.String(), "hunter2"))
	fmt.Println(strings.Contains(buf.String(), "[REDACTED]"))
	// Output:
	// false
	// true
}
