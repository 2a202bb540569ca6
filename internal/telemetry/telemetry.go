// Package telemetry reports docchat traces and errors to Sentry. Every helper
// degrades to a no-op when no DSN is configured.
package telemetry

import (
	"log"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	serverName = "docchat"

	flushTimeout = 5 * time.Second
)

// Config selects the Sentry project and sampling for a docchatd process.
type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
}

// Init starts the Sentry client and returns a func that flushes buffered
// events. An empty DSN or a client error leaves tracing off; neither stops the
// server from booting.
func Init(cfg Config) (func(), error) {
	noop := func() {}
	if cfg.DSN == "" {
		return noop, nil
	}

	env := cfg.Environment
	if env == "" {
		env = "development"
	}
	rate := sampleRate(cfg.TracesSampleRate)

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      env,
		ServerName:       serverName,
		Debug:            cfg.Debug,
		EnableTracing:    true,
		TracesSampleRate: rate,
		TracesSampler: func(sc sentry.SamplingContext) float64 {
			return sampleDecision(sc.Span, rate)
		},
	})
	if err != nil {
		log.Printf("telemetry: sentry disabled: %v", err)
		return noop, nil
	}

	log.Printf("telemetry: sentry enabled (environment %s, traces %.2f)", env, rate)
	return func() { sentry.Flush(flushTimeout) }, nil
}

// sampleRate treats an unset rate as "trace everything" and clamps the rest.
func sampleRate(rate float64) float64 {
	switch {
	case rate <= 0:
		return 1.0
	case rate > 1:
		return 1.0
	default:
		return rate
	}
}

// sampleDecision drops health checks and keeps child spans in step with their
// parent so ingestion jobs are traced whole or not at all.
func sampleDecision(span *sentry.Span, rate float64) float64 {
	if span == nil {
		return rate
	}
	if span.Name == "GET /health" || span.Op == "http.server GET /health" {
		return 0
	}
	var root sentry.SpanID
	if span.ParentSpanID != root {
		if span.Sampled.Bool() {
			return 1
		}
		return 0
	}
	return rate
}
