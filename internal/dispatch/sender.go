// Hookbridge - Media Server Event Webhook Dispatcher
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookbridge

package dispatch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/hookbridge/internal/config"
	"github.com/tomtom215/hookbridge/internal/logging"
	"github.com/tomtom215/hookbridge/internal/metrics"
	"github.com/tomtom215/hookbridge/internal/models"
)

// HookSource supplies the current hook configuration. The sender reads it
// fresh on every dispatch so config edits apply to the next event without a
// restart.
type HookSource interface {
	Hooks() []models.HookConfig
}

// Sender matches events against the hook configuration and delivers them.
// Safe for concurrent use, although the normalizer calls it from a single
// goroutine per event.
type Sender struct {
	source  HookSource
	formats *FormatterSet
	cfg     config.DeliveryConfig
	limiter *rate.Limiter

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

// NewSender builds a Sender around source. The delivery timeout applies per
// hook, not per event.
func NewSender(source HookSource, cfg config.DeliveryConfig) *Sender {
	s := &Sender{
		source:   source,
		formats:  NewFormatterSet(&http.Client{Timeout: cfg.Timeout}),
		cfg:      cfg,
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
	if cfg.RatePerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	}
	return s
}

// Send delivers event to every matching hook, in configuration order. One
// hook failing never affects the others; nothing is retried.
func (s *Sender) Send(ctx context.Context, event *models.EventInfo) {
	matched := Match(s.source.Hooks(), event)
	if len(matched) == 0 {
		return
	}
	metrics.HooksMatched.Add(float64(len(matched)))

	for _, hook := range matched {
		s.deliver(ctx, hook, event)
	}
}

func (s *Sender) deliver(ctx context.Context, hook models.HookConfig, event *models.EventInfo) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			metrics.Deliveries.WithLabelValues(string(hook.Format), metrics.OutcomeFailure).Inc()
			logging.Warn().Err(err).Str("hook_id", hook.ID).Msg("Delivery aborted while rate limited")
			return
		}
	}

	formatter := s.formats.For(hook.Format)
	start := time.Now()

	var err error
	if s.cfg.BreakerEnabled {
		_, err = s.breaker(hook.URL).Execute(func() (struct{}, error) {
			return struct{}{}, formatter.Send(ctx, hook.URL, event)
		})
	} else {
		err = formatter.Send(ctx, hook.URL, event)
	}
	elapsed := time.Since(start)

	switch {
	case err == nil:
		metrics.Deliveries.WithLabelValues(string(hook.Format), metrics.OutcomeSuccess).Inc()
		metrics.DeliveryDuration.WithLabelValues(string(hook.Format)).Observe(elapsed.Seconds())
		logging.Debug().
			Str("hook_id", hook.ID).
			Str("url", hook.URL).
			Str("event", string(event.Event)).
			Dur("elapsed", elapsed).
			Msg("Webhook delivered")
	case errors.Is(err, ErrSkipped):
		metrics.Deliveries.WithLabelValues(string(hook.Format), metrics.OutcomeSkipped).Inc()
		logging.Debug().
			Str("hook_id", hook.ID).
			Str("event", string(event.Event)).
			Msg("Event has no representation in hook format, skipped")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.Deliveries.WithLabelValues(string(hook.Format), metrics.OutcomeFailure).Inc()
		logging.Warn().
			Str("hook_id", hook.ID).
			Str("url", hook.URL).
			Msg("Delivery rejected, endpoint circuit open")
	default:
		metrics.Deliveries.WithLabelValues(string(hook.Format), metrics.OutcomeFailure).Inc()
		metrics.DeliveryDuration.WithLabelValues(string(hook.Format)).Observe(elapsed.Seconds())
		logging.Warn().
			Err(err).
			Str("hook_id", hook.ID).
			Str("url", hook.URL).
			Str("event", string(event.Event)).
			Msg("Webhook delivery failed")
	}
}

// breaker returns the circuit breaker for endpoint, creating it on first use.
func (s *Sender) breaker(endpoint string) *gobreaker.CircuitBreaker[struct{}] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cb, ok := s.breakers[endpoint]; ok {
		return cb
	}

	metrics.CircuitBreakerState.WithLabelValues(endpoint).Set(0) // 0 = closed
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        endpoint,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrSkipped)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("endpoint", name).
				Str("from", breakerStateName(from)).
				Str("to", breakerStateName(to)).
				Msg("Endpoint circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})
	s.breakers[endpoint] = cb
	return cb
}

func breakerStateName(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
