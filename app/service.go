// Package app wires the simulation engine to its transports and sinks.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	apisim "github.com/kilianp07/ridesim/api/simulation"
	"github.com/kilianp07/ridesim/config"
	"github.com/kilianp07/ridesim/core/dispatch/logging"
	"github.com/kilianp07/ridesim/core/events"
	coremetrics "github.com/kilianp07/ridesim/core/metrics"
	"github.com/kilianp07/ridesim/core/monitoring"
	"github.com/kilianp07/ridesim/core/simulation"
	"github.com/kilianp07/ridesim/infra/logger"
	"github.com/kilianp07/ridesim/infra/metrics"
	infmon "github.com/kilianp07/ridesim/infra/monitoring"
	"github.com/kilianp07/ridesim/infra/mqtt"
	"github.com/kilianp07/ridesim/internal/eventbus"
)

const drainTimeout = 10 * time.Second

// Service owns the engine and every background worker feeding off its events.
type Service struct {
	Engine *simulation.Engine

	cfg       *config.Config
	bus       *eventbus.TypedBus[events.Event]
	sink      coremetrics.MetricsSink
	store     logging.LogStore
	publisher *mqtt.EventPublisher
	stream    *apisim.Stream
	server    *http.Server
	log       logger.Logger

	closeOnce sync.Once
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.LogLevel)
	logg := logger.New("service")

	mon, err := infmon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.NewTyped[events.Event]()
	eng, err := simulation.New(simulation.Options{
		Config:       cfg.Simulation.Model(),
		Scoring:      cfg.Scoring,
		HistoryLimit: cfg.Simulation.History(),
		Bus:          bus,
		Logger:       logger.New("engine"),
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	svc := &Service{Engine: eng, cfg: cfg, bus: bus, sink: sink, log: logg}

	if cfg.Logging.Enabled {
		store, err := logging.Open(cfg.Logging.Options())
		if err != nil {
			return nil, fmt.Errorf("decision log: %w", err)
		}
		svc.store = store
	}

	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewEventPublisher(cfg.MQTT)
		if err != nil {
			svc.closeStores()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
	}

	svc.stream = apisim.NewStream(eng, logger.New("stream"), nil)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := apisim.NewRouter(eng, apisim.RouterOptions{
		Seeds:       cfg.Simulation.SeedDrivers,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Logs:        svc.store,
		LogsToken:   cfg.HTTP.LogsToken,
		Stream:      svc.stream,
		Logger:      logger.New("http"),
	})
	svc.server = &http.Server{Addr: cfg.HTTP.Addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	return svc, nil
}

// Run starts the workers and the HTTP server and blocks until ctx is
// cancelled or the server fails. On the way out the event bus is closed and
// the decision log, metrics and MQTT consumers drain what is pending.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Event consumers outlive ctx so they can drain the bus on shutdown.
	workers, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var wait []<-chan struct{}
	wait = append(wait, metrics.StartEventCollector(workers, s.bus, s.sink))
	if s.store != nil {
		wait = append(wait, logging.StartRecorder(workers, s.bus, s.store, logger.New("decision-log")))
	}
	if s.publisher != nil {
		sub := s.bus.SubscribeQueued()
		done := make(chan struct{})
		monitoring.Go("mqtt", func() {
			defer close(done)
			defer s.bus.Unsubscribe(sub)
			s.publisher.Run(workers, sub)
		})
		wait = append(wait, done)
	}
	streamSub := s.bus.Subscribe()
	monitoring.Go("stream", func() {
		defer s.bus.Unsubscribe(streamSub)
		s.stream.Run(ctx, streamSub)
	})
	if s.cfg.Metrics.PrometheusAddr != "" {
		monitoring.Go("prom-server", func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		})
	}
	if s.cfg.Simulation.AutoTick {
		monitoring.Go("auto-tick", func() { s.autoTick(ctx) })
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
		cancel()
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("http shutdown: %v", err)
	}
	s.bus.Close()
	drain := time.NewTimer(drainTimeout)
	defer drain.Stop()
	for _, done := range wait {
		select {
		case <-done:
		case <-drain.C:
			s.log.Warnf("event consumers still draining after %s; stopping them", drainTimeout)
			stopWorkers()
			<-done
		}
	}
	if n := s.bus.Dropped(); n > 0 {
		s.log.Warnf("live stream skipped %d events", n)
	}
	return runErr
}

// autoTick advances the engine every tick interval. The interval is re-read
// each round so configuration updates take effect.
func (s *Service) autoTick(ctx context.Context) {
	s.log.Infof("auto tick enabled")
	timer := time.NewTimer(s.interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.Engine.Tick()
			timer.Reset(s.interval())
		}
	}
}

func (s *Service) interval() time.Duration {
	return time.Duration(s.Engine.Config().TickInterval) * time.Millisecond
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.publisher != nil {
			s.publisher.Close()
		}
		s.bus.Close()
		if c, ok := s.sink.(interface{ Close() }); ok {
			c.Close()
		}
		err = s.closeStores()
		monitoring.Flush(2 * time.Second)
	})
	return err
}

func (s *Service) closeStores() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
