package main

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/meteorsim/internal/discovery"
	"github.com/san-kum/meteorsim/internal/events"
	"github.com/san-kum/meteorsim/internal/experiment"
	"github.com/san-kum/meteorsim/internal/logging"
	"github.com/san-kum/meteorsim/internal/observability"
	"github.com/san-kum/meteorsim/internal/sim"
)

const serviceName = "meteorsim"

// serve keeps a shower of cfg.Shower.Count bodies falling in real time and
// exposes the simulation on /metrics.
func serve(cmd *cobra.Command, args []string) error {
	name, cfg, err := scenario(cmd, args)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log).With(logging.String("scenario", name))

	s, err := experiment.NewSimulation(cfg, experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector, err := observability.NewSimCollector(reg)
	if err != nil {
		return err
	}
	s.AddObserver(collector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if redisAddr != "" {
		client, err := events.Connect(ctx, redisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		s.AddObserver(events.NewImpactPublisher(client, redisChannel, name, log))
		log.Info("publishing impacts", logging.String("redis", redisAddr), logging.String("channel", redisChannel))
	}

	if consulAddr != "" {
		deregister, err := register(consulAddr, log)
		if err != nil {
			return err
		}
		defer deregister()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics listening", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	rng := rand.New(rand.NewSource(cfg.Seed))
	shower := spawnShower(cfg)
	spawn := func() sim.BodySpec { return experiment.ShowerBody(rng, s.Primary(), shower) }

	ticker := time.NewTicker(tickInterval(cfg.Dt))
	defer ticker.Stop()

	loopErr := keepFalling(ctx, s, ticker.C, errCh, cfg.Shower.Count, spawn, cfg.Dt, cfg.TimeScale)
	if loopErr != nil {
		log.Error("shower stopped", logging.Err(loopErr))
	}
	log.Info("shutting down", logging.Int("impacts", s.Stats().Impacts))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(loopErr, srv.Shutdown(shutdownCtx))
}

// minTick bounds the wall-clock period between steps from below.
const minTick = time.Millisecond

func tickInterval(dt float64) time.Duration {
	d := time.Duration(dt * float64(time.Second))
	if d < minTick {
		return minTick
	}
	return d
}

// keepFalling tops the simulation up to population bodies and steps it on
// every tick. It returns nil when ctx ends and the first failure otherwise.
func keepFalling(ctx context.Context, s *sim.Simulation, ticks <-chan time.Time, errCh <-chan error,
	population int, spawn func() sim.BodySpec, dt, timeScale float64) error {
	if population <= 0 {
		population = 1
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		case <-ticks:
			for s.Len() < population {
				if _, err := s.Spawn(spawn()); err != nil {
					return err
				}
			}
			if _, err := s.Step(dt, timeScale, false); err != nil {
				return err
			}
		}
	}
}

// register announces the metrics endpoint to Consul and returns the matching
// deregistration.
func register(agent string, log logging.Logger) (func(), error) {
	registry, err := discovery.NewRegistry(agent)
	if err != nil {
		return nil, err
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}
	if host == "" {
		if host, err = os.Hostname(); err != nil {
			return nil, err
		}
	}

	id := discovery.InstanceID(serviceName)
	health := "http://" + net.JoinHostPort(host, portStr) + "/healthz"
	if err := registry.Register(discovery.Registration(id, serviceName, host, port, health)); err != nil {
		return nil, err
	}
	log.Info("registered with consul", logging.String("id", id), logging.String("agent", agent))

	return func() {
		if err := registry.Deregister(id); err != nil {
			log.Warn("consul deregister failed", logging.Err(err))
		}
	}, nil
}
