// Command reactive-demo publishes a stream of sensor readings through a
// router, records them in an observable list, and waits for a match over
// the recorded readings.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/baxromumarov/reactive"
	"github.com/baxromumarov/reactive/internal/observable"
	"github.com/baxromumarov/reactive/redisfeed"
)

type event interface{ isEvent() }

type ReadingTaken struct {
	Seq   int     `json:"seq"`
	Value float64 `json:"value"`
}

type AlarmRaised struct {
	Seq    int    `json:"seq"`
	Reason string `json:"reason"`
}

func (ReadingTaken) isEvent() {}
func (AlarmRaised) isEvent()  {}

// recorder keeps every reading it is told about.
type recorder struct {
	subs     reactive.Subscriptions
	readings *observable.List[float64]
}

func (r *recorder) Subscriptions() *reactive.Subscriptions { return &r.subs }

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, fs, err := LoadConfig(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if help, _ := fs.GetBool("help"); help {
		fmt.Fprintln(os.Stderr, "Usage: reactive-demo [flags]")
		fs.PrintDefaults()
		return nil
	}

	log := cfg.Logger(os.Stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	metrics := reactive.NewMetrics(reg, "reactive_demo")
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opts := []reactive.Option{
		reactive.WithLogger(log),
		reactive.WithMetrics(metrics),
		reactive.WithBuffer(cfg.Buffer),
	}
	router := reactive.NewRouter[event](opts...)
	defer router.Close()

	rec := &recorder{readings: observable.NewList[float64](opts...)}
	defer rec.readings.Close()

	reactive.Subscribe(router, rec, func(ctx context.Context, ev ReadingTaken) error {
		return rec.readings.Add(ev.Value)
	})
	reactive.Subscribe(router, rec, func(ctx context.Context, ev AlarmRaised) error {
		log.WithFields(logrus.Fields{"seq": ev.Seq, "reason": ev.Reason}).Warn("alarm")
		return nil
	})

	if cfg.Redis.Addr != "" {
		closeBridge, err := bridgeToRedis(ctx, cfg.Redis, router, log)
		if err != nil {
			return err
		}
		defer closeBridge()
	}

	matchCtx, cancel := reactive.WithTimeout(ctx, cfg.MatchTimeout)
	defer cancel()
	average := reactive.Match(matchCtx, rec.readings, func(items []float64) (float64, bool) {
		if len(items) < cfg.Target {
			return 0, false
		}
		var sum float64
		for _, v := range items[:cfg.Target] {
			sum += v
		}
		return sum / float64(cfg.Target), true
	}, opts...)

	go produce(ctx, router, cfg, log)

	v, err := average.Wait().Get()
	if err != nil {
		log.WithError(err).Error("no average")
	} else {
		log.WithField("average", v).Infof("first %d readings recorded", cfg.Target)
	}

	if err := router.UnsubscribeAll(); err != nil {
		return err
	}
	return rec.subs.Dispose()
}

func produce(ctx context.Context, router *reactive.Router[event], cfg Config, log logrus.FieldLogger) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for seq := 1; seq <= cfg.Readings; seq++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		value := float64(seq%7) * 1.5
		if err := router.Publish(ctx, ReadingTaken{Seq: seq, Value: value}); err != nil {
			log.WithError(err).Debug("stopped publishing")
			return
		}
		if value > cfg.AlarmAbove {
			_ = router.Publish(ctx, AlarmRaised{Seq: seq, Reason: fmt.Sprintf("reading %.1f above %.1f", value, cfg.AlarmAbove)})
		}
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.WithField("addr", addr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	return srv
}

// bridgeToRedis mirrors every router event to Redis and logs what comes
// back on the same channel.
func bridgeToRedis(ctx context.Context, rc RedisConfig, router *reactive.Router[event], log logrus.FieldLogger) (func(), error) {
	rdb := redis.NewClient(&redis.Options{Addr: rc.Addr})

	echoes, closeEchoes, err := redisfeed.Subscribe[map[string]any](ctx, rdb, rc.Channel, reactive.WithLogger(log))
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	var bridge reactive.Subscriptions
	reactive.SubscribeFeed(echoes, &bridge, func(ctx context.Context, msg map[string]any) error {
		log.WithField("message", msg).Debug("redis echo")
		return nil
	}, nil, reactive.WithLogger(log))

	go func() {
		if err := redisfeed.Publish(ctx, rdb, rc.Channel, router.Events()); err != nil {
			log.WithError(err).Warn("redis publishing stopped")
		}
	}()

	return func() {
		_ = bridge.Dispose()
		_ = closeEchoes()
		_ = rdb.Close()
	}, nil
}
