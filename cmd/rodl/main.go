package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/client"
	"github.com/wf4ever/rodl-go/internal/config"
	"github.com/wf4ever/rodl-go/internal/infra/cache"
	"github.com/wf4ever/rodl-go/internal/infra/tracing"
	"github.com/wf4ever/rodl-go/roevo"
	"github.com/wf4ever/rodl-go/rosrs"
)

const usage = `usage: rodl [flags] <command> [args]

commands:
  whoami
  show <ro>
  create [id]
  delete <ro>
  aggregate <ro> <file> [content-type]
  annotate <ro> <target> <file>
  snapshot <ro> <target>
  archive <ro> <target>
  search <query>

flags:
`

type app struct {
	config config.Config
	client *client.Client
	rosrs  *rosrs.Service
	roevo  *roevo.Service
}

func main() {
	configPath := flag.String("config", os.Getenv("RODL_CONFIG"), "path to the YAML configuration")
	serviceURI := flag.String("service", os.Getenv("RODL_URI"), "research object collection URI, overrides the configuration")
	token := flag.String("token", os.Getenv("RODL_TOKEN"), "access token, overrides the configuration")
	verbose := flag.Bool("v", false, "log every request")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	conf := config.Default()
	if *configPath != "" {
		var err error
		conf, err = config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if *serviceURI != "" {
		conf.Service.URI = *serviceURI
		if conf.Service.EvoURI == "" {
			conf.Service.EvoURI, _ = rodl.ResolveURI(rodl.EnsureTrailingSlash(*serviceURI), "../evo/")
		}
	}
	if *token != "" {
		conf.Service.Token = *token
	}
	if conf.Service.URI == "" {
		slog.Error("no service uri, use -service or a configuration file")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Telemetry.EnableTrace {
		shutdown, err := tracing.Setup(ctx, "rodl", conf.Telemetry.TraceEndpoint)
		if err != nil {
			slog.Error("failed to setup tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				slog.Warn("failed to flush traces", slog.String("error", err.Error()))
			}
		}()
	}

	a := newApp(conf)
	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		slog.Error(flag.Arg(0)+" failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func newApp(conf config.Config) *app {
	opts := []client.Option{
		client.WithToken(conf.Service.Token),
		client.WithTimeout(conf.Service.Timeout),
	}
	if conf.Service.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(conf.Service.UserAgent))
	}
	if conf.Service.RateLimit > 0 {
		opts = append(opts, client.WithRateLimit(rate.Limit(conf.Service.RateLimit), max(conf.Service.RateBurst, 1)))
	}

	switch conf.Cache.Kind {
	case "memory", "":
		opts = append(opts, client.WithCache(client.NewMemoryCache(conf.Cache.TTL)))
	case "redis":
		rdb := cache.NewRedis(conf.Cache.RedisAddr, conf.Cache.RedisPassword, conf.Cache.RedisDB)
		opts = append(opts, client.WithCache(cache.NewRedisCache(rdb, conf.Cache.TTL)))
	case "memcached":
		mc := cache.NewMemcached(conf.Cache.MemcachedAddr)
		opts = append(opts, client.WithCache(cache.NewMemcachedCache(mc, conf.Cache.TTL)))
	case "none":
	default:
		slog.Warn("unknown cache kind, caching disabled", slog.String("kind", conf.Cache.Kind))
	}

	if conf.Telemetry.EnableMetrics {
		reg := prometheus.NewRegistry()
		opts = append(opts, client.WithMetrics(reg))
		go serveMetrics(conf.Telemetry.MetricsAddr, reg)
	}

	c := client.New(opts...)
	return &app{
		config: conf,
		client: c,
		rosrs:  rosrs.New(c, conf.Service.URI),
		roevo:  roevo.New(c, conf.Service.EvoURI),
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	if addr == "" {
		addr = ":9464"
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("metrics endpoint stopped", slog.String("error", err.Error()))
	}
}
