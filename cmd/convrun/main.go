// Command convrun programs the convolution accelerator, streams a test
// pattern through it and checks every output against the reference model.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/sarchlab/convaccel/api"
	"github.com/sarchlab/convaccel/config"
	"github.com/sarchlab/convaccel/metrics"
	"github.com/sarchlab/convaccel/regs"
	"github.com/tebeka/atexit"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

type options struct {
	configPath  string
	preset      string
	logLevel    string
	logFormat   string
	metricsAddr string
	reportFile  string
}

func parseFlags() options {
	var o options

	flag.StringVar(&o.configPath, "config", "", "YAML run configuration")
	flag.StringVar(&o.preset, "preset", "conv2d-8x8",
		"Built-in configuration ("+strings.Join(config.PresetNames(), ", ")+
			"), used without -config")
	flag.StringVar(&o.logLevel, "log-level", "info",
		"Log level (trace, debug, info, warn, error)")
	flag.StringVar(&o.logFormat, "log-format", "json", "Log format (json, text)")
	flag.StringVar(&o.metricsAddr, "metrics-addr", "",
		"Address to serve prometheus metrics on, e.g. :9090")
	flag.StringVar(&o.reportFile, "report", "",
		"Write the full verification report to this file")
	flag.Parse()

	return o
}

func setupLogging(o options) error {
	var level slog.Level

	switch strings.ToLower(o.logLevel) {
	case "trace":
		level = regs.LevelTrace
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return &regs.ConfigError{
			Field:  "log-level",
			Reason: fmt.Sprintf("unknown level %q", o.logLevel),
		}
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch o.logFormat {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return &regs.ConfigError{
			Field:  "log-format",
			Reason: fmt.Sprintf("unknown format %q", o.logFormat),
		}
	}

	slog.SetDefault(slog.New(handler))

	return nil
}

func loadConfig(o options) (config.Config, error) {
	var (
		c   config.Config
		err error
	)

	if o.configPath != "" {
		c, err = config.Load(o.configPath)
	} else {
		c, err = config.Preset(o.preset)
	}

	if err != nil {
		return c, err
	}

	if o.reportFile != "" {
		c.Report.File = o.reportFile
	}

	return c, nil
}

func serveMetrics(addr string) {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		slog.Error("cannot register metrics", "Error", err)
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("metrics server stopped", "Error", err)
		}
	}()
}

// exitCode maps an error to the process status.
func exitCode(err error) int {
	var cfgErr *regs.ConfigError
	if errors.As(err, &cfgErr) {
		return exitConfig
	}

	return exitFailed
}

func runOnce(p *config.Platform, s *api.Session, sink io.Writer) int {
	summary, err := s.Run(p.Kernel, xid.New().String())
	if err != nil {
		return exitCode(err)
	}

	if p.Config.Report.File != "" {
		if err := summary.SaveToFile(p.Config.Report.File); err != nil {
			slog.Error("cannot save report", "Error", err)
			return exitFailed
		}
	}

	fmt.Fprint(sink, "Program Finished.\r\n")

	if !summary.OK() {
		return exitFailed
	}

	return exitOK
}

func runSelector(p *config.Platform, s *api.Session) int {
	sel, err := p.Selector(s)
	if err != nil {
		return exitCode(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("waiting for switches",
		"Interval", p.Config.Selector.PollInterval,
		"MaxPolls", p.Config.Selector.MaxPolls,
	)

	err = sel.Loop(ctx,
		p.Config.Selector.PollInterval,
		p.Config.Selector.MaxPolls)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("selector stopped", "Error", err)
		return exitFailed
	}

	if s.Failed() {
		return exitFailed
	}

	return exitOK
}

// run executes the configured passes and returns the exit code and whether
// control goes back to the boot monitor. Only a single-shot run hands off;
// the switch loop stops on a signal or its poll budget.
func run(p *config.Platform, s *api.Session, sink io.Writer) (int, bool) {
	if p.Config.Selector.Enabled {
		return runSelector(p, s), false
	}

	return runOnce(p, s, sink), true
}

func main() {
	o := parseFlags()

	if err := setupLogging(o); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(exitConfig)
	}

	c, err := loadConfig(o)
	if err != nil {
		slog.Error("invalid configuration", "Error", err)
		atexit.Exit(exitCode(err))
	}

	sink := os.Stdout

	p, err := config.PlatformBuilder{}.
		WithConfig(c).
		WithSink(sink).
		Build("ConvAccel")
	if err != nil {
		slog.Error("cannot build platform", "Error", err)
		atexit.Exit(exitCode(err))
	}

	atexit.Register(func() {
		if err := p.Close(); err != nil {
			slog.Error("cannot release device", "Error", err)
		}
	})

	if o.metricsAddr != "" {
		serveMetrics(o.metricsAddr)
	}

	code, handoff := run(p, p.Session(sink), sink)
	if !handoff {
		atexit.Exit(code)
	}

	monitor := api.HandoffFunc(func(addr uint32) {
		slog.Info("returning to monitor",
			"Address", fmt.Sprintf("0x%08X", addr),
			"Code", code,
		)
		atexit.Exit(code)
	})

	monitor.JumpTo(c.HandoffAddress)
}
