package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/tracing"

	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

// session is the state shared by every command of one invocation.
type session struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	cfg     *config.Config
	runID   string
	metrics *metrics.Metrics
	checker *health.Checker
	span    *tracing.Span

	shutdownMetrics func(context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp(os.Stdin, os.Stdout, os.Stderr).RunContext(ctx, os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wordindex: %v\n", err)
	}
	stop()
	os.Exit(apperrors.ExitCode(err))
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	rt := &session{stdin: stdin, stdout: stdout, stderr: stderr}
	return &cli.App{
		Name:      "wordindex",
		Usage:     "Index the distinct words of text by line number",
		Version:   version,
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.yaml or .toml)",
				EnvVars: []string{"WI_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json",
			},
			&cli.IntFlag{
				Name:  "metrics-port",
				Usage: "Serve /metrics and health probes on this port (0 picks a free port)",
				Value: -1,
			},
		},
		Before: rt.before,
		After:  rt.after,
		Commands: []*cli.Command{
			rt.scenariosCommand(),
			rt.indexCommand(),
			rt.lookupCommand(),
			rt.produceCommand(),
			rt.consumeCommand(),
		},
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func (rt *session) before(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitUsage, "loading config: %v", err)
	}
	if v := c.String("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := c.String("log-format"); v != "" {
		cfg.Logging.Format = v
	}
	if port := c.Int("metrics-port"); port >= 0 {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = port
	}
	rt.cfg = cfg
	logger.SetupWriter(rt.stderr, cfg.Logging.Level, cfg.Logging.Format)

	rt.runID = strconv.FormatInt(time.Now().UnixNano(), 36)
	rt.checker = health.NewChecker()
	if cfg.Metrics.Enabled {
		rt.metrics = metrics.New()
		addr, shutdown, err := metrics.StartServer(cfg.Metrics.Port, rt.metrics, rt.checker)
		if err != nil {
			return apperrors.New(apperrors.ErrSinkUnavailable, apperrors.ExitUnavailable, err.Error())
		}
		rt.shutdownMetrics = shutdown
		slog.Debug("metrics enabled", "addr", addr)
	}
	return nil
}

// start opens the root span of a command.
func (rt *session) start(c *cli.Context) context.Context {
	ctx := logger.WithRunID(c.Context, rt.runID)
	ctx, rt.span = tracing.StartSpan(ctx, c.Command.Name, rt.runID)
	return ctx
}

func (rt *session) after(c *cli.Context) error {
	if rt.span != nil {
		rt.span.End()
		rt.span.Log(slog.Default())
	}
	if rt.shutdownMetrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return rt.shutdownMetrics(ctx)
	}
	return nil
}
