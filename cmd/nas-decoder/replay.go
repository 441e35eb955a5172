package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ellanetworks/nas-decoder/internal/config"
	"github.com/ellanetworks/nas-decoder/internal/dispatch"
	"github.com/ellanetworks/nas-decoder/internal/logger"
	"github.com/ellanetworks/nas-decoder/internal/metrics"
	"github.com/ellanetworks/nas-decoder/internal/trace"
)

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:      "replay",
		Usage:     "feed a captured trace through the decoder and print the resulting PDU sessions",
		ArgsUsage: "TRACE.pcap",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "config file `PATH`; defaults and NAS_DECODER_* variables apply without it",
			},
			&cli.BoolFlag{
				Name:  "wait",
				Usage: "keep serving metrics after the replay until interrupted",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("exactly one trace file is required")
			}

			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("couldn't load config: %w", err)
			}

			level, err := cfg.LogLevel()
			if err != nil {
				return err
			}

			logger.Init(level)
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return replay(ctx, cfg, c.Args().First(), c.Bool("wait"), c.App.Writer)
		},
	}
}

func replay(ctx context.Context, cfg config.Config, tracePath string, wait bool, out io.Writer) error {
	in, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("could not open trace: %v", err)
	}
	defer in.Close()

	reader, err := trace.NewReader(in)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	opts := dispatch.Options{
		QueueSize: cfg.Dispatch.QueueSize,
		Strict:    cfg.Decoder.Strict,
		Metrics:   metrics.NewCollector(reg),
	}

	if cfg.Trace.Enabled {
		f, err := os.Create(cfg.Trace.Path)
		if err != nil {
			return fmt.Errorf("could not create trace file: %v", err)
		}
		defer f.Close()

		w, err := trace.NewWriter(f)
		if err != nil {
			return err
		}

		opts.Trace = w
	}

	d := dispatch.New(opts)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Address != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			ReadHeaderTimeout: 5 * time.Second,
		}

		eg.Go(func() error {
			logger.Logger.Info("serving metrics", zap.String("address", cfg.Metrics.Address))

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}

			return nil
		})

		eg.Go(func() error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			return srv.Shutdown(shutdownCtx)
		})
	}

	replayed := make(chan struct{})

	eg.Go(func() error {
		defer close(replayed)
		return d.Run(ctx)
	})

	eg.Go(func() error {
		defer d.Close()

		n := 0

		for {
			rec, err := reader.Next()
			if errors.Is(err, io.EOF) {
				logger.Logger.Info("replayed trace", zap.Int("records", n))
				return nil
			}

			if err != nil {
				return err
			}

			if err := d.Submit(ctx, rec.SDU); err != nil {
				return err
			}

			n++
		}
	})

	select {
	case <-replayed:
	case <-ctx.Done():
	}

	b, err := yaml.Marshal(d.Sessions().List())
	if err != nil {
		return fmt.Errorf("could not marshal sessions: %v", err)
	}

	if _, err := out.Write(b); err != nil {
		return err
	}

	if wait && cfg.Metrics.Address != "" {
		<-ctx.Done()
	}

	cancel()

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
