/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

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
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dirpx.dev/diamond/internal/manifest"
	"dirpx.dev/diamond/internal/runner"
	"dirpx.dev/diamond/metrics"
)

// storeFlags override the manifest store.
type storeFlags struct {
	driver string
	path   string
}

func (s *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.driver, "store", "", "Override the manifest store driver (memory, badger)")
	cmd.Flags().StringVar(&s.path, "data-dir", "", "Badger data directory when --store=badger")
}

func (s *storeFlags) options(m *metrics.Metrics) runner.Options {
	return runner.Options{Logger: logger, Metrics: m, Driver: s.driver, Path: s.path}
}

func newRunCmd() *cobra.Command {
	var (
		store       storeFlags
		metricsAddr string
		linger      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run <manifest.yaml>",
		Short: "Create a router from a manifest and replay its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if metricsAddr == "" {
				return runScenario(ctx, cmd.OutOrStdout(), m, store.options(nil))
			}

			reg := prometheus.NewRegistry()
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("serving metrics", zap.String("addr", metricsAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				err := runScenario(gctx, cmd.OutOrStdout(), m, store.options(metrics.New(reg)))
				if err == nil && linger > 0 {
					select {
					case <-gctx.Done():
					case <-time.After(linger):
					}
				}
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
					err = serr
				}
				return err
			})
			return g.Wait()
		},
	}
	store.register(cmd)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	cmd.Flags().DurationVar(&linger, "linger", 0, "Keep serving metrics this long after the scenario ends")
	return cmd
}

func runScenario(ctx context.Context, out io.Writer, m *manifest.Manifest, opts runner.Options) error {
	env, err := runner.Bootstrap(ctx, m, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := env.Close(); cerr != nil {
			logger.Warn("close failed", zap.Error(cerr))
		}
	}()
	fmt.Fprintf(out, "router %s\n", env.Router.Address())

	outcomes, err := env.Run(ctx, m.Steps)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESULT\tSTEP\tTX")
	for _, o := range outcomes {
		tx := "-"
		if o.Receipt != nil {
			tx = o.Receipt.ID.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Result, o.Step, tx)
	}
	if ferr := tw.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}
