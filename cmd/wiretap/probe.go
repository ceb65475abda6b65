package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/wiretap/pkg/classify"
	"github.com/go-go-golems/wiretap/pkg/config"
	"github.com/go-go-golems/wiretap/pkg/httpwrap"
	"github.com/go-go-golems/wiretap/pkg/intercept"
	"github.com/go-go-golems/wiretap/pkg/telemetry"
	"github.com/go-go-golems/wiretap/pkg/tracing"
)

func newProbeCommand() *cobra.Command {
	var (
		configFile string
		firstParty []string
		internal   []string
		traceOn    bool
		rumOn      bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe [urls...]",
		Short: "Send instrumented requests and print the resource events they produce",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &config.Config{
				FirstPartyHosts:         firstParty,
				InternalEndpoints:       internal,
				TracingEnabled:          traceOn,
				ResourceTrackingEnabled: rumOn,
			}
			if configFile != "" {
				loaded, err := config.Load(configFile)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			return runProbe(cmd.Context(), cfg, args, timeout)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "YAML config file (overrides the other flags)")
	cmd.Flags().StringSliceVar(&firstParty, "first-party", nil, "first-party hosts")
	cmd.Flags().StringSliceVar(&internal, "internal", nil, "SDK-internal intake URLs")
	cmd.Flags().BoolVar(&traceOn, "tracing", true, "inject trace headers into first-party requests")
	cmd.Flags().BoolVar(&rumOn, "rum", true, "emit resource events")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")

	return cmd
}

func runProbe(ctx context.Context, cfg *config.Config, urls []string, timeout time.Duration) error {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, telemetry.NewWatermillLogger(log.Logger))
	defer func() {
		if err := pubsub.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close pubsub")
		}
	}()

	messages, err := pubsub.Subscribe(ctx, telemetry.ResourceTopic)
	if err != nil {
		return errors.Wrap(err, "could not subscribe to resource events")
	}

	publisher := telemetry.NewPublisherManager()
	publisher.SubscribePublisher(telemetry.ResourceTopic, pubsub)

	engine := intercept.NewEngine(
		intercept.WithFirstPartyHosts(classify.NewFirstPartyHosts(cfg.FirstPartyHosts)),
		intercept.WithInternalEndpoints(classify.NewInternalEndpoints(cfg.InternalEndpoints)),
		intercept.WithTracer(tracing.HeaderTracer{}),
		intercept.WithTracing(cfg.TracingEnabled),
		intercept.WithResourceTracking(cfg.ResourceTrackingEnabled),
		intercept.WithHandler(telemetry.NewResourceHandler(publisher)),
		intercept.WithHandler(telemetry.NewSpanHandler(telemetry.ZerologSpanSink{Logger: log.Logger})),
	)

	go func() {
		for msg := range messages {
			fmt.Println(string(msg.Payload))
			msg.Ack()
		}
	}()

	client := &http.Client{
		Transport: httpwrap.NewTransport(engine),
		Timeout:   timeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, raw := range urls {
		raw := raw
		g.Go(func() error {
			req, err := http.NewRequestWithContext(gctx, http.MethodGet, raw, nil)
			if err != nil {
				return errors.Wrapf(err, "invalid url %s", raw)
			}
			resp, err := client.Do(req)
			if err != nil {
				// request failures are telemetry, not command failures
				log.Warn().Err(err).Str("url", raw).Msg("request failed")
				return nil
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			return resp.Body.Close()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	engine.Flush()

	// give the in-process pubsub a beat to deliver the tail of events
	select {
	case <-time.After(250 * time.Millisecond):
	case <-ctx.Done():
	}
	return nil
}
