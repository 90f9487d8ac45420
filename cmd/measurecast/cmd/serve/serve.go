// Package serve runs the relay: the OSC bridge and the web server that
// pushes its timing events to browsers.
package serve

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/measurecast/cmd/application"
	"github.com/agentstation/measurecast/internal/bridge"
	"github.com/agentstation/measurecast/internal/metrics"
	"github.com/agentstation/measurecast/internal/server"
	"github.com/agentstation/measurecast/internal/server/events/adapters"
	"github.com/agentstation/measurecast/pkg/constants"
	"github.com/agentstation/measurecast/pkg/errors"
)

// banner is printed to stdout when the relay starts.
const banner = `
Measure Visualizer

`

// ShutdownTimeout bounds how long Run waits for HTTP connections to drain.
var ShutdownTimeout = constants.ShutdownTimeout

// Run starts the relay and blocks until ctx is cancelled or a listener fails.
// A cancelled context is a graceful shutdown and returns nil.
//
// The OSC socket is bound before the HTTP listener, so a bind failure
// returns before anything is served.
func Run(ctx context.Context, app application.Application) error {
	settings := app.Settings()
	logger := app.Logger()
	out := app.Stdout()

	if err := settings.OSC.Validate(); err != nil {
		return err
	}
	webCfg := settings.Web
	if len(webCfg.CORSOrigins) > 0 {
		webCfg.CORSEnabled = true
	}

	var m *metrics.Metrics
	if webCfg.MetricsEnabled {
		m = metrics.New()
	}

	var b *bridge.Bridge
	opts := []server.Option{
		server.WithMetrics(m),
		server.WithReadiness(func() error {
			if b.Addr() == nil {
				return fmt.Errorf("osc listener not bound")
			}
			return nil
		}),
	}

	if settings.NATS.Enabled() {
		mirror, err := adapters.DialNATS(settings.NATS.URL, settings.NATS.Subject, logger)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithSubscriber(mirror))
	}

	srv := server.New(webCfg, logger, opts...)
	b = bridge.New(settings.OSC, srv.Broadcaster(), logger, bridge.WithMetrics(m))

	_, _ = fmt.Fprint(out, banner)

	if err := b.Open(); err != nil {
		closeRegistries(srv)
		return err
	}

	ln, err := net.Listen("tcp", webCfg.Address())
	if err != nil {
		_ = b.Close()
		closeRegistries(srv)
		return errors.NewBindError("tcp", webCfg.Address(), err)
	}

	_, _ = fmt.Fprintf(out, "Listening for OSC messages on %s\n", b.Addr())
	_, _ = fmt.Fprintf(out, "Web server running: http://%s\n", displayAddr(ln.Addr()))

	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: webCfg.ReadHeaderTimeout,
		IdleTimeout:       webCfg.IdleTimeout,
	}

	logger.Info().
		Str("osc", b.Addr().String()).
		Str("web", ln.Addr().String()).
		Str("static", srv.StaticSource()).
		Bool("metrics", m != nil).
		Bool("nats", settings.NATS.Enabled()).
		Msg("Relay started")

	return runGroup(ctx, srv, b, httpServer, ln, out, logger)
}

// runGroup runs the registries, the bridge and the HTTP server until ctx is
// done or one of them fails. The bridge stops first. HTTP shutdown then
// cancels the registries, which ends open push streams so it can drain.
func runGroup(
	ctx context.Context,
	srv *server.Server,
	b *bridge.Bridge,
	httpServer *http.Server,
	ln net.Listener,
	out io.Writer,
	logger *zerolog.Logger,
) error {
	regCtx, regCancel := context.WithCancel(context.Background())
	defer regCancel()
	httpServer.RegisterOnShutdown(regCancel)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		srv.Run(regCtx)
		return nil
	})

	g.Go(func() error {
		return b.Serve(gctx)
	})

	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			return errors.NewTransportError("http", ln.Addr().String(), err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			_, _ = fmt.Fprintln(out, "\nShutting down gracefully...")
		}

		_ = b.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("HTTP server forced to shut down")
			_ = httpServer.Close()
		}

		regCancel()
		return nil
	})

	err := g.Wait()
	if err != nil {
		logger.Error().Err(err).Msg("Relay stopped with error")
		return err
	}

	_, _ = fmt.Fprintln(out, "Server stopped.")
	return nil
}

// closeRegistries closes subscribers registered before Run was started.
func closeRegistries(srv *server.Server) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv.Run(ctx)
}

// displayAddr renders wildcard listen addresses as localhost.
func displayAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || !tcp.IP.IsUnspecified() {
		return addr.String()
	}
	return net.JoinHostPort("localhost", strconv.Itoa(tcp.Port))
}
