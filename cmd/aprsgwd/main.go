// Command aprsgwd is the gateway daemon entry point: it parses flags,
// loads the YAML configuration, wires every component via
// internal/coordinator, and runs until signalled.
//
// Grounded on doismellburning/samoyed's cmd/direwolf/main.go for the
// overall "parse flags, load config, build, run" shape; flag parsing
// itself uses github.com/spf13/pflag instead of the teacher's cgo getopt
// bridge, since this program has no C dependency left to interoperate
// with.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/n0call/aprsgw/internal/config"
	"github.com/n0call/aprsgw/internal/coordinator"
	"github.com/n0call/aprsgw/internal/kiss"
	"github.com/n0call/aprsgw/internal/stats"
)

func main() {
	var (
		configPath  = pflag.StringP("config", "c", "aprsgw.yaml", "path to YAML configuration file")
		metricsAddr = pflag.String("metrics-addr", ":9190", "address to serve Prometheus metrics on")
		logLevel    = pflag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if lvl, err := log.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(lvl)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("loading configuration", "path", *configPath, "err", err)
	}

	reg := prometheus.NewRegistry()
	st := stats.New(reg)

	co := coordinator.New(cfg, logger)
	co.SetStats(st)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.KISS.SerialPort != "" {
		port, err := kiss.OpenSerial(kiss.SerialConfig{Port: cfg.KISS.SerialPort, Baud: cfg.KISS.SerialBaud})
		if err != nil {
			logger.Error("opening serial KISS port", "port", cfg.KISS.SerialPort, "err", err)
		} else {
			co.AddRFInterface(port)
			logger.Info("serial KISS port opened", "port", cfg.KISS.SerialPort)
			go func() {
				if err := co.ServeRFInterface(ctx, port.ReadLoop, co.TransmitRF); err != nil && ctx.Err() == nil {
					logger.Error("serial KISS read loop exited", "err", err)
				}
			}()
		}
	}

	if cfg.KISS.TCPAddr != "" {
		go runKISSNet(ctx, cfg.KISS.TCPAddr, co, logger)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server", "err", err)
		}
	}()

	logger.Info("aprsgw starting", "config", *configPath, "server_port", cfg.Server.Port)
	if err := co.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("coordinator exited", "err", err)
	}
	fmt.Fprintln(os.Stderr, "aprsgw stopped")
}

// runKISSNet dials a TCP KISS TNC and serves it through the coordinator,
// reconnecting with a fixed backoff on any transport error or close, the
// same auto-reconnect posture spec §4.6 describes for the APRS-IS client.
func runKISSNet(ctx context.Context, addr string, co *coordinator.Coordinator, logger *log.Logger) {
	for {
		if ctx.Err() != nil {
			return
		}
		port, err := kiss.DialNet(kiss.NetConfig{Addr: addr})
		if err != nil {
			logger.Error("dialing TCP KISS TNC", "addr", addr, "err", err)
		} else {
			co.AddRFInterface(port)
			logger.Info("TCP KISS TNC connected", "addr", addr)
			if err := co.ServeRFInterface(ctx, port.ReadLoop, co.TransmitRF); err != nil && ctx.Err() == nil {
				logger.Warn("TCP KISS read loop ended", "addr", addr, "err", err)
			}
			port.Close()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(30 * time.Second):
		}
	}
}
