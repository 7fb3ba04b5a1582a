package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hydraforward/hydraforward/internal/adminapi"
	"github.com/hydraforward/hydraforward/internal/config"
	"github.com/hydraforward/hydraforward/internal/engine"
	"github.com/hydraforward/hydraforward/internal/listener"
	"github.com/hydraforward/hydraforward/internal/logging"
	"github.com/hydraforward/hydraforward/internal/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds parsed command-line flag values.
type cliFlags struct {
	configPath string
	host       string
	port       int
	noTCP      bool
	jsonLogs   bool
	debug      bool
	adminAddr  string
	adminKey   string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to YAML configuration file")
	flag.StringVar(&f.host, "host", "", "Override listen host")
	flag.IntVar(&f.port, "port", 0, "Override listen port")
	flag.BoolVar(&f.noTCP, "no-tcp", false, "Disable the TCP listener")
	flag.BoolVar(&f.jsonLogs, "json-logs", false, "Enable JSON structured logging")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	flag.StringVar(&f.adminAddr, "admin-addr", "", "Admin API bind address (empty disables it)")
	flag.StringVar(&f.adminKey, "admin-key", "", "Admin API shared-secret key")
	flag.Parse()
	return f
}

func run() error {
	flags := parseFlags()

	file, cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyCLIOverrides(file, flags)

	logger := logging.Configure(logging.Config{
		Level:            levelFor(flags),
		Structured:       flags.jsonLogs,
		StructuredFormat: "json",
	})
	logger.Info("hydraforward starting",
		"host", file.ListenHost,
		"port", file.ListenPort,
		"tcp", file.EnableTCP,
		"servers", len(cfg.Servers),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	udpForwarder := engine.New(*cfg, "udp", &transport.NetDialer{}, transport.SystemClock{}, logger)
	tcpForwarder := engine.New(*cfg, "tcp", &transport.NetDialer{}, transport.SystemClock{}, logger)
	defer udpForwarder.Close()
	defer tcpForwarder.Close()

	addr := net.JoinHostPort(file.ListenHost, strconv.Itoa(file.ListenPort))

	udpListener := &listener.UDPListener{Forwarder: udpForwarder, Logger: logger}
	errCh := make(chan error, 2)
	go func() { errCh <- udpListener.Run(ctx, addr) }()

	var tcpListener *listener.TCPListener
	if file.EnableTCP {
		tcpListener = &listener.TCPListener{Forwarder: tcpForwarder, Logger: logger}
		go func() { errCh <- tcpListener.Run(ctx, addr) }()
	}

	var adminSrv *adminapi.Server
	if flags.adminAddr != "" {
		adminSrv = adminapi.New(flags.adminAddr, udpForwarder, flags.adminKey, logger)
		logger.Info("admin api starting", "addr", adminSrv.Addr())
		go func() {
			if srvErr := adminSrv.ListenAndServe(); srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
				logger.Error("admin api error", "err", srvErr)
				cancel()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("hydraforward shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if adminSrv != nil {
		_ = adminSrv.Shutdown(shutdownCtx)
	}

	var runErr error
	select {
	case runErr = <-errCh:
	case <-time.After(5 * time.Second):
	}
	if runErr != nil {
		return fmt.Errorf("listener exited with error: %w", runErr)
	}
	return nil
}

func levelFor(f cliFlags) string {
	if f.debug {
		return "DEBUG"
	}
	return "INFO"
}

// applyCLIOverrides applies command-line overrides to the loaded file
// configuration. Only listener bind settings are overridable this way;
// the server list always comes from the config file.
func applyCLIOverrides(f *config.File, flags cliFlags) {
	if flags.host != "" {
		f.ListenHost = flags.host
	}
	if flags.port != 0 {
		f.ListenPort = flags.port
	}
	if flags.noTCP {
		f.EnableTCP = false
	}
}
