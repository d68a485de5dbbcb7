package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

var (
	host       = flag.String("host", defaultHost, "listen host")
	port       = flag.Int("port", defaultPort, "listen port")
	root       = flag.String("root", defaultDocumentRoot, "document root")
	logFile    = flag.String("log", defaultLogFile, "response header log file")
	persistent = flag.Bool("persistent", false, "keep connections open for further requests")
	logLevel   = flag.String("loglevel", "info", "diagnostic log level")
	probe      = flag.String("probe", "", "GET this path from a running server and print the response header")
	since      = flag.String("since", "", "If-Modified-Since value sent with -probe")
)

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}

func runProbe(config Config) int {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := Probe(ctx, config.Address(), *probe, *since)
	if err != nil {
		config.Logger.Error().Err(err).Msg("probe failed")
		return 1
	}
	fmt.Println(res)
	return 0
}

func main() {
	flag.Parse()
	logger := newLogger(*logLevel)

	config := Config{
		Host:         *host,
		Port:         *port,
		DocumentRoot: *root,
		LogFile:      *logFile,
		Persistent:   *persistent,
		Logger:       logger,
	}
	if *probe != "" {
		os.Exit(runProbe(config))
	}

	server, err := NewServer(config)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("socket binding failed")
	}

	<-shutdownCtx.Done()
	server.Stop()
}
