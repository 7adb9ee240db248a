package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"binarymkt/internal/engine"
	"binarymkt/internal/net"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	address := flag.String("address", "0.0.0.0", "address to bind the exchange server to")
	port := flag.Int("port", 9001, "port to bind the exchange server to")
	market := flag.Uint("market", 1, "market id to open at startup")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	exch := engine.New()
	if _, err := exch.AddMarket(0, engine.MarketID(*market)); err != nil {
		log.Fatal().Err(err).Uint("market", *market).Msg("unable to open startup market")
	}

	srv := net.New(*address, *port, exch)

	go srv.Run(ctx)
	<-ctx.Done()
}
