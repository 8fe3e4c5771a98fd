package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-dolar-client/chat"
	"github.com/jrsteele09/go-dolar-client/internal/config"
	"github.com/jrsteele09/go-dolar-client/internal/logging"
	"github.com/jrsteele09/go-dolar-client/server"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Err(err).Msg("Error running chat proxy")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Chat proxy stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Setup(c.GetLogLevel(), c.IsDev())
	displayAppname(c.GetAppName())

	responder := chat.NewFromConfig(c, &http.Client{Timeout: 30 * time.Second})
	srv := server.New(c, responder)

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv, c.GetPort())
	}()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

func listen(srv *server.Server, addr string) error {
	if err := srv.Listen(addr); err != nil {
		return errors.Wrap(err, "[listen] server.Listen")
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(srv *server.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "[shutdown] server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
