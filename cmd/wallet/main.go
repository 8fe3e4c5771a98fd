package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/go-dolar-client/apiclient"
	"github.com/jrsteele09/go-dolar-client/internal/config"
	"github.com/jrsteele09/go-dolar-client/internal/infra"
	"github.com/jrsteele09/go-dolar-client/internal/logging"
	"github.com/jrsteele09/go-dolar-client/notify"
	"github.com/jrsteele09/go-dolar-client/rates"
	"github.com/jrsteele09/go-dolar-client/session"
	"github.com/jrsteele09/go-dolar-client/transactions/fakeledger"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

func main() {
	demo := flag.Bool("demo", false, "use the in-memory demo backend (demo@dolarito.app / demo)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: wallet [-demo] <command> [args]\n\n%s\nflags:\n", usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	c := config.New()
	logging.Setup(c.GetLogLevel(), c.IsDev())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c, *demo, flag.Args()); err != nil {
		log.Err(err).Msg("wallet")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, c config.Config, demo bool, args []string) error {
	store, err := infra.OpenTokenStore(ctx, c)
	if err != nil {
		return errors.Wrap(err, "[run] infra.OpenTokenStore")
	}
	defer infra.CloseTokenStore(store)

	sess, err := session.Load(ctx, store)
	if err != nil {
		return errors.Wrap(err, "[run] session.Load")
	}

	notifier := notify.WriterNotifier{W: os.Stdout}
	registry := prometheus.NewRegistry()

	var api backend
	if demo {
		api = fakeledger.NewDemo(time.Now)
	} else {
		client, err := apiclient.NewFromConfig(c, sess,
			apiclient.WithMetrics(apiclient.NewMetrics(registry)),
			apiclient.WithSessionExpiredHandler(func() {
				notifier.Error("Sesión expirada, volvé a iniciar sesión")
			}),
		)
		if err != nil {
			return errors.Wrap(err, "[run] apiclient.NewFromConfig")
		}
		log.Debug().Str("baseURL", client.BaseURL()).Msg("api client ready")
		api = client
	}

	w := newWallet(sess, api, rates.NewFromConfig(c, &http.Client{Timeout: c.GetAPITimeout()}), notifier, os.Stdout)
	defer func() {
		if c.IsDebug() {
			logMetrics(registry)
		}
	}()

	if len(args) == 0 {
		return w.shell(ctx, os.Stdin)
	}
	return w.exec(ctx, args)
}

func logMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		log.Err(err).Msg("gathering metrics")
		return
	}
	for _, f := range families {
		log.Debug().Str("metric", f.GetName()).Int("series", len(f.GetMetric())).Msg("client metrics")
	}
}
