package rates

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jrsteele09/go-dolar-client/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultFallbackRate is used when every provider fails.
const DefaultFallbackRate = 1000

var preferredNames = []string{"oficial", "pizarra", "blue", "mep", "contadoconliqui"}

var cardRate = regexp.MustCompile(`(?i)tarjeta`)

// Aggregator walks the providers in order; the first non-empty answer wins.
type Aggregator struct {
	providers []Provider
	exchange  *ExchangeHost
	fallback  float64
}

type Option func(*Aggregator)

func WithFallbackRate(v float64) Option {
	return func(a *Aggregator) {
		if v > 0 {
			a.fallback = v
		}
	}
}

// NewAggregator builds an aggregator over arbitrary providers.
func NewAggregator(providers []Provider, opts ...Option) *Aggregator {
	a := &Aggregator{providers: providers, fallback: DefaultFallbackRate}
	for _, opt := range opts {
		opt(a)
	}
	for _, p := range providers {
		if ex, ok := p.(ExchangeHost); ok {
			a.exchange = &ex
		}
	}
	return a
}

// NewFromConfig wires dolarapi, exchangerate.host and dolarsi in that order behind a
// shared token bucket.
func NewFromConfig(cfg config.RatesConfig, client *http.Client) *Aggregator {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	var limiter *rate.Limiter
	if rps := cfg.GetRatesPerSecond(); rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	f := &fetcher{client: client, limiter: limiter}
	return NewAggregator([]Provider{
		DolarAPI{BaseURL: cfg.GetDolarAPIURL(), fetch: f},
		ExchangeHost{BaseURL: cfg.GetExchangeHostURL(), fetch: f},
		DolarSi{BaseURL: cfg.GetDolarSiURL(), fetch: f},
	}, WithFallbackRate(cfg.GetFallbackRate()))
}

// AllRates never fails: when no provider answers it returns the static fallback as oficial.
func (a *Aggregator) AllRates(ctx context.Context) []Rate {
	for _, p := range a.providers {
		list, err := p.Fetch(ctx)
		if err != nil {
			log.Debug().Err(err).Str("provider", p.Name()).Msg("rate provider failed")
			continue
		}
		if len(list) > 0 {
			return list
		}
	}
	log.Warn().Float64("rate", a.fallback).Msg("all rate providers failed, using fallback")
	return []Rate{{Name: "oficial", Buy: a.fallback, Sell: a.fallback}}
}

// RateByName returns the first rate whose name contains name, case-insensitively.
func (a *Aggregator) RateByName(ctx context.Context, name string) (Rate, bool) {
	return findByName(a.AllRates(ctx), name)
}

// ConversionRate picks a single USD/ARS figure: card rates are dropped, then the first
// preferred quote's midpoint, else the average midpoint, else the fallback.
func (a *Aggregator) ConversionRate(ctx context.Context) float64 {
	return conversionRate(a.AllRates(ctx), a.fallback)
}

func conversionRate(list []Rate, fallback float64) float64 {
	filtered := make([]Rate, 0, len(list))
	for _, r := range list {
		if !cardRate.MatchString(r.Name) {
			filtered = append(filtered, r)
		}
	}
	for _, p := range preferredNames {
		if r, ok := findByName(filtered, p); ok {
			return r.Mid()
		}
	}
	if len(filtered) == 0 {
		return fallback
	}
	var sum float64
	for _, r := range filtered {
		sum += r.Mid()
	}
	return sum / float64(len(filtered))
}

// LatestUSDARS prefers exchangerate.host's direct quote, then ConversionRate.
func (a *Aggregator) LatestUSDARS(ctx context.Context) float64 {
	if a.exchange != nil {
		v, err := a.exchange.latest(ctx)
		if err == nil && v > 0 {
			return v
		}
		if err != nil {
			log.Debug().Err(err).Msg("exchangerate.host latest failed")
		}
	}
	return a.ConversionRate(ctx)
}

func findByName(list []Rate, name string) (Rate, bool) {
	name = strings.ToLower(name)
	for _, r := range list {
		if strings.Contains(strings.ToLower(r.Name), name) {
			return r, true
		}
	}
	return Rate{}, false
}
