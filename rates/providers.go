package rates

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// Provider fetches a list of quotes. An empty list with a nil error means the provider
// answered with nothing usable.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) ([]Rate, error)
}

// fetcher performs throttled GETs shared by every provider.
type fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

func (f *fetcher) getJSON(ctx context.Context, url string) (gjson.Result, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return gjson.Result{}, errors.Wrap(err, "rate limit")
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gjson.Result{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "GET %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, errors.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "read %s", url)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errors.Errorf("GET %s: invalid json", url)
	}
	return gjson.ParseBytes(body), nil
}

// DolarAPI reads dolarapi.com's /v1/dolares list.
type DolarAPI struct {
	BaseURL string
	fetch   *fetcher
}

func (DolarAPI) Name() string { return "dolarapi" }

func (p DolarAPI) Fetch(ctx context.Context) ([]Rate, error) {
	res, err := p.fetch.getJSON(ctx, strings.TrimRight(p.BaseURL, "/")+"/v1/dolares")
	if err != nil {
		return nil, err
	}
	if !res.IsArray() {
		return nil, nil
	}
	var out []Rate
	res.ForEach(func(_, it gjson.Result) bool {
		name := firstString(it, "nombre", "casa", "name")
		if name == "" {
			return true
		}
		out = append(out, Rate{Name: name, Buy: ParseNumber(it.Get("compra")), Sell: ParseNumber(it.Get("venta"))})
		return true
	})
	return out, nil
}

// ExchangeHost reads a single USD to ARS rate from exchangerate.host and reports it
// as both oficial and pizarra.
type ExchangeHost struct {
	BaseURL string
	fetch   *fetcher
}

func (ExchangeHost) Name() string { return "exchangerate.host" }

func (p ExchangeHost) Fetch(ctx context.Context) ([]Rate, error) {
	usdars, err := p.latest(ctx)
	if err != nil || usdars == 0 {
		return nil, err
	}
	return []Rate{
		{Name: "oficial", Buy: usdars, Sell: usdars},
		{Name: "pizarra", Buy: usdars, Sell: usdars},
	}, nil
}

func (p ExchangeHost) latest(ctx context.Context) (float64, error) {
	res, err := p.fetch.getJSON(ctx, strings.TrimRight(p.BaseURL, "/")+"/latest?base=USD&symbols=ARS")
	if err != nil {
		return 0, err
	}
	return ParseNumber(res.Get("rates.ARS")), nil
}

// DolarSi reads dolarsi.com's principal values. Items may be wrapped in {"casa": ...}.
type DolarSi struct {
	BaseURL string
	fetch   *fetcher
}

func (DolarSi) Name() string { return "dolarsi" }

func (p DolarSi) Fetch(ctx context.Context) ([]Rate, error) {
	res, err := p.fetch.getJSON(ctx, strings.TrimRight(p.BaseURL, "/")+"/api/api.php?type=valoresprincipales")
	if err != nil {
		return nil, err
	}
	if !res.IsArray() {
		return nil, nil
	}
	var out []Rate
	res.ForEach(func(_, it gjson.Result) bool {
		if casa := it.Get("casa"); casa.IsObject() {
			it = casa
		}
		name := firstString(it, "nombre")
		if name == "" {
			return true
		}
		out = append(out, Rate{Name: name, Buy: ParseNumber(it.Get("compra")), Sell: ParseNumber(it.Get("venta"))})
		return true
	})
	return out, nil
}
