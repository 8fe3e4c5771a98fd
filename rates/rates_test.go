package rates_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-dolar-client/rates"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type ratesConfig struct {
	url string
}

func (c ratesConfig) GetDolarAPIURL() string     { return c.url + "/dolarapi" }
func (c ratesConfig) GetExchangeHostURL() string { return c.url + "/exhost" }
func (c ratesConfig) GetDolarSiURL() string      { return c.url + "/dolarsi" }
func (c ratesConfig) GetFallbackRate() float64   { return 1000 }
func (c ratesConfig) GetRatesPerSecond() float64 { return 1000 }

// providers maps a provider path to its canned body; missing paths answer 503.
func newAggregator(t *testing.T, providers map[string]string) *rates.Aggregator {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := providers[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return rates.NewFromConfig(ratesConfig{url: srv.URL}, srv.Client())
}

const (
	dolarAPIPath = "/dolarapi/v1/dolares"
	exhostPath   = "/exhost/latest"
	dolarsiPath  = "/dolarsi/api/api.php"
)

func TestAllRatesFallbackChain(t *testing.T) {
	ctx := context.Background()

	t.Run("dolarapi wins", func(t *testing.T) {
		a := newAggregator(t, map[string]string{
			dolarAPIPath: `[{"casa":"oficial","nombre":"Oficial","compra":900,"venta":950},{"compra":1}]`,
			exhostPath:   `{"rates":{"ARS":1200}}`,
		})
		require.Equal(t, []rates.Rate{{Name: "Oficial", Buy: 900, Sell: 950}}, a.AllRates(ctx))
	})

	t.Run("exchangerate.host when dolarapi is empty", func(t *testing.T) {
		a := newAggregator(t, map[string]string{
			dolarAPIPath: `[]`,
			exhostPath:   `{"rates":{"ARS":"1.234,50"}}`,
		})
		require.Equal(t, []rates.Rate{
			{Name: "oficial", Buy: 1234.5, Sell: 1234.5},
			{Name: "pizarra", Buy: 1234.5, Sell: 1234.5},
		}, a.AllRates(ctx))
	})

	t.Run("dolarsi unwraps casa", func(t *testing.T) {
		a := newAggregator(t, map[string]string{
			dolarsiPath: `[{"casa":{"nombre":"Dolar Blue","compra":"1.100,00","venta":"1.150,00"}},{"casa":{"nombre":""}}]`,
		})
		require.Equal(t, []rates.Rate{{Name: "Dolar Blue", Buy: 1100, Sell: 1150}}, a.AllRates(ctx))
	})

	t.Run("static fallback", func(t *testing.T) {
		a := newAggregator(t, nil)
		require.Equal(t, []rates.Rate{{Name: "oficial", Buy: 1000, Sell: 1000}}, a.AllRates(ctx))
	})
}

func TestConversionRate(t *testing.T) {
	ctx := context.Background()

	t.Run("card rates dropped and preference order applied", func(t *testing.T) {
		a := newAggregator(t, map[string]string{
			dolarAPIPath: `[
				{"nombre":"Tarjeta","compra":1500,"venta":1600},
				{"nombre":"Blue","compra":1100,"venta":1200},
				{"nombre":"Oficial","compra":900,"venta":1000}
			]`,
		})
		require.Equal(t, 950.0, a.ConversionRate(ctx))
	})

	t.Run("average when nothing preferred", func(t *testing.T) {
		a := newAggregator(t, map[string]string{
			dolarAPIPath: `[{"nombre":"Cripto","compra":1000,"venta":1200},{"nombre":"Mayorista","compra":800,"venta":1000}]`,
		})
		require.Equal(t, 1000.0, a.ConversionRate(ctx))
	})

	t.Run("only card rates gives the fallback", func(t *testing.T) {
		a := newAggregator(t, map[string]string{
			dolarAPIPath: `[{"nombre":"tarjeta","compra":1,"venta":1}]`,
		})
		require.Equal(t, 1000.0, a.ConversionRate(ctx))
	})
}

func TestRateByName(t *testing.T) {
	a := newAggregator(t, map[string]string{
		dolarAPIPath: `[{"nombre":"Oficial","compra":1,"venta":2},{"nombre":"Contado con liquidación","compra":3,"venta":4}]`,
	})
	r, ok := a.RateByName(context.Background(), "CONTADO")
	require.True(t, ok)
	require.Equal(t, 3.0, r.Buy)

	_, ok = a.RateByName(context.Background(), "euro")
	require.False(t, ok)
}

func TestLatestUSDARS(t *testing.T) {
	ctx := context.Background()

	a := newAggregator(t, map[string]string{exhostPath: `{"rates":{"ARS":1180.5}}`})
	require.Equal(t, 1180.5, a.LatestUSDARS(ctx))

	a = newAggregator(t, map[string]string{dolarAPIPath: `[{"nombre":"Oficial","compra":900,"venta":1000}]`})
	require.Equal(t, 950.0, a.LatestUSDARS(ctx))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{`1234.5`, 1234.5},
		{`"1.234,50"`, 1234.5},
		{`"1,234.50"`, 1234.5},
		{`"$ 1.100,00"`, 1100},
		{`"1234,5"`, 1234.5},
		{`"1.234.567"`, 1234567},
		{`"-12,5"`, -12.5},
		{`"n/a"`, 0},
		{`null`, 0},
		{`true`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			require.Equal(t, tt.want, rates.ParseNumber(gjson.Parse(tt.raw)))
		})
	}
}
