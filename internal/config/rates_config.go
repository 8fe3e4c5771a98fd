package config

type Rates struct{}

var _ RatesConfig = Rates{}

func (Rates) GetDolarAPIURL() string {
	return GetEnv("DOLARAPI_URL", "https://dolarapi.com")
}

func (Rates) GetExchangeHostURL() string {
	return GetEnv("EXCHANGE_HOST_URL", "https://api.exchangerate.host")
}

func (Rates) GetDolarSiURL() string {
	return GetEnv("DOLARSI_URL", "https://www.dolarsi.com")
}

func (Rates) GetFallbackRate() float64 {
	return GetFloat("FALLBACK_RATE", 1000)
}

// GetRatesPerSecond bounds outbound calls to the public rate providers.
func (Rates) GetRatesPerSecond() float64 {
	return GetFloat("RATES_PER_SECOND", 5)
}
