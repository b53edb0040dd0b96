package config

import "testing"

func validConfig() *Config {
	c := &Config{}
	c.Environment = "test"
	c.Backend.Type = "kafka"
	c.Binance.WebSocketURL = "wss://stream.binance.com:9443"
	c.Binance.Symbols = []string{"BTCUSDT"}
	return c
}

func TestValidateAcceptsKnownBackends(t *testing.T) {
	for _, backend := range []string{"kafka", "clickhouse", "none"} {
		c := validConfig()
		c.Backend.Type = backend
		if err := c.Validate(); err != nil {
			t.Fatalf("backend %q must be accepted: %v", backend, err)
		}
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	c := validConfig()
	c.Backend.Type = "postgres"
	if err := c.Validate(); err == nil {
		t.Fatalf("unknown backend must be rejected")
	}
}

func TestValidateRequiresSymbols(t *testing.T) {
	c := validConfig()
	c.Binance.Symbols = nil
	if err := c.Validate(); err == nil {
		t.Fatalf("empty symbol list must be rejected")
	}
}
