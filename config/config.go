// Package config loads ClientConfig, the bootstrap seed address and
// connection tunables a Cluster is built from, the way the teacher's
// cmd/util/util.go and rpc/common/config.go load ServerConfig/ClientConfig:
// direct construction, environment/.env via viper, or a convenience URL.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dcsommer/vldmgo/cluster"
	"github.com/dcsommer/vldmgo/errors"
	"github.com/dcsommer/vldmgo/transport"
)

// ClientConfig bundles everything a Cluster needs to bootstrap and keep
// its node connections healthy.
type ClientConfig struct {
	SeedHost string
	SeedPort int

	DialTimeout            time.Duration
	RequestTimeout         time.Duration
	ReconnectInterval      time.Duration
	BootstrapRetryInterval time.Duration
	ProtocolTag            string
}

// Default returns a ClientConfig with every field at its documented
// default, seeded at localhost:6666.
func Default() *ClientConfig {
	return &ClientConfig{
		SeedHost:               "localhost",
		SeedPort:               6666,
		DialTimeout:            5 * time.Second,
		RequestTimeout:         5 * time.Second,
		ReconnectInterval:      5 * time.Second,
		BootstrapRetryInterval: 10 * time.Second,
		ProtocolTag:            "pb0",
	}
}

func (c *ClientConfig) withDefaults() *ClientConfig {
	d := Default()
	if c.SeedHost == "" {
		c.SeedHost = d.SeedHost
	}
	if c.SeedPort == 0 {
		c.SeedPort = d.SeedPort
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.ReconnectInterval <= 0 {
		c.ReconnectInterval = d.ReconnectInterval
	}
	if c.BootstrapRetryInterval <= 0 {
		c.BootstrapRetryInterval = d.BootstrapRetryInterval
	}
	if c.ProtocolTag == "" {
		c.ProtocolTag = d.ProtocolTag
	}
	return c
}

// SeedAddr returns the "host:port" dial address for the bootstrap seed.
func (c *ClientConfig) SeedAddr() string {
	return c.SeedHost + ":" + strconv.Itoa(c.SeedPort)
}

// ToTransportConfig converts this ClientConfig into the transport.Config
// every node connection (including the seed) is opened with.
func (c *ClientConfig) ToTransportConfig() transport.Config {
	return transport.Config{
		ProtocolTag:    c.ProtocolTag,
		DialTimeout:    c.DialTimeout,
		RequestTimeout: c.RequestTimeout,
		TickInterval:   c.ReconnectInterval,
	}
}

// ToClusterConfig converts this ClientConfig into a cluster.Config.
func (c *ClientConfig) ToClusterConfig() cluster.Config {
	return cluster.Config{
		Transport:              c.ToTransportConfig(),
		BootstrapRetryInterval: c.BootstrapRetryInterval,
	}
}

// String renders a human-readable diagnostic dump, in the same
// section-and-field layout as the teacher's ServerConfig/ClientConfig
// String methods.
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Bootstrap Seed")
	addField("Address", c.SeedAddr())
	addField("Protocol Tag", c.ProtocolTag)

	addSection("Timeouts")
	addField("Dial Timeout", c.DialTimeout.String())
	addField("Request Timeout", c.RequestTimeout.String())
	addField("Reconnect Interval", c.ReconnectInterval.String())
	addField("Bootstrap Retry Interval", c.BootstrapRetryInterval.String())

	return sb.String()
}

// LoadFromEnv loads .env/.env.local (if present) then reads a ClientConfig
// from environment variables via viper, prefixed VLDM_ and with dashes
// replaced by underscores — e.g. VLDM_SEED_HOST, VLDM_SEED_PORT,
// VLDM_DIAL_TIMEOUT (a Go duration string, e.g. "5s"). Any field left unset
// falls back to Default().
func LoadFromEnv() *ClientConfig {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("vldm")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	cfg := &ClientConfig{
		SeedHost:               viper.GetString("seed-host"),
		SeedPort:               viper.GetInt("seed-port"),
		DialTimeout:            viper.GetDuration("dial-timeout"),
		RequestTimeout:         viper.GetDuration("request-timeout"),
		ReconnectInterval:      viper.GetDuration("reconnect-interval"),
		BootstrapRetryInterval: viper.GetDuration("bootstrap-retry-interval"),
		ProtocolTag:            viper.GetString("protocol-tag"),
	}
	return cfg.withDefaults()
}

// ParseURL parses a "proto://host:port/store" convenience URL into a
// ClientConfig plus the store name named by the URL path. Every field
// besides SeedHost/SeedPort takes its default.
func ParseURL(raw string) (*ClientConfig, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, "", errors.NewClient(errors.CodeBootstrapFailed, "invalid store URL %q: %v", raw, err)
	}
	if u.Scheme != "proto" {
		return nil, "", errors.NewClient(errors.CodeBootstrapFailed, "store URL %q must use the proto:// scheme", raw)
	}
	if u.Hostname() == "" {
		return nil, "", errors.NewClient(errors.CodeBootstrapFailed, "store URL %q is missing a host", raw)
	}
	storeName := strings.TrimPrefix(u.Path, "/")
	if storeName == "" {
		return nil, "", errors.NewClient(errors.CodeBootstrapFailed, "store URL %q is missing a store name", raw)
	}

	cfg := &ClientConfig{SeedHost: u.Hostname()}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, "", errors.NewClient(errors.CodeBootstrapFailed, "store URL %q has an invalid port: %v", raw, err)
		}
		cfg.SeedPort = port
	}
	return cfg.withDefaults(), storeName, nil
}
