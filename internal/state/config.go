package state

import (
	"os"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"

	"github.com/alfathangn/streetlight-dashboard3/helpers"
	"github.com/alfathangn/streetlight-dashboard3/log2"
)

// Config is the single HCL file driving the daemon. Zero values are filled
// by Normalize(); only the broker URL has no usable default in production,
// but the compiled-in default points at the public test broker the node
// ships configured for.
type Config struct {
	LogDebug bool `hcl:"log_debug"`

	Mqtt struct {
		BrokerURL         string `hcl:"broker_url"`
		SensorTopic       string `hcl:"sensor_topic"`
		ControlTopic      string `hcl:"control_topic"`
		ClientPrefix      string `hcl:"client_prefix"`
		KeepaliveSec      int    `hcl:"keepalive_sec"`
		NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
		ReconnectDelaySec int    `hcl:"reconnect_delay_sec"`
	} `hcl:"mqtt"`

	History struct {
		// Capacity is the deployment profile knob: 1000 for the lab
		// setup, 5000 for the street cabinet.
		Capacity int `hcl:"capacity"`
		Tail     int `hcl:"tail"`
	} `hcl:"history"`

	UI struct {
		ListenAddr string `hcl:"listen"`
		RefreshMs  int    `hcl:"refresh_ms"`
	} `hcl:"ui"`
}

const (
	DefaultBrokerURL    = "tcp://broker.hivemq.com:1883"
	DefaultSensorTopic  = "iot/streetlight"
	DefaultControlTopic = "iot/streetlight/control"
	DefaultClientPrefix = "streetlight-dash"
	DefaultCapacity     = 1000
	DefaultTail         = 50
	DefaultListenAddr   = ":8080"

	DefaultKeepalive      = 60 * time.Second
	DefaultNetworkTimeout = 30 * time.Second
	DefaultReconnectDelay = 5 * time.Second
	DefaultRefresh        = 2 * time.Second
)

func (c *Config) Normalize() error {
	errs := make([]error, 0, 4)
	if c.Mqtt.BrokerURL == "" {
		c.Mqtt.BrokerURL = DefaultBrokerURL
	}
	if c.Mqtt.SensorTopic == "" {
		c.Mqtt.SensorTopic = DefaultSensorTopic
	}
	if c.Mqtt.ControlTopic == "" {
		c.Mqtt.ControlTopic = DefaultControlTopic
	}
	if c.Mqtt.ClientPrefix == "" {
		c.Mqtt.ClientPrefix = DefaultClientPrefix
	}
	if c.History.Capacity == 0 {
		c.History.Capacity = DefaultCapacity
	}
	if c.History.Capacity < 0 {
		errs = append(errs, errors.Errorf("config history.capacity=%d must be positive", c.History.Capacity))
	}
	if c.History.Tail == 0 {
		c.History.Tail = DefaultTail
	}
	if c.History.Tail < 0 {
		errs = append(errs, errors.Errorf("config history.tail=%d must be positive", c.History.Tail))
	}
	if c.UI.ListenAddr == "" {
		c.UI.ListenAddr = DefaultListenAddr
	}
	if c.Mqtt.KeepaliveSec < 0 || c.Mqtt.NetworkTimeoutSec < 0 || c.Mqtt.ReconnectDelaySec < 0 {
		errs = append(errs, errors.Errorf("config mqtt timeouts must be positive"))
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) Keepalive() time.Duration {
	return helpers.IntSecondDefault(c.Mqtt.KeepaliveSec, DefaultKeepalive)
}
func (c *Config) NetworkTimeout() time.Duration {
	return helpers.IntSecondDefault(c.Mqtt.NetworkTimeoutSec, DefaultNetworkTimeout)
}
func (c *Config) ReconnectDelay() time.Duration {
	return helpers.IntSecondDefault(c.Mqtt.ReconnectDelaySec, DefaultReconnectDelay)
}
func (c *Config) Refresh() time.Duration {
	return helpers.IntMillisecondDefault(c.UI.RefreshMs, DefaultRefresh)
}

func ReadConfigBytes(b []byte) (*Config, error) {
	c := &Config{}
	if err := hcl.Unmarshal(b, c); err != nil {
		return nil, errors.Annotatef(err, "config unmarshal content='%s'", string(b))
	}
	if err := c.Normalize(); err != nil {
		return nil, err
	}
	return c, nil
}

func ReadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "config read path=%s", path)
	}
	return ReadConfigBytes(b)
}

func MustReadConfigFile(log *log2.Log, path string) *Config {
	c, err := ReadConfigFile(path)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
