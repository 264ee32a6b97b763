package tele

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/alfathangn/streetlight-dashboard3/internal/state"
)

// Control commands understood by the lamp firmware.
const (
	CmdLampOn    = "LAMP_ON"
	CmdLampOff   = "LAMP_OFF"
	CmdGetStatus = "GET_STATUS"
)

// Publisher sends one control command per call over a dedicated
// short-lived session, independent of the supervisor's connection.
// Errors are returned to the caller, never queued.
type Publisher struct {
	BrokerURL    string
	ControlTopic string
	ClientPrefix string
	Timeout      time.Duration
}

func NewPublisher(cfg *state.Config) *Publisher {
	return &Publisher{
		BrokerURL:    cfg.Mqtt.BrokerURL,
		ControlTopic: cfg.Mqtt.ControlTopic,
		ClientPrefix: cfg.Mqtt.ClientPrefix,
		Timeout:      cfg.NetworkTimeout(),
	}
}

// Publish connects, sends command at QoS 1 and disconnects. Waiting on
// the publish token surfaces connect and send failures to the caller;
// there is no retry beyond what one session gives.
func (p *Publisher) Publish(command string) error {
	clientID := fmt.Sprintf("%s-cmd-%s", p.ClientPrefix, uuid.NewString()[:8])
	opt := mqtt.NewClientOptions().
		AddBroker(p.BrokerURL).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(p.Timeout)
	cli := mqtt.NewClient(opt)

	t := cli.Connect()
	if !t.WaitTimeout(p.Timeout) {
		cli.Disconnect(0)
		return errors.Timeoutf("command connect broker=%s", p.BrokerURL)
	}
	if err := t.Error(); err != nil {
		return errors.Annotatef(err, "command connect broker=%s", p.BrokerURL)
	}
	defer cli.Disconnect(250)

	pt := cli.Publish(p.ControlTopic, 1, false, command)
	if !pt.WaitTimeout(p.Timeout) {
		return errors.Timeoutf("command publish topic=%s", p.ControlTopic)
	}
	if err := pt.Error(); err != nil {
		return errors.Annotatef(err, "command publish topic=%s", p.ControlTopic)
	}
	return nil
}
