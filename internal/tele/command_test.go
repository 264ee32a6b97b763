package tele

import (
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfathangn/streetlight-dashboard3/internal/mqtttest"
)

func TestPublisherRoundTrip(t *testing.T) {
	t.Parallel()
	b := mqtttest.NewBroker(t)

	sub := rawClient(t, b.URL())
	received := make(chan string, 1)
	token := sub.Subscribe("iot/streetlight/control", 1, func(_ mqtt.Client, msg mqtt.Message) {
		received <- string(msg.Payload())
	})
	require.True(t, token.WaitTimeout(5*time.Second))
	require.NoError(t, token.Error())

	p := &Publisher{
		BrokerURL:    b.URL(),
		ControlTopic: "iot/streetlight/control",
		ClientPrefix: "test",
		Timeout:      5 * time.Second,
	}
	require.NoError(t, p.Publish(CmdLampOn))

	select {
	case payload := <-received:
		assert.Equal(t, "LAMP_ON", payload)
	case <-time.After(10 * time.Second):
		t.Fatal("command did not arrive")
	}
}

func TestPublisherConnectError(t *testing.T) {
	t.Parallel()
	p := &Publisher{
		BrokerURL:    "tcp://127.0.0.1:1",
		ControlTopic: "iot/streetlight/control",
		ClientPrefix: "test",
		Timeout:      time.Second,
	}
	err := p.Publish(CmdGetStatus)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command connect")
}
