// Package mqtttest runs a throwaway in-process MQTT broker for tests.
package mqtttest

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/256dpi/gomqtt/broker"
	"github.com/256dpi/gomqtt/transport"
)

// Broker is a memory-backed MQTT server on a loopback port.
type Broker struct {
	backend   *broker.MemoryBackend
	engine    *broker.Engine
	server    transport.Server
	closeOnce sync.Once
}

// NewBroker starts the broker on a random port and registers cleanup on t.
func NewBroker(t testing.TB) *Broker {
	return NewBrokerAt(t, "tcp://127.0.0.1:0")
}

// NewBrokerAt starts the broker on an explicit address. Lets a test bring
// a broker back on the same port after killing it.
func NewBrokerAt(t testing.TB, url string) *Broker {
	t.Helper()
	server, err := transport.Launch(url)
	if err != nil {
		t.Fatalf("mqtttest launch %s: %v", url, err)
	}
	backend := broker.NewMemoryBackend()
	engine := broker.NewEngine(backend)
	engine.Accept(server)
	b := &Broker{backend: backend, engine: engine, server: server}
	t.Cleanup(b.Close)
	return b
}

// URL is the broker address in the form clients dial.
func (b *Broker) URL() string {
	return fmt.Sprintf("tcp://%s", b.server.Addr().String())
}

// Close kills listener and sessions. Safe to call more than once.
func (b *Broker) Close() {
	b.closeOnce.Do(func() {
		_ = b.server.Close()
		b.backend.Close(3 * time.Second)
		b.engine.Close()
	})
}
