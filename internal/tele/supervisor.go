// Package tele owns the broker side of the pipeline: the connection
// supervisor feeding the event queue, and the short-lived control
// publisher. Nothing here touches shared presentation state directly;
// events are the only output.
package tele

import (
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/temoto/atomic_clock"

	"github.com/alfathangn/streetlight-dashboard3/internal/state"
	"github.com/alfathangn/streetlight-dashboard3/telemetry"
)

// errDialAborted marks a connect attempt cancelled by a racing Disconnect.
// Not an operator-visible condition.
var errDialAborted = errors.New("dial aborted")

type sessionState int32

const (
	stateDisconnected sessionState = iota
	stateConnecting
	stateConnected
	stateBackoff
)

func (s sessionState) String() string {
	switch s {
	case stateDisconnected:
		return "disconnected"
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateBackoff:
		return "backoff"
	}
	return "unknown!"
}

// Supervisor keeps one broker session alive for the process lifetime.
// Start is idempotent: one background worker, ever. The worker walks an
// explicit session state machine; a fixed delay separates reconnect
// attempts and only the worker sleeps through it.
//
// Side effects are confined to Queue.Push — single-writer discipline for
// shared state stays with the reducer.
type Supervisor struct {
	g           *state.Global
	startOnce   sync.Once
	lastAttempt *atomic_clock.Clock

	mu     sync.Mutex
	sess   sessionState
	paused bool
	client mqtt.Client

	lost chan struct{} // session died under us
	kick chan struct{} // pause/resume wakeup
}

func NewSupervisor(g *state.Global) *Supervisor {
	return &Supervisor{
		g:           g,
		lastAttempt: atomic_clock.New(),
		lost:        make(chan struct{}, 1),
		kick:        make(chan struct{}, 1),
	}
}

// Start launches the background worker on first call and resumes a
// paused supervisor on later calls. Never blocks.
func (sup *Supervisor) Start() {
	sup.startOnce.Do(func() {
		if !sup.g.Alive.Add(1) {
			return
		}
		go sup.worker()
	})
	sup.setPaused(false)
	sup.wake(sup.kick)
}

// Disconnect closes the current session and pauses reconnect attempts
// until the next Start. The worker stays alive.
func (sup *Supervisor) Disconnect() {
	sup.mu.Lock()
	sup.paused = true
	cli := sup.client
	sup.client = nil
	sup.sess = stateDisconnected
	sup.mu.Unlock()

	if cli != nil {
		cli.Disconnect(250)
	}
	sup.g.Queue.Push(telemetry.NewStatusEvent(false, "not connected"))
	sup.wake(sup.kick)
}

// LastAttempt is the time of the most recent dial, zero before the first.
func (sup *Supervisor) LastAttempt() time.Time {
	if sup.lastAttempt.IsZero() {
		return time.Time{}
	}
	return time.Unix(0, int64(sup.lastAttempt.Sub(atomic_clock.New())))
}

func (sup *Supervisor) worker() {
	defer sup.g.Alive.Done()
	defer sup.teardown()
	stopch := sup.g.Alive.StopChan()

	for sup.g.Alive.IsRunning() {
		switch sup.state() {
		case stateDisconnected:
			if sup.isPaused() {
				select {
				case <-sup.kick:
				case <-stopch:
					return
				}
				continue
			}
			sup.setState(stateConnecting)

		case stateConnecting:
			if sup.isPaused() {
				sup.setState(stateDisconnected)
				continue
			}
			if err := sup.connect(); err != nil {
				if stderrors.Is(err, errDialAborted) {
					sup.setState(stateDisconnected)
					continue
				}
				sup.g.Log.Errorf("tele connect broker=%s err=%v", sup.g.Config.Mqtt.BrokerURL, err)
				sup.g.Queue.Push(telemetry.NewStatusEvent(false, connectErrorText(err)))
				sup.setState(stateBackoff)
				continue
			}
			sup.setState(stateConnected)

		case stateConnected:
			select {
			case <-sup.lost:
				if sup.state() == stateConnected {
					sup.setState(stateBackoff)
				}
			case <-sup.kick:
				// pause flips state via Disconnect; nothing else to do
			case <-stopch:
				return
			}

		case stateBackoff:
			select {
			case <-time.After(sup.g.Config.ReconnectDelay()):
				sup.setState(stateConnecting)
			case <-sup.kick:
				if sup.isPaused() {
					sup.setState(stateDisconnected)
				}
			case <-stopch:
				return
			}
		}
	}
}

// connect dials one fresh session with a unique client identifier.
// Success means connected and the on-connect handler will subscribe and
// publish the status event from the network context.
func (sup *Supervisor) connect() error {
	cfg := sup.g.Config
	clientID := fmt.Sprintf("%s-%s", cfg.Mqtt.ClientPrefix, uuid.NewString()[:8])
	opt := mqtt.NewClientOptions().
		AddBroker(cfg.Mqtt.BrokerURL).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetKeepAlive(cfg.Keepalive()).
		SetPingTimeout(cfg.NetworkTimeout()).
		SetConnectTimeout(cfg.NetworkTimeout()).
		SetOrderMatters(true).
		SetOnConnectHandler(sup.onConnect).
		SetConnectionLostHandler(sup.onConnectionLost).
		SetDefaultPublishHandler(sup.onMessage)
	cli := mqtt.NewClient(opt)

	sup.lastAttempt.SetNow()

	t := cli.Connect()
	if !t.WaitTimeout(cfg.NetworkTimeout()) {
		cli.Disconnect(0)
		return errors.Timeoutf("connect")
	}
	if err := t.Error(); err != nil {
		return err
	}

	sup.mu.Lock()
	if sup.paused {
		sup.mu.Unlock()
		cli.Disconnect(250)
		// on-connect already announced "connected"; restore the paused view
		sup.g.Queue.Push(telemetry.NewStatusEvent(false, "not connected"))
		return errDialAborted
	}
	sup.client = cli
	sup.mu.Unlock()
	return nil
}

func (sup *Supervisor) teardown() {
	sup.mu.Lock()
	cli := sup.client
	sup.client = nil
	sup.sess = stateDisconnected
	sup.mu.Unlock()
	if cli != nil {
		cli.Disconnect(250)
	}
}

// onConnect runs in the network context right after CONNACK.
func (sup *Supervisor) onConnect(cli mqtt.Client) {
	topic := sup.g.Config.Mqtt.SensorTopic
	if t := cli.Subscribe(topic, 1, sup.onMessage); t.Wait() && t.Error() != nil {
		sup.g.Log.Errorf("tele subscribe topic=%s err=%v", topic, t.Error())
		sup.g.Queue.Push(telemetry.NewErrorEvent(t.Error().Error()))
		cli.Disconnect(0)
		sup.wake(sup.lost)
		return
	}
	sup.g.Log.Debugf("tele subscribed topic=%s", topic)
	sup.g.Queue.Push(telemetry.NewStatusEvent(true, "connected"))
}

// onMessage runs in the network context for every inbound publish.
// A malformed frame yields no event at all; a decoder panic becomes an
// ErrorEvent and never escapes the callback.
func (sup *Supervisor) onMessage(_ mqtt.Client, msg mqtt.Message) {
	defer func() {
		if r := recover(); r != nil {
			sup.g.Queue.Push(telemetry.NewErrorEvent(fmt.Sprint(r)))
		}
	}()
	if r, ok := telemetry.DecodeFrame(msg.Payload(), time.Now(), &sup.g.DecodeStat); ok {
		sup.g.Queue.Push(telemetry.NewSensorEvent(r))
	}
}

func (sup *Supervisor) onConnectionLost(_ mqtt.Client, err error) {
	sup.g.Log.Infof("tele connection lost err=%v", err)
	sup.g.Queue.Push(telemetry.NewStatusEvent(false, "connection lost"))
	if err != nil {
		sup.g.Queue.Push(telemetry.NewErrorEvent(err.Error()))
	}
	sup.wake(sup.lost)
}

func (sup *Supervisor) state() sessionState {
	sup.mu.Lock()
	defer sup.mu.Unlock()
	return sup.sess
}

func (sup *Supervisor) setState(s sessionState) {
	sup.mu.Lock()
	old := sup.sess
	sup.sess = s
	sup.mu.Unlock()
	if old != s {
		sup.g.Log.Debugf("tele session %s -> %s", old, s)
	}
}

func (sup *Supervisor) isPaused() bool {
	sup.mu.Lock()
	defer sup.mu.Unlock()
	return sup.paused
}

func (sup *Supervisor) setPaused(p bool) {
	sup.mu.Lock()
	sup.paused = p
	sup.mu.Unlock()
}

func (sup *Supervisor) wake(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// connectErrorText renders a CONNACK refusal the way the dashboard has
// always shown it; anything that is not a recognized refusal passes
// through as the raw error text.
func connectErrorText(err error) string {
	if err == nil {
		return ""
	}
	for code, known := range packets.ConnErrors {
		if code == packets.Accepted || !stderrors.Is(err, known) {
			continue
		}
		switch code {
		case 1:
			return "Incorrect protocol version"
		case 2:
			return "Invalid client identifier"
		case 3:
			return "Server unavailable"
		case 4:
			return "Bad username or password"
		case 5:
			return "Not authorized"
		default:
			return fmt.Sprintf("Error code: %d", code)
		}
	}
	return err.Error()
}
