// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/location_viewer/internal/geo"
)

// FeedOptions configures the MQTT location-feed backend.
type FeedOptions struct {
	Broker      string
	ClientID    string
	Topic       string
	MinDistance float64       // watch: minimum movement in meters between fixes
	OnceTimeout time.Duration // GetOnce gives up after this
	MaxFixAge   time.Duration // cached (retained) fixes older than this are stale
}

// feedConn is the slice of the MQTT client the provider uses, separated so
// tests can substitute a scripted broker.
type feedConn interface {
	Connect() error
	Subscribe(topic string, handler func(payload []byte)) error
	Unsubscribe(topic string) error
}

// FeedProvider subscribes to a JSON location topic. The broker keeps the last
// published fix as a retained message, which acts as the backend's location
// cache: a one-shot read accepts it only while it is fresh.
//
// The provider holds a single broker subscription and fans incoming fixes out
// to however many one-shot waiters and watches are active, since the client
// allows only one handler per topic.
type FeedProvider struct {
	opts FeedOptions
	log  *zap.SugaredLogger
	conn feedConn

	mu         sync.Mutex
	connected  bool
	subscribed bool
	nextID     int
	listeners  map[int]feedListener
}

type feedListener struct {
	onFix   func(geo.Coordinate)
	onError func(error)
}

func NewFeedProvider(opts FeedOptions, log *zap.SugaredLogger) *FeedProvider {
	return &FeedProvider{
		opts:      opts,
		log:       log,
		conn:      newPahoConn(opts.Broker, opts.ClientID),
		listeners: make(map[int]feedListener),
	}
}

// newFeedProviderWithConn is the test seam.
func newFeedProviderWithConn(opts FeedOptions, log *zap.SugaredLogger, conn feedConn) *FeedProvider {
	return &FeedProvider{
		opts:      opts,
		log:       log,
		conn:      conn,
		listeners: make(map[int]feedListener),
	}
}

func (p *FeedProvider) Kind() Kind { return KindFeed }

// RequestPermission establishes the broker session. Rejected credentials map
// to ErrPermissionDenied, everything else to ErrLocationUnavailable.
func (p *FeedProvider) RequestPermission(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectLocked()
}

func (p *FeedProvider) connectLocked() error {
	if p.connected {
		return nil
	}
	if err := p.conn.Connect(); err != nil {
		if isAuthError(err) {
			return fmt.Errorf("%w: broker %s: %v", ErrPermissionDenied, p.opts.Broker, err)
		}
		return fmt.Errorf("%w: broker %s: %v", ErrLocationUnavailable, p.opts.Broker, err)
	}
	p.connected = true
	return nil
}

func isAuthError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not authorized") ||
		strings.Contains(s, "bad user name or password")
}

// GetOnce waits for the next fresh fix on the topic. A retained message
// satisfies it immediately when at most MaxFixAge old; otherwise the call
// waits for a live fix and fails with ErrLocationUnavailable after
// OnceTimeout.
func (p *FeedProvider) GetOnce(ctx context.Context) (geo.Coordinate, error) {
	fixes := make(chan geo.Coordinate, 1)
	id, err := p.addListener(feedListener{
		onFix: func(fix geo.Coordinate) {
			if !fix.Time.IsZero() && time.Since(fix.Time) > p.opts.MaxFixAge {
				return
			}
			select {
			case fixes <- fix:
			default:
			}
		},
	})
	if err != nil {
		return geo.Coordinate{}, err
	}
	defer p.removeListener(id)

	timer := time.NewTimer(p.opts.OnceTimeout)
	defer timer.Stop()

	select {
	case fix := <-fixes:
		return fix, nil
	case <-timer.C:
		return geo.Coordinate{}, fmt.Errorf("%w: no fix on %s within %s",
			ErrLocationUnavailable, p.opts.Topic, p.opts.OnceTimeout)
	case <-ctx.Done():
		return geo.Coordinate{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, ctx.Err())
	}
}

// StartWatch streams fixes continuously, subject to the MinDistance movement
// filter. There is no time-based throttle on this backend. Feed errors are
// always transient: they are reported through onError and the watch keeps
// running.
func (p *FeedProvider) StartWatch(onFix FixFunc, onError ErrorFunc) (*Watch, error) {
	var mu sync.Mutex
	var last geo.Coordinate
	var have bool

	w := &Watch{kind: KindFeed}

	id, err := p.addListener(feedListener{
		onFix: func(fix geo.Coordinate) {
			if w.Stopped() {
				return
			}
			mu.Lock()
			if have && geo.Distance(last, fix) < p.opts.MinDistance {
				mu.Unlock()
				return
			}
			last, have = fix, true
			mu.Unlock()
			onFix(fix)
		},
		onError: func(err error) {
			if w.Stopped() {
				return
			}
			onError(err)
		},
	})
	if err != nil {
		return nil, err
	}

	w.release = func() { p.removeListener(id) }
	return w, nil
}

// addListener connects and subscribes lazily on the first listener.
func (p *FeedProvider) addListener(l feedListener) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connectLocked(); err != nil {
		return 0, err
	}
	if !p.subscribed {
		if err := p.conn.Subscribe(p.opts.Topic, p.dispatch); err != nil {
			return 0, fmt.Errorf("%w: subscribe %s: %v",
				ErrLocationUnavailable, p.opts.Topic, err)
		}
		p.subscribed = true
	}

	id := p.nextID
	p.nextID++
	p.listeners[id] = l
	return id, nil
}

// removeListener drops the listener and releases the broker subscription once
// nobody is left.
func (p *FeedProvider) removeListener(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.listeners, id)
	if len(p.listeners) == 0 && p.subscribed {
		if err := p.conn.Unsubscribe(p.opts.Topic); err != nil {
			p.log.Warnf("feed: unsubscribe %s: %v", p.opts.Topic, err)
		}
		p.subscribed = false
	}
}

// dispatch decodes one payload and fans it out. Undecodable or out-of-range
// payloads are reported as transient errors.
func (p *FeedProvider) dispatch(payload []byte) {
	var fix geo.Coordinate
	if err := json.Unmarshal(payload, &fix); err != nil {
		p.fanoutError(fmt.Errorf("%w: payload: %v", ErrLocationUnavailable, err))
		return
	}
	if !fix.Valid() {
		p.fanoutError(fmt.Errorf("%w: fix out of range (%f, %f)",
			ErrLocationUnavailable, fix.Latitude, fix.Longitude))
		return
	}

	for _, l := range p.snapshotListeners() {
		if l.onFix != nil {
			l.onFix(fix)
		}
	}
}

func (p *FeedProvider) fanoutError(err error) {
	p.log.Warnf("feed: %v", err)
	for _, l := range p.snapshotListeners() {
		if l.onError != nil {
			l.onError(err)
		}
	}
}

// snapshotListeners copies the listener set so callbacks run outside the
// provider lock; they call straight back into the session.
func (p *FeedProvider) snapshotListeners() []feedListener {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]feedListener, 0, len(p.listeners))
	for _, l := range p.listeners {
		out = append(out, l)
	}
	return out
}

// pahoConn adapts the paho client to feedConn.
type pahoConn struct {
	client mqtt.Client
}

func newPahoConn(broker, clientID string) *pahoConn {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)
	return &pahoConn{client: mqtt.NewClient(opts)}
}

func (c *pahoConn) Connect() error {
	token := c.client.Connect()
	token.Wait()
	return token.Error()
}

func (c *pahoConn) Subscribe(topic string, handler func(payload []byte)) error {
	token := c.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	token.Wait()
	return token.Error()
}

func (c *pahoConn) Unsubscribe(topic string) error {
	token := c.client.Unsubscribe(topic)
	token.Wait()
	return token.Error()
}
