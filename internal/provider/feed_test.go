package provider

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relabs-tech/location_viewer/internal/geo"
)

// fakeConn is a scripted broker session: the test plays the publisher.
type fakeConn struct {
	mu           sync.Mutex
	connectErr   error
	connects     int
	subscribes   int
	unsubscribes int
	handler      func(payload []byte)
}

func (c *fakeConn) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
	return c.connectErr
}

func (c *fakeConn) Subscribe(_ string, handler func(payload []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribes++
	c.handler = handler
	return nil
}

func (c *fakeConn) Unsubscribe(string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubscribes++
	c.handler = nil
	return nil
}

func (c *fakeConn) publish(t *testing.T, fix geo.Coordinate) {
	t.Helper()
	payload, err := json.Marshal(fix)
	require.NoError(t, err)
	c.publishRaw(payload)
}

func (c *fakeConn) publishRaw(payload []byte) {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	if handler != nil {
		handler(payload)
	}
}

func (c *fakeConn) counts() (connects, subscribes, unsubscribes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects, c.subscribes, c.unsubscribes
}

func newTestFeed(opts FeedOptions, conn *fakeConn) *FeedProvider {
	if opts.Topic == "" {
		opts.Topic = "location/fix"
	}
	return newFeedProviderWithConn(opts, zap.NewNop().Sugar(), conn)
}

// waitListeners blocks until the provider has n registered listeners.
func waitListeners(t *testing.T, p *FeedProvider, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return len(p.listeners) == n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestFeedRequestPermission(t *testing.T) {
	t.Run("rejected credentials map to permission denied", func(t *testing.T) {
		fc := &fakeConn{connectErr: errors.New("connack: not Authorized")}
		p := newTestFeed(FeedOptions{Broker: "tcp://broker:1883"}, fc)
		err := p.RequestPermission(context.Background())
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("unreachable broker maps to unavailable", func(t *testing.T) {
		fc := &fakeConn{connectErr: errors.New("connect: connection refused")}
		p := newTestFeed(FeedOptions{Broker: "tcp://broker:1883"}, fc)
		err := p.RequestPermission(context.Background())
		assert.ErrorIs(t, err, ErrLocationUnavailable)
	})

	t.Run("connects once", func(t *testing.T) {
		fc := &fakeConn{}
		p := newTestFeed(FeedOptions{}, fc)
		require.NoError(t, p.RequestPermission(context.Background()))
		require.NoError(t, p.RequestPermission(context.Background()))
		connects, _, _ := fc.counts()
		assert.Equal(t, 1, connects)
	})
}

func TestFeedGetOnce(t *testing.T) {
	t.Run("fresh fix satisfies the one-shot", func(t *testing.T) {
		fc := &fakeConn{}
		p := newTestFeed(FeedOptions{OnceTimeout: 2 * time.Second, MaxFixAge: 10 * time.Second}, fc)

		type result struct {
			fix geo.Coordinate
			err error
		}
		done := make(chan result, 1)
		go func() {
			fix, err := p.GetOnce(context.Background())
			done <- result{fix, err}
		}()

		waitListeners(t, p, 1)
		fc.publish(t, geo.Coordinate{Latitude: 50.4501, Longitude: 30.5234, Time: time.Now()})

		r := <-done
		require.NoError(t, r.err)
		assert.InDelta(t, 50.4501, r.fix.Latitude, 1e-9)
		assert.InDelta(t, 30.5234, r.fix.Longitude, 1e-9)
	})

	t.Run("stale cached fix is rejected and the call times out", func(t *testing.T) {
		fc := &fakeConn{}
		p := newTestFeed(FeedOptions{OnceTimeout: 100 * time.Millisecond, MaxFixAge: 10 * time.Second}, fc)

		go func() {
			waitListeners(t, p, 1)
			// Retained message from half a minute ago.
			fc.publish(t, geo.Coordinate{
				Latitude: 50.4501, Longitude: 30.5234,
				Time: time.Now().Add(-30 * time.Second),
			})
		}()

		_, err := p.GetOnce(context.Background())
		assert.ErrorIs(t, err, ErrLocationUnavailable)
	})

	t.Run("listener removed after return", func(t *testing.T) {
		fc := &fakeConn{}
		p := newTestFeed(FeedOptions{OnceTimeout: 10 * time.Millisecond}, fc)
		_, err := p.GetOnce(context.Background())
		require.Error(t, err)
		waitListeners(t, p, 0)
		_, _, unsubscribes := fc.counts()
		assert.Equal(t, 1, unsubscribes)
	})
}

func TestFeedWatch(t *testing.T) {
	t.Run("movement filter", func(t *testing.T) {
		fc := &fakeConn{}
		p := newTestFeed(FeedOptions{MinDistance: 10}, fc)

		var fixes []geo.Coordinate
		w, err := p.StartWatch(
			func(fix geo.Coordinate) { fixes = append(fixes, fix) },
			func(err error) { t.Errorf("unexpected error: %v", err) },
		)
		require.NoError(t, err)
		defer w.Stop()

		fc.publish(t, geo.Coordinate{Latitude: 50.4501, Longitude: 30.5234})
		fc.publish(t, geo.Coordinate{Latitude: 50.4501, Longitude: 30.5234}) // unmoved
		fc.publish(t, geo.Coordinate{Latitude: 50.4511, Longitude: 30.5234}) // ~111 m north

		require.Len(t, fixes, 2)
		assert.InDelta(t, 50.4501, fixes[0].Latitude, 1e-9)
		assert.InDelta(t, 50.4511, fixes[1].Latitude, 1e-9)
	})

	t.Run("bad payloads surface as transient errors", func(t *testing.T) {
		fc := &fakeConn{}
		p := newTestFeed(FeedOptions{MinDistance: 10}, fc)

		var errs []error
		w, err := p.StartWatch(
			func(geo.Coordinate) {},
			func(err error) { errs = append(errs, err) },
		)
		require.NoError(t, err)
		defer w.Stop()

		fc.publishRaw([]byte("{not json"))
		fc.publish(t, geo.Coordinate{Latitude: 123, Longitude: 456}) // out of range

		require.Len(t, errs, 2)
		assert.ErrorIs(t, errs[0], ErrLocationUnavailable)
		assert.ErrorIs(t, errs[1], ErrLocationUnavailable)
	})

	t.Run("single broker subscription shared by watches", func(t *testing.T) {
		fc := &fakeConn{}
		p := newTestFeed(FeedOptions{}, fc)

		w1, err := p.StartWatch(func(geo.Coordinate) {}, func(error) {})
		require.NoError(t, err)
		w2, err := p.StartWatch(func(geo.Coordinate) {}, func(error) {})
		require.NoError(t, err)

		_, subscribes, _ := fc.counts()
		assert.Equal(t, 1, subscribes)

		w1.Stop()
		_, _, unsubscribes := fc.counts()
		assert.Equal(t, 0, unsubscribes, "subscription stays while a watch remains")

		w2.Stop()
		_, _, unsubscribes = fc.counts()
		assert.Equal(t, 1, unsubscribes, "last watch releases the subscription")
	})

	t.Run("stopped watch drops deliveries", func(t *testing.T) {
		fc := &fakeConn{}
		p := newTestFeed(FeedOptions{}, fc)

		var fixes []geo.Coordinate
		w, err := p.StartWatch(
			func(fix geo.Coordinate) { fixes = append(fixes, fix) },
			func(error) {},
		)
		require.NoError(t, err)

		w.Stop()
		fc.publish(t, geo.Coordinate{Latitude: 50.4501, Longitude: 30.5234})
		assert.Empty(t, fixes)
	})
}
