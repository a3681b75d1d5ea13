package telemetry

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VisionForge/internal/entity"
)

func newTestBroadcaster(opts ...BroadcasterOption) *Broadcaster {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewBroadcaster(log, opts...)
}

func TestBroadcastDelivery(t *testing.T) {
	b := newTestBroadcaster()
	defer b.Close()

	sub := b.Subscribe()
	b.Broadcast(entity.NewHeartbeatEvent(7))

	select {
	case ev := <-sub.Events():
		hb, ok := ev.(entity.HeartbeatEvent)
		require.True(t, ok)
		assert.Equal(t, int64(7), hb.InferenceCount)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestBroadcastNeverBlocksProducer(t *testing.T) {
	b := newTestBroadcaster(WithQueueSize(1))
	defer b.Close()

	b.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Broadcast(entity.NewHeartbeatEvent(int64(i)))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked on saturated subscriber")
	}
}

func TestSaturatedSubscriberIsDropped(t *testing.T) {
	b := newTestBroadcaster(WithQueueSize(1))
	defer b.Close()

	sub := b.Subscribe()
	require.Equal(t, 1, b.SubscriberCount())

	b.Broadcast(entity.NewHeartbeatEvent(1)) // fills the queue
	b.Broadcast(entity.NewHeartbeatEvent(2)) // overflow, drops subscriber

	assert.Equal(t, 0, b.SubscriberCount())

	// Buffered event is still readable, then the channel closes.
	<-sub.Events()
	_, ok := <-sub.Events()
	assert.False(t, ok, "dropped subscriber channel must be closed")

	sent, dropped := b.Stats()
	assert.Equal(t, uint64(1), sent)
	assert.Equal(t, uint64(1), dropped)
}

func TestSlowSubscriberDoesNotAffectOthers(t *testing.T) {
	b := newTestBroadcaster(WithQueueSize(1))
	defer b.Close()

	slow := b.Subscribe()
	fast := b.Subscribe()
	_ = slow

	b.Broadcast(entity.NewHeartbeatEvent(1))
	b.Broadcast(entity.NewHeartbeatEvent(2))

	received := 0
	for {
		select {
		case _, ok := <-fast.Events():
			if !ok {
				t.Fatal("fast subscriber was dropped")
			}
			received++
			if received == 1 {
				// Drain promptly so the second event fits.
				continue
			}
			assert.Equal(t, 2, received)
			return
		case <-time.After(time.Second):
			// fast had capacity 1: first event buffered, second may have
			// been dropped along with the subscriber if not drained in
			// time. One delivery is the guaranteed minimum.
			assert.GreaterOrEqual(t, received, 1)
			return
		}
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	b := newTestBroadcaster()
	defer b.Close()

	sub := b.Subscribe()
	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	b.Unsubscribe(nil)

	assert.Equal(t, 0, b.SubscriberCount())
}

func TestConcurrentBroadcastAndSubscribe(t *testing.T) {
	b := newTestBroadcaster()
	defer b.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Broadcast(entity.NewHeartbeatEvent(int64(j)))
			}
		}()
	}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := b.Subscribe()
			for range sub.Events() {
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	b.Close()
	wg.Wait()
}

func TestSubscribeAfterClose(t *testing.T) {
	b := newTestBroadcaster()
	b.Close()

	sub := b.Subscribe()
	_, ok := <-sub.Events()
	assert.False(t, ok)

	// Broadcasting after close is a no-op.
	b.Broadcast(entity.NewHeartbeatEvent(1))
}
