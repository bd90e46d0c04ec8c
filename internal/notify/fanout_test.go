package notify

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(out *[]string, name string) Callback {
	return func(n Notification) error {
		*out = append(*out, name+":"+string(n.Kind))
		return nil
	}
}

func TestNotifyRegistrationOrder(t *testing.T) {
	f := NewFanout()
	var got []string

	for _, name := range []string{"a", "b", "c"} {
		_, err := f.Register(Registration{ID: name, Kind: KindResolutionChanged, Deliver: collect(&got, name)})
		require.NoError(t, err)
	}
	_, err := f.Register(Registration{ID: "z", Kind: KindZoomSettingUpdated, Deliver: collect(&got, "z")})
	require.NoError(t, err)

	delivered := f.Notify(ResolutionChanged(1920, 1080, "1080p60"))
	assert.Equal(t, 3, delivered)
	assert.Equal(t, []string{"a:resolutionChanged", "b:resolutionChanged", "c:resolutionChanged"}, got)
}

func TestNotifyIsolatesFailingSubscribers(t *testing.T) {
	f := NewFanout()
	var got []string

	_, err := f.Register(Registration{ID: "panics", Kind: KindActiveInputChanged, Deliver: func(Notification) error {
		panic("boom")
	}})
	require.NoError(t, err)
	_, err = f.Register(Registration{ID: "fails", Kind: KindActiveInputChanged, Deliver: func(Notification) error {
		return errors.New("session gone")
	}})
	require.NoError(t, err)
	_, err = f.Register(Registration{ID: "ok", Kind: KindActiveInputChanged, Deliver: collect(&got, "ok")})
	require.NoError(t, err)

	assert.Equal(t, 1, f.Notify(ActiveInputChanged(true)))
	assert.Equal(t, []string{"ok:activeInputChanged"}, got)

	ok, failed := f.Delivered()
	assert.Equal(t, uint64(1), ok)
	assert.Equal(t, uint64(2), failed)
}

func TestRegisterGeneratesIDAndValidates(t *testing.T) {
	f := NewFanout()

	id, err := f.Register(Registration{Kind: KindResolutionPreChange, Deliver: func(Notification) error { return nil }})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = f.Register(Registration{Kind: "volumeChanged", Deliver: func(Notification) error { return nil }})
	assert.Error(t, err)

	_, err = f.Register(Registration{Kind: KindResolutionPreChange})
	assert.Error(t, err)
}

func TestReRegisterKeepsPosition(t *testing.T) {
	f := NewFanout()
	var got []string

	_, _ = f.Register(Registration{ID: "a", Kind: KindZoomSettingUpdated, Deliver: collect(&got, "a")})
	_, _ = f.Register(Registration{ID: "b", Kind: KindZoomSettingUpdated, Deliver: collect(&got, "b")})
	_, _ = f.Register(Registration{ID: "a", Kind: KindZoomSettingUpdated, Deliver: collect(&got, "a2")})

	f.Notify(ZoomSettingUpdated("FULL"))
	assert.Equal(t, []string{"a2:zoomSettingUpdated", "b:zoomSettingUpdated"}, got)
	assert.Equal(t, 2, f.SubscriberCount(KindZoomSettingUpdated))
}

func TestUnregister(t *testing.T) {
	f := NewFanout()
	var got []string

	_, _ = f.Register(Registration{ID: "a", Session: "s1", Kind: KindResolutionChanged, Deliver: collect(&got, "a")})
	_, _ = f.Register(Registration{ID: "a", Session: "s1", Kind: KindResolutionPreChange, Deliver: collect(&got, "a")})
	_, _ = f.Register(Registration{ID: "b", Session: "s1", Kind: KindResolutionChanged, Deliver: collect(&got, "b")})
	_, _ = f.Register(Registration{ID: "c", Session: "s2", Kind: KindResolutionChanged, Deliver: collect(&got, "c")})

	assert.False(t, f.Unregister("missing"))
	assert.True(t, f.UnregisterKind("a", KindResolutionPreChange))
	assert.Equal(t, 0, f.SubscriberCount(KindResolutionPreChange))

	assert.Equal(t, 2, f.UnregisterSession("s1"))
	assert.Equal(t, 0, f.UnregisterSession("s1"))
	assert.True(t, f.Unregister("c"))

	assert.Zero(t, f.Notify(ResolutionChanged(1280, 720, "720p")))
	assert.Empty(t, got)
}

func TestUnregisterDuringFanout(t *testing.T) {
	f := NewFanout()
	calls := map[string]int{}

	_, _ = f.Register(Registration{ID: "first", Kind: KindResolutionChanged, Deliver: func(Notification) error {
		calls["first"]++
		f.Unregister("second")
		f.Unregister("first")
		return nil
	}})
	_, _ = f.Register(Registration{ID: "second", Kind: KindResolutionChanged, Deliver: func(Notification) error {
		calls["second"]++
		return nil
	}})

	f.Notify(ResolutionChanged(1920, 1080, "1080p"))
	f.Notify(ResolutionChanged(1920, 1080, "1080p"))

	assert.Equal(t, 1, calls["first"])
	assert.Zero(t, calls["second"])
}

func TestConcurrentRegistrationAndNotify(t *testing.T) {
	f := NewFanout()
	var mu sync.Mutex
	counts := map[string]int{}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		id := string(rune('a' + i))
		go func() {
			defer wg.Done()
			_, _ = f.Register(Registration{ID: id, Kind: KindActiveInputChanged, Deliver: func(Notification) error {
				mu.Lock()
				counts[id]++
				mu.Unlock()
				return nil
			}})
		}()
		go func() {
			defer wg.Done()
			f.Notify(ActiveInputChanged(false))
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, f.SubscriberCount(KindActiveInputChanged))
	mu.Lock()
	for id, n := range counts {
		assert.LessOrEqual(t, n, 8, id)
	}
	mu.Unlock()
}

func TestClose(t *testing.T) {
	f := NewFanout()
	var got []string
	_, _ = f.Register(Registration{ID: "a", Kind: KindResolutionPreChange, Deliver: collect(&got, "a")})

	f.Close()
	f.Close()
	assert.Zero(t, f.Notify(ResolutionPreChange()))
	assert.Empty(t, got)

	_, err := f.Register(Registration{ID: "b", Kind: KindResolutionPreChange, Deliver: collect(&got, "b")})
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("connectedVideoDisplaysUpdated")
	require.NoError(t, err)
	assert.Equal(t, KindConnectedVideoDisplaysUpdated, k)

	n := ConnectedVideoDisplaysUpdated(0b101, nil)
	assert.Equal(t, 5, n.Params["portMask"])
	assert.Equal(t, []string{}, n.Params["connectedVideoDisplays"])
}
