package listview

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	ID    string
	Title string
}

func entryKey(e entry) string { return e.ID }

func newList() *List[entry, string] {
	return New[entry, string]("test", entryKey, nil)
}

func loaded(t *testing.T, items ...entry) *List[entry, string] {
	t.Helper()
	l := newList()
	require.NoError(t, l.Load(context.Background(), func(context.Context) ([]entry, error) {
		return items, nil
	}))
	return l
}

func TestLoad_ReplacesCollection(t *testing.T) {
	l := loaded(t, entry{"s1", "A"})
	require.NoError(t, l.Load(context.Background(), func(context.Context) ([]entry, error) {
		return []entry{{"s2", "B"}, {"s3", "C"}}, nil
	}))
	assert.Equal(t, []entry{{"s2", "B"}, {"s3", "C"}}, l.Items())
	assert.Equal(t, Loaded, l.Status())
}

func TestLoad_FailureKeepsPrevious(t *testing.T) {
	l := loaded(t, entry{"s1", "A"})
	err := l.Load(context.Background(), func(context.Context) ([]entry, error) {
		return nil, errors.New("network down")
	})
	require.Error(t, err)
	assert.Equal(t, []entry{{"s1", "A"}}, l.Items())
	assert.Equal(t, Loaded, l.Status())

	fresh := newList()
	require.Error(t, fresh.Load(context.Background(), func(context.Context) ([]entry, error) {
		return nil, errors.New("network down")
	}))
	assert.Equal(t, Idle, fresh.Status())
	assert.False(t, fresh.Empty())
}

func TestEmptyIsNotReportedWhileLoading(t *testing.T) {
	l := newList()
	assert.False(t, l.Empty())

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Load(context.Background(), func(context.Context) ([]entry, error) {
			close(entered)
			<-release
			return nil, nil
		})
	}()

	<-entered
	assert.Equal(t, Loading, l.Status())
	assert.False(t, l.Empty())
	close(release)
	<-done

	assert.True(t, l.Empty())
}

func TestCreate_Placement(t *testing.T) {
	l := loaded(t, entry{"s1", "A"})

	_, err := l.Create(context.Background(), func(context.Context) (entry, error) {
		return entry{"s2", "B"}, nil
	}, Prepend)
	require.NoError(t, err)
	_, err = l.Create(context.Background(), func(context.Context) (entry, error) {
		return entry{"s3", "C"}, nil
	}, Append)
	require.NoError(t, err)

	assert.Equal(t, []entry{{"s2", "B"}, {"s1", "A"}, {"s3", "C"}}, l.Items())
}

func TestCreate_FailureLeavesCollection(t *testing.T) {
	l := loaded(t, entry{"s1", "A"})
	wantErr := errors.New("conflict")

	_, err := l.Create(context.Background(), func(context.Context) (entry, error) {
		return entry{}, wantErr
	}, Append)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, []entry{{"s1", "A"}}, l.Items())
}

func TestDelete_ByKeyRegardlessOfOrder(t *testing.T) {
	orders := [][]entry{
		{{"a", "1"}, {"b", "2"}, {"c", "3"}},
		{{"c", "3"}, {"a", "1"}, {"b", "2"}},
		{{"b", "2"}, {"c", "3"}, {"a", "1"}},
	}
	for _, items := range orders {
		l := loaded(t, items...)
		require.NoError(t, l.Delete(context.Background(), "b", func(context.Context) error { return nil }))

		var want []entry
		for _, it := range items {
			if it.ID != "b" {
				want = append(want, it)
			}
		}
		assert.Equal(t, want, l.Items())
	}
}

func TestDelete_ClearsSelectedSession(t *testing.T) {
	l := loaded(t, entry{"s1", "A"}, entry{"s2", "B"})
	l.Select("s2")

	require.NoError(t, l.Delete(context.Background(), "s2", func(context.Context) error { return nil }))

	assert.Equal(t, []entry{{"s1", "A"}}, l.Items())
	_, ok := l.Selected()
	assert.False(t, ok)
}

func TestDelete_KeepsOtherSelection(t *testing.T) {
	l := loaded(t, entry{"s1", "A"}, entry{"s2", "B"})
	l.Select("s1")

	require.NoError(t, l.Delete(context.Background(), "s2", func(context.Context) error { return nil }))

	sel, ok := l.Selected()
	assert.True(t, ok)
	assert.Equal(t, "s1", sel)
}

func TestDelete_FailureLeavesCollection(t *testing.T) {
	l := loaded(t, entry{"s1", "A"}, entry{"s2", "B"})
	l.Select("s2")

	err := l.Delete(context.Background(), "s2", func(context.Context) error { return errors.New("boom") })
	require.Error(t, err)

	assert.Equal(t, []entry{{"s1", "A"}, {"s2", "B"}}, l.Items())
	sel, ok := l.Selected()
	assert.True(t, ok)
	assert.Equal(t, "s2", sel)
	assert.False(t, l.Busy("s2"))
}

// In the browser original a reload and a delete could interleave and the
// reload's stale answer would bring the deleted entry back. Here the delete
// waits for the reload and is applied on top of it.
func TestDeleteDuringReloadIsSerialized(t *testing.T) {
	l := loaded(t, entry{"s1", "A"}, entry{"s2", "B"})

	entered := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = l.Load(context.Background(), func(context.Context) ([]entry, error) {
			close(entered)
			<-release
			return []entry{{"s1", "A"}, {"s2", "B"}}, nil
		})
	}()
	<-entered

	var removed atomic.Bool
	go func() {
		defer wg.Done()
		_ = l.Delete(context.Background(), "s2", func(context.Context) error {
			removed.Store(true)
			return nil
		})
	}()

	assert.Eventually(t, func() bool { return l.Busy("s2") }, time.Second, time.Millisecond)
	assert.False(t, removed.Load(), "delete must wait for the reload")

	close(release)
	wg.Wait()

	assert.True(t, removed.Load())
	assert.Equal(t, []entry{{"s1", "A"}}, l.Items())
}

func TestFind(t *testing.T) {
	l := loaded(t, entry{"s1", "A"})
	got, ok := l.Find("s1")
	assert.True(t, ok)
	assert.Equal(t, "A", got.Title)
	_, ok = l.Find("nope")
	assert.False(t, ok)
}

func TestDedupBy(t *testing.T) {
	in := []entry{{"a.pdf", "1"}, {"b.pdf", "1"}, {"a.pdf", "2"}, {"c.pdf", "1"}, {"b.pdf", "2"}}
	got := DedupBy(in, entryKey)
	assert.Equal(t, []entry{{"a.pdf", "1"}, {"b.pdf", "1"}, {"c.pdf", "1"}}, got)
	assert.Empty(t, DedupBy[entry, string](nil, entryKey))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "loaded", Loaded.String())
}
