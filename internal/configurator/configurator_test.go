package configurator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTarget struct {
	mu      sync.Mutex
	applied []Aggregate
	err     error
}

func (m *mockTarget) ApplyConfiguration(ctx context.Context, aggregate Aggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied = append(m.applied, aggregate)
	return m.err
}

func TestConfigurator_AddAndSeal(t *testing.T) {
	target := &mockTarget{}
	c := New(target)

	require.NoError(t, c.AddModule(Entry{Module: "scoring", Publishes: []string{"score"}}))
	require.NoError(t, c.AddModule(Entry{Module: "clock", Subscribes: []string{"score"}}))
	assert.False(t, c.Sealed())

	require.NoError(t, c.Seal(context.Background()))
	assert.True(t, c.Sealed())

	require.Len(t, target.applied, 1)
	assert.Equal(t, Aggregate{Modules: []Entry{
		{Module: "scoring", Publishes: []string{"score"}},
		{Module: "clock", Subscribes: []string{"score"}},
	}}, target.applied[0])
}

func TestConfigurator_AddAfterSeal(t *testing.T) {
	c := New(&mockTarget{})
	require.NoError(t, c.AddModule(Entry{Module: "scoring"}))
	require.NoError(t, c.Seal(context.Background()))

	before, err := c.Snapshot()
	require.NoError(t, err)

	err = c.AddModule(Entry{Module: "late", Settings: map[string]interface{}{"x": 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSealed))

	after, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestConfigurator_SealTwice(t *testing.T) {
	target := &mockTarget{}
	c := New(target)

	require.NoError(t, c.Seal(context.Background()))
	assert.ErrorIs(t, c.Seal(context.Background()), ErrSealed)
	assert.Len(t, target.applied, 1)
}

func TestConfigurator_RejectsInvalidEntries(t *testing.T) {
	c := New(nil)

	assert.Error(t, c.AddModule(Entry{}))

	require.NoError(t, c.AddModule(Entry{Module: "scoring"}))
	err := c.AddModule(Entry{Module: "scoring"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already configured")
	assert.False(t, errors.Is(err, ErrSealed))

	assert.Len(t, c.Aggregate().Modules, 1)
}

func TestConfigurator_ApplyFailureKeepsSeal(t *testing.T) {
	target := &mockTarget{err: errors.New("broker unreachable")}
	c := New(target)

	err := c.Seal(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unreachable")
	assert.True(t, c.Sealed())
}

func TestConfigurator_EntriesAreCopied(t *testing.T) {
	c := New(nil)

	publishes := []string{"a"}
	settings := map[string]interface{}{"k": "v"}
	require.NoError(t, c.AddModule(Entry{Module: "m", Publishes: publishes, Settings: settings}))

	publishes[0] = "changed"
	settings["k"] = "changed"

	got := c.Aggregate().Modules[0]
	assert.Equal(t, []string{"a"}, got.Publishes)
	assert.Equal(t, "v", got.Settings["k"])
}

func TestConfigurator_Snapshot(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.AddModule(Entry{Module: "scoring", Publishes: []string{"score"}}))

	out, err := c.Snapshot()
	require.NoError(t, err)
	assert.Contains(t, string(out), "module: scoring")
	assert.Contains(t, string(out), "- score")
	assert.NotContains(t, string(out), "settings")
}

func TestConfigurator_ConcurrentAdds(t *testing.T) {
	c := New(nil)

	var wg sync.WaitGroup
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			assert.NoError(t, c.AddModule(Entry{Module: name}))
		}(name)
	}
	wg.Wait()

	assert.Len(t, c.Aggregate().Modules, 6)
}
