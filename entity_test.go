package depot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestEntityCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Entity
		want int
	}{
		{"equal", NewEntity(1, 2), NewEntity(1, 2), 0},
		{"lower index", NewEntity(1, 9), NewEntity(2, 0), -1},
		{"same index older generation", NewEntity(3, 0), NewEntity(3, 1), -1},
		{"higher index", NewEntity(4, 0), NewEntity(3, 7), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
			assert.Equal(t, tt.want == 0, tt.a == tt.b)
		})
	}
	assert.Equal(t, "Entity(3:1)", NewEntity(3, 1).String())
}

func TestCreateEntityUnique(t *testing.T) {
	w := Factory.NewWorld()
	seen := make(map[Entity]struct{})
	for i := range 100 {
		e := w.CreateEntity()
		_, dup := seen[e]
		require.False(t, dup, "duplicate entity %v", e)
		seen[e] = struct{}{}
		assert.Equal(t, uint32(i), e.Index())
		assert.Zero(t, e.Generation())
	}
	assert.Equal(t, 100, w.Len())
}

func TestEntityRecycling(t *testing.T) {
	w := Factory.NewWorld()
	a := w.CreateEntity()
	b := w.CreateEntity()

	require.NoError(t, InsertComponent(w, a, Position{X: 1}))
	require.NoError(t, w.DestroyEntity(a))

	assert.False(t, w.Alive(a))
	assert.True(t, w.Alive(b))
	assert.Equal(t, 1, w.Len())
	_, ok := ReadComponent[Position](w, a)
	assert.False(t, ok)

	c := w.CreateEntity()
	assert.Equal(t, a.Index(), c.Index())
	assert.Equal(t, a.Generation()+1, c.Generation())
	assert.NotEqual(t, a, c)
	assert.True(t, w.Alive(c))
	assert.False(t, w.Alive(a), "stale copy must stay dead")
	assert.False(t, HasComponent[Position](w, c), "recycled entity starts empty")

	err := InsertComponent(w, a, Position{})
	assert.ErrorIs(t, err, EntityNotAliveError{Entity: a})
	assert.False(t, HasComponent[Position](w, c))

	d := w.CreateEntity()
	assert.Equal(t, uint32(2), d.Index(), "free list drained, fresh index")
}

func TestDestroyEntityErrors(t *testing.T) {
	w := Factory.NewWorld()
	e := w.CreateEntity()

	tests := []struct {
		name   string
		entity Entity
	}{
		{"never issued", NewEntity(42, 0)},
		{"wrong generation", NewEntity(e.Index(), 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.DestroyEntity(tt.entity)
			var notAlive EntityNotAliveError
			require.ErrorAs(t, err, &notAlive)
			assert.Equal(t, tt.entity, notAlive.Entity)
		})
	}

	require.NoError(t, w.DestroyEntity(e))
	assert.Error(t, w.DestroyEntity(e), "double destroy")

	first := w.CreateEntity()
	second := w.CreateEntity()
	assert.NotEqual(t, first.Index(), second.Index(), "index freed once is reused once")
}

func TestCreateEntityConcurrent(t *testing.T) {
	w := Factory.NewWorld()
	for range 50 {
		require.NoError(t, w.DestroyEntity(w.CreateEntity()))
	}

	const workers, perWorker = 8, 200
	var (
		mu   sync.Mutex
		seen = make(map[Entity]struct{})
	)
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			local := make([]Entity, 0, perWorker)
			for range perWorker {
				local = append(local, w.CreateEntity())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, e := range local {
				if _, dup := seen[e]; dup {
					return EntityNotAliveError{Entity: e}
				}
				seen[e] = struct{}{}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, workers*perWorker, w.Len())
}

func TestDestroyEntityConcurrent(t *testing.T) {
	w := Factory.NewWorld()
	entities := make([]Entity, 64)
	for i := range entities {
		entities[i] = w.CreateEntity()
		require.NoError(t, InsertComponent(w, entities[i], Health{Value: i}))
	}

	var g errgroup.Group
	for _, e := range entities {
		g.Go(func() error { return w.DestroyEntity(e) })
	}
	require.NoError(t, g.Wait())

	assert.Zero(t, w.Len())
	assert.Zero(t, w.Storage().Len())
	assert.Empty(t, w.Storage().Archetypes())

	indices := make(map[uint32]struct{})
	for range entities {
		e := w.CreateEntity()
		assert.Equal(t, uint32(1), e.Generation())
		indices[e.Index()] = struct{}{}
	}
	assert.Len(t, indices, len(entities))
}

func TestWorldScale(t *testing.T) {
	const n = 10_000
	w := Factory.NewWorld()
	entities := make([]Entity, n)
	for i := range entities {
		entities[i] = w.CreateEntity()
		require.NoError(t, InsertComponent(w, entities[i], Health{Value: i}))
	}
	for i := 0; i < n; i += 2 {
		require.NoError(t, w.DestroyEntity(entities[i]))
	}
	assert.Equal(t, n/2, w.Len())
	assert.Equal(t, n/2, QueryOf[Health](w).Len())

	for range n / 2 {
		e := w.CreateEntity()
		require.Equal(t, uint32(1), e.Generation())
		require.NoError(t, InsertComponent(w, e, Name{Value: "recycled"}))
	}
	assert.Equal(t, n, w.Len())
	assert.Equal(t, n/2, QueryOf[Name](w).Len())
	for i := 1; i < n; i += 2 {
		h, ok := ReadComponent[Health](w, entities[i])
		require.True(t, ok)
		require.Equal(t, i, h.Value)
	}
}
