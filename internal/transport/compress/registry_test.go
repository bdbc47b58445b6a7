package compress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/knet-garden-go/pkg/util/merr"
)

func TestResolveByName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Init())

	cases := []struct {
		name    string
		id      ModelID
		builtIn bool
	}{
		{"none", 0, true},
		{"zlib", 1, true},
		{"lz4", 2, true},
		{"lz4hc", 3, true},
		{"lzo2", 4, true},
		{"lzma", 5, true},
		{"bzip2", 6, false},
		{"zstd", 7, true},
		{"s2", 8, true},
	}
	for _, c := range cases {
		entry, err := r.resolve(c.name)
		require.NoError(t, err, c.name)
		require.Equal(t, c.id, entry.id, c.name)
		require.Equal(t, c.builtIn, entry.builtIn, c.name)
	}
}

func TestResolveUnknownName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Init())

	_, err := r.resolve("rot13")
	require.ErrorIs(t, err, merr.ErrCompressModelNotFound)

	_, err = r.resolve("")
	require.ErrorIs(t, err, merr.ErrCompressModelNotFound)
}

func TestMaxModel(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Init())
	require.Equal(t, ModelID(8), r.MaxModel())
}

func TestIsUsableFullRange(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Init())

	usable := map[ModelID]bool{
		0: true, 1: true, 2: true, 3: true, 4: true, 5: true, 7: true, 8: true,
	}
	for id := 0; id <= int(terminatorID); id++ {
		require.Equal(t, usable[ModelID(id)], r.isUsable(ModelID(id)), "id %d", id)
	}
}

func TestInitTooManyModels(t *testing.T) {
	entries := make([]moduleEntry, 0, maxCompressMethods+1)
	for i := 0; i < maxCompressMethods; i++ {
		entries = append(entries, moduleEntry{
			name:    "m",
			id:      ModelID(i % int(terminatorID)),
			builtIn: true,
			model:   noneModel{},
			init:    markerInitializer{},
		})
	}
	entries = append(entries, moduleEntry{id: terminatorID})

	r := newRegistry(entries, time.Now)
	require.ErrorIs(t, r.Init(), merr.ErrCompressTooManyModels)
}

func TestInitResetsFailureWindow(t *testing.T) {
	r := NewRegistry()
	r.lastLoadFailure = time.Now()
	require.NoError(t, r.Init())
	require.True(t, r.lastLoadFailure.IsZero())
}
