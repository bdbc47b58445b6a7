package compress

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/knet-garden-go/pkg/util/merr"
)

// fakeModel 记录加载/卸载次数，可注入加载失败。
// 计数的修改都发生在 Registry 的写锁内。
type fakeModel struct {
	loadErr error
	loads   int
	unloads int
}

func (m *fakeModel) LoadLib() error {
	m.loads++
	return m.loadErr
}

func (m *fakeModel) UnloadLib() {
	m.unloads++
}

func (m *fakeModel) ValidateLevel(level int) bool {
	return level >= 0 && level <= 9
}

func (m *fakeModel) Compress(_ *Handle, _ []byte, src []byte, _ int) ([]byte, error) {
	return src, nil
}

func (m *fakeModel) Decompress(_ *Handle, _ []byte, src []byte) ([]byte, error) {
	return src, nil
}

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time {
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newLoaderTestRegistry(t *testing.T, alpha, beta *fakeModel) (*Registry, *testClock) {
	clock := &testClock{t: time.Unix(1700000000, 0)}
	entries := []moduleEntry{
		{name: "none", id: 0, builtIn: true, model: noneModel{}, init: markerInitializer{}},
		{name: "alpha", id: 1, builtIn: true, model: alpha, init: markerInitializer{}},
		{name: "beta", id: 2, builtIn: true, model: beta, init: markerInitializer{}},
		{name: "", id: terminatorID},
	}
	r := newRegistry(entries, clock.now)
	require.NoError(t, r.Init())
	return r, clock
}

func TestEnsureReadyLoadsOnce(t *testing.T) {
	alpha, beta := &fakeModel{}, &fakeModel{}
	r, _ := newLoaderTestRegistry(t, alpha, beta)
	h := NewHandle()

	unlock, err := r.ensureReady(h, 1, false)
	require.NoError(t, err)
	unlock()

	unlock, err = r.ensureReady(h, 1, false)
	require.NoError(t, err)
	unlock()

	require.Equal(t, 1, alpha.loads)
	require.Equal(t, 1, r.states[1].libref)
	require.True(t, h.owned.Contain(1))
}

func TestLibrefAcrossHandles(t *testing.T) {
	alpha, beta := &fakeModel{}, &fakeModel{}
	r, _ := newLoaderTestRegistry(t, alpha, beta)
	h1, h2 := NewHandle(), NewHandle()

	for _, h := range []*Handle{h1, h2} {
		unlock, err := r.ensureReady(h, 1, false)
		require.NoError(t, err)
		unlock()
	}
	require.Equal(t, 1, alpha.loads)
	require.Equal(t, 2, r.states[1].libref)

	r.release(h1, 1)
	require.Equal(t, 1, r.states[1].libref)
	require.True(t, r.states[1].loaded)
	require.Equal(t, 0, alpha.unloads)

	r.release(h2, 1)
	require.Equal(t, 0, r.states[1].libref)
	require.False(t, r.states[1].loaded)
	require.Equal(t, 1, alpha.unloads)

	// 重复释放不会让引用计数为负。
	r.release(h2, 1)
	require.Equal(t, 0, r.states[1].libref)
	require.Equal(t, 1, alpha.unloads)
}

func TestLoadFailureRateLimitsInboundPath(t *testing.T) {
	alpha, beta := &fakeModel{loadErr: errors.New("missing symbol")}, &fakeModel{}
	r, clock := newLoaderTestRegistry(t, alpha, beta)
	h := NewHandle()

	_, err := r.ensureReady(h, 1, true)
	require.ErrorIs(t, err, merr.ErrCompressLibLoadFailed)
	require.Equal(t, 1, alpha.loads)

	// 冷却期内直接拒绝，不再尝试加载。
	clock.advance(5 * time.Second)
	_, err = r.ensureReady(h, 1, true)
	require.ErrorIs(t, err, merr.ErrCompressRateLimited)
	require.True(t, merr.IsRetryableErr(err))
	require.Equal(t, 1, alpha.loads)

	// 冷却期过后恢复尝试。
	clock.advance(6 * time.Second)
	_, err = r.ensureReady(h, 1, true)
	require.ErrorIs(t, err, merr.ErrCompressLibLoadFailed)
	require.Equal(t, 2, alpha.loads)
}

func TestOutboundPathNotRateLimited(t *testing.T) {
	alpha, beta := &fakeModel{loadErr: errors.New("missing symbol")}, &fakeModel{}
	r, clock := newLoaderTestRegistry(t, alpha, beta)
	h := NewHandle()

	_, err := r.ensureReady(h, 1, false)
	require.ErrorIs(t, err, merr.ErrCompressLibLoadFailed)

	clock.advance(time.Second)
	_, err = r.ensureReady(h, 1, false)
	require.ErrorIs(t, err, merr.ErrCompressLibLoadFailed)
	require.Equal(t, 2, alpha.loads)
}

// 失败冷却的时间戳由所有模型共享：alpha 加载失败后，
// 冷却期内 beta 的解压路径同样被拒绝。
func TestRateLimitSharedAcrossModels(t *testing.T) {
	alpha, beta := &fakeModel{loadErr: errors.New("missing symbol")}, &fakeModel{}
	r, clock := newLoaderTestRegistry(t, alpha, beta)
	h := NewHandle()

	_, err := r.ensureReady(h, 1, true)
	require.ErrorIs(t, err, merr.ErrCompressLibLoadFailed)

	clock.advance(5 * time.Second)
	_, err = r.ensureReady(h, 2, true)
	require.ErrorIs(t, err, merr.ErrCompressRateLimited)
	require.Equal(t, 0, beta.loads)

	clock.advance(6 * time.Second)
	unlock, err := r.ensureReady(h, 2, true)
	require.NoError(t, err)
	unlock()
	require.Equal(t, 1, beta.loads)
}

// 冷却只看快速路径是否命中：库已被其他 Handle 加载、
// 但当前 Handle 尚未初始化时，解压路径同样要吃冷却。
func TestRateLimitAppliesToLoadedModel(t *testing.T) {
	alpha, beta := &fakeModel{}, &fakeModel{loadErr: errors.New("missing symbol")}
	r, clock := newLoaderTestRegistry(t, alpha, beta)
	h1, h2 := NewHandle(), NewHandle()

	unlock, err := r.ensureReady(h1, 1, false)
	require.NoError(t, err)
	unlock()
	require.True(t, r.states[1].loaded)

	// beta 加载失败，写入共享的失败时间戳。
	_, err = r.ensureReady(h1, 2, true)
	require.ErrorIs(t, err, merr.ErrCompressLibLoadFailed)

	clock.advance(5 * time.Second)
	_, err = r.ensureReady(h2, 1, true)
	require.ErrorIs(t, err, merr.ErrCompressRateLimited)
	require.False(t, h2.owned.Contain(1))

	// 已初始化的 Handle 走快速路径，不受冷却影响。
	unlock, err = r.ensureReady(h1, 1, true)
	require.NoError(t, err)
	unlock()

	clock.advance(6 * time.Second)
	unlock, err = r.ensureReady(h2, 1, true)
	require.NoError(t, err)
	unlock()
	require.Equal(t, 2, r.states[1].libref)
}

func TestEnsureReadyConcurrent(t *testing.T) {
	alpha, beta := &fakeModel{}, &fakeModel{}
	r, _ := newLoaderTestRegistry(t, alpha, beta)
	h := NewHandle()

	var eg errgroup.Group
	for i := 0; i < 16; i++ {
		eg.Go(func() error {
			unlock, err := r.ensureReady(h, 1, false)
			if err != nil {
				return err
			}
			unlock()
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	// 写锁下的双重检查保证同一 Handle 不会重复加载或重复计数。
	require.Equal(t, 1, alpha.loads)
	require.Equal(t, 1, r.states[1].libref)
}

func TestFiniReleasesOnlyOwned(t *testing.T) {
	alpha, beta := &fakeModel{}, &fakeModel{}
	r, _ := newLoaderTestRegistry(t, alpha, beta)
	h1, h2 := NewHandle(), NewHandle()

	for _, h := range []*Handle{h1, h2} {
		unlock, err := r.ensureReady(h, 1, false)
		require.NoError(t, err)
		unlock()
	}
	unlock, err := r.ensureReady(h1, 2, false)
	require.NoError(t, err)
	unlock()

	r.Fini(h1)
	require.Equal(t, 0, h1.owned.Len())
	require.Equal(t, 1, r.states[1].libref)
	require.False(t, r.states[2].loaded)

	r.Fini(h2)
	require.Equal(t, 0, r.states[1].libref)
	require.False(t, r.states[1].loaded)
	require.Equal(t, 1, alpha.unloads)
}
