package broadband

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikedoall/home-data-hub/internal/model"
)

type fakeGeocoder struct {
	loc   *model.Location
	err   error
	calls int
}

func (f *fakeGeocoder) Geocode(_ context.Context, _ string) (*model.Location, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.loc, nil
}

type fakeBlocks struct {
	block *model.CensusBlock
	err   error
}

func (f *fakeBlocks) BlockFromCoordinates(_ context.Context, _, _ float64) (*model.CensusBlock, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.block, nil
}

type fakeSource struct {
	name       string
	byBlock    []model.RawProviderRecord
	byCoords   []model.RawProviderRecord
	err        error
	blockCalls int
	coordCalls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchByBlock(_ context.Context, _ string) ([]model.RawProviderRecord, error) {
	f.blockCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byBlock, nil
}

func (f *fakeSource) FetchByCoordinates(_ context.Context, _, _ float64) ([]model.RawProviderRecord, error) {
	f.coordCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byCoords, nil
}

type fakeCache struct {
	entries map[string]*model.BroadbandResult
	getErr  error
	putErr  error
	puts    int
	lastTTL time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*model.BroadbandResult)}
}

func (f *fakeCache) GetBroadband(_ context.Context, geoid string) (*model.BroadbandResult, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[geoid], nil
}

func (f *fakeCache) PutBroadband(_ context.Context, geoid string, result *model.BroadbandResult, ttl time.Duration) error {
	f.puts++
	f.lastTTL = ttl
	if f.putErr != nil {
		return f.putErr
	}
	f.entries[geoid] = result
	return nil
}

const testGEOID = "110010062021031"

func testBlock() *model.CensusBlock {
	return &model.CensusBlock{GEOID: testGEOID, State: "11", County: "001"}
}

func testRecords() []model.RawProviderRecord {
	return []model.RawProviderRecord{
		{FRN: "0001", ProviderName: "Acme Fiber", TechnologyCode: "20", MaxDownload: 1000, MaxUpload: 1000},
		{FRN: "0002", ProviderName: "Beta Cable", TechnologyCode: "31", MaxDownload: 400, MaxUpload: 20},
		{FRN: "0001", ProviderName: "Acme Fiber", TechnologyCode: "11", MaxDownload: 100, MaxUpload: 20},
	}
}

func testConfig() ResolverConfig {
	cfg := DefaultResolverConfig()
	cfg.SourceTimeout = time.Second
	return cfg
}

func TestResolveAddressHappyPath(t *testing.T) {
	gc := &fakeGeocoder{loc: &model.Location{Latitude: 38.9, Longitude: -77.03}}
	cache := newFakeCache()
	mirror := &fakeSource{name: "mirror", byBlock: testRecords()}

	r := NewResolver(testConfig(), gc, &fakeBlocks{block: testBlock()}, cache, mirror)
	result, err := r.ResolveAddress(context.Background(), "123 Main St, Washington, DC")
	require.NoError(t, err)

	require.Len(t, result.Providers, 2)
	assert.Equal(t, "Acme Fiber", result.Providers[0].Name)
	assert.Equal(t, 1000, result.Providers[0].MaxDownload)
	assert.Equal(t, "mirror", result.Source)
	assert.Equal(t, testGEOID, result.GEOID)
	assert.False(t, result.Error)

	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, 24*time.Hour, cache.lastTTL)
}

func TestResolveAddressEmptyInput(t *testing.T) {
	r := NewResolver(testConfig(), &fakeGeocoder{}, &fakeBlocks{}, newFakeCache())

	_, err := r.ResolveAddress(context.Background(), "   ")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolveCoordinatesInvalid(t *testing.T) {
	r := NewResolver(testConfig(), &fakeGeocoder{}, &fakeBlocks{}, newFakeCache())

	for _, tc := range [][2]float64{{91, 0}, {-91, 0}, {0, 181}, {0, -181}} {
		_, err := r.ResolveCoordinates(context.Background(), tc[0], tc[1])
		require.ErrorIs(t, err, ErrInvalidInput, "coords %v", tc)
	}
}

func TestResolveCacheHitSkipsSources(t *testing.T) {
	cache := newFakeCache()
	cache.entries[testGEOID] = &model.BroadbandResult{
		Providers: []model.NormalizedProvider{{Name: "Cached Co"}},
		Source:    "mirror",
		GEOID:     testGEOID,
	}
	mirror := &fakeSource{name: "mirror", byBlock: testRecords()}

	r := NewResolver(testConfig(), &fakeGeocoder{}, &fakeBlocks{block: testBlock()}, cache, mirror)
	result, err := r.ResolveCoordinates(context.Background(), 38.9, -77.03)
	require.NoError(t, err)

	assert.Equal(t, "Cached Co", result.Providers[0].Name)
	assert.Zero(t, mirror.blockCalls)
	assert.Zero(t, mirror.coordCalls)
	assert.Zero(t, cache.puts)
}

func TestResolveCacheFailureTreatedAsMiss(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = eris.New("disk on fire")
	mirror := &fakeSource{name: "mirror", byBlock: testRecords()}

	r := NewResolver(testConfig(), &fakeGeocoder{}, &fakeBlocks{block: testBlock()}, cache, mirror)
	result, err := r.ResolveCoordinates(context.Background(), 38.9, -77.03)
	require.NoError(t, err)

	assert.Equal(t, "mirror", result.Source)
	assert.Equal(t, 1, mirror.blockCalls)
}

func TestResolveFallsThroughToNextSource(t *testing.T) {
	failing := &fakeSource{name: "mirror", err: eris.New("connection refused")}
	empty := &fakeSource{name: "opendata"}
	winner := &fakeSource{name: "bdcmap", byCoords: testRecords()}

	r := NewResolver(testConfig(), &fakeGeocoder{}, &fakeBlocks{block: testBlock()}, newFakeCache(),
		failing, empty, winner)
	result, err := r.ResolveCoordinates(context.Background(), 38.9, -77.03)
	require.NoError(t, err)

	assert.Equal(t, "bdcmap", result.Source)
	assert.Equal(t, 1, failing.blockCalls)
	assert.Equal(t, 1, empty.blockCalls)
}

func TestResolveAllSourcesEmptyReturnsRegionalFallback(t *testing.T) {
	cache := newFakeCache()
	r := NewResolver(testConfig(), &fakeGeocoder{}, &fakeBlocks{block: testBlock()}, cache,
		&fakeSource{name: "mirror"}, &fakeSource{name: "opendata"}, &fakeSource{name: "bdcmap"})

	result, err := r.ResolveCoordinates(context.Background(), 38.9, -77.03)
	require.NoError(t, err)

	require.Len(t, result.Providers, 3)
	assert.Equal(t, RegionalSource, result.Source)
	assert.Contains(t, result.Message, "regional approximation")

	// The approximation must never be cached.
	assert.Zero(t, cache.puts)
}

func TestResolveWithoutBlockSkipsCache(t *testing.T) {
	cache := newFakeCache()
	mirror := &fakeSource{name: "mirror", byCoords: testRecords()}

	r := NewResolver(testConfig(), &fakeGeocoder{},
		&fakeBlocks{err: eris.New("census unavailable")}, cache, mirror)
	result, err := r.ResolveCoordinates(context.Background(), 38.9, -77.03)
	require.NoError(t, err)

	assert.Empty(t, result.GEOID)
	assert.Len(t, result.Providers, 2)
	assert.Zero(t, mirror.blockCalls)
	assert.Equal(t, 1, mirror.coordCalls)
	assert.Zero(t, cache.puts)
}

func TestResolveBlockQueryFallsBackToCoordinates(t *testing.T) {
	// A source that finds nothing for the block but has point data.
	src := &fakeSource{name: "mirror", byCoords: testRecords()}

	r := NewResolver(testConfig(), &fakeGeocoder{}, &fakeBlocks{block: testBlock()}, newFakeCache(), src)
	result, err := r.ResolveCoordinates(context.Background(), 38.9, -77.03)
	require.NoError(t, err)

	assert.Equal(t, 1, src.blockCalls)
	assert.Equal(t, 1, src.coordCalls)
	assert.Equal(t, "mirror", result.Source)
}

func TestResolveHonorsConfiguredOrder(t *testing.T) {
	cfg := testConfig()
	cfg.SourceOrder = []string{"bdcmap", "mirror"}

	mirror := &fakeSource{name: "mirror", byBlock: testRecords()}
	bdc := &fakeSource{name: "bdcmap", byBlock: testRecords()}

	r := NewResolver(cfg, &fakeGeocoder{}, &fakeBlocks{block: testBlock()}, newFakeCache(), mirror, bdc)
	result, err := r.ResolveCoordinates(context.Background(), 38.9, -77.03)
	require.NoError(t, err)

	assert.Equal(t, "bdcmap", result.Source)
	assert.Zero(t, mirror.blockCalls)
}

func TestResolveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cache := newFakeCache()
	r := NewResolver(testConfig(), &fakeGeocoder{},
		&fakeBlocks{err: context.Canceled}, cache,
		&fakeSource{name: "mirror", byCoords: testRecords()})

	_, err := r.ResolveCoordinates(ctx, 38.9, -77.03)
	require.Error(t, err)
	assert.Zero(t, cache.puts)
}
