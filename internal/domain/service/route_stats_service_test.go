package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
	"github.com/AgusMolinaCode/map-trip/internal/domain/repository"
	"github.com/AgusMolinaCode/map-trip/internal/domain/store"
)

// fakeDirectionsProvider テスト用の外部ルート検索
type fakeDirectionsProvider struct {
	calls  int
	fail   bool
	result *repository.RouteDetails
}

func (f *fakeDirectionsProvider) GetRoute(_ context.Context, coordinates []orb.Point, _ model.RouteProfile) (*repository.RouteDetails, error) {
	f.calls++
	if f.fail {
		return nil, fmt.Errorf("directions api unavailable")
	}
	if f.result != nil {
		return f.result, nil
	}
	line := make(orb.LineString, len(coordinates))
	copy(line, coordinates)
	return &repository.RouteDetails{
		Geometry:        model.GeometryFromLineString(line),
		DistanceMeters:  1500,
		DurationSeconds: 1200,
	}, nil
}

// fakeRouteCache インメモリのキャッシュ実装
type fakeRouteCache struct {
	entries map[string]*repository.RouteDetails
	saves   int
}

func newFakeRouteCache() *fakeRouteCache {
	return &fakeRouteCache{entries: map[string]*repository.RouteDetails{}}
}

func (f *fakeRouteCache) Get(_ context.Context, cacheKey string) (*repository.RouteDetails, error) {
	return f.entries[cacheKey], nil
}

func (f *fakeRouteCache) Save(_ context.Context, cacheKey string, details *repository.RouteDetails, _ int) error {
	f.saves++
	f.entries[cacheKey] = details
	return nil
}

func testCacheKey(profile model.RouteProfile, coordinates []orb.Point) string {
	key := string(profile)
	for _, c := range coordinates {
		key += fmt.Sprintf("|%f,%f", c.Lon(), c.Lat())
	}
	return key
}

func setupRoute(t *testing.T, placeCount int) (*store.TripStore, string, string) {
	t.Helper()
	tripStore := store.NewTripStore()
	dayID := tripStore.AddDay()
	routeID := tripStore.AddRoute(dayID, "")
	for i := 0; i < placeCount; i++ {
		tripStore.AddPlace(dayID, routeID, model.Place{
			Name:        fmt.Sprintf("Place %d", i+1),
			Coordinates: orb.Point{-68.8 - float64(i)*0.01, -32.9},
		})
	}
	return tripStore, dayID, routeID
}

func TestRouteStatsService_Recalculate(t *testing.T) {
	t.Run("2件以上のPlaceがあれば距離と所要時間が設定される", func(t *testing.T) {
		tripStore, dayID, routeID := setupRoute(t, 2)
		provider := &fakeDirectionsProvider{}
		svc := NewRouteStatsService(tripStore, provider, nil, nil)

		svc.RecalculateRouteStats(context.Background(), dayID, routeID)

		stats := tripStore.Snapshot().Days[0].Routes[0].RouteStats
		require.NotNil(t, stats)
		assert.Equal(t, 1500.0, stats.DistanceMeters)
		assert.Equal(t, 1200.0, stats.DurationSeconds)
	})

	t.Run("Placeが2件未満なら統計はクリアされる", func(t *testing.T) {
		tripStore, dayID, routeID := setupRoute(t, 2)
		provider := &fakeDirectionsProvider{}
		svc := NewRouteStatsService(tripStore, provider, nil, nil)
		svc.RecalculateRouteStats(context.Background(), dayID, routeID)
		require.NotNil(t, tripStore.Snapshot().Days[0].Routes[0].RouteStats)

		placeID := tripStore.Snapshot().Days[0].Routes[0].Places[1].ID
		tripStore.RemovePlace(dayID, routeID, placeID)
		svc.RecalculateRouteStats(context.Background(), dayID, routeID)

		assert.Nil(t, tripStore.Snapshot().Days[0].Routes[0].RouteStats)
	})

	t.Run("検索失敗時は統計を未設定のまま残す", func(t *testing.T) {
		tripStore, dayID, routeID := setupRoute(t, 3)
		provider := &fakeDirectionsProvider{fail: true}
		svc := NewRouteStatsService(tripStore, provider, nil, nil)

		svc.RecalculateRouteStats(context.Background(), dayID, routeID)

		assert.Nil(t, tripStore.Snapshot().Days[0].Routes[0].RouteStats)
	})

	t.Run("存在しないルートへの再計算は何もしない", func(t *testing.T) {
		tripStore, dayID, _ := setupRoute(t, 2)
		provider := &fakeDirectionsProvider{}
		svc := NewRouteStatsService(tripStore, provider, nil, nil)

		svc.RecalculateRouteStats(context.Background(), dayID, "missing-route")

		assert.Equal(t, 0, provider.calls)
	})
}

func TestRouteStatsService_FetchPath(t *testing.T) {
	coords := []orb.Point{{-68.845, -32.889}, {-68.882, -32.884}}

	t.Run("検索失敗時は直線ジオメトリにフォールバックする", func(t *testing.T) {
		tripStore := store.NewTripStore()
		provider := &fakeDirectionsProvider{fail: true}
		svc := NewRouteStatsService(tripStore, provider, nil, nil)

		details, err := svc.FetchPath(context.Background(), coords, model.ProfileDriving)

		require.NoError(t, err)
		assert.Equal(t, "LineString", details.Geometry.Type)
		require.Len(t, details.Geometry.Coordinates, 2)
		assert.Equal(t, 0.0, details.DistanceMeters)
		assert.Equal(t, 0.0, details.DurationSeconds)
	})

	t.Run("座標が1点以下ならエラー", func(t *testing.T) {
		svc := NewRouteStatsService(store.NewTripStore(), &fakeDirectionsProvider{}, nil, nil)

		_, err := svc.FetchPath(context.Background(), coords[:1], model.ProfileDriving)

		assert.Error(t, err)
	})

	t.Run("キャッシュヒット時は外部プロバイダを呼ばない", func(t *testing.T) {
		tripStore := store.NewTripStore()
		provider := &fakeDirectionsProvider{}
		cache := newFakeRouteCache()
		svc := NewRouteStatsService(tripStore, provider, cache, testCacheKey)

		_, err := svc.FetchPath(context.Background(), coords, model.ProfileWalking)
		require.NoError(t, err)
		require.Equal(t, 1, provider.calls)
		require.Equal(t, 1, cache.saves)

		_, err = svc.FetchPath(context.Background(), coords, model.ProfileWalking)
		require.NoError(t, err)
		assert.Equal(t, 1, provider.calls)
	})
}
