package service

import (
	"context"
	"fmt"
	"log"

	"github.com/paulmach/orb"

	"github.com/AgusMolinaCode/map-trip/internal/domain/helper"
	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
	"github.com/AgusMolinaCode/map-trip/internal/domain/repository"
	"github.com/AgusMolinaCode/map-trip/internal/domain/store"
)

// RouteStatsService はルートの距離・所要時間キャッシュを再計算するドメインサービス
//
// 外部ルート検索が失敗しても呼び出し元をブロックしない。
// その場合は直線ジオメトリにフォールバックし、距離・所要時間は未設定のまま残す
type RouteStatsService interface {
	// RecalculateRouteStats ルートの構成変更後に距離・所要時間を再計算してストアに反映する
	RecalculateRouteStats(ctx context.Context, dayID, routeID string)

	// FetchPath 座標列の経路を取得する（失敗時は直線フォールバック）
	FetchPath(ctx context.Context, coordinates []orb.Point, profile model.RouteProfile) (*repository.RouteDetails, error)
}

type routeStatsService struct {
	store              *store.TripStore
	directionsProvider repository.DirectionsProvider
	routeCache         repository.RouteCacheRepository // nil可（キャッシュなしで動作）
	cacheKeyFunc       func(model.RouteProfile, []orb.Point) string
	cacheTTLHours      int
}

// NewRouteStatsService は新しいRouteStatsServiceインスタンスを作成
// routeCache は nil を許容する（Firestore未設定の環境ではキャッシュなしで動く）
func NewRouteStatsService(
	tripStore *store.TripStore,
	directionsProvider repository.DirectionsProvider,
	routeCache repository.RouteCacheRepository,
	cacheKeyFunc func(model.RouteProfile, []orb.Point) string,
) RouteStatsService {
	return &routeStatsService{
		store:              tripStore,
		directionsProvider: directionsProvider,
		routeCache:         routeCache,
		cacheKeyFunc:       cacheKeyFunc,
		cacheTTLHours:      24,
	}
}

// RecalculateRouteStats ルートの距離・所要時間を再計算する
// Placeが2件未満のルートは経路を持たないため統計をクリアする
func (s *routeStatsService) RecalculateRouteStats(ctx context.Context, dayID, routeID string) {
	route := s.lookupRoute(dayID, routeID)
	if route == nil {
		return
	}

	if len(route.Places) < 2 {
		s.store.SetRouteStats(dayID, routeID, nil)
		return
	}

	coordinates := make([]orb.Point, len(route.Places))
	for i := range route.Places {
		coordinates[i] = route.Places[i].Coordinates
	}

	details, err := s.fetchWithCache(ctx, coordinates, route.RouteProfile)
	if err != nil {
		// 経路検索の失敗は統計なしへの劣化であってエラーではない
		log.Printf("⚠️ ルート %s の経路検索に失敗、統計を未設定のまま残します: %v", routeID, err)
		s.store.SetRouteStats(dayID, routeID, nil)
		return
	}

	s.store.SetRouteStats(dayID, routeID, &model.RouteStats{
		DistanceMeters:  details.DistanceMeters,
		DurationSeconds: details.DurationSeconds,
	})
}

// FetchPath 経路のジオメトリを取得する
// 外部ルート検索が失敗した場合は座標列を直線で結んだジオメトリを返し、
// 距離・所要時間はゼロのままにする
func (s *routeStatsService) FetchPath(ctx context.Context, coordinates []orb.Point, profile model.RouteProfile) (*repository.RouteDetails, error) {
	if len(coordinates) < 2 {
		return nil, fmt.Errorf("経路の取得には2点以上の座標が必要です")
	}

	details, err := s.fetchWithCache(ctx, coordinates, profile)
	if err != nil {
		log.Printf("⚠️ 経路検索に失敗、直線ジオメトリにフォールバック: %v", err)
		return &repository.RouteDetails{
			Geometry: helper.StraightLineGeometry(coordinates),
		}, nil
	}
	return details, nil
}

// fetchWithCache キャッシュを確認してから外部プロバイダを呼び出す
func (s *routeStatsService) fetchWithCache(ctx context.Context, coordinates []orb.Point, profile model.RouteProfile) (*repository.RouteDetails, error) {
	var cacheKey string
	if s.routeCache != nil && s.cacheKeyFunc != nil {
		cacheKey = s.cacheKeyFunc(profile, coordinates)
		cached, err := s.routeCache.Get(ctx, cacheKey)
		if err != nil {
			log.Printf("⚠️ 経路キャッシュの読み取りに失敗（無視して続行）: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	details, err := s.directionsProvider.GetRoute(ctx, coordinates, profile)
	if err != nil {
		return nil, err
	}

	if s.routeCache != nil && cacheKey != "" {
		if err := s.routeCache.Save(ctx, cacheKey, details, s.cacheTTLHours); err != nil {
			log.Printf("⚠️ 経路キャッシュの保存に失敗（無視して続行）: %v", err)
		}
	}

	return details, nil
}

func (s *routeStatsService) lookupRoute(dayID, routeID string) *model.Route {
	snapshot := s.store.Snapshot()
	for i := range snapshot.Days {
		if snapshot.Days[i].ID != dayID {
			continue
		}
		idx := snapshot.Days[i].FindRoute(routeID)
		if idx < 0 {
			return nil
		}
		route := snapshot.Days[i].Routes[idx]
		return &route
	}
	return nil
}
