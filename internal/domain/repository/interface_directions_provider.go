package repository

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
)

// RouteDetails 外部ルート検索の結果（経路ジオメトリ + 距離 + 所要時間）
type RouteDetails struct {
	Geometry        model.Geometry `json:"geometry"`
	DistanceMeters  float64        `json:"distance_meters"`
	DurationSeconds float64        `json:"duration_seconds"`
}

// DirectionsProvider 外部ルート検索サービスのインターフェース
// 順序付き座標リストと移動手段プロファイルから経路を取得する
type DirectionsProvider interface {
	GetRoute(ctx context.Context, coordinates []orb.Point, profile model.RouteProfile) (*RouteDetails, error)
}
