package repository

import "context"

// RouteCacheRepository 計算済み経路のTTL付きキャッシュのインターフェース
// キーは移動手段プロファイルと座標列から導出したハッシュ
type RouteCacheRepository interface {
	// Get キャッシュ済みの経路を取得する（ミスの場合は nil, nil）
	Get(ctx context.Context, cacheKey string) (*RouteDetails, error)

	// Save 経路をTTL付きで保存する
	Save(ctx context.Context, cacheKey string, details *RouteDetails, ttlHours int) error
}
