package repository

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
	"github.com/AgusMolinaCode/map-trip/internal/domain/repository"
)

// FirestoreRouteCacheRepository Firestoreを使用した計算済み経路のTTLキャッシュ
// 同じ座標列・プロファイルでの再検索時に外部APIの呼び出しを節約する
type FirestoreRouteCacheRepository struct {
	client *firestore.Client
}

// NewFirestoreRouteCacheRepository 新しいFirestoreRouteCacheRepositoryを作成
func NewFirestoreRouteCacheRepository(client *firestore.Client) repository.RouteCacheRepository {
	return &FirestoreRouteCacheRepository{
		client: client,
	}
}

// firestoreRouteCacheEntry Firestoreに保存するキャッシュエントリ
// ExpireAt はFirestoreのTTLポリシーで自動削除される
type firestoreRouteCacheEntry struct {
	GeometryType    string      `firestore:"geometry_type"`
	Coordinates     [][]float64 `firestore:"coordinates"`
	DistanceMeters  float64     `firestore:"distance_meters"`
	DurationSeconds float64     `firestore:"duration_seconds"`
	ExpireAt        time.Time   `firestore:"expireAt"`
}

func (r *FirestoreRouteCacheRepository) Get(ctx context.Context, cacheKey string) (*repository.RouteDetails, error) {
	doc, err := r.client.Collection("routeCache").Doc(cacheKey).Get(ctx)
	if err != nil {
		if status := err.Error(); strings.Contains(status, "NotFound") || strings.Contains(status, "not found") {
			return nil, nil
		}
		return nil, fmt.Errorf("経路キャッシュの取得に失敗しました: %w", err)
	}

	var entry firestoreRouteCacheEntry
	if err := doc.DataTo(&entry); err != nil {
		return nil, fmt.Errorf("経路キャッシュの変換に失敗しました: %w", err)
	}

	// TTLポリシーの削除は非同期なので期限切れエントリはミス扱いにする
	if time.Now().After(entry.ExpireAt) {
		return nil, nil
	}

	return &repository.RouteDetails{
		Geometry: model.Geometry{
			Type:        entry.GeometryType,
			Coordinates: entry.Coordinates,
		},
		DistanceMeters:  entry.DistanceMeters,
		DurationSeconds: entry.DurationSeconds,
	}, nil
}

func (r *FirestoreRouteCacheRepository) Save(ctx context.Context, cacheKey string, details *repository.RouteDetails, ttlHours int) error {
	entry := firestoreRouteCacheEntry{
		GeometryType:    details.Geometry.Type,
		Coordinates:     details.Geometry.Coordinates,
		DistanceMeters:  details.DistanceMeters,
		DurationSeconds: details.DurationSeconds,
		ExpireAt:        time.Now().Add(time.Duration(ttlHours) * time.Hour),
	}

	if _, err := r.client.Collection("routeCache").Doc(cacheKey).Set(ctx, entry); err != nil {
		log.Printf("❌ Failed to save route cache %s: %v", cacheKey, err)
		return fmt.Errorf("経路キャッシュの保存に失敗しました: %w", err)
	}

	return nil
}
