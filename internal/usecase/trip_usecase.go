package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/paulmach/orb"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
	"github.com/AgusMolinaCode/map-trip/internal/domain/repository"
	"github.com/AgusMolinaCode/map-trip/internal/domain/service"
	"github.com/AgusMolinaCode/map-trip/internal/domain/store"
)

// TripUseCase 旅程編集のアプリケーション操作
//
// ストアへの変更と、それに伴う経路統計の再計算をまとめる。
// 経路統計の再計算は非同期で行い、編集操作の応答をブロックしない
type TripUseCase interface {
	// Snapshot 現在の旅程スナップショットを取得
	Snapshot() model.TripSnapshot

	// Day操作
	AddDay() string
	RemoveDay(dayID string)
	SetDayColor(dayID, color string)

	// Route操作
	AddRoute(dayID, name string) string
	RemoveRoute(dayID, routeID string)
	SetRouteProfile(dayID, routeID string, profile model.RouteProfile) error
	SetRouteColor(dayID, routeID, color string)

	// Place操作（追加・削除・並べ替え・座標変更は経路統計の再計算を伴う）
	AddPlace(dayID, routeID string, place model.Place) string
	RemovePlace(dayID, routeID, placeID string)
	ReorderPlaces(dayID, routeID string, places []model.Place)
	UpdatePlaceCoordinates(dayID, routeID, placeID string, coordinates orb.Point)
	UpdatePlaceInfo(dayID, routeID, placeID, name, address string)

	// カスタム経路操作
	SetCustomRoute(dayID, routeID string, customRoute model.CustomRoute)
	RemoveCustomRoute(dayID, routeID, fromPlaceID, toPlaceID string)

	// FetchRoutePath 座標列と移動プロファイルから経路を取得する（手描き区間の下書き用）
	FetchRoutePath(ctx context.Context, coordinates []orb.Point, profile model.RouteProfile) (*repository.RouteDetails, error)

	// POI操作
	AddPointOfInterest(dayID string, poi model.PointOfInterest) (string, error)
	RemovePointOfInterest(dayID, poiID string)
	UpdatePoiCoordinates(dayID, poiID string, coordinates orb.Point)
	UpdatePoiInfo(dayID, poiID, name, address string)

	// 検討用ピン操作
	AddSearchPin(pin model.SearchPin) string
	RemoveSearchPin(pinID string)
	ClearSearchPins()
}

// tripUseCaseImpl はTripUseCaseの実装
type tripUseCaseImpl struct {
	store      *store.TripStore
	routeStats service.RouteStatsService
}

// NewTripUseCase 新しいTripUseCaseインスタンスを作成
// routeStatsがnilの場合、経路統計の再計算はスキップされる（ルーティング未設定の環境向け）
func NewTripUseCase(tripStore *store.TripStore, routeStats service.RouteStatsService) TripUseCase {
	return &tripUseCaseImpl{
		store:      tripStore,
		routeStats: routeStats,
	}
}

func (u *tripUseCaseImpl) Snapshot() model.TripSnapshot {
	return u.store.Snapshot()
}

func (u *tripUseCaseImpl) AddDay() string {
	return u.store.AddDay()
}

func (u *tripUseCaseImpl) RemoveDay(dayID string) {
	u.store.RemoveDay(dayID)
}

func (u *tripUseCaseImpl) SetDayColor(dayID, color string) {
	u.store.SetDayColor(dayID, color)
}

func (u *tripUseCaseImpl) AddRoute(dayID, name string) string {
	return u.store.AddRoute(dayID, name)
}

func (u *tripUseCaseImpl) RemoveRoute(dayID, routeID string) {
	u.store.RemoveRoute(dayID, routeID)
}

func (u *tripUseCaseImpl) SetRouteProfile(dayID, routeID string, profile model.RouteProfile) error {
	if !profile.IsValid() {
		return fmt.Errorf("無効な移動プロファイル: %s", profile)
	}
	u.store.SetRouteProfile(dayID, routeID, profile)
	u.recalculateAsync(dayID, routeID)
	return nil
}

func (u *tripUseCaseImpl) SetRouteColor(dayID, routeID, color string) {
	u.store.SetRouteColor(dayID, routeID, color)
}

func (u *tripUseCaseImpl) AddPlace(dayID, routeID string, place model.Place) string {
	placeID := u.store.AddPlace(dayID, routeID, place)
	u.recalculateAsync(dayID, routeID)
	return placeID
}

func (u *tripUseCaseImpl) RemovePlace(dayID, routeID, placeID string) {
	u.store.RemovePlace(dayID, routeID, placeID)
	u.recalculateAsync(dayID, routeID)
}

func (u *tripUseCaseImpl) ReorderPlaces(dayID, routeID string, places []model.Place) {
	u.store.ReorderPlaces(dayID, routeID, places)
	u.recalculateAsync(dayID, routeID)
}

func (u *tripUseCaseImpl) UpdatePlaceCoordinates(dayID, routeID, placeID string, coordinates orb.Point) {
	u.store.UpdatePlaceCoordinates(dayID, routeID, placeID, coordinates)
	u.recalculateAsync(dayID, routeID)
}

func (u *tripUseCaseImpl) UpdatePlaceInfo(dayID, routeID, placeID, name, address string) {
	u.store.UpdatePlaceInfo(dayID, routeID, placeID, name, address)
}

func (u *tripUseCaseImpl) SetCustomRoute(dayID, routeID string, customRoute model.CustomRoute) {
	u.store.SetCustomRoute(dayID, routeID, customRoute)
}

func (u *tripUseCaseImpl) RemoveCustomRoute(dayID, routeID, fromPlaceID, toPlaceID string) {
	u.store.RemoveCustomRoute(dayID, routeID, fromPlaceID, toPlaceID)
}

func (u *tripUseCaseImpl) FetchRoutePath(ctx context.Context, coordinates []orb.Point, profile model.RouteProfile) (*repository.RouteDetails, error) {
	if u.routeStats == nil {
		return nil, fmt.Errorf("ルーティングプロバイダーが設定されていません")
	}
	return u.routeStats.FetchPath(ctx, coordinates, profile)
}

func (u *tripUseCaseImpl) AddPointOfInterest(dayID string, poi model.PointOfInterest) (string, error) {
	return u.store.AddPointOfInterest(dayID, poi)
}

func (u *tripUseCaseImpl) RemovePointOfInterest(dayID, poiID string) {
	u.store.RemovePointOfInterest(dayID, poiID)
}

func (u *tripUseCaseImpl) UpdatePoiCoordinates(dayID, poiID string, coordinates orb.Point) {
	u.store.UpdatePoiCoordinates(dayID, poiID, coordinates)
}

func (u *tripUseCaseImpl) UpdatePoiInfo(dayID, poiID, name, address string) {
	u.store.UpdatePoiInfo(dayID, poiID, name, address)
}

func (u *tripUseCaseImpl) AddSearchPin(pin model.SearchPin) string {
	return u.store.AddSearchPin(pin)
}

func (u *tripUseCaseImpl) RemoveSearchPin(pinID string) {
	u.store.RemoveSearchPin(pinID)
}

func (u *tripUseCaseImpl) ClearSearchPins() {
	u.store.ClearSearchPins()
}

// recalculateAsync ルートの場所構成が変わった後に経路統計を非同期で再計算する
// 呼び出し元のリクエストスコープに縛られないよう background context を使う
func (u *tripUseCaseImpl) recalculateAsync(dayID, routeID string) {
	if u.routeStats == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("❌ 経路統計の再計算でpanic (Route: %s): %v", routeID, r)
			}
		}()
		u.routeStats.RecalculateRouteStats(context.Background(), dayID, routeID)
	}()
}
