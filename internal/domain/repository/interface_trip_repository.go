package repository

import (
	"context"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
)

// TripRepository リモートストアに対する認証済みCRUDのインターフェース
//
// すべての呼び出しは呼び出し元ユーザーのアイデンティティにスコープされる
// （行レベルアクセス制御）。他ユーザーの行は見えず、ユーザーIDを明示的に
// 渡すことはない
type TripRepository interface {
	// CreateTrip 新しいTripを作成する
	CreateTrip(ctx context.Context, name string) (*model.Trip, error)

	// GetOwnTrips 自分のTrip一覧を作成順で取得する
	GetOwnTrips(ctx context.Context) ([]model.Trip, error)

	// GetFirstOwnTrip 自分の最初のTripを取得する（存在しない場合は nil, nil）
	GetFirstOwnTrip(ctx context.Context) (*model.Trip, error)

	// PullRows 指定Tripに属する全テーブルの行を取得する
	PullRows(ctx context.Context, tripID string) (*model.TripRows, error)

	// Upsert系: IDをキーにした insert-or-replace
	UpsertDay(ctx context.Context, row model.DayRow) error
	UpsertRoute(ctx context.Context, row model.RouteRow) error
	UpsertPlace(ctx context.Context, row model.PlaceRow) error
	UpsertCustomRoute(ctx context.Context, row model.CustomRouteRow) error
	UpsertPointOfInterest(ctx context.Context, row model.PointOfInterestRow) error
	UpsertSearchPin(ctx context.Context, row model.SearchPinRow) error

	// Delete系: ストレージ側のカスケード削除により、親の削除後の
	// 子の明示削除は冗長になるが害はない
	DeleteDay(ctx context.Context, id string) error
	DeleteRoute(ctx context.Context, id string) error
	DeletePlace(ctx context.Context, id string) error
	DeleteCustomRoute(ctx context.Context, id string) error
	DeletePointOfInterest(ctx context.Context, id string) error
	DeleteSearchPin(ctx context.Context, id string) error

	// DeleteSearchPinsByTrip Tripに属する検討用ピンを一括削除する
	DeleteSearchPinsByTrip(ctx context.Context, tripID string) error
}
