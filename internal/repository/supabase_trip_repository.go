package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
	"github.com/AgusMolinaCode/map-trip/internal/domain/repository"
	"github.com/AgusMolinaCode/map-trip/internal/infrastructure/database"
)

// SupabaseTripRepository Supabase（PostgREST）経由のリモートストアゲートウェイ
//
// ユーザーへのスコープはSupabase側の行レベルセキュリティ（RLS）に委ねる。
// このリポジトリがユーザーIDを条件に付けることはない
type SupabaseTripRepository struct {
	client *database.SupabaseClient
}

// NewSupabaseTripRepository 新しいSupabaseTripRepositoryを作成
func NewSupabaseTripRepository(client *database.SupabaseClient) repository.TripRepository {
	return &SupabaseTripRepository{
		client: client,
	}
}

// tripRecord trips テーブルの行（作成順ソート用に created_at を保持）
type tripRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (r *SupabaseTripRepository) CreateTrip(ctx context.Context, name string) (*model.Trip, error) {
	record := tripRecord{
		ID:   uuid.New().String(),
		Name: name,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("TripデータのJSONマーシャル失敗: %w", err)
	}

	_, _, err = r.client.GetClient().From("trips").Insert(string(data), false, "", "", "").Execute()
	if err != nil {
		return nil, fmt.Errorf("Tripの作成失敗: %w", err)
	}

	return &model.Trip{ID: record.ID, Name: record.Name}, nil
}

func (r *SupabaseTripRepository) GetOwnTrips(ctx context.Context) ([]model.Trip, error) {
	var records []tripRecord
	data, count, err := r.client.GetClient().From("trips").Select("*", "exact", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("Trip一覧の取得失敗: %w", err)
	}
	_ = count

	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("TripデータのJSONアンマーシャル失敗: %w", err)
	}

	// 行の到着順に依存しないよう作成日時でソートする
	sort.SliceStable(records, func(i, j int) bool { return records[i].CreatedAt < records[j].CreatedAt })

	trips := make([]model.Trip, len(records))
	for i, rec := range records {
		trips[i] = model.Trip{ID: rec.ID, Name: rec.Name}
	}
	return trips, nil
}

func (r *SupabaseTripRepository) GetFirstOwnTrip(ctx context.Context) (*model.Trip, error) {
	trips, err := r.GetOwnTrips(ctx)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, nil
	}
	return &trips[0], nil
}

func (r *SupabaseTripRepository) PullRows(ctx context.Context, tripID string) (*model.TripRows, error) {
	rows := &model.TripRows{
		Days:             []model.DayRow{},
		Routes:           []model.RouteRow{},
		Places:           []model.PlaceRow{},
		CustomRoutes:     []model.CustomRouteRow{},
		PointsOfInterest: []model.PointOfInterestRow{},
		SearchPins:       []model.SearchPinRow{},
	}

	if err := r.selectInto("days", "trip_id", []string{tripID}, &rows.Days); err != nil {
		return nil, err
	}
	if err := r.selectInto("search_pins", "trip_id", []string{tripID}, &rows.SearchPins); err != nil {
		return nil, err
	}

	dayIDs := make([]string, len(rows.Days))
	for i, d := range rows.Days {
		dayIDs[i] = d.ID
	}
	if len(dayIDs) == 0 {
		return rows, nil
	}

	if err := r.selectInto("routes", "day_id", dayIDs, &rows.Routes); err != nil {
		return nil, err
	}
	if err := r.selectInto("points_of_interest", "day_id", dayIDs, &rows.PointsOfInterest); err != nil {
		return nil, err
	}

	routeIDs := make([]string, len(rows.Routes))
	for i, rt := range rows.Routes {
		routeIDs[i] = rt.ID
	}
	if len(routeIDs) == 0 {
		return rows, nil
	}

	if err := r.selectInto("places", "route_id", routeIDs, &rows.Places); err != nil {
		return nil, err
	}
	if err := r.selectInto("custom_routes", "route_id", routeIDs, &rows.CustomRoutes); err != nil {
		return nil, err
	}

	return rows, nil
}

// selectInto 親IDでフィルタした全行を取得してデコードする
func (r *SupabaseTripRepository) selectInto(table, fkColumn string, parentIDs []string, dest interface{}) error {
	data, count, err := r.client.GetClient().From(table).
		Select("*", "exact", false).
		In(fkColumn, parentIDs).
		Execute()
	if err != nil {
		return fmt.Errorf("%s テーブルの取得失敗: %w", table, err)
	}
	_ = count

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("%s データのJSONアンマーシャル失敗: %w", table, err)
	}
	return nil
}

// upsertRow IDをキーに insert-or-replace する
func (r *SupabaseTripRepository) upsertRow(table string, row interface{}) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("%s 行のJSONマーシャル失敗: %w", table, err)
	}

	_, _, err = r.client.GetClient().From(table).Insert(string(data), true, "id", "", "").Execute()
	if err != nil {
		return fmt.Errorf("%s 行のupsert失敗: %w", table, err)
	}
	return nil
}

// deleteRows 指定列の値で行を削除する
func (r *SupabaseTripRepository) deleteRows(table, column, value string) error {
	_, _, err := r.client.GetClient().From(table).Delete("", "").Eq(column, value).Execute()
	if err != nil {
		return fmt.Errorf("%s 行の削除失敗: %w", table, err)
	}
	return nil
}

func (r *SupabaseTripRepository) UpsertDay(ctx context.Context, row model.DayRow) error {
	return r.upsertRow("days", row)
}

func (r *SupabaseTripRepository) UpsertRoute(ctx context.Context, row model.RouteRow) error {
	return r.upsertRow("routes", row)
}

func (r *SupabaseTripRepository) UpsertPlace(ctx context.Context, row model.PlaceRow) error {
	return r.upsertRow("places", row)
}

func (r *SupabaseTripRepository) UpsertCustomRoute(ctx context.Context, row model.CustomRouteRow) error {
	return r.upsertRow("custom_routes", row)
}

func (r *SupabaseTripRepository) UpsertPointOfInterest(ctx context.Context, row model.PointOfInterestRow) error {
	return r.upsertRow("points_of_interest", row)
}

func (r *SupabaseTripRepository) UpsertSearchPin(ctx context.Context, row model.SearchPinRow) error {
	return r.upsertRow("search_pins", row)
}

func (r *SupabaseTripRepository) DeleteDay(ctx context.Context, id string) error {
	return r.deleteRows("days", "id", id)
}

func (r *SupabaseTripRepository) DeleteRoute(ctx context.Context, id string) error {
	return r.deleteRows("routes", "id", id)
}

func (r *SupabaseTripRepository) DeletePlace(ctx context.Context, id string) error {
	return r.deleteRows("places", "id", id)
}

func (r *SupabaseTripRepository) DeleteCustomRoute(ctx context.Context, id string) error {
	return r.deleteRows("custom_routes", "id", id)
}

func (r *SupabaseTripRepository) DeletePointOfInterest(ctx context.Context, id string) error {
	return r.deleteRows("points_of_interest", "id", id)
}

func (r *SupabaseTripRepository) DeleteSearchPin(ctx context.Context, id string) error {
	return r.deleteRows("search_pins", "id", id)
}

func (r *SupabaseTripRepository) DeleteSearchPinsByTrip(ctx context.Context, tripID string) error {
	return r.deleteRows("search_pins", "trip_id", tripID)
}
