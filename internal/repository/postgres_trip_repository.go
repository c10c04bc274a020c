package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
	"github.com/AgusMolinaCode/map-trip/internal/domain/repository"
	"github.com/AgusMolinaCode/map-trip/internal/infrastructure/database"
)

// PostgresTripRepository PostgreSQL直接接続版のリモートストアゲートウェイ
//
// RLSを経由しないため、コンストラクタで受け取ったユーザーIDで
// trips テーブルをスコープする。子テーブルはIDがUUIDで衝突しないため
// ID指定の操作にスコープ条件は付けない
type PostgresTripRepository struct {
	client *database.PostgreSQLClient
	userID string
}

// NewPostgresTripRepository 新しいPostgresTripRepositoryを作成
func NewPostgresTripRepository(client *database.PostgreSQLClient, userID string) repository.TripRepository {
	return &PostgresTripRepository{
		client: client,
		userID: userID,
	}
}

func (r *PostgresTripRepository) CreateTrip(ctx context.Context, name string) (*model.Trip, error) {
	trip := &model.Trip{
		ID:   uuid.New().String(),
		Name: name,
	}
	query := `INSERT INTO trips (id, user_id, name) VALUES ($1, $2, $3)`
	if _, err := r.client.DB.ExecContext(ctx, query, trip.ID, r.userID, trip.Name); err != nil {
		return nil, fmt.Errorf("Tripの作成失敗: %w", err)
	}
	return trip, nil
}

func (r *PostgresTripRepository) GetOwnTrips(ctx context.Context) ([]model.Trip, error) {
	query := `SELECT id, name FROM trips WHERE user_id = $1 ORDER BY created_at ASC`
	rows, err := r.client.DB.QueryContext(ctx, query, r.userID)
	if err != nil {
		return nil, fmt.Errorf("Trip一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	var trips []model.Trip
	for rows.Next() {
		var trip model.Trip
		if err := rows.Scan(&trip.ID, &trip.Name); err != nil {
			return nil, fmt.Errorf("Trip行のスキャン失敗: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Trip一覧の読み取り失敗: %w", err)
	}
	return trips, nil
}

func (r *PostgresTripRepository) GetFirstOwnTrip(ctx context.Context) (*model.Trip, error) {
	query := `SELECT id, name FROM trips WHERE user_id = $1 ORDER BY created_at ASC LIMIT 1`
	row := r.client.DB.QueryRowContext(ctx, query, r.userID)

	var trip model.Trip
	if err := row.Scan(&trip.ID, &trip.Name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("先頭Tripの取得失敗: %w", err)
	}
	return &trip, nil
}

func (r *PostgresTripRepository) PullRows(ctx context.Context, tripID string) (*model.TripRows, error) {
	result := &model.TripRows{
		Days:             []model.DayRow{},
		Routes:           []model.RouteRow{},
		Places:           []model.PlaceRow{},
		CustomRoutes:     []model.CustomRouteRow{},
		PointsOfInterest: []model.PointOfInterestRow{},
		SearchPins:       []model.SearchPinRow{},
	}

	if err := r.pullDays(ctx, tripID, result); err != nil {
		return nil, err
	}
	if err := r.pullSearchPins(ctx, tripID, result); err != nil {
		return nil, err
	}
	if err := r.pullRoutes(ctx, tripID, result); err != nil {
		return nil, err
	}
	if err := r.pullPlaces(ctx, tripID, result); err != nil {
		return nil, err
	}
	if err := r.pullCustomRoutes(ctx, tripID, result); err != nil {
		return nil, err
	}
	if err := r.pullPointsOfInterest(ctx, tripID, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresTripRepository) pullDays(ctx context.Context, tripID string, result *model.TripRows) error {
	query := `SELECT id, trip_id, name, day_color, position FROM days WHERE trip_id = $1`
	rows, err := r.client.DB.QueryContext(ctx, query, tripID)
	if err != nil {
		return fmt.Errorf("days テーブルの取得失敗: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row model.DayRow
		if err := rows.Scan(&row.ID, &row.TripID, &row.Name, &row.DayColor, &row.Position); err != nil {
			return fmt.Errorf("days 行のスキャン失敗: %w", err)
		}
		result.Days = append(result.Days, row)
	}
	return rows.Err()
}

func (r *PostgresTripRepository) pullRoutes(ctx context.Context, tripID string, result *model.TripRows) error {
	query := `SELECT r.id, r.day_id, r.name, r.route_profile, r.route_color, r.distance_meters, r.duration_seconds, r.position
		FROM routes r JOIN days d ON r.day_id = d.id WHERE d.trip_id = $1`
	rows, err := r.client.DB.QueryContext(ctx, query, tripID)
	if err != nil {
		return fmt.Errorf("routes テーブルの取得失敗: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row model.RouteRow
		if err := rows.Scan(&row.ID, &row.DayID, &row.Name, &row.RouteProfile, &row.RouteColor,
			&row.DistanceMeters, &row.DurationSeconds, &row.Position); err != nil {
			return fmt.Errorf("routes 行のスキャン失敗: %w", err)
		}
		result.Routes = append(result.Routes, row)
	}
	return rows.Err()
}

func (r *PostgresTripRepository) pullPlaces(ctx context.Context, tripID string, result *model.TripRows) error {
	query := `SELECT p.id, p.route_id, p.name, p.address, p.lng, p.lat,
		p.bbox_min_lng, p.bbox_min_lat, p.bbox_max_lng, p.bbox_max_lat, p.position
		FROM places p JOIN routes r ON p.route_id = r.id JOIN days d ON r.day_id = d.id
		WHERE d.trip_id = $1`
	rows, err := r.client.DB.QueryContext(ctx, query, tripID)
	if err != nil {
		return fmt.Errorf("places テーブルの取得失敗: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row model.PlaceRow
		if err := rows.Scan(&row.ID, &row.RouteID, &row.Name, &row.Address, &row.Lng, &row.Lat,
			&row.BboxMinLng, &row.BboxMinLat, &row.BboxMaxLng, &row.BboxMaxLat, &row.Position); err != nil {
			return fmt.Errorf("places 行のスキャン失敗: %w", err)
		}
		result.Places = append(result.Places, row)
	}
	return rows.Err()
}

func (r *PostgresTripRepository) pullCustomRoutes(ctx context.Context, tripID string, result *model.TripRows) error {
	query := `SELECT cr.id, cr.route_id, cr.from_place_id, cr.to_place_id, cr.geometry
		FROM custom_routes cr JOIN routes r ON cr.route_id = r.id JOIN days d ON r.day_id = d.id
		WHERE d.trip_id = $1`
	rows, err := r.client.DB.QueryContext(ctx, query, tripID)
	if err != nil {
		return fmt.Errorf("custom_routes テーブルの取得失敗: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row model.CustomRouteRow
		var geometryJSON []byte
		if err := rows.Scan(&row.ID, &row.RouteID, &row.FromPlaceID, &row.ToPlaceID, &geometryJSON); err != nil {
			return fmt.Errorf("custom_routes 行のスキャン失敗: %w", err)
		}
		if err := json.Unmarshal(geometryJSON, &row.Geometry); err != nil {
			return fmt.Errorf("geometry JSONBパースエラー: %w", err)
		}
		result.CustomRoutes = append(result.CustomRoutes, row)
	}
	return rows.Err()
}

func (r *PostgresTripRepository) pullPointsOfInterest(ctx context.Context, tripID string, result *model.TripRows) error {
	query := `SELECT p.id, p.day_id, p.name, p.address, p.note, p.lng, p.lat, p.is_manual, p.position
		FROM points_of_interest p JOIN days d ON p.day_id = d.id WHERE d.trip_id = $1`
	rows, err := r.client.DB.QueryContext(ctx, query, tripID)
	if err != nil {
		return fmt.Errorf("points_of_interest テーブルの取得失敗: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row model.PointOfInterestRow
		if err := rows.Scan(&row.ID, &row.DayID, &row.Name, &row.Address, &row.Note,
			&row.Lng, &row.Lat, &row.IsManual, &row.Position); err != nil {
			return fmt.Errorf("points_of_interest 行のスキャン失敗: %w", err)
		}
		result.PointsOfInterest = append(result.PointsOfInterest, row)
	}
	return rows.Err()
}

func (r *PostgresTripRepository) pullSearchPins(ctx context.Context, tripID string, result *model.TripRows) error {
	query := `SELECT id, trip_id, name, address, lng, lat,
		bbox_min_lng, bbox_min_lat, bbox_max_lng, bbox_max_lat
		FROM search_pins WHERE trip_id = $1`
	rows, err := r.client.DB.QueryContext(ctx, query, tripID)
	if err != nil {
		return fmt.Errorf("search_pins テーブルの取得失敗: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row model.SearchPinRow
		if err := rows.Scan(&row.ID, &row.TripID, &row.Name, &row.Address, &row.Lng, &row.Lat,
			&row.BboxMinLng, &row.BboxMinLat, &row.BboxMaxLng, &row.BboxMaxLat); err != nil {
			return fmt.Errorf("search_pins 行のスキャン失敗: %w", err)
		}
		result.SearchPins = append(result.SearchPins, row)
	}
	return rows.Err()
}

func (r *PostgresTripRepository) UpsertDay(ctx context.Context, row model.DayRow) error {
	query := `INSERT INTO days (id, trip_id, name, day_color, position)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET trip_id = $2, name = $3, day_color = $4, position = $5`
	if _, err := r.client.DB.ExecContext(ctx, query, row.ID, row.TripID, row.Name, row.DayColor, row.Position); err != nil {
		return fmt.Errorf("days 行のupsert失敗: %w", err)
	}
	return nil
}

func (r *PostgresTripRepository) UpsertRoute(ctx context.Context, row model.RouteRow) error {
	query := `INSERT INTO routes (id, day_id, name, route_profile, route_color, distance_meters, duration_seconds, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET day_id = $2, name = $3, route_profile = $4,
			route_color = $5, distance_meters = $6, duration_seconds = $7, position = $8`
	if _, err := r.client.DB.ExecContext(ctx, query, row.ID, row.DayID, row.Name, row.RouteProfile,
		row.RouteColor, row.DistanceMeters, row.DurationSeconds, row.Position); err != nil {
		return fmt.Errorf("routes 行のupsert失敗: %w", err)
	}
	return nil
}

func (r *PostgresTripRepository) UpsertPlace(ctx context.Context, row model.PlaceRow) error {
	query := `INSERT INTO places (id, route_id, name, address, lng, lat,
			bbox_min_lng, bbox_min_lat, bbox_max_lng, bbox_max_lat, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET route_id = $2, name = $3, address = $4, lng = $5, lat = $6,
			bbox_min_lng = $7, bbox_min_lat = $8, bbox_max_lng = $9, bbox_max_lat = $10, position = $11`
	if _, err := r.client.DB.ExecContext(ctx, query, row.ID, row.RouteID, row.Name, row.Address,
		row.Lng, row.Lat, row.BboxMinLng, row.BboxMinLat, row.BboxMaxLng, row.BboxMaxLat, row.Position); err != nil {
		return fmt.Errorf("places 行のupsert失敗: %w", err)
	}
	return nil
}

func (r *PostgresTripRepository) UpsertCustomRoute(ctx context.Context, row model.CustomRouteRow) error {
	geometryJSON, err := json.Marshal(row.Geometry)
	if err != nil {
		return fmt.Errorf("geometryのJSONマーシャル失敗: %w", err)
	}
	query := `INSERT INTO custom_routes (id, route_id, from_place_id, to_place_id, geometry)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		ON CONFLICT (id) DO UPDATE SET route_id = $2, from_place_id = $3, to_place_id = $4, geometry = $5::jsonb`
	if _, err := r.client.DB.ExecContext(ctx, query, row.ID, row.RouteID, row.FromPlaceID, row.ToPlaceID, string(geometryJSON)); err != nil {
		return fmt.Errorf("custom_routes 行のupsert失敗: %w", err)
	}
	return nil
}

func (r *PostgresTripRepository) UpsertPointOfInterest(ctx context.Context, row model.PointOfInterestRow) error {
	query := `INSERT INTO points_of_interest (id, day_id, name, address, note, lng, lat, is_manual, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET day_id = $2, name = $3, address = $4, note = $5,
			lng = $6, lat = $7, is_manual = $8, position = $9`
	if _, err := r.client.DB.ExecContext(ctx, query, row.ID, row.DayID, row.Name, row.Address, row.Note,
		row.Lng, row.Lat, row.IsManual, row.Position); err != nil {
		return fmt.Errorf("points_of_interest 行のupsert失敗: %w", err)
	}
	return nil
}

func (r *PostgresTripRepository) UpsertSearchPin(ctx context.Context, row model.SearchPinRow) error {
	query := `INSERT INTO search_pins (id, trip_id, name, address, lng, lat,
			bbox_min_lng, bbox_min_lat, bbox_max_lng, bbox_max_lat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET trip_id = $2, name = $3, address = $4, lng = $5, lat = $6,
			bbox_min_lng = $7, bbox_min_lat = $8, bbox_max_lng = $9, bbox_max_lat = $10`
	if _, err := r.client.DB.ExecContext(ctx, query, row.ID, row.TripID, row.Name, row.Address,
		row.Lng, row.Lat, row.BboxMinLng, row.BboxMinLat, row.BboxMaxLng, row.BboxMaxLat); err != nil {
		return fmt.Errorf("search_pins 行のupsert失敗: %w", err)
	}
	return nil
}

// deleteByID 指定テーブルからID一致の行を削除する
func (r *PostgresTripRepository) deleteByID(ctx context.Context, table, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)
	if _, err := r.client.DB.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s 行の削除失敗: %w", table, err)
	}
	return nil
}

func (r *PostgresTripRepository) DeleteDay(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "days", id)
}

func (r *PostgresTripRepository) DeleteRoute(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "routes", id)
}

func (r *PostgresTripRepository) DeletePlace(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "places", id)
}

func (r *PostgresTripRepository) DeleteCustomRoute(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "custom_routes", id)
}

func (r *PostgresTripRepository) DeletePointOfInterest(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "points_of_interest", id)
}

func (r *PostgresTripRepository) DeleteSearchPin(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "search_pins", id)
}

func (r *PostgresTripRepository) DeleteSearchPinsByTrip(ctx context.Context, tripID string) error {
	query := `DELETE FROM search_pins WHERE trip_id = $1`
	if _, err := r.client.DB.ExecContext(ctx, query, tripID); err != nil {
		return fmt.Errorf("search_pins 行の一括削除失敗: %w", err)
	}
	return nil
}
