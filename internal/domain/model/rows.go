package model

// リレーショナル表現（Supabaseの各テーブルと1対1対応する行構造体）
// 順序が意味を持つテーブルは position 列を持ち、親への外部キーを持つ。
// NULL許容列はポインタで表現する

// TripRow trips テーブルの行
type TripRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DayRow days テーブルの行
type DayRow struct {
	ID       string `json:"id"`
	TripID   string `json:"trip_id"`
	Name     string `json:"name"`
	DayColor string `json:"day_color"`
	Position int    `json:"position"`
}

// RouteRow routes テーブルの行
type RouteRow struct {
	ID              string   `json:"id"`
	DayID           string   `json:"day_id"`
	Name            *string  `json:"name"`
	RouteProfile    string   `json:"route_profile"`
	RouteColor      *string  `json:"route_color"`
	DistanceMeters  *float64 `json:"distance_meters"`
	DurationSeconds *float64 `json:"duration_seconds"`
	Position        int      `json:"position"`
}

// PlaceRow places テーブルの行
type PlaceRow struct {
	ID         string   `json:"id"`
	RouteID    string   `json:"route_id"`
	Name       string   `json:"name"`
	Address    *string  `json:"address"`
	Lng        float64  `json:"lng"`
	Lat        float64  `json:"lat"`
	BboxMinLng *float64 `json:"bbox_min_lng"`
	BboxMinLat *float64 `json:"bbox_min_lat"`
	BboxMaxLng *float64 `json:"bbox_max_lng"`
	BboxMaxLat *float64 `json:"bbox_max_lat"`
	Position   int      `json:"position"`
}

// CustomRouteRow custom_routes テーブルの行
type CustomRouteRow struct {
	ID          string   `json:"id"`
	RouteID     string   `json:"route_id"`
	FromPlaceID string   `json:"from_place_id"`
	ToPlaceID   string   `json:"to_place_id"`
	Geometry    Geometry `json:"geometry"`
}

// PointOfInterestRow points_of_interest テーブルの行
type PointOfInterestRow struct {
	ID       string  `json:"id"`
	DayID    string  `json:"day_id"`
	Name     string  `json:"name"`
	Address  *string `json:"address"`
	Note     *string `json:"note"`
	Lng      float64 `json:"lng"`
	Lat      float64 `json:"lat"`
	IsManual bool    `json:"is_manual"`
	Position int     `json:"position"`
}

// SearchPinRow search_pins テーブルの行
type SearchPinRow struct {
	ID         string   `json:"id"`
	TripID     string   `json:"trip_id"`
	Name       string   `json:"name"`
	Address    *string  `json:"address"`
	Lng        float64  `json:"lng"`
	Lat        float64  `json:"lat"`
	BboxMinLng *float64 `json:"bbox_min_lng"`
	BboxMinLat *float64 `json:"bbox_min_lat"`
	BboxMaxLng *float64 `json:"bbox_max_lng"`
	BboxMaxLat *float64 `json:"bbox_max_lat"`
}

// TripRows 1つのTripに属する全テーブルの行の集合
type TripRows struct {
	Days             []DayRow             `json:"days"`
	Routes           []RouteRow           `json:"routes"`
	Places           []PlaceRow           `json:"places"`
	CustomRoutes     []CustomRouteRow     `json:"custom_routes"`
	PointsOfInterest []PointOfInterestRow `json:"points_of_interest"`
	SearchPins       []SearchPinRow       `json:"search_pins"`
}
