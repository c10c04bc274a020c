package model

import "github.com/paulmach/orb"

// RouteProfile ルートの移動手段プロファイル
type RouteProfile string

const (
	ProfileDriving        RouteProfile = "driving"
	ProfileDrivingTraffic RouteProfile = "driving-traffic"
	ProfileWalking        RouteProfile = "walking"
	ProfileCycling        RouteProfile = "cycling"
)

// IsValid プロファイルが対応している移動手段かチェック
func (p RouteProfile) IsValid() bool {
	switch p {
	case ProfileDriving, ProfileDrivingTraffic, ProfileWalking, ProfileCycling:
		return true
	}
	return false
}

// BoundingBox 地図表示用の境界ボックス [minLng, minLat, maxLng, maxLat]
type BoundingBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// ToBound orb.Bound に変換
func (b *BoundingBox) ToBound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

// BoundingBoxFromBound orb.Bound から BoundingBox を作成
func BoundingBoxFromBound(bound orb.Bound) *BoundingBox {
	return &BoundingBox{
		MinLng: bound.Min.Lon(),
		MinLat: bound.Min.Lat(),
		MaxLng: bound.Max.Lon(),
		MaxLat: bound.Max.Lat(),
	}
}

// Geometry GeoJSON LineString 形式のジオメトリ（custom_routes.geometry 列と同じ形）
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"` // [ [lng, lat], ... ]
}

// ToLineString orb.LineString に変換
func (g *Geometry) ToLineString() orb.LineString {
	line := make(orb.LineString, 0, len(g.Coordinates))
	for _, c := range g.Coordinates {
		if len(c) < 2 {
			continue
		}
		line = append(line, orb.Point{c[0], c[1]})
	}
	return line
}

// GeometryFromLineString orb.LineString から Geometry を作成
func GeometryFromLineString(line orb.LineString) Geometry {
	coords := make([][]float64, len(line))
	for i, p := range line {
		coords[i] = []float64{p.Lon(), p.Lat()}
	}
	return Geometry{Type: "LineString", Coordinates: coords}
}

// RouteStats 外部ルート検索から取得した距離・所要時間のキャッシュ
// 常に再計算で上書き可能な派生データであり、正とはみなさない
type RouteStats struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Place ルートに属する訪問先
type Place struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Coordinates orb.Point    `json:"coordinates"` // [lng, lat]
	Address     *string      `json:"address,omitempty"`
	BBox        *BoundingBox `json:"bbox,omitempty"`
}

// CustomRoute 隣接する2つのPlace間の手描きルート
// (FromPlaceID, ToPlaceID) の順序付きペアごとに最大1つ
type CustomRoute struct {
	ID          string   `json:"id"`
	FromPlaceID string   `json:"from_place_id"`
	ToPlaceID   string   `json:"to_place_id"`
	Geometry    Geometry `json:"geometry"`
}

// Route 1日の中の順序付き訪問先リスト（移動手段プロファイルを共有）
type Route struct {
	ID           string        `json:"id"`
	Name         *string       `json:"name,omitempty"`
	Places       []Place       `json:"places"`
	RouteProfile RouteProfile  `json:"route_profile"`
	RouteStats   *RouteStats   `json:"route_stats,omitempty"`
	CustomRoutes []CustomRoute `json:"custom_routes"`
	RouteColor   *string       `json:"route_color,omitempty"`
}

// FindPlace ID で Place を検索（見つからない場合は -1）
func (r *Route) FindPlace(placeID string) int {
	for i := range r.Places {
		if r.Places[i].ID == placeID {
			return i
		}
	}
	return -1
}

// PointOfInterest 日に紐づく単独ピン（ルートには属さない）
// IsManual が true の場合は地図中心へ手動配置されたピンで、
// 逆ジオコーディングによる名前の上書きを行ってはならない
type PointOfInterest struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Coordinates orb.Point `json:"coordinates"`
	Address     *string   `json:"address,omitempty"`
	Note        *string   `json:"note,omitempty"`
	IsManual    bool      `json:"is_manual"`
}

// Day 旅程の1日分（複数ルート + 単独POI）
type Day struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Routes           []Route           `json:"routes"`
	PointsOfInterest []PointOfInterest `json:"points_of_interest"`
	DayColor         string            `json:"day_color"`
}

// FindRoute ID で Route を検索（見つからない場合は -1）
func (d *Day) FindRoute(routeID string) int {
	for i := range d.Routes {
		if d.Routes[i].ID == routeID {
			return i
		}
	}
	return -1
}

// SearchPin 旅程に組み込む前の検討用ピン（Trip 直下に保持）
type SearchPin struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Coordinates orb.Point    `json:"coordinates"`
	Address     *string      `json:"address,omitempty"`
	BBox        *BoundingBox `json:"bbox,omitempty"`
}

// Trip ユーザー1人が所有するルートアグリゲート
type Trip struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
