package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TripSnapshot Tripの内容全体のスナップショット
// ストアの観測単位であり、同期エンジンの差分計算の基礎となる
type TripSnapshot struct {
	Days       []Day       `json:"days"`
	SearchPins []SearchPin `json:"search_pins"`
}

// EmptySnapshot 空のスナップショットを作成（スライスは非nilで初期化）
func EmptySnapshot() TripSnapshot {
	return TripSnapshot{
		Days:       []Day{},
		SearchPins: []SearchPin{},
	}
}

// IsEmpty DayもSearchPinも1件もない状態かチェック
// 同期エンジンの false-empty ガードで使用する
func (s *TripSnapshot) IsEmpty() bool {
	return len(s.Days) == 0 && len(s.SearchPins) == 0
}

// Serialize スナップショットを正規化されたJSONバイト列に変換
// フィールド順は構造体定義で固定されるため、同一内容は同一バイト列になる
func (s *TripSnapshot) Serialize() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("スナップショットのシリアライズ失敗: %w", err)
	}
	return data, nil
}

// Equal 2つのスナップショットが内容として等しいかチェック
func (s *TripSnapshot) Equal(other *TripSnapshot) bool {
	a, err := s.Serialize()
	if err != nil {
		return false
	}
	b, err := other.Serialize()
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// Clone スナップショットのディープコピーを作成
// 観測者に渡すコピーが内部状態を共有しないことを保証する
func (s *TripSnapshot) Clone() TripSnapshot {
	out := TripSnapshot{
		Days:       make([]Day, len(s.Days)),
		SearchPins: make([]SearchPin, len(s.SearchPins)),
	}
	for i := range s.Days {
		out.Days[i] = cloneDay(&s.Days[i])
	}
	for i := range s.SearchPins {
		out.SearchPins[i] = cloneSearchPin(&s.SearchPins[i])
	}
	return out
}

func cloneDay(d *Day) Day {
	day := *d
	day.Routes = make([]Route, len(d.Routes))
	for i := range d.Routes {
		day.Routes[i] = cloneRoute(&d.Routes[i])
	}
	day.PointsOfInterest = make([]PointOfInterest, len(d.PointsOfInterest))
	for i := range d.PointsOfInterest {
		day.PointsOfInterest[i] = clonePointOfInterest(&d.PointsOfInterest[i])
	}
	return day
}

func cloneRoute(r *Route) Route {
	route := *r
	route.Places = make([]Place, len(r.Places))
	for i := range r.Places {
		route.Places[i] = clonePlace(&r.Places[i])
	}
	route.CustomRoutes = make([]CustomRoute, len(r.CustomRoutes))
	for i := range r.CustomRoutes {
		route.CustomRoutes[i] = cloneCustomRoute(&r.CustomRoutes[i])
	}
	if r.Name != nil {
		name := *r.Name
		route.Name = &name
	}
	if r.RouteColor != nil {
		color := *r.RouteColor
		route.RouteColor = &color
	}
	if r.RouteStats != nil {
		stats := *r.RouteStats
		route.RouteStats = &stats
	}
	return route
}

func clonePlace(p *Place) Place {
	place := *p
	if p.Address != nil {
		address := *p.Address
		place.Address = &address
	}
	if p.BBox != nil {
		bbox := *p.BBox
		place.BBox = &bbox
	}
	return place
}

func cloneCustomRoute(cr *CustomRoute) CustomRoute {
	out := *cr
	out.Geometry.Coordinates = make([][]float64, len(cr.Geometry.Coordinates))
	for i, c := range cr.Geometry.Coordinates {
		coord := make([]float64, len(c))
		copy(coord, c)
		out.Geometry.Coordinates[i] = coord
	}
	return out
}

func clonePointOfInterest(p *PointOfInterest) PointOfInterest {
	poi := *p
	if p.Address != nil {
		address := *p.Address
		poi.Address = &address
	}
	if p.Note != nil {
		note := *p.Note
		poi.Note = &note
	}
	return poi
}

func cloneSearchPin(p *SearchPin) SearchPin {
	pin := *p
	if p.Address != nil {
		address := *p.Address
		pin.Address = &address
	}
	if p.BBox != nil {
		bbox := *p.BBox
		pin.BBox = &bbox
	}
	return pin
}
