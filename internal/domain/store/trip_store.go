package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
)

// Observer スナップショットの変更通知を受け取るコールバック
type Observer func(snapshot model.TripSnapshot)

// TripStore Trip内容の唯一の情報源となるインメモリストア
//
// すべての操作は同期的に完了し、完了後に観測者へ新しいスナップショットを通知する。
// 存在しないIDを対象とする操作はエラーにせず無視する（fail-soft）。
// UIの操作がストアの状態を追い越すケース（削除ボタンの二度押しなど）を
// エラーで落とさないための方針
type TripStore struct {
	mu        sync.Mutex
	snapshot  model.TripSnapshot
	observers map[int]Observer
	nextObsID int
}

// NewTripStore 空の状態で新しいTripStoreを作成
func NewTripStore() *TripStore {
	return &TripStore{
		snapshot:  model.EmptySnapshot(),
		observers: map[int]Observer{},
	}
}

// Subscribe 観測者を登録し、解除用の関数を返す
func (s *TripStore) Subscribe(obs Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = obs
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// Snapshot 現在のスナップショットのディープコピーを取得
func (s *TripStore) Snapshot() model.TripSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// Replace ストアの内容全体を置き換える（リモートからの初期ロードで使用）
func (s *TripStore) Replace(snapshot model.TripSnapshot) {
	s.mutate(func() bool {
		s.snapshot = snapshot.Clone()
		return true
	})
}

// mutate ロック下で変更を適用し、変更があった場合のみ観測者へ通知する
func (s *TripStore) mutate(apply func() bool) {
	s.mu.Lock()
	changed := apply()
	var snapshot model.TripSnapshot
	var observers []Observer
	if changed {
		snapshot = s.snapshot.Clone()
		observers = make([]Observer, 0, len(s.observers))
		for _, obs := range s.observers {
			observers = append(observers, obs)
		}
	}
	s.mu.Unlock()

	// 通知は同期的に行うが、ロック外で呼び出して再入を許す
	for _, obs := range observers {
		obs(snapshot)
	}
}

// ---- Day操作 ----

// AddDay 新しい日を追加し、そのIDを返す
// 名前は「Dia N」、色はパレットから日のインデックスで決定
func (s *TripStore) AddDay() string {
	id := uuid.New().String()
	s.mutate(func() bool {
		day := model.Day{
			ID:               id,
			Name:             fmt.Sprintf("Dia %d", len(s.snapshot.Days)+1),
			Routes:           []model.Route{},
			PointsOfInterest: []model.PointOfInterest{},
			DayColor:         model.DayColorForIndex(len(s.snapshot.Days)),
		}
		s.snapshot.Days = append(s.snapshot.Days, day)
		return true
	})
	return id
}

// RemoveDay 日を削除する（配下のルート・Place・POIもすべて消える）
func (s *TripStore) RemoveDay(dayID string) {
	s.mutate(func() bool {
		for i := range s.snapshot.Days {
			if s.snapshot.Days[i].ID == dayID {
				s.snapshot.Days = append(s.snapshot.Days[:i], s.snapshot.Days[i+1:]...)
				return true
			}
		}
		return false
	})
}

// SetDayColor 日の色を変更する
func (s *TripStore) SetDayColor(dayID string, color string) {
	s.mutate(func() bool {
		day := s.findDay(dayID)
		if day == nil {
			return false
		}
		day.DayColor = color
		return true
	})
}

// ---- Route操作 ----

// AddRoute 指定した日に新しいルートを追加し、そのIDを返す
// 名前は明示的に指定された場合のみ設定する
func (s *TripStore) AddRoute(dayID string, name string) string {
	id := uuid.New().String()
	added := false
	s.mutate(func() bool {
		day := s.findDay(dayID)
		if day == nil {
			return false
		}
		route := model.Route{
			ID:           id,
			Places:       []model.Place{},
			RouteProfile: model.DefaultRouteProfile,
			CustomRoutes: []model.CustomRoute{},
		}
		if name != "" {
			route.Name = &name
		}
		day.Routes = append(day.Routes, route)
		added = true
		return true
	})
	if !added {
		return ""
	}
	return id
}

// RemoveRoute ルートを削除する（配下のPlaceとカスタムルートもすべて消える）
func (s *TripStore) RemoveRoute(dayID, routeID string) {
	s.mutate(func() bool {
		day := s.findDay(dayID)
		if day == nil {
			return false
		}
		for i := range day.Routes {
			if day.Routes[i].ID == routeID {
				day.Routes = append(day.Routes[:i], day.Routes[i+1:]...)
				return true
			}
		}
		return false
	})
}

// ---- Place操作 ----

// AddPlace ルートの末尾にPlaceを追加し、そのIDを返す
// IDが空、または既存エンティティと重複する場合はストア側で採番し直す
func (s *TripStore) AddPlace(dayID, routeID string, place model.Place) string {
	added := false
	s.mutate(func() bool {
		route := s.findRoute(dayID, routeID)
		if route == nil {
			return false
		}
		if place.ID == "" || s.idTaken(place.ID) {
			place.ID = uuid.New().String()
		}
		route.Places = append(route.Places, place)
		added = true
		return true
	})
	if !added {
		return ""
	}
	return place.ID
}

// RemovePlace ルートからPlaceを削除する
func (s *TripStore) RemovePlace(dayID, routeID, placeID string) {
	s.mutate(func() bool {
		route := s.findRoute(dayID, routeID)
		if route == nil {
			return false
		}
		idx := route.FindPlace(placeID)
		if idx < 0 {
			return false
		}
		route.Places = append(route.Places[:idx], route.Places[idx+1:]...)
		return true
	})
}

// ReorderPlaces ドラッグ並べ替え後のPlace列でルートの順序を置き換える
// 既存のPlaceと同じID集合の並べ替えでない場合は無視する
func (s *TripStore) ReorderPlaces(dayID, routeID string, places []model.Place) {
	s.mutate(func() bool {
		route := s.findRoute(dayID, routeID)
		if route == nil {
			return false
		}
		if !samePlaceIDs(route.Places, places) {
			return false
		}
		reordered := make([]model.Place, len(places))
		copy(reordered, places)
		route.Places = reordered
		return true
	})
}

// UpdatePlaceCoordinates Placeの座標を更新する（ピンのドラッグ移動）
func (s *TripStore) UpdatePlaceCoordinates(dayID, routeID, placeID string, coordinates orb.Point) {
	s.mutate(func() bool {
		route := s.findRoute(dayID, routeID)
		if route == nil {
			return false
		}
		idx := route.FindPlace(placeID)
		if idx < 0 {
			return false
		}
		route.Places[idx].Coordinates = coordinates
		return true
	})
}

// UpdatePlaceInfo 逆ジオコーディング結果や手入力でPlaceの名前と住所を更新する
func (s *TripStore) UpdatePlaceInfo(dayID, routeID, placeID, name, address string) {
	s.mutate(func() bool {
		route := s.findRoute(dayID, routeID)
		if route == nil {
			return false
		}
		idx := route.FindPlace(placeID)
		if idx < 0 {
			return false
		}
		route.Places[idx].Name = name
		route.Places[idx].Address = &address
		return true
	})
}

// ---- Route設定操作 ----

// SetRouteProfile ルートの移動手段プロファイルを変更する
func (s *TripStore) SetRouteProfile(dayID, routeID string, profile model.RouteProfile) {
	if !profile.IsValid() {
		return
	}
	s.mutate(func() bool {
		route := s.findRoute(dayID, routeID)
		if route == nil {
			return false
		}
		route.RouteProfile = profile
		return true
	})
}

// SetRouteStats 外部ルート検索で得た距離・所要時間キャッシュを設定する
// nil を渡すとキャッシュをクリアする
func (s *TripStore) SetRouteStats(dayID, routeID string, stats *model.RouteStats) {
	s.mutate(func() bool {
		route := s.findRoute(dayID, routeID)
		if route == nil {
			return false
		}
		if stats == nil {
			route.RouteStats = nil
		} else {
			copied := *stats
			route.RouteStats = &copied
		}
		return true
	})
}

// SetCustomRoute 隣接Place間の手描きルートを設定する
// 同じ (from, to) ペアの既存ルートがあればジオメトリを差し替える（IDは維持）
func (s *TripStore) SetCustomRoute(dayID, routeID string, customRoute model.CustomRoute) {
	s.mutate(func() bool {
		route := s.findRoute(dayID, routeID)
		if route == nil {
			return false
		}
		// 両端のPlaceが現時点でこのルートに存在することを要求する
		if route.FindPlace(customRoute.FromPlaceID) < 0 || route.FindPlace(customRoute.ToPlaceID) < 0 {
			return false
		}
		for i := range route.CustomRoutes {
			cr := &route.CustomRoutes[i]
			if cr.FromPlaceID == customRoute.FromPlaceID && cr.ToPlaceID == customRoute.ToPlaceID {
				cr.Geometry = customRoute.Geometry
				return true
			}
		}
		if customRoute.ID == "" || s.idTaken(customRoute.ID) {
			customRoute.ID = uuid.New().String()
		}
		route.CustomRoutes = append(route.CustomRoutes, customRoute)
		return true
	})
}

// RemoveCustomRoute 指定ペアの手描きルートを削除する
func (s *TripStore) RemoveCustomRoute(dayID, routeID, fromPlaceID, toPlaceID string) {
	s.mutate(func() bool {
		route := s.findRoute(dayID, routeID)
		if route == nil {
			return false
		}
		for i := range route.CustomRoutes {
			cr := &route.CustomRoutes[i]
			if cr.FromPlaceID == fromPlaceID && cr.ToPlaceID == toPlaceID {
				route.CustomRoutes = append(route.CustomRoutes[:i], route.CustomRoutes[i+1:]...)
				return true
			}
		}
		return false
	})
}

// SetRouteColor ルートの色を変更する
func (s *TripStore) SetRouteColor(dayID, routeID string, color string) {
	s.mutate(func() bool {
		route := s.findRoute(dayID, routeID)
		if route == nil {
			return false
		}
		route.RouteColor = &color
		return true
	})
}

// ---- POI操作 ----

// AddPointOfInterest 日に単独POIを追加し、そのIDを返す
// 手動POIの場合は入力値を検証し、不正ならストアに到達させない
// IDが空、または既存エンティティと重複する場合はストア側で採番し直す
func (s *TripStore) AddPointOfInterest(dayID string, poi model.PointOfInterest) (string, error) {
	if poi.IsManual {
		if err := model.ValidateManualPoi(poi.Name, poi.Note); err != nil {
			return "", fmt.Errorf("手動POIの検証失敗: %w", err)
		}
	}
	added := false
	s.mutate(func() bool {
		day := s.findDay(dayID)
		if day == nil {
			return false
		}
		if poi.ID == "" || s.idTaken(poi.ID) {
			poi.ID = uuid.New().String()
		}
		day.PointsOfInterest = append(day.PointsOfInterest, poi)
		added = true
		return true
	})
	if !added {
		return "", nil
	}
	return poi.ID, nil
}

// RemovePointOfInterest 日からPOIを削除する
func (s *TripStore) RemovePointOfInterest(dayID, poiID string) {
	s.mutate(func() bool {
		day := s.findDay(dayID)
		if day == nil {
			return false
		}
		for i := range day.PointsOfInterest {
			if day.PointsOfInterest[i].ID == poiID {
				day.PointsOfInterest = append(day.PointsOfInterest[:i], day.PointsOfInterest[i+1:]...)
				return true
			}
		}
		return false
	})
}

// UpdatePoiCoordinates POIの座標を更新する（IsManualフラグは維持される）
func (s *TripStore) UpdatePoiCoordinates(dayID, poiID string, coordinates orb.Point) {
	s.mutate(func() bool {
		poi := s.findPoi(dayID, poiID)
		if poi == nil {
			return false
		}
		poi.Coordinates = coordinates
		return true
	})
}

// UpdatePoiInfo 逆ジオコーディング結果でPOIの名前と住所を更新する
// 手動POIの名前はユーザーが付けたものなので上書きしない（住所のみ更新）
func (s *TripStore) UpdatePoiInfo(dayID, poiID, name, address string) {
	s.mutate(func() bool {
		poi := s.findPoi(dayID, poiID)
		if poi == nil {
			return false
		}
		if !poi.IsManual {
			poi.Name = name
		}
		poi.Address = &address
		return true
	})
}

// ---- SearchPin操作 ----

// AddSearchPin 検討用ピンを追加し、そのIDを返す
// IDが空、または既存エンティティと重複する場合はストア側で採番し直す
func (s *TripStore) AddSearchPin(pin model.SearchPin) string {
	s.mutate(func() bool {
		if pin.ID == "" || s.idTaken(pin.ID) {
			pin.ID = uuid.New().String()
		}
		s.snapshot.SearchPins = append(s.snapshot.SearchPins, pin)
		return true
	})
	return pin.ID
}

// RemoveSearchPin 検討用ピンを削除する
func (s *TripStore) RemoveSearchPin(pinID string) {
	s.mutate(func() bool {
		for i := range s.snapshot.SearchPins {
			if s.snapshot.SearchPins[i].ID == pinID {
				s.snapshot.SearchPins = append(s.snapshot.SearchPins[:i], s.snapshot.SearchPins[i+1:]...)
				return true
			}
		}
		return false
	})
}

// ClearSearchPins すべての検討用ピンを削除する
func (s *TripStore) ClearSearchPins() {
	s.mutate(func() bool {
		if len(s.snapshot.SearchPins) == 0 {
			return false
		}
		s.snapshot.SearchPins = []model.SearchPin{}
		return true
	})
}

// ---- 内部ヘルパー（呼び出し側でロック保持が前提） ----

// idTaken スナップショット内のいずれかのエンティティが既にそのIDを使用しているか
// IDは種別をまたいで全体で一意とする
func (s *TripStore) idTaken(id string) bool {
	for i := range s.snapshot.Days {
		day := &s.snapshot.Days[i]
		if day.ID == id {
			return true
		}
		for j := range day.Routes {
			route := &day.Routes[j]
			if route.ID == id {
				return true
			}
			for k := range route.Places {
				if route.Places[k].ID == id {
					return true
				}
			}
			for k := range route.CustomRoutes {
				if route.CustomRoutes[k].ID == id {
					return true
				}
			}
		}
		for j := range day.PointsOfInterest {
			if day.PointsOfInterest[j].ID == id {
				return true
			}
		}
	}
	for i := range s.snapshot.SearchPins {
		if s.snapshot.SearchPins[i].ID == id {
			return true
		}
	}
	return false
}

func (s *TripStore) findDay(dayID string) *model.Day {
	for i := range s.snapshot.Days {
		if s.snapshot.Days[i].ID == dayID {
			return &s.snapshot.Days[i]
		}
	}
	return nil
}

func (s *TripStore) findRoute(dayID, routeID string) *model.Route {
	day := s.findDay(dayID)
	if day == nil {
		return nil
	}
	idx := day.FindRoute(routeID)
	if idx < 0 {
		return nil
	}
	return &day.Routes[idx]
}

func (s *TripStore) findPoi(dayID, poiID string) *model.PointOfInterest {
	day := s.findDay(dayID)
	if day == nil {
		return nil
	}
	for i := range day.PointsOfInterest {
		if day.PointsOfInterest[i].ID == poiID {
			return &day.PointsOfInterest[i]
		}
	}
	return nil
}

// samePlaceIDs 2つのPlace列が同じID集合かチェック
func samePlaceIDs(current, proposed []model.Place) bool {
	if len(current) != len(proposed) {
		return false
	}
	ids := make(map[string]bool, len(current))
	for i := range current {
		ids[current[i].ID] = true
	}
	for i := range proposed {
		if !ids[proposed[i].ID] {
			return false
		}
	}
	return true
}
