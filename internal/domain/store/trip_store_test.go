package store

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
)

func TestTripStore_DayOperations(t *testing.T) {
	t.Run("日を追加すると連番の名前とパレット色が割り当てられる", func(t *testing.T) {
		s := NewTripStore()

		id1 := s.AddDay()
		id2 := s.AddDay()

		snap := s.Snapshot()
		require.Len(t, snap.Days, 2)
		assert.Equal(t, id1, snap.Days[0].ID)
		assert.Equal(t, "Dia 1", snap.Days[0].Name)
		assert.Equal(t, model.DayColors[0], snap.Days[0].DayColor)
		assert.Equal(t, id2, snap.Days[1].ID)
		assert.Equal(t, "Dia 2", snap.Days[1].Name)
		assert.Equal(t, model.DayColors[1], snap.Days[1].DayColor)
	})

	t.Run("パレットは8色を超えると先頭から循環する", func(t *testing.T) {
		s := NewTripStore()

		for i := 0; i < len(model.DayColors)+2; i++ {
			s.AddDay()
		}

		snap := s.Snapshot()
		assert.Equal(t, model.DayColors[0], snap.Days[len(model.DayColors)].DayColor)
		assert.Equal(t, model.DayColors[1], snap.Days[len(model.DayColors)+1].DayColor)
	})

	t.Run("日の削除は配下のルートとPOIごと消える", func(t *testing.T) {
		s := NewTripStore()
		dayID := s.AddDay()
		s.AddRoute(dayID, "朝の散策")
		_, err := s.AddPointOfInterest(dayID, model.PointOfInterest{Name: "展望台", Coordinates: orb.Point{-68.8, -32.9}})
		require.NoError(t, err)

		s.RemoveDay(dayID)

		snap := s.Snapshot()
		assert.Empty(t, snap.Days)
	})

	t.Run("存在しない日の削除は無視される", func(t *testing.T) {
		s := NewTripStore()
		s.AddDay()

		s.RemoveDay("nonexistent-id")

		assert.Len(t, s.Snapshot().Days, 1)
	})
}

func TestTripStore_RouteOperations(t *testing.T) {
	t.Run("名前なしルートは名前フィールドが未設定になる", func(t *testing.T) {
		s := NewTripStore()
		dayID := s.AddDay()

		routeID := s.AddRoute(dayID, "")

		require.NotEmpty(t, routeID)
		snap := s.Snapshot()
		route := snap.Days[0].Routes[0]
		assert.Nil(t, route.Name)
		assert.Equal(t, model.DefaultRouteProfile, route.RouteProfile)
		assert.NotNil(t, route.Places)
	})

	t.Run("存在しない日へのルート追加は空IDを返す", func(t *testing.T) {
		s := NewTripStore()

		routeID := s.AddRoute("nonexistent-day", "散策")

		assert.Empty(t, routeID)
	})

	t.Run("無効なIDへのプロファイル変更は無視される", func(t *testing.T) {
		s := NewTripStore()
		dayID := s.AddDay()
		routeID := s.AddRoute(dayID, "")

		s.SetRouteProfile("wrong-day", routeID, model.ProfileWalking)

		assert.Equal(t, model.DefaultRouteProfile, s.Snapshot().Days[0].Routes[0].RouteProfile)
	})
}

func TestTripStore_PlaceOperations(t *testing.T) {
	setup := func(t *testing.T) (*TripStore, string, string) {
		t.Helper()
		s := NewTripStore()
		dayID := s.AddDay()
		routeID := s.AddRoute(dayID, "")
		return s, dayID, routeID
	}

	t.Run("ID未指定のPlaceはストアが採番する", func(t *testing.T) {
		s, dayID, routeID := setup(t)

		placeID := s.AddPlace(dayID, routeID, model.Place{Name: "Plaza Independencia", Coordinates: orb.Point{-68.845, -32.889}})

		require.NotEmpty(t, placeID)
		assert.Equal(t, placeID, s.Snapshot().Days[0].Routes[0].Places[0].ID)
	})

	t.Run("並べ替えは同じID集合の場合のみ受け付ける", func(t *testing.T) {
		s, dayID, routeID := setup(t)
		id1 := s.AddPlace(dayID, routeID, model.Place{Name: "A", Coordinates: orb.Point{0, 0}})
		id2 := s.AddPlace(dayID, routeID, model.Place{Name: "B", Coordinates: orb.Point{1, 1}})

		before := s.Snapshot().Days[0].Routes[0].Places
		s.ReorderPlaces(dayID, routeID, []model.Place{before[1], before[0]})

		after := s.Snapshot().Days[0].Routes[0].Places
		assert.Equal(t, id2, after[0].ID)
		assert.Equal(t, id1, after[1].ID)

		// ID集合が一致しない並べ替えは無視
		s.ReorderPlaces(dayID, routeID, []model.Place{{ID: "other", Name: "X", Coordinates: orb.Point{2, 2}}})
		assert.Equal(t, id2, s.Snapshot().Days[0].Routes[0].Places[0].ID)
	})

	t.Run("座標更新は対象のPlaceだけに反映される", func(t *testing.T) {
		s, dayID, routeID := setup(t)
		id1 := s.AddPlace(dayID, routeID, model.Place{Name: "A", Coordinates: orb.Point{0, 0}})
		s.AddPlace(dayID, routeID, model.Place{Name: "B", Coordinates: orb.Point{1, 1}})

		s.UpdatePlaceCoordinates(dayID, routeID, id1, orb.Point{-68.5, -32.5})

		places := s.Snapshot().Days[0].Routes[0].Places
		assert.Equal(t, orb.Point{-68.5, -32.5}, places[0].Coordinates)
		assert.Equal(t, orb.Point{1, 1}, places[1].Coordinates)
	})
}

func TestTripStore_IDUniqueness(t *testing.T) {
	t.Run("使用済みIDを指定したPlace追加は採番し直される", func(t *testing.T) {
		s := NewTripStore()
		dayID := s.AddDay()
		route1 := s.AddRoute(dayID, "午前")
		route2 := s.AddRoute(dayID, "午後")

		id1 := s.AddPlace(dayID, route1, model.Place{ID: "client-1", Name: "Plaza", Coordinates: orb.Point{-68.845, -32.889}})
		id2 := s.AddPlace(dayID, route2, model.Place{ID: "client-1", Name: "Parque", Coordinates: orb.Point{-68.882, -32.884}})

		assert.Equal(t, "client-1", id1)
		require.NotEmpty(t, id2)
		assert.NotEqual(t, id1, id2)

		// 両方のPlaceが残り、スナップショット全体でIDが重複しない
		snap := s.Snapshot()
		seen := map[string]int{}
		for _, day := range snap.Days {
			seen[day.ID]++
			for _, route := range day.Routes {
				seen[route.ID]++
				for _, place := range route.Places {
					seen[place.ID]++
				}
			}
		}
		for id, count := range seen {
			assert.Equalf(t, 1, count, "ID %s が重複している", id)
		}
		assert.Len(t, snap.Days[0].Routes[0].Places, 1)
		assert.Len(t, snap.Days[0].Routes[1].Places, 1)
	})

	t.Run("別種エンティティのIDとの衝突も採番し直される", func(t *testing.T) {
		s := NewTripStore()
		dayID := s.AddDay()
		routeID := s.AddRoute(dayID, "")

		placeID := s.AddPlace(dayID, routeID, model.Place{ID: dayID, Name: "Plaza", Coordinates: orb.Point{0, 0}})

		require.NotEmpty(t, placeID)
		assert.NotEqual(t, dayID, placeID)
	})

	t.Run("使用済みIDを指定したPOIと検討用ピンも採番し直される", func(t *testing.T) {
		s := NewTripStore()
		dayID := s.AddDay()

		poiID1, err := s.AddPointOfInterest(dayID, model.PointOfInterest{ID: "shared", Name: "Mirador", Coordinates: orb.Point{0, 0}})
		require.NoError(t, err)
		poiID2, err := s.AddPointOfInterest(dayID, model.PointOfInterest{ID: "shared", Name: "Museo", Coordinates: orb.Point{1, 1}})
		require.NoError(t, err)
		pinID := s.AddSearchPin(model.SearchPin{ID: "shared", Name: "Café", Coordinates: orb.Point{2, 2}})

		assert.Equal(t, "shared", poiID1)
		assert.NotEqual(t, poiID1, poiID2)
		assert.NotEqual(t, poiID1, pinID)
		assert.NotEqual(t, poiID2, pinID)
		assert.Len(t, s.Snapshot().Days[0].PointsOfInterest, 2)
		assert.Len(t, s.Snapshot().SearchPins, 1)
	})

	t.Run("使用済みIDを指定したカスタムルートも採番し直される", func(t *testing.T) {
		s := NewTripStore()
		dayID := s.AddDay()
		routeID := s.AddRoute(dayID, "")
		from := s.AddPlace(dayID, routeID, model.Place{Name: "A", Coordinates: orb.Point{0, 0}})
		to := s.AddPlace(dayID, routeID, model.Place{Name: "B", Coordinates: orb.Point{1, 1}})

		s.SetCustomRoute(dayID, routeID, model.CustomRoute{ID: from, FromPlaceID: from, ToPlaceID: to, Geometry: model.Geometry{Type: "LineString", Coordinates: [][]float64{{0, 0}, {1, 1}}}})

		crs := s.Snapshot().Days[0].Routes[0].CustomRoutes
		require.Len(t, crs, 1)
		assert.NotEqual(t, from, crs[0].ID)
		assert.NotEmpty(t, crs[0].ID)
	})
}

func TestTripStore_CustomRouteOperations(t *testing.T) {
	setup := func(t *testing.T) (*TripStore, string, string, string, string) {
		t.Helper()
		s := NewTripStore()
		dayID := s.AddDay()
		routeID := s.AddRoute(dayID, "")
		from := s.AddPlace(dayID, routeID, model.Place{Name: "A", Coordinates: orb.Point{0, 0}})
		to := s.AddPlace(dayID, routeID, model.Place{Name: "B", Coordinates: orb.Point{1, 1}})
		return s, dayID, routeID, from, to
	}

	lineString := func(pts ...[]float64) model.Geometry {
		return model.Geometry{Type: "LineString", Coordinates: pts}
	}

	t.Run("同じペアの再設定はIDを維持してジオメトリだけ差し替える", func(t *testing.T) {
		s, dayID, routeID, from, to := setup(t)

		s.SetCustomRoute(dayID, routeID, model.CustomRoute{FromPlaceID: from, ToPlaceID: to, Geometry: lineString([]float64{0, 0}, []float64{1, 1})})
		first := s.Snapshot().Days[0].Routes[0].CustomRoutes
		require.Len(t, first, 1)
		require.NotEmpty(t, first[0].ID)

		s.SetCustomRoute(dayID, routeID, model.CustomRoute{FromPlaceID: from, ToPlaceID: to, Geometry: lineString([]float64{0, 0}, []float64{0.5, 0.7}, []float64{1, 1})})
		second := s.Snapshot().Days[0].Routes[0].CustomRoutes
		require.Len(t, second, 1)
		assert.Equal(t, first[0].ID, second[0].ID)
		assert.Len(t, second[0].Geometry.Coordinates, 3)
	})

	t.Run("ルートに存在しないPlaceを端点にした設定は無視される", func(t *testing.T) {
		s, dayID, routeID, from, _ := setup(t)

		s.SetCustomRoute(dayID, routeID, model.CustomRoute{FromPlaceID: from, ToPlaceID: "missing", Geometry: lineString([]float64{0, 0}, []float64{1, 1})})

		assert.Empty(t, s.Snapshot().Days[0].Routes[0].CustomRoutes)
	})

	t.Run("ペア指定で削除できる", func(t *testing.T) {
		s, dayID, routeID, from, to := setup(t)
		s.SetCustomRoute(dayID, routeID, model.CustomRoute{FromPlaceID: from, ToPlaceID: to, Geometry: lineString([]float64{0, 0}, []float64{1, 1})})

		s.RemoveCustomRoute(dayID, routeID, from, to)

		assert.Empty(t, s.Snapshot().Days[0].Routes[0].CustomRoutes)
	})
}

func TestTripStore_PoiOperations(t *testing.T) {
	t.Run("手動POIは名前が空だと拒否される", func(t *testing.T) {
		s := NewTripStore()
		dayID := s.AddDay()

		_, err := s.AddPointOfInterest(dayID, model.PointOfInterest{Name: "   ", IsManual: true, Coordinates: orb.Point{0, 0}})

		require.Error(t, err)
		assert.Empty(t, s.Snapshot().Days[0].PointsOfInterest)
	})

	t.Run("手動POIは長すぎる名前とメモを拒否する", func(t *testing.T) {
		s := NewTripStore()
		dayID := s.AddDay()

		longName := strings.Repeat("あ", model.MaxPoiNameLength+1)
		_, err := s.AddPointOfInterest(dayID, model.PointOfInterest{Name: longName, IsManual: true, Coordinates: orb.Point{0, 0}})
		require.Error(t, err)

		longNote := strings.Repeat("x", model.MaxPoiNoteLength+1)
		_, err = s.AddPointOfInterest(dayID, model.PointOfInterest{Name: "ok", Note: &longNote, IsManual: true, Coordinates: orb.Point{0, 0}})
		require.Error(t, err)
	})

	t.Run("手動POIの名前は逆ジオコーディングで上書きされない", func(t *testing.T) {
		s := NewTripStore()
		dayID := s.AddDay()
		poiID, err := s.AddPointOfInterest(dayID, model.PointOfInterest{Name: "Mirador", IsManual: true, Coordinates: orb.Point{-68.8, -32.9}})
		require.NoError(t, err)

		s.UpdatePoiInfo(dayID, poiID, "Parque X", "Av. Libertador 123")

		poi := s.Snapshot().Days[0].PointsOfInterest[0]
		assert.Equal(t, "Mirador", poi.Name)
		require.NotNil(t, poi.Address)
		assert.Equal(t, "Av. Libertador 123", *poi.Address)
	})

	t.Run("検索由来POIの名前は逆ジオコーディングで更新される", func(t *testing.T) {
		s := NewTripStore()
		dayID := s.AddDay()
		poiID, err := s.AddPointOfInterest(dayID, model.PointOfInterest{Name: "元の名前", IsManual: false, Coordinates: orb.Point{0, 0}})
		require.NoError(t, err)

		s.UpdatePoiInfo(dayID, poiID, "新しい名前", "住所")

		assert.Equal(t, "新しい名前", s.Snapshot().Days[0].PointsOfInterest[0].Name)
	})

	t.Run("座標更新してもIsManualフラグは維持される", func(t *testing.T) {
		s := NewTripStore()
		dayID := s.AddDay()
		poiID, err := s.AddPointOfInterest(dayID, model.PointOfInterest{Name: "Mirador", IsManual: true, Coordinates: orb.Point{0, 0}})
		require.NoError(t, err)

		s.UpdatePoiCoordinates(dayID, poiID, orb.Point{-68.1, -32.1})

		poi := s.Snapshot().Days[0].PointsOfInterest[0]
		assert.True(t, poi.IsManual)
		assert.Equal(t, orb.Point{-68.1, -32.1}, poi.Coordinates)
	})
}

func TestTripStore_SearchPinOperations(t *testing.T) {
	t.Run("全削除でピンだけが消える", func(t *testing.T) {
		s := NewTripStore()
		s.AddDay()
		s.AddSearchPin(model.SearchPin{Name: "候補1", Coordinates: orb.Point{0, 0}})
		s.AddSearchPin(model.SearchPin{Name: "候補2", Coordinates: orb.Point{1, 1}})

		s.ClearSearchPins()

		snap := s.Snapshot()
		assert.Empty(t, snap.SearchPins)
		assert.Len(t, snap.Days, 1)
	})
}

func TestTripStore_Observers(t *testing.T) {
	t.Run("変更があった操作だけ通知される", func(t *testing.T) {
		s := NewTripStore()
		notified := 0
		s.Subscribe(func(model.TripSnapshot) { notified++ })

		s.AddDay()
		s.RemoveDay("nonexistent") // no-opは通知しない

		assert.Equal(t, 1, notified)
	})

	t.Run("解除後は通知されない", func(t *testing.T) {
		s := NewTripStore()
		notified := 0
		unsubscribe := s.Subscribe(func(model.TripSnapshot) { notified++ })

		s.AddDay()
		unsubscribe()
		s.AddDay()

		assert.Equal(t, 1, notified)
	})

	t.Run("通知されるスナップショットは内部状態から独立している", func(t *testing.T) {
		s := NewTripStore()
		var received model.TripSnapshot
		s.Subscribe(func(snap model.TripSnapshot) { received = snap })

		s.AddDay()
		received.Days[0].Name = "改ざん"

		assert.Equal(t, "Dia 1", s.Snapshot().Days[0].Name)
	})
}
