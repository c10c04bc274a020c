package repository

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
)

// Entity Model とリレーショナル行表現の双方向変換
//
// 順方向（Flatten）: ネストした列を外部キー付きの行に平坦化し、
// position = 親の中でのインデックスを採番する。
// 逆方向（Assemble）: 行を外部キーでグループ化し、各グループを
// position 昇順にソートしてからボトムアップに組み立てる。
// ストレージからの行の到着順は position と一致する保証がない

// FlattenTrip スナップショットを全テーブルの行集合に平坦化する
func FlattenTrip(tripID string, snapshot *model.TripSnapshot) *model.TripRows {
	rows := &model.TripRows{
		Days:             []model.DayRow{},
		Routes:           []model.RouteRow{},
		Places:           []model.PlaceRow{},
		CustomRoutes:     []model.CustomRouteRow{},
		PointsOfInterest: []model.PointOfInterestRow{},
		SearchPins:       []model.SearchPinRow{},
	}

	for dayIndex := range snapshot.Days {
		day := &snapshot.Days[dayIndex]
		rows.Days = append(rows.Days, model.DayRow{
			ID:       day.ID,
			TripID:   tripID,
			Name:     day.Name,
			DayColor: dayColorOrDefault(day.DayColor),
			Position: dayIndex,
		})

		for routeIndex := range day.Routes {
			route := &day.Routes[routeIndex]
			rows.Routes = append(rows.Routes, routeToRow(day.ID, route, routeIndex))

			for placeIndex := range route.Places {
				rows.Places = append(rows.Places, placeToRow(route.ID, &route.Places[placeIndex], placeIndex))
			}
			for i := range route.CustomRoutes {
				cr := &route.CustomRoutes[i]
				rows.CustomRoutes = append(rows.CustomRoutes, model.CustomRouteRow{
					ID:          cr.ID,
					RouteID:     route.ID,
					FromPlaceID: cr.FromPlaceID,
					ToPlaceID:   cr.ToPlaceID,
					Geometry:    cr.Geometry,
				})
			}
		}

		for poiIndex := range day.PointsOfInterest {
			rows.PointsOfInterest = append(rows.PointsOfInterest, poiToRow(day.ID, &day.PointsOfInterest[poiIndex], poiIndex))
		}
	}

	for i := range snapshot.SearchPins {
		rows.SearchPins = append(rows.SearchPins, searchPinToRow(tripID, &snapshot.SearchPins[i]))
	}

	return rows
}

// AssembleTrip 行集合からスナップショットを組み立てる
// 子の行が1件もない親は空の列として復元する（エラーにはしない）。
// 参照先のPlaceが存在しないcustom_routes行もそのまま復元する（孤児の掃除は
// ここではなく同期エンジンの責務）
func AssembleTrip(rows *model.TripRows) model.TripSnapshot {
	routesByDay := map[string][]model.RouteRow{}
	for _, r := range rows.Routes {
		routesByDay[r.DayID] = append(routesByDay[r.DayID], r)
	}
	placesByRoute := map[string][]model.PlaceRow{}
	for _, p := range rows.Places {
		placesByRoute[p.RouteID] = append(placesByRoute[p.RouteID], p)
	}
	customRoutesByRoute := map[string][]model.CustomRouteRow{}
	for _, cr := range rows.CustomRoutes {
		customRoutesByRoute[cr.RouteID] = append(customRoutesByRoute[cr.RouteID], cr)
	}
	poisByDay := map[string][]model.PointOfInterestRow{}
	for _, p := range rows.PointsOfInterest {
		poisByDay[p.DayID] = append(poisByDay[p.DayID], p)
	}

	dayRows := make([]model.DayRow, len(rows.Days))
	copy(dayRows, rows.Days)
	sort.SliceStable(dayRows, func(i, j int) bool { return dayRows[i].Position < dayRows[j].Position })

	snapshot := model.EmptySnapshot()
	for _, dayRow := range dayRows {
		day := model.Day{
			ID:               dayRow.ID,
			Name:             dayRow.Name,
			DayColor:         dayColorOrDefault(dayRow.DayColor),
			Routes:           []model.Route{},
			PointsOfInterest: []model.PointOfInterest{},
		}

		routeRows := routesByDay[dayRow.ID]
		sort.SliceStable(routeRows, func(i, j int) bool { return routeRows[i].Position < routeRows[j].Position })
		for _, routeRow := range routeRows {
			day.Routes = append(day.Routes, rowToRoute(routeRow, placesByRoute[routeRow.ID], customRoutesByRoute[routeRow.ID]))
		}

		poiRows := poisByDay[dayRow.ID]
		sort.SliceStable(poiRows, func(i, j int) bool { return poiRows[i].Position < poiRows[j].Position })
		for _, poiRow := range poiRows {
			day.PointsOfInterest = append(day.PointsOfInterest, rowToPoi(poiRow))
		}

		snapshot.Days = append(snapshot.Days, day)
	}

	for _, pinRow := range rows.SearchPins {
		snapshot.SearchPins = append(snapshot.SearchPins, rowToSearchPin(pinRow))
	}

	return snapshot
}

// ---- 行 → モデル ----

func rowToRoute(row model.RouteRow, placeRows []model.PlaceRow, customRouteRows []model.CustomRouteRow) model.Route {
	route := model.Route{
		ID:           row.ID,
		Name:         row.Name,
		RouteProfile: model.RouteProfile(row.RouteProfile),
		RouteColor:   row.RouteColor,
		Places:       []model.Place{},
		CustomRoutes: []model.CustomRoute{},
	}
	if row.DistanceMeters != nil || row.DurationSeconds != nil {
		stats := model.RouteStats{}
		if row.DistanceMeters != nil {
			stats.DistanceMeters = *row.DistanceMeters
		}
		if row.DurationSeconds != nil {
			stats.DurationSeconds = *row.DurationSeconds
		}
		route.RouteStats = &stats
	}

	sorted := make([]model.PlaceRow, len(placeRows))
	copy(sorted, placeRows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	for _, p := range sorted {
		route.Places = append(route.Places, rowToPlace(p))
	}

	for _, cr := range customRouteRows {
		route.CustomRoutes = append(route.CustomRoutes, model.CustomRoute{
			ID:          cr.ID,
			FromPlaceID: cr.FromPlaceID,
			ToPlaceID:   cr.ToPlaceID,
			Geometry:    cr.Geometry,
		})
	}

	return route
}

func rowToPlace(row model.PlaceRow) model.Place {
	return model.Place{
		ID:          row.ID,
		Name:        row.Name,
		Coordinates: orb.Point{row.Lng, row.Lat},
		Address:     row.Address,
		BBox:        bboxFromColumns(row.BboxMinLng, row.BboxMinLat, row.BboxMaxLng, row.BboxMaxLat),
	}
}

func rowToPoi(row model.PointOfInterestRow) model.PointOfInterest {
	return model.PointOfInterest{
		ID:          row.ID,
		Name:        row.Name,
		Coordinates: orb.Point{row.Lng, row.Lat},
		Address:     row.Address,
		Note:        row.Note,
		IsManual:    row.IsManual,
	}
}

func rowToSearchPin(row model.SearchPinRow) model.SearchPin {
	return model.SearchPin{
		ID:          row.ID,
		Name:        row.Name,
		Coordinates: orb.Point{row.Lng, row.Lat},
		Address:     row.Address,
		BBox:        bboxFromColumns(row.BboxMinLng, row.BboxMinLat, row.BboxMaxLng, row.BboxMaxLat),
	}
}

// ---- モデル → 行 ----

func routeToRow(dayID string, route *model.Route, position int) model.RouteRow {
	row := model.RouteRow{
		ID:           route.ID,
		DayID:        dayID,
		Name:         route.Name,
		RouteProfile: string(route.RouteProfile),
		RouteColor:   route.RouteColor,
		Position:     position,
	}
	if route.RouteStats != nil {
		distance := route.RouteStats.DistanceMeters
		duration := route.RouteStats.DurationSeconds
		row.DistanceMeters = &distance
		row.DurationSeconds = &duration
	}
	return row
}

func placeToRow(routeID string, place *model.Place, position int) model.PlaceRow {
	row := model.PlaceRow{
		ID:       place.ID,
		RouteID:  routeID,
		Name:     place.Name,
		Address:  place.Address,
		Lng:      place.Coordinates.Lon(),
		Lat:      place.Coordinates.Lat(),
		Position: position,
	}
	row.BboxMinLng, row.BboxMinLat, row.BboxMaxLng, row.BboxMaxLat = bboxToColumns(place.BBox)
	return row
}

func poiToRow(dayID string, poi *model.PointOfInterest, position int) model.PointOfInterestRow {
	return model.PointOfInterestRow{
		ID:       poi.ID,
		DayID:    dayID,
		Name:     poi.Name,
		Address:  poi.Address,
		Note:     poi.Note,
		Lng:      poi.Coordinates.Lon(),
		Lat:      poi.Coordinates.Lat(),
		IsManual: poi.IsManual,
		Position: position,
	}
}

func searchPinToRow(tripID string, pin *model.SearchPin) model.SearchPinRow {
	row := model.SearchPinRow{
		ID:      pin.ID,
		TripID:  tripID,
		Name:    pin.Name,
		Address: pin.Address,
		Lng:     pin.Coordinates.Lon(),
		Lat:     pin.Coordinates.Lat(),
	}
	row.BboxMinLng, row.BboxMinLat, row.BboxMaxLng, row.BboxMaxLat = bboxToColumns(pin.BBox)
	return row
}

// ---- ヘルパー ----

func dayColorOrDefault(color string) string {
	if color == "" {
		return model.DefaultDayColor
	}
	return color
}

func bboxFromColumns(minLng, minLat, maxLng, maxLat *float64) *model.BoundingBox {
	if minLng == nil || minLat == nil || maxLng == nil || maxLat == nil {
		return nil
	}
	return &model.BoundingBox{
		MinLng: *minLng,
		MinLat: *minLat,
		MaxLng: *maxLng,
		MaxLat: *maxLat,
	}
}

func bboxToColumns(bbox *model.BoundingBox) (minLng, minLat, maxLng, maxLat *float64) {
	if bbox == nil {
		return nil, nil, nil, nil
	}
	a, b, c, d := bbox.MinLng, bbox.MinLat, bbox.MaxLng, bbox.MaxLat
	return &a, &b, &c, &d
}
