package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"github.com/AgusMolinaCode/map-trip/internal/domain/helper"
	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
	"github.com/AgusMolinaCode/map-trip/internal/usecase"
)

// TripHandler 旅程編集APIのハンドラー
type TripHandler struct {
	tripUseCase usecase.TripUseCase
}

// NewTripHandler 新しいTripHandlerインスタンスを作成
func NewTripHandler(tripUseCase usecase.TripUseCase) *TripHandler {
	return &TripHandler{tripUseCase: tripUseCase}
}

// ValidationError リクエストの検証エラー
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ---- リクエストDTO ----

type coordinatesRequest struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

func (r *coordinatesRequest) validate(field string) error {
	if r.Lat < -90 || r.Lat > 90 {
		return &ValidationError{Field: field + ".lat", Message: "緯度は-90から90の範囲で指定してください"}
	}
	if r.Lng < -180 || r.Lng > 180 {
		return &ValidationError{Field: field + ".lng", Message: "経度は-180から180の範囲で指定してください"}
	}
	return nil
}

func (r *coordinatesRequest) toPoint() orb.Point {
	return orb.Point{r.Lng, r.Lat}
}

type boundingBoxRequest struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

func (r *boundingBoxRequest) toModel() *model.BoundingBox {
	return &model.BoundingBox{
		MinLng: r.MinLng,
		MinLat: r.MinLat,
		MaxLng: r.MaxLng,
		MaxLat: r.MaxLat,
	}
}

type colorRequest struct {
	Color string `json:"color" binding:"required"`
}

type createRouteRequest struct {
	Name string `json:"name"`
}

type routeProfileRequest struct {
	Profile string `json:"profile" binding:"required"`
}

type placeRequest struct {
	ID          string              `json:"id"`
	Name        string              `json:"name" binding:"required"`
	Coordinates coordinatesRequest  `json:"coordinates"`
	Address     *string             `json:"address"`
	BBox        *boundingBoxRequest `json:"bbox"`
}

func (r *placeRequest) toModel() model.Place {
	place := model.Place{
		ID:          r.ID,
		Name:        r.Name,
		Coordinates: r.Coordinates.toPoint(),
		Address:     r.Address,
	}
	if r.BBox != nil {
		place.BBox = r.BBox.toModel()
	}
	return place
}

type reorderPlacesRequest struct {
	Places []placeRequest `json:"places" binding:"required"`
}

type placeInfoRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

type customRouteRequest struct {
	FromPlaceID string      `json:"from_place_id" binding:"required"`
	ToPlaceID   string      `json:"to_place_id" binding:"required"`
	Coordinates [][]float64 `json:"coordinates" binding:"required"`
}

type routePathRequest struct {
	Coordinates []coordinatesRequest `json:"coordinates" binding:"required"`
	Profile     string               `json:"profile"`
}

type poiRequest struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Coordinates coordinatesRequest `json:"coordinates"`
	Address     *string            `json:"address"`
	Note        *string            `json:"note"`
	IsManual    bool               `json:"is_manual"`
}

type poiInfoRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

type searchPinRequest struct {
	ID          string              `json:"id"`
	Name        string              `json:"name" binding:"required"`
	Coordinates coordinatesRequest  `json:"coordinates"`
	Address     *string             `json:"address"`
	BBox        *boundingBoxRequest `json:"bbox"`
}

// ---- ハンドラー ----

// GetTrip GET /trip - 現在の旅程スナップショットを取得
func (h *TripHandler) GetTrip(c *gin.Context) {
	c.JSON(http.StatusOK, h.tripUseCase.Snapshot())
}

// PostDay POST /trip/days - 日を追加
func (h *TripHandler) PostDay(c *gin.Context) {
	dayID := h.tripUseCase.AddDay()
	c.JSON(http.StatusCreated, gin.H{"id": dayID})
}

// DeleteDay DELETE /trip/days/:dayId - 日を削除（配下のルート・POIも削除）
func (h *TripHandler) DeleteDay(c *gin.Context) {
	h.tripUseCase.RemoveDay(c.Param("dayId"))
	c.Status(http.StatusNoContent)
}

// PutDayColor PUT /trip/days/:dayId/color - 日の表示色を変更
func (h *TripHandler) PutDayColor(c *gin.Context) {
	var req colorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	h.tripUseCase.SetDayColor(c.Param("dayId"), req.Color)
	c.Status(http.StatusNoContent)
}

// PostRoute POST /trip/days/:dayId/routes - ルートを追加
func (h *TripHandler) PostRoute(c *gin.Context) {
	var req createRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	routeID := h.tripUseCase.AddRoute(c.Param("dayId"), req.Name)
	c.JSON(http.StatusCreated, gin.H{"id": routeID})
}

// DeleteRoute DELETE /trip/days/:dayId/routes/:routeId
func (h *TripHandler) DeleteRoute(c *gin.Context) {
	h.tripUseCase.RemoveRoute(c.Param("dayId"), c.Param("routeId"))
	c.Status(http.StatusNoContent)
}

// PutRouteProfile PUT /trip/days/:dayId/routes/:routeId/profile - 移動手段を変更
func (h *TripHandler) PutRouteProfile(c *gin.Context) {
	var req routeProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.tripUseCase.SetRouteProfile(c.Param("dayId"), c.Param("routeId"), model.RouteProfile(req.Profile)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// PutRouteColor PUT /trip/days/:dayId/routes/:routeId/color
func (h *TripHandler) PutRouteColor(c *gin.Context) {
	var req colorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	h.tripUseCase.SetRouteColor(c.Param("dayId"), c.Param("routeId"), req.Color)
	c.Status(http.StatusNoContent)
}

// PostPlace POST /trip/days/:dayId/routes/:routeId/places - 経由地を追加
func (h *TripHandler) PostPlace(c *gin.Context) {
	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := req.Coordinates.validate("coordinates"); err != nil {
		respondValidationError(c, err)
		return
	}
	placeID := h.tripUseCase.AddPlace(c.Param("dayId"), c.Param("routeId"), req.toModel())
	c.JSON(http.StatusCreated, gin.H{"id": placeID})
}

// DeletePlace DELETE /trip/days/:dayId/routes/:routeId/places/:placeId
func (h *TripHandler) DeletePlace(c *gin.Context) {
	h.tripUseCase.RemovePlace(c.Param("dayId"), c.Param("routeId"), c.Param("placeId"))
	c.Status(http.StatusNoContent)
}

// PutPlacesOrder PUT /trip/days/:dayId/routes/:routeId/places/order - 経由地を並べ替え
func (h *TripHandler) PutPlacesOrder(c *gin.Context) {
	var req reorderPlacesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	places := make([]model.Place, 0, len(req.Places))
	for _, p := range req.Places {
		places = append(places, p.toModel())
	}
	h.tripUseCase.ReorderPlaces(c.Param("dayId"), c.Param("routeId"), places)
	c.Status(http.StatusNoContent)
}

// PutPlaceCoordinates PUT /trip/days/:dayId/routes/:routeId/places/:placeId/coordinates
func (h *TripHandler) PutPlaceCoordinates(c *gin.Context) {
	var req coordinatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := req.validate("coordinates"); err != nil {
		respondValidationError(c, err)
		return
	}
	h.tripUseCase.UpdatePlaceCoordinates(c.Param("dayId"), c.Param("routeId"), c.Param("placeId"), req.toPoint())
	c.Status(http.StatusNoContent)
}

// PutPlaceInfo PUT /trip/days/:dayId/routes/:routeId/places/:placeId/info - 名前と住所を更新
func (h *TripHandler) PutPlaceInfo(c *gin.Context) {
	var req placeInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	h.tripUseCase.UpdatePlaceInfo(c.Param("dayId"), c.Param("routeId"), c.Param("placeId"), req.Name, req.Address)
	c.Status(http.StatusNoContent)
}

// PutCustomRoute PUT /trip/days/:dayId/routes/:routeId/custom-routes - 手描き区間を設定
func (h *TripHandler) PutCustomRoute(c *gin.Context) {
	var req customRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if len(req.Coordinates) < 2 {
		respondValidationError(c, &ValidationError{Field: "coordinates", Message: "座標は2点以上指定してください"})
		return
	}
	h.tripUseCase.SetCustomRoute(c.Param("dayId"), c.Param("routeId"), model.CustomRoute{
		FromPlaceID: req.FromPlaceID,
		ToPlaceID:   req.ToPlaceID,
		Geometry: model.Geometry{
			Type:        "LineString",
			Coordinates: req.Coordinates,
		},
	})
	c.Status(http.StatusNoContent)
}

// DeleteCustomRoute DELETE /trip/days/:dayId/routes/:routeId/custom-routes/:fromPlaceId/:toPlaceId
func (h *TripHandler) DeleteCustomRoute(c *gin.Context) {
	h.tripUseCase.RemoveCustomRoute(c.Param("dayId"), c.Param("routeId"), c.Param("fromPlaceId"), c.Param("toPlaceId"))
	c.Status(http.StatusNoContent)
}

// PostRoutePath POST /routes/path - 座標列から経路ジオメトリを取得
func (h *TripHandler) PostRoutePath(c *gin.Context) {
	var req routePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if len(req.Coordinates) < 2 {
		respondValidationError(c, &ValidationError{Field: "coordinates", Message: "座標は2点以上指定してください"})
		return
	}
	coords := make([]orb.Point, 0, len(req.Coordinates))
	for _, cr := range req.Coordinates {
		if err := cr.validate("coordinates"); err != nil {
			respondValidationError(c, err)
			return
		}
		coords = append(coords, cr.toPoint())
	}
	profile := model.RouteProfile(req.Profile)
	if req.Profile == "" {
		profile = model.DefaultRouteProfile
	}
	if !profile.IsValid() {
		respondValidationError(c, &ValidationError{Field: "profile", Message: "無効な移動プロファイルです"})
		return
	}

	details, err := h.tripUseCase.FetchRoutePath(c.Request.Context(), coords, profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "routing_error",
			"message": "経路の取得に失敗しました: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"geometry":         details.Geometry,
		"bbox":             helper.GeometryBound(&details.Geometry),
		"distance_meters":  details.DistanceMeters,
		"duration_seconds": details.DurationSeconds,
	})
}

// PostPoi POST /trip/days/:dayId/pois - 単独POIを追加
func (h *TripHandler) PostPoi(c *gin.Context) {
	var req poiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := req.Coordinates.validate("coordinates"); err != nil {
		respondValidationError(c, err)
		return
	}
	poiID, err := h.tripUseCase.AddPointOfInterest(c.Param("dayId"), model.PointOfInterest{
		ID:          req.ID,
		Name:        req.Name,
		Coordinates: req.Coordinates.toPoint(),
		Address:     req.Address,
		Note:        req.Note,
		IsManual:    req.IsManual,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": poiID})
}

// DeletePoi DELETE /trip/days/:dayId/pois/:poiId
func (h *TripHandler) DeletePoi(c *gin.Context) {
	h.tripUseCase.RemovePointOfInterest(c.Param("dayId"), c.Param("poiId"))
	c.Status(http.StatusNoContent)
}

// PutPoiCoordinates PUT /trip/days/:dayId/pois/:poiId/coordinates
func (h *TripHandler) PutPoiCoordinates(c *gin.Context) {
	var req coordinatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := req.validate("coordinates"); err != nil {
		respondValidationError(c, err)
		return
	}
	h.tripUseCase.UpdatePoiCoordinates(c.Param("dayId"), c.Param("poiId"), req.toPoint())
	c.Status(http.StatusNoContent)
}

// PutPoiInfo PUT /trip/days/:dayId/pois/:poiId/info - 逆ジオコーディング結果を反映
// 手動POIの名前は維持される
func (h *TripHandler) PutPoiInfo(c *gin.Context) {
	var req poiInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	h.tripUseCase.UpdatePoiInfo(c.Param("dayId"), c.Param("poiId"), req.Name, req.Address)
	c.Status(http.StatusNoContent)
}

// PostSearchPin POST /trip/search-pins - 検討用ピンを追加
func (h *TripHandler) PostSearchPin(c *gin.Context) {
	var req searchPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := req.Coordinates.validate("coordinates"); err != nil {
		respondValidationError(c, err)
		return
	}
	pin := model.SearchPin{
		ID:          req.ID,
		Name:        req.Name,
		Coordinates: req.Coordinates.toPoint(),
		Address:     req.Address,
	}
	if req.BBox != nil {
		pin.BBox = req.BBox.toModel()
	}
	pinID := h.tripUseCase.AddSearchPin(pin)
	c.JSON(http.StatusCreated, gin.H{"id": pinID})
}

// DeleteSearchPin DELETE /trip/search-pins/:pinId
func (h *TripHandler) DeleteSearchPin(c *gin.Context) {
	h.tripUseCase.RemoveSearchPin(c.Param("pinId"))
	c.Status(http.StatusNoContent)
}

// DeleteSearchPins DELETE /trip/search-pins - 検討用ピンを全削除
func (h *TripHandler) DeleteSearchPins(c *gin.Context) {
	h.tripUseCase.ClearSearchPins()
	c.Status(http.StatusNoContent)
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": "リクエストの形式が正しくありません: " + err.Error(),
	})
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "validation_error",
		"message": err.Error(),
	})
}
