package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
	"github.com/AgusMolinaCode/map-trip/internal/domain/store"
	"github.com/AgusMolinaCode/map-trip/internal/usecase"
)

// setupTestRouter ルーティングなし（経路統計無効）のAPIルーターを組み立てる
func setupTestRouter() (*gin.Engine, *store.TripStore) {
	gin.SetMode(gin.TestMode)

	tripStore := store.NewTripStore()
	tripUseCase := usecase.NewTripUseCase(tripStore, nil)
	tripHandler := NewTripHandler(tripUseCase)

	router := gin.New()
	router.GET("/trip", tripHandler.GetTrip)
	router.POST("/trip/days", tripHandler.PostDay)
	router.DELETE("/trip/days/:dayId", tripHandler.DeleteDay)
	router.POST("/trip/days/:dayId/routes", tripHandler.PostRoute)
	router.PUT("/trip/days/:dayId/routes/:routeId/profile", tripHandler.PutRouteProfile)
	router.POST("/trip/days/:dayId/routes/:routeId/places", tripHandler.PostPlace)
	router.POST("/trip/days/:dayId/pois", tripHandler.PostPoi)
	router.PUT("/trip/days/:dayId/pois/:poiId/info", tripHandler.PutPoiInfo)
	router.POST("/routes/path", tripHandler.PostRoutePath)
	return router, tripStore
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createdID(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["id"])
	return resp["id"]
}

func TestTripHandler_DayAndRouteFlow(t *testing.T) {
	router, tripStore := setupTestRouter()

	dayID := createdID(t, doJSON(router, http.MethodPost, "/trip/days", nil))
	routeID := createdID(t, doJSON(router, http.MethodPost, "/trip/days/"+dayID+"/routes", map[string]string{"name": "市内散策"}))

	t.Run("スナップショット取得に作成した日とルートが含まれる", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/trip", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var snap model.TripSnapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		require.Len(t, snap.Days, 1)
		assert.Equal(t, dayID, snap.Days[0].ID)
		require.Len(t, snap.Days[0].Routes, 1)
		assert.Equal(t, routeID, snap.Days[0].Routes[0].ID)
	})

	t.Run("有効なプロファイル変更は204", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/trip/days/"+dayID+"/routes/"+routeID+"/profile", map[string]string{"profile": "walking"})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, model.ProfileWalking, tripStore.Snapshot().Days[0].Routes[0].RouteProfile)
	})

	t.Run("無効なプロファイルは400", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/trip/days/"+dayID+"/routes/"+routeID+"/profile", map[string]string{"profile": "flying"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("日の削除後はスナップショットが空になる", func(t *testing.T) {
		w := doJSON(router, http.MethodDelete, "/trip/days/"+dayID, nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, tripStore.Snapshot().Days)
	})
}

func TestTripHandler_PlaceValidation(t *testing.T) {
	router, _ := setupTestRouter()
	dayID := createdID(t, doJSON(router, http.MethodPost, "/trip/days", nil))
	routeID := createdID(t, doJSON(router, http.MethodPost, "/trip/days/"+dayID+"/routes", map[string]string{}))

	t.Run("正常なPlace追加は201でIDを返す", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/trip/days/"+dayID+"/routes/"+routeID+"/places", map[string]any{
			"name":        "Plaza Independencia",
			"coordinates": map[string]float64{"lng": -68.845, "lat": -32.889},
		})

		createdID(t, w)
	})

	t.Run("範囲外の座標は400", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/trip/days/"+dayID+"/routes/"+routeID+"/places", map[string]any{
			"name":        "壊れたピン",
			"coordinates": map[string]float64{"lng": -200, "lat": -32.889},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("名前なしは400", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/trip/days/"+dayID+"/routes/"+routeID+"/places", map[string]any{
			"coordinates": map[string]float64{"lng": -68.845, "lat": -32.889},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTripHandler_PoiEndpoints(t *testing.T) {
	router, tripStore := setupTestRouter()
	dayID := createdID(t, doJSON(router, http.MethodPost, "/trip/days", nil))

	t.Run("手動POIは名前が空だと400", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/trip/days/"+dayID+"/pois", map[string]any{
			"name":        "   ",
			"is_manual":   true,
			"coordinates": map[string]float64{"lng": -68.8, "lat": -32.9},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("手動POIの名前は逆ジオコーディングの更新で維持される", func(t *testing.T) {
		poiID := createdID(t, doJSON(router, http.MethodPost, "/trip/days/"+dayID+"/pois", map[string]any{
			"name":        "Mirador",
			"is_manual":   true,
			"coordinates": map[string]float64{"lng": -68.8, "lat": -32.9},
		}))

		w := doJSON(router, http.MethodPut, "/trip/days/"+dayID+"/pois/"+poiID+"/info", map[string]string{
			"name":    "Parque X",
			"address": "Av. Libertador 123",
		})

		require.Equal(t, http.StatusNoContent, w.Code)
		poi := tripStore.Snapshot().Days[0].PointsOfInterest[0]
		assert.Equal(t, "Mirador", poi.Name)
		require.NotNil(t, poi.Address)
		assert.Equal(t, "Av. Libertador 123", *poi.Address)
	})
}

func TestTripHandler_RoutePath(t *testing.T) {
	router, _ := setupTestRouter()

	t.Run("ルーティング未設定の環境では500", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/routes/path", map[string]any{
			"coordinates": []map[string]float64{
				{"lng": -68.845, "lat": -32.889},
				{"lng": -68.882, "lat": -32.884},
			},
		})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("座標が1点しかなければ400", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/routes/path", map[string]any{
			"coordinates": []map[string]float64{{"lng": -68.845, "lat": -32.889}},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
