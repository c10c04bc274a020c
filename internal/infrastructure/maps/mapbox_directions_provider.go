package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
	"github.com/AgusMolinaCode/map-trip/internal/domain/repository"
)

// MapboxDirectionsProvider はMapbox Directions APIを使用した経路検索の実装
type MapboxDirectionsProvider struct {
	accessToken string
	httpClient  *http.Client
}

// NewMapboxDirectionsProvider は新しいプロバイダを生成する
func NewMapboxDirectionsProvider(accessToken string) *MapboxDirectionsProvider {
	return &MapboxDirectionsProvider{
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// GetRoute はMapbox Directions APIを呼び出して経路情報を取得する
// 座標は2点以上必要
func (m *MapboxDirectionsProvider) GetRoute(ctx context.Context, coordinates []orb.Point, profile model.RouteProfile) (*repository.RouteDetails, error) {
	if len(coordinates) < 2 {
		return nil, errors.New("経路検索には2点以上の座標が必要です")
	}
	if !profile.IsValid() {
		return nil, fmt.Errorf("未対応の移動手段プロファイル: %s", profile)
	}

	// 1. APIリクエストURLを構築
	reqURL := m.buildURL(coordinates, profile)

	// 2. HTTPリクエストを作成・実行
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("APIリクエストに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("APIからエラーステータスが返されました: %s", resp.Status)
	}

	// 3. JSONレスポンスをパース
	var apiResp mapboxDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("JSONのパースに失敗: %w", err)
	}

	if len(apiResp.Routes) == 0 {
		return nil, errors.New("APIから有効なルートが返されませんでした")
	}

	// 4. ドメインモデルに変換して返す
	firstRoute := apiResp.Routes[0]
	return &repository.RouteDetails{
		Geometry:        firstRoute.Geometry,
		DistanceMeters:  firstRoute.Distance,
		DurationSeconds: firstRoute.Duration,
	}, nil
}

func (m *MapboxDirectionsProvider) buildURL(coordinates []orb.Point, profile model.RouteProfile) string {
	coordStrings := make([]string, len(coordinates))
	for i, c := range coordinates {
		coordStrings[i] = fmt.Sprintf("%f,%f", c.Lon(), c.Lat())
	}

	params := url.Values{}
	params.Set("geometries", "geojson")
	params.Set("overview", "full")
	params.Set("access_token", m.accessToken)

	return fmt.Sprintf(
		"https://api.mapbox.com/directions/v5/mapbox/%s/%s?%s",
		profile, strings.Join(coordStrings, ";"), params.Encode(),
	)
}

// --- Mapbox Directions APIのレスポンスをパースするための構造体 ---

type mapboxDirectionsResponse struct {
	Routes []mapboxRoute `json:"routes"`
	Code   string        `json:"code"`
}

type mapboxRoute struct {
	Geometry model.Geometry `json:"geometry"`
	Distance float64        `json:"distance"` // meters
	Duration float64        `json:"duration"` // seconds
}
