package helper

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
)

// StraightLineGeometry 座標列を直線で結んだLineStringを作成
// 外部ルート検索が失敗した場合のフォールバック経路として使用する
func StraightLineGeometry(coordinates []orb.Point) model.Geometry {
	line := make(orb.LineString, len(coordinates))
	copy(line, coordinates)
	return model.GeometryFromLineString(line)
}

// GeometryBound ジオメトリ全体を含む境界ボックスを計算（余白付き）
func GeometryBound(geometry *model.Geometry) *model.BoundingBox {
	line := geometry.ToLineString()
	if len(line) == 0 {
		return nil
	}
	bound := line.Bound()
	// 地図表示用に約100m程度の余白を持たせる
	bound = bound.Pad(0.001)
	return model.BoundingBoxFromBound(bound)
}

// RouteCacheKey 移動手段プロファイルと座標列から決定的なキャッシュキーを導出
func RouteCacheKey(profile model.RouteProfile, coordinates []orb.Point) string {
	var sb strings.Builder
	sb.WriteString(string(profile))
	for _, c := range coordinates {
		sb.WriteString(fmt.Sprintf(";%f,%f", c.Lon(), c.Lat()))
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
