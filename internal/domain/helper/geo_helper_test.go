package helper

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
)

func TestGeoHelpers(t *testing.T) {
	t.Run("直線ジオメトリは入力座標をそのまま結ぶ", func(t *testing.T) {
		geometry := StraightLineGeometry([]orb.Point{{-68.845, -32.889}, {-68.882, -32.884}})

		assert.Equal(t, "LineString", geometry.Type)
		require.Len(t, geometry.Coordinates, 2)
		assert.Equal(t, []float64{-68.845, -32.889}, geometry.Coordinates[0])
	})

	t.Run("境界ボックスはジオメトリ全体を余白付きで含む", func(t *testing.T) {
		geometry := StraightLineGeometry([]orb.Point{{-68.845, -32.889}, {-68.882, -32.884}})

		bbox := GeometryBound(&geometry)

		require.NotNil(t, bbox)
		assert.Less(t, bbox.MinLng, -68.882)
		assert.Greater(t, bbox.MaxLng, -68.845)
		assert.Less(t, bbox.MinLat, -32.889)
		assert.Greater(t, bbox.MaxLat, -32.884)
	})

	t.Run("空ジオメトリの境界ボックスはnil", func(t *testing.T) {
		geometry := model.Geometry{Type: "LineString"}

		assert.Nil(t, GeometryBound(&geometry))
	})

	t.Run("キャッシュキーは座標とプロファイルに対して決定的", func(t *testing.T) {
		coords := []orb.Point{{-68.845, -32.889}, {-68.882, -32.884}}

		key1 := RouteCacheKey(model.ProfileWalking, coords)
		key2 := RouteCacheKey(model.ProfileWalking, coords)
		key3 := RouteCacheKey(model.ProfileDriving, coords)

		assert.Equal(t, key1, key2)
		assert.NotEqual(t, key1, key3)
	})
}
