package model

// DefaultTripName ユーザーに既存のTripがない場合に自動作成されるTripの名前
const DefaultTripName = "Mi Viaje"

// DayColors 日ごとに割り当てるカラーパレット（8色で循環）
var DayColors = []string{
	"#3B82F6", // blue
	"#EF4444", // red
	"#10B981", // green
	"#F59E0B", // amber
	"#8B5CF6", // purple
	"#EC4899", // pink
	"#06B6D4", // cyan
	"#F97316", // orange
}

// DayColorForIndex 日のインデックスからパレットの色を決定的に取得
func DayColorForIndex(dayIndex int) string {
	return DayColors[dayIndex%len(DayColors)]
}

// DefaultDayColor day_color 列が空だった場合のフォールバック色
const DefaultDayColor = "#EF4444"

// DefaultRouteProfile 新規ルート作成時のデフォルト移動手段
const DefaultRouteProfile = ProfileDriving

// 手動POIのバリデーション上限
const (
	MaxPoiNameLength = 100
	MaxPoiNoteLength = 500
)
