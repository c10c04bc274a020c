package model

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() TripSnapshot {
	name := "散策"
	address := "San Martin 100"
	return TripSnapshot{
		Days: []Day{
			{
				ID:       "day-1",
				Name:     "Dia 1",
				DayColor: DayColors[0],
				Routes: []Route{
					{
						ID:           "route-1",
						Name:         &name,
						RouteProfile: ProfileWalking,
						Places: []Place{
							{ID: "place-1", Name: "Plaza", Coordinates: orb.Point{-68.845, -32.889}, Address: &address},
						},
						CustomRoutes: []CustomRoute{},
					},
				},
				PointsOfInterest: []PointOfInterest{},
			},
		},
		SearchPins: []SearchPin{},
	}
}

func TestTripSnapshot_Clone(t *testing.T) {
	t.Run("コピーの変更は元に影響しない", func(t *testing.T) {
		original := sampleSnapshot()

		clone := original.Clone()
		clone.Days[0].Name = "変更後"
		*clone.Days[0].Routes[0].Name = "別の名前"
		clone.Days[0].Routes[0].Places[0].Coordinates = orb.Point{0, 0}
		*clone.Days[0].Routes[0].Places[0].Address = "書き換え"

		assert.Equal(t, "Dia 1", original.Days[0].Name)
		assert.Equal(t, "散策", *original.Days[0].Routes[0].Name)
		assert.Equal(t, orb.Point{-68.845, -32.889}, original.Days[0].Routes[0].Places[0].Coordinates)
		assert.Equal(t, "San Martin 100", *original.Days[0].Routes[0].Places[0].Address)
	})
}

func TestTripSnapshot_Equal(t *testing.T) {
	t.Run("同一内容のスナップショットは等しい", func(t *testing.T) {
		a := sampleSnapshot()
		b := sampleSnapshot()

		assert.True(t, a.Equal(&b))
	})

	t.Run("内容が異なれば等しくない", func(t *testing.T) {
		a := sampleSnapshot()
		b := sampleSnapshot()
		b.Days[0].DayColor = DayColors[3]

		assert.False(t, a.Equal(&b))
	})

	t.Run("クローンは元と等しい", func(t *testing.T) {
		original := sampleSnapshot()
		clone := original.Clone()

		assert.True(t, original.Equal(&clone))
	})
}

func TestTripSnapshot_IsEmpty(t *testing.T) {
	empty := EmptySnapshot()
	assert.True(t, empty.IsEmpty())

	withDay := sampleSnapshot()
	assert.False(t, withDay.IsEmpty())

	withPin := EmptySnapshot()
	withPin.SearchPins = append(withPin.SearchPins, SearchPin{ID: "pin-1", Name: "候補", Coordinates: orb.Point{0, 0}})
	assert.False(t, withPin.IsEmpty())
}

func TestValidateManualPoi(t *testing.T) {
	t.Run("前後の空白だけの名前は拒否される", func(t *testing.T) {
		assert.Error(t, ValidateManualPoi("  ", nil))
	})

	t.Run("文字数制限は文字単位で数える", func(t *testing.T) {
		// マルチバイト文字100文字はちょうど上限
		name := ""
		for i := 0; i < MaxPoiNameLength; i++ {
			name += "あ"
		}
		require.NoError(t, ValidateManualPoi(name, nil))
		assert.Error(t, ValidateManualPoi(name+"あ", nil))
	})
}
