package model

import (
	"fmt"
	"strings"
)

// ValidateManualPoi 手動配置POIの入力値を検証する
// 名前は必須（1〜100文字）、メモは500文字まで
func ValidateManualPoi(name string, note *string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("POIの名前は必須です")
	}
	if len([]rune(trimmed)) > MaxPoiNameLength {
		return fmt.Errorf("POIの名前は%d文字以内にしてください", MaxPoiNameLength)
	}
	if note != nil && len([]rune(*note)) > MaxPoiNoteLength {
		return fmt.Errorf("POIのメモは%d文字以内にしてください", MaxPoiNoteLength)
	}
	return nil
}
