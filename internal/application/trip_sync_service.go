package application

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/AgusMolinaCode/map-trip/internal/domain/model"
	"github.com/AgusMolinaCode/map-trip/internal/domain/repository"
	"github.com/AgusMolinaCode/map-trip/internal/domain/store"
	repoImpl "github.com/AgusMolinaCode/map-trip/internal/repository"
)

// SyncStatus 同期エンジンの状態
type SyncStatus string

const (
	StatusIdle    SyncStatus = "idle"
	StatusLoading SyncStatus = "loading"
	StatusSaving  SyncStatus = "saving"
	StatusSaved   SyncStatus = "saved"
	StatusError   SyncStatus = "error"
)

// デフォルトのタイミング設定
const (
	// DefaultDebounceDelay 変更後にこの時間操作がなければ保存する
	DefaultDebounceDelay = 1 * time.Second
	// DefaultSavedDisplayDelay saved 状態をUIに見せてから idle に戻るまでの時間
	DefaultSavedDisplayDelay = 2 * time.Second
)

// TripSyncService ストアの変更をリモートストアへ差分同期するエンジン
//
// 起動時にリモートの行をストアへロードし、以後はストアの変更を観測して
// デバウンス付きでアップサート＋差分削除をプッシュする
type TripSyncService interface {
	// Start リモートのTripを取得（なければ作成）してストアに初期状態をロードする
	Start(ctx context.Context) error

	// ForceSave デバウンスを待たずに即時保存する（画面遷移前のフラッシュ用）
	ForceSave(ctx context.Context) error

	// Status 現在の同期状態を取得
	Status() SyncStatus

	// LastError 直近の同期エラーメッセージ（エラーがなければ空文字列）
	LastError() string

	// TripID 同期対象のTrip ID（Start完了前は空文字列）
	TripID() string

	// Stop 観測とタイマーを停止する
	Stop()
}

// tripSyncServiceImpl TripSyncServiceの実装
type tripSyncServiceImpl struct {
	store *store.TripStore
	repo  repository.TripRepository

	debounceDelay     time.Duration
	savedDisplayDelay time.Duration

	// mu は status / lastErr / baseline / タイマーを保護する
	mu            sync.Mutex
	status        SyncStatus
	lastErr       string
	tripID        string
	baselineSnap  model.TripSnapshot
	baselineBytes []byte
	debounceTimer *time.Timer
	savedTimer    *time.Timer
	unsubscribe   func()
	stopped       bool

	// pushMu は強制保存とデバウンス発火のプッシュが交錯しないよう直列化する
	pushMu sync.Mutex
}

// NewTripSyncService デフォルトのタイミング設定で同期エンジンを作成
func NewTripSyncService(tripStore *store.TripStore, repo repository.TripRepository) TripSyncService {
	return NewTripSyncServiceWithDelays(tripStore, repo, DefaultDebounceDelay, DefaultSavedDisplayDelay)
}

// NewTripSyncServiceWithDelays タイミングを指定して同期エンジンを作成（テスト用）
func NewTripSyncServiceWithDelays(
	tripStore *store.TripStore,
	repo repository.TripRepository,
	debounceDelay time.Duration,
	savedDisplayDelay time.Duration,
) TripSyncService {
	return &tripSyncServiceImpl{
		store:             tripStore,
		repo:              repo,
		debounceDelay:     debounceDelay,
		savedDisplayDelay: savedDisplayDelay,
		status:            StatusIdle,
	}
}

// Start 初期ロードを実行する
//
// リモートが空でローカルに既にデータがある場合はストアを上書きしない。
// 空の読み取りはRLSの設定不備による false-empty の可能性があり、
// 上書きするとローカルの編集内容を失うため
func (s *tripSyncServiceImpl) Start(ctx context.Context) error {
	s.setStatus(StatusLoading, "")
	log.Printf("🚀 同期エンジン起動: リモートTripをロード中...")

	trip, err := s.repo.GetFirstOwnTrip(ctx)
	if err != nil {
		s.setStatus(StatusError, fmt.Sprintf("Tripの取得失敗: %v", err))
		return fmt.Errorf("Tripの取得失敗: %w", err)
	}

	if trip == nil {
		log.Printf("➕ 既存のTripがないため新規作成します")
		trip, err = s.repo.CreateTrip(ctx, model.DefaultTripName)
		if err != nil {
			s.setStatus(StatusError, fmt.Sprintf("Tripの作成失敗: %v", err))
			return fmt.Errorf("Tripの作成失敗: %w", err)
		}
	}

	s.mu.Lock()
	s.tripID = trip.ID
	s.mu.Unlock()

	rows, err := s.repo.PullRows(ctx, trip.ID)
	if err != nil {
		s.setStatus(StatusError, fmt.Sprintf("リモートデータの取得失敗: %v", err))
		return fmt.Errorf("リモートデータの取得失敗: %w", err)
	}

	remote := repoImpl.AssembleTrip(rows)
	local := s.store.Snapshot()

	if remote.IsEmpty() && !local.IsEmpty() {
		// false-empty ガード: ローカルを正とみなして上書きしない
		log.Printf("⚠️ リモートが空を返しましたがローカルにデータがあります。データ消失防止のため上書きしません")
		log.Printf("⚠️ SupabaseのRLSポリシー設定に問題がある可能性があります")
	} else {
		s.store.Replace(remote)
	}

	// ストアに残った状態を同期済みベースラインとして記録する
	seeded := s.store.Snapshot()
	seededBytes, err := seeded.Serialize()
	if err != nil {
		s.setStatus(StatusError, fmt.Sprintf("ベースラインの記録失敗: %v", err))
		return fmt.Errorf("ベースラインの記録失敗: %w", err)
	}

	s.mu.Lock()
	s.baselineSnap = seeded
	s.baselineBytes = seededBytes
	s.status = StatusIdle
	s.lastErr = ""
	// ベースライン確定後に観測を開始する（loading 中に saving へ入らない）
	s.unsubscribe = s.store.Subscribe(s.onStoreChange)
	s.mu.Unlock()

	log.Printf("✅ 同期エンジン初期化完了 (Trip: %s, Days: %d, SearchPins: %d)",
		trip.ID, len(seeded.Days), len(seeded.SearchPins))
	return nil
}

// onStoreChange ストアの変更ごとにデバウンスタイマーを張り直す
// タイマーは積み上げず置き換えるため、静止期間が経過するまで保存は1回も走らない
func (s *tripSyncServiceImpl) onStoreChange(snapshot model.TripSnapshot) {
	data, err := snapshot.Serialize()
	if err != nil {
		log.Printf("❌ スナップショットのシリアライズ失敗（変更を無視）: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.status == StatusLoading {
		return
	}
	// ベースラインと同一なら保存不要（観測者の空振りによる冗長保存を防ぐ）
	if bytes.Equal(data, s.baselineBytes) {
		return
	}

	s.armDebounceLocked()
}

// armDebounceLocked デバウンスタイマーを張り直す（呼び出し側でs.muを保持する）
func (s *tripSyncServiceImpl) armDebounceLocked() {
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(s.debounceDelay, func() {
		if err := s.push(context.Background()); err != nil {
			log.Printf("❌ 自動保存失敗: %v", err)
		}
	})
}

// ForceSave 保留中のデバウンスをキャンセルして即時プッシュする
func (s *tripSyncServiceImpl) ForceSave(ctx context.Context) error {
	s.mu.Lock()
	if s.tripID == "" {
		s.mu.Unlock()
		return fmt.Errorf("同期エンジンが初期化されていません")
	}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	s.mu.Unlock()

	return s.push(ctx)
}

// push 現在のスナップショットとベースラインの差分をリモートへ反映する
//
// アップサートは親→子の順（Day → Route → Place/CustomRoute、Day → POI）、
// 削除は子→親の順。削除対象はベースラインとの集合差分で決定する
// （リモートの再読込はしない）
func (s *tripSyncServiceImpl) push(ctx context.Context) error {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	tripID := s.tripID
	baselineSnap := s.baselineSnap
	baselineBytes := s.baselineBytes
	s.status = StatusSaving
	s.lastErr = ""
	s.mu.Unlock()

	current := s.store.Snapshot()
	currentBytes, err := current.Serialize()
	if err != nil {
		s.setStatus(StatusError, fmt.Sprintf("スナップショットのシリアライズ失敗: %v", err))
		return fmt.Errorf("スナップショットのシリアライズ失敗: %w", err)
	}

	if bytes.Equal(currentBytes, baselineBytes) {
		s.setStatus(StatusIdle, "")
		return nil
	}

	currentRows := repoImpl.FlattenTrip(tripID, &current)
	baselineRows := repoImpl.FlattenTrip(tripID, &baselineSnap)

	if err := s.pushUpserts(ctx, currentRows); err != nil {
		s.setStatus(StatusError, err.Error())
		return err
	}
	if err := s.pushDeletes(ctx, baselineRows, currentRows); err != nil {
		s.setStatus(StatusError, err.Error())
		return err
	}

	// 成功時のみベースラインを前進させる
	// 失敗時は据え置き、次の変更か強制保存で同じ差分をリトライする
	s.mu.Lock()
	s.baselineSnap = current
	s.baselineBytes = currentBytes
	s.status = StatusSaved
	if s.savedTimer != nil {
		s.savedTimer.Stop()
	}
	s.savedTimer = time.AfterFunc(s.savedDisplayDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.status == StatusSaved {
			s.status = StatusIdle
		}
	})
	s.mu.Unlock()

	// プッシュ中にプッシュ前の内容へ巻き戻された変更は、観測時点の
	// ベースライン比較では検出されない。コミット後にストアと新ベースラインを
	// 突き合わせ、ずれが残っていればデバウンスを張り直す
	latest := s.store.Snapshot()
	if latestBytes, serr := latest.Serialize(); serr == nil && !bytes.Equal(latestBytes, currentBytes) {
		s.mu.Lock()
		if !s.stopped {
			s.armDebounceLocked()
		}
		s.mu.Unlock()
	}

	log.Printf("💾 同期完了 (Days: %d, Routes: %d, Places: %d)",
		len(currentRows.Days), len(currentRows.Routes), len(currentRows.Places))
	return nil
}

// pushUpserts 現在の全行を親→子の順でアップサートする
func (s *tripSyncServiceImpl) pushUpserts(ctx context.Context, rows *model.TripRows) error {
	for _, row := range rows.Days {
		if err := s.repo.UpsertDay(ctx, row); err != nil {
			return fmt.Errorf("Dayの保存失敗: %w", err)
		}
	}
	for _, row := range rows.Routes {
		if err := s.repo.UpsertRoute(ctx, row); err != nil {
			return fmt.Errorf("Routeの保存失敗: %w", err)
		}
	}
	for _, row := range rows.Places {
		if err := s.repo.UpsertPlace(ctx, row); err != nil {
			return fmt.Errorf("Placeの保存失敗: %w", err)
		}
	}
	for _, row := range rows.CustomRoutes {
		if err := s.repo.UpsertCustomRoute(ctx, row); err != nil {
			return fmt.Errorf("カスタムルートの保存失敗: %w", err)
		}
	}
	for _, row := range rows.PointsOfInterest {
		if err := s.repo.UpsertPointOfInterest(ctx, row); err != nil {
			return fmt.Errorf("POIの保存失敗: %w", err)
		}
	}
	for _, row := range rows.SearchPins {
		if err := s.repo.UpsertSearchPin(ctx, row); err != nil {
			return fmt.Errorf("検討用ピンの保存失敗: %w", err)
		}
	}
	return nil
}

// pushDeletes ベースラインにあって現在にないIDを子→親の順で削除する
// 親の削除はストレージ側でカスケードするため子の明示削除は冗長だが害はない
func (s *tripSyncServiceImpl) pushDeletes(ctx context.Context, baseline, current *model.TripRows) error {
	for _, id := range diffCustomRouteIDs(baseline, current) {
		if err := s.repo.DeleteCustomRoute(ctx, id); err != nil {
			return fmt.Errorf("カスタムルートの削除失敗: %w", err)
		}
	}
	for _, id := range diffPlaceIDs(baseline, current) {
		if err := s.repo.DeletePlace(ctx, id); err != nil {
			return fmt.Errorf("Placeの削除失敗: %w", err)
		}
	}
	for _, id := range diffPoiIDs(baseline, current) {
		if err := s.repo.DeletePointOfInterest(ctx, id); err != nil {
			return fmt.Errorf("POIの削除失敗: %w", err)
		}
	}
	for _, id := range diffSearchPinIDs(baseline, current) {
		if err := s.repo.DeleteSearchPin(ctx, id); err != nil {
			return fmt.Errorf("検討用ピンの削除失敗: %w", err)
		}
	}
	for _, id := range diffRouteIDs(baseline, current) {
		if err := s.repo.DeleteRoute(ctx, id); err != nil {
			return fmt.Errorf("Routeの削除失敗: %w", err)
		}
	}
	for _, id := range diffDayIDs(baseline, current) {
		if err := s.repo.DeleteDay(ctx, id); err != nil {
			return fmt.Errorf("Dayの削除失敗: %w", err)
		}
	}
	return nil
}

func (s *tripSyncServiceImpl) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *tripSyncServiceImpl) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *tripSyncServiceImpl) TripID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tripID
}

// Stop 観測とタイマーを停止する
// 実行中のプッシュはキャンセルしない（完了まで走り切る）
func (s *tripSyncServiceImpl) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	if s.savedTimer != nil {
		s.savedTimer.Stop()
		s.savedTimer = nil
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *tripSyncServiceImpl) setStatus(status SyncStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.lastErr = errMsg
}

// ---- テーブルごとのID集合差分 ----

func diffDayIDs(baseline, current *model.TripRows) []string {
	currentIDs := map[string]bool{}
	for _, r := range current.Days {
		currentIDs[r.ID] = true
	}
	var removed []string
	for _, r := range baseline.Days {
		if !currentIDs[r.ID] {
			removed = append(removed, r.ID)
		}
	}
	return removed
}

func diffRouteIDs(baseline, current *model.TripRows) []string {
	currentIDs := map[string]bool{}
	for _, r := range current.Routes {
		currentIDs[r.ID] = true
	}
	var removed []string
	for _, r := range baseline.Routes {
		if !currentIDs[r.ID] {
			removed = append(removed, r.ID)
		}
	}
	return removed
}

func diffPlaceIDs(baseline, current *model.TripRows) []string {
	currentIDs := map[string]bool{}
	for _, r := range current.Places {
		currentIDs[r.ID] = true
	}
	var removed []string
	for _, r := range baseline.Places {
		if !currentIDs[r.ID] {
			removed = append(removed, r.ID)
		}
	}
	return removed
}

func diffCustomRouteIDs(baseline, current *model.TripRows) []string {
	currentIDs := map[string]bool{}
	for _, r := range current.CustomRoutes {
		currentIDs[r.ID] = true
	}
	var removed []string
	for _, r := range baseline.CustomRoutes {
		if !currentIDs[r.ID] {
			removed = append(removed, r.ID)
		}
	}
	return removed
}

func diffPoiIDs(baseline, current *model.TripRows) []string {
	currentIDs := map[string]bool{}
	for _, r := range current.PointsOfInterest {
		currentIDs[r.ID] = true
	}
	var removed []string
	for _, r := range baseline.PointsOfInterest {
		if !currentIDs[r.ID] {
			removed = append(removed, r.ID)
		}
	}
	return removed
}

func diffSearchPinIDs(baseline, current *model.TripRows) []string {
	currentIDs := map[string]bool{}
	for _, r := range current.SearchPins {
		currentIDs[r.ID] = true
	}
	var removed []string
	for _, r := range baseline.SearchPins {
		if !currentIDs[r.ID] {
			removed = append(removed, r.ID)
		}
	}
	return removed
}
