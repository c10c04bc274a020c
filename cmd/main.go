package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/AgusMolinaCode/map-trip/internal/application"
	"github.com/AgusMolinaCode/map-trip/internal/domain/helper"
	"github.com/AgusMolinaCode/map-trip/internal/domain/repository"
	"github.com/AgusMolinaCode/map-trip/internal/domain/service"
	"github.com/AgusMolinaCode/map-trip/internal/domain/store"
	"github.com/AgusMolinaCode/map-trip/internal/handler"
	"github.com/AgusMolinaCode/map-trip/internal/infrastructure/database"
	"github.com/AgusMolinaCode/map-trip/internal/infrastructure/firestore"
	"github.com/AgusMolinaCode/map-trip/internal/infrastructure/maps"
	repoImpl "github.com/AgusMolinaCode/map-trip/internal/repository"
	"github.com/AgusMolinaCode/map-trip/internal/usecase"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	ctx := context.Background()

	// リポジトリの選択: SUPABASE_DB_PASSWORD と TRIP_OWNER_ID があれば直接PostgreSQL接続、
	// なければPostgREST経由のSupabaseクライアント（RLSで所有者スコープ）
	tripRepo, cleanup, err := buildTripRepository()
	if err != nil {
		log.Fatalf("リポジトリ初期化失敗: %v", err)
	}
	defer cleanup()

	tripStore := store.NewTripStore()

	routeStats, firestoreCleanup := buildRouteStatsService(ctx, tripStore)
	defer firestoreCleanup()

	tripUseCase := usecase.NewTripUseCase(tripStore, routeStats)

	syncService := application.NewTripSyncService(tripStore, tripRepo)
	fmt.Println("Starting sync engine...")
	if err := syncService.Start(ctx); err != nil {
		log.Fatalf("同期エンジン起動失敗: %v", err)
	}
	defer syncService.Stop()

	router := setupRouter(tripUseCase, syncService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		fmt.Printf("map-trip server starting on :%s...\n", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("サーバー起動失敗: %v", err)
		}
	}()

	// SIGINT/SIGTERMで未保存の変更をフラッシュしてから終了する
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 シャットダウン中: 未保存の変更をフラッシュします...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := syncService.ForceSave(shutdownCtx); err != nil {
		log.Printf("❌ 最終保存失敗: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ サーバーシャットダウン失敗: %v", err)
	}
	log.Println("✅ シャットダウン完了")
}

// buildTripRepository 環境変数からリモートストアのゲートウェイを構築する
func buildTripRepository() (repository.TripRepository, func(), error) {
	noop := func() {}

	dbPassword := os.Getenv("SUPABASE_DB_PASSWORD")
	ownerID := os.Getenv("TRIP_OWNER_ID")
	if dbPassword != "" && ownerID != "" {
		fmt.Println("Initializing PostgreSQL client...")
		pgClient, err := database.NewPostgreSQLClientWithRetry(3, 2*time.Second)
		if err != nil {
			return nil, noop, fmt.Errorf("PostgreSQLクライアント初期化失敗: %w", err)
		}
		if err := pgClient.HealthCheck(); err != nil {
			pgClient.Close()
			return nil, noop, fmt.Errorf("PostgreSQLヘルスチェック失敗: %w", err)
		}
		fmt.Println("✅ PostgreSQL connection successful!")
		return repoImpl.NewPostgresTripRepository(pgClient, ownerID), func() { pgClient.Close() }, nil
	}

	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseAnonKey := os.Getenv("SUPABASE_ANON_KEY")
	if supabaseURL == "" || supabaseAnonKey == "" {
		fmt.Println("⚠️  環境変数が設定されていません:")
		fmt.Println("必要な環境変数: SUPABASE_URL, SUPABASE_ANON_KEY")
		fmt.Println("（または SUPABASE_DB_PASSWORD と TRIP_OWNER_ID で直接DB接続）")
		fmt.Println("\n.envファイルを作成するか、環境変数を設定してください")
		return nil, noop, fmt.Errorf("environment variables not set")
	}

	fmt.Println("Initializing Supabase client...")
	supabaseClient, err := database.NewSupabaseClient()
	if err != nil {
		return nil, noop, fmt.Errorf("Supabaseクライアント初期化失敗: %w", err)
	}
	fmt.Println("Performing Supabase health check...")
	if err := supabaseClient.HealthCheck(); err != nil {
		return nil, noop, fmt.Errorf("Supabaseヘルスチェック失敗: %w", err)
	}
	fmt.Println("✅ Supabase connection successful!")
	return repoImpl.NewSupabaseTripRepository(supabaseClient), noop, nil
}

// buildRouteStatsService Mapbox設定があれば経路統計サービスを構築する
// FIRESTORE_PROJECT_ID があれば経路キャッシュも有効になる
func buildRouteStatsService(ctx context.Context, tripStore *store.TripStore) (service.RouteStatsService, func()) {
	noop := func() {}

	mapboxToken := os.Getenv("MAPBOX_ACCESS_TOKEN")
	if mapboxToken == "" {
		fmt.Println("ℹ️  MAPBOX_ACCESS_TOKEN未設定のため経路統計の再計算は無効です")
		return nil, noop
	}

	directionsProvider := maps.NewMapboxDirectionsProvider(mapboxToken)

	var routeCache repository.RouteCacheRepository
	cleanup := noop
	if projectID := os.Getenv("FIRESTORE_PROJECT_ID"); projectID != "" {
		firestoreClient, err := firestore.NewFirestoreClient(ctx, projectID)
		if err != nil {
			log.Printf("⚠️ Firestore初期化失敗（経路キャッシュなしで続行）: %v", err)
		} else {
			routeCache = repoImpl.NewFirestoreRouteCacheRepository(firestoreClient.GetClient())
			cleanup = func() { firestoreClient.Close() }
		}
	}

	return service.NewRouteStatsService(tripStore, directionsProvider, routeCache, helper.RouteCacheKey), cleanup
}

// setupRouter APIルートを登録する
func setupRouter(tripUseCase usecase.TripUseCase, syncService application.TripSyncService) *gin.Engine {
	router := gin.Default()

	tripHandler := handler.NewTripHandler(tripUseCase)
	syncHandler := handler.NewSyncHandler(syncService)

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "map-trip"})
	})

	trip := router.Group("/trip")
	{
		trip.GET("", tripHandler.GetTrip)

		trip.POST("/days", tripHandler.PostDay)
		trip.DELETE("/days/:dayId", tripHandler.DeleteDay)
		trip.PUT("/days/:dayId/color", tripHandler.PutDayColor)

		trip.POST("/days/:dayId/routes", tripHandler.PostRoute)
		trip.DELETE("/days/:dayId/routes/:routeId", tripHandler.DeleteRoute)
		trip.PUT("/days/:dayId/routes/:routeId/profile", tripHandler.PutRouteProfile)
		trip.PUT("/days/:dayId/routes/:routeId/color", tripHandler.PutRouteColor)

		trip.POST("/days/:dayId/routes/:routeId/places", tripHandler.PostPlace)
		trip.PUT("/days/:dayId/routes/:routeId/places/order", tripHandler.PutPlacesOrder)
		trip.DELETE("/days/:dayId/routes/:routeId/places/:placeId", tripHandler.DeletePlace)
		trip.PUT("/days/:dayId/routes/:routeId/places/:placeId/coordinates", tripHandler.PutPlaceCoordinates)
		trip.PUT("/days/:dayId/routes/:routeId/places/:placeId/info", tripHandler.PutPlaceInfo)

		trip.PUT("/days/:dayId/routes/:routeId/custom-routes", tripHandler.PutCustomRoute)
		trip.DELETE("/days/:dayId/routes/:routeId/custom-routes/:fromPlaceId/:toPlaceId", tripHandler.DeleteCustomRoute)

		trip.POST("/days/:dayId/pois", tripHandler.PostPoi)
		trip.DELETE("/days/:dayId/pois/:poiId", tripHandler.DeletePoi)
		trip.PUT("/days/:dayId/pois/:poiId/coordinates", tripHandler.PutPoiCoordinates)
		trip.PUT("/days/:dayId/pois/:poiId/info", tripHandler.PutPoiInfo)

		trip.POST("/search-pins", tripHandler.PostSearchPin)
		trip.DELETE("/search-pins", tripHandler.DeleteSearchPins)
		trip.DELETE("/search-pins/:pinId", tripHandler.DeleteSearchPin)
	}

	router.POST("/routes/path", tripHandler.PostRoutePath)

	sync := router.Group("/sync")
	{
		sync.GET("/status", syncHandler.GetStatus)
		sync.POST("/save", syncHandler.PostForceSave)
	}

	return router
}
