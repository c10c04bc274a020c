package database

import (
	"fmt"
	"os"

	"github.com/supabase-community/supabase-go"
)

// SupabaseClient Supabaseクライアントのラッパー
type SupabaseClient struct {
	Client *supabase.Client
}

// NewSupabaseClient 環境変数から新しいSupabaseクライアントを作成
//
// SUPABASE_USER_TOKEN が設定されている場合はそのユーザーとして認証し、
// 行レベルセキュリティ（RLS）がそのユーザーの行だけを見せるようにする
func NewSupabaseClient() (*SupabaseClient, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseAnonKey := os.Getenv("SUPABASE_ANON_KEY")

	if supabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL環境変数が設定されていません")
	}
	if supabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_ANON_KEY環境変数が設定されていません")
	}

	options := &supabase.ClientOptions{}
	if userToken := os.Getenv("SUPABASE_USER_TOKEN"); userToken != "" {
		options.Headers = map[string]string{
			"Authorization": "Bearer " + userToken,
		}
	}

	client, err := supabase.NewClient(supabaseURL, supabaseAnonKey, options)
	if err != nil {
		return nil, fmt.Errorf("Supabaseクライアントの初期化に失敗: %w", err)
	}

	return &SupabaseClient{
		Client: client,
	}, nil
}

// GetClient Supabaseクライアントを取得
func (sc *SupabaseClient) GetClient() *supabase.Client {
	return sc.Client
}

// HealthCheck 接続確認として trips テーブルへの軽量なクエリを実行
func (sc *SupabaseClient) HealthCheck() error {
	if sc.Client == nil {
		return fmt.Errorf("Supabaseクライアントが初期化されていません")
	}

	_, _, err := sc.Client.From("trips").Select("id", "exact", false).Limit(1, "").Execute()
	if err != nil {
		return fmt.Errorf("Supabaseヘルスチェック失敗: %w", err)
	}
	return nil
}
