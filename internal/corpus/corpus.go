// Package corpus holds the built-in Japanese sample documents and queries used by the demo
// command and by end-to-end tests.
package corpus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hyperjump/tansaku/internal/models"
)

// Documents returns the sample documents. IDs are "1" through "8".
func Documents() []*models.Document {
	docs := []struct{ title, content string }{
		{"データベース設計入門", "リレーショナルデータベースの正規化手法について詳しく説明します。SQLiteの実践的な活用方法も含みます。"},
		{"機械学習とPython", "Pythonを使った機械学習の基礎から応用まで。scikit-learn、pandas、numpyライブラリの効果的な使用方法。"},
		{"ウェブ開発フレームワーク", "HTMLとCSSを使ったフロントエンド開発。JavaScriptとReactの基本的な使い方も詳しく紹介。"},
		{"システムアーキテクチャ設計", "スケーラブルなシステム設計の原則と実践。マイクロサービス、データベース選択、パフォーマンス最適化。"},
		{"自然言語処理技術", "ICUライブラリを活用したテキスト解析と日本語処理。トークン化、形態素解析の実装手法。"},
		{"データサイエンス実践", "データ分析プロジェクトの進め方。統計学、機械学習、可視化技術の総合的なアプローチ。"},
		{"クラウドインフラ構築", "AWS、Azure、GCPを使ったクラウドシステム設計。コンテナ技術、Kubernetes、DevOpsの導入。"},
		{"セキュリティ実装", "情報セキュリティの基本原則と実装。暗号化、認証、アクセス制御、脅威対策について。"},
	}
	out := make([]*models.Document, len(docs))
	for i, d := range docs {
		out[i] = &models.Document{
			ID:      strconv.Itoa(i + 1),
			Title:   d.title,
			Content: d.content,
			Source:  "corpus",
		}
	}
	return out
}

// Scenarios are long mixed queries used to compare strategies.
var Scenarios = []string{
	"データベース設計と機械学習の統合システム開発",
	"Pythonを使った自然言語処理とウェブアプリケーション構築",
	"クラウドベースのデータサイエンス分析基盤設計",
	"セキュアなマイクロサービスアーキテクチャの実装方法",
}

// LengthCase is a query labelled by its relative length, for hit-count comparisons.
type LengthCase struct {
	Label string
	Query string
}

// LengthCases range from a single term to a long sentence.
var LengthCases = []LengthCase{
	{"short", "機械学習"},
	{"medium", "データベース設計の方法"},
	{"long", "Pythonを使ったデータ分析プロジェクト"},
	{"very long", "スケーラブルなクラウドベース機械学習システムの設計と実装における最適化手法"},
}

// Indexer is anything that can store a document.
type Indexer interface {
	Index(ctx context.Context, doc *models.Document) error
}

// Seed indexes every sample document into idx.
func Seed(ctx context.Context, idx Indexer) error {
	for _, doc := range Documents() {
		if err := idx.Index(ctx, doc); err != nil {
			return fmt.Errorf("failed to seed document %s: %w", doc.ID, err)
		}
	}
	return nil
}
