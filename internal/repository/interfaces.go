// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/selfcheck/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByLogin はusernameまたはemailの一致でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByLogin(ctx context.Context, login string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDとcreated_atを埋めて返す。
	// username/emailの一意制約違反はconflictタグのAPIErrorとして返す。
	Create(ctx context.Context, user *model.User) error

	// List は検索・ページング・ソート条件付きでユーザー一覧と総件数を返す。
	List(ctx context.Context, q ListUsersQuery) ([]*model.User, int, error)

	// Update はユーザー情報を更新する。PasswordHashが空の場合はハッシュを変更しない。
	// 対象が存在しない場合はnot_foundタグのAPIErrorを返す。
	Update(ctx context.Context, user *model.User) error

	// UpdateRole は指定ユーザーのroleを変更する。
	UpdateRole(ctx context.Context, id int64, role model.Role) error

	// DeleteByID は指定IDのユーザーを削除する。
	DeleteByID(ctx context.Context, id int64) error
}

// ListUsersQuery はユーザー一覧の検索条件。
// Sortはusername/email/created_atのいずれか、Orderはasc/desc。
type ListUsersQuery struct {
	Search  string
	Page    int
	PerPage int
	Sort    string
	Order   string
}

// SessionRepository はセッションデータの永続化インターフェース。
// セッションストアは外部所有の共有状態として、不透明トークンをキーにした
// 作成・読み取り・破棄のみで操作する。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
}

// FlashRepository はワンショット通知の永続化インターフェース。
// 書き込みは追記、読み取りはドレイン（全件取得と同時に削除）する。
type FlashRepository interface {
	// Append はトークンに紐づく通知を1件追加する。
	Append(ctx context.Context, token, kind, message string) error
	// Drain はトークンに紐づく全通知を追加順で返し、同時に削除する。
	Drain(ctx context.Context, token string) ([]model.FlashMessage, error)
}

// CatalogRepository は評価階層（カテゴリ・観点・基準）の読み取りインターフェース。
// 階層はシード時に投入され、コアからは一切変更しない。
type CatalogRepository interface {
	// ListCategories は全カテゴリをID昇順で返す。
	ListCategories(ctx context.Context) ([]*model.Category, error)
	// ListAspects は全観点をID昇順で返す。
	ListAspects(ctx context.Context) ([]*model.Aspect, error)
	// ListCriteria は全基準をID昇順で返す。
	ListCriteria(ctx context.Context) ([]*model.Criteria, error)
	// TotalWeight は全基準のweight合計を返す。基準が無い場合は0。
	TotalWeight(ctx context.Context) (float64, error)
}

// ScoringStore は採点トランザクションの開始インターフェース。
// 1回の提出につき1つのトランザクション（=1つのコネクション）を取得し、
// 成功・失敗を問わずすべての経路で解放する。
type ScoringStore interface {
	// Begin は採点用トランザクションを開始する。
	Begin(ctx context.Context) (ScoringTx, error)
}

// ScoringTx は1件の評価提出を構成する書き込みの集まり。
// すべての文は単一のトランザクショナルコネクション上で逐次発行され、
// Commitされない限り読み取り側から一切観測されない。
type ScoringTx interface {
	// CreateAssessment は評価行を作成し、採番されたIDを返す。
	CreateAssessment(ctx context.Context, userID int64) (int64, error)
	// CriteriaWeight は基準のweightを取得する。存在しない場合はfound=false。
	CriteriaWeight(ctx context.Context, criteriaID int64) (weight float64, found bool, err error)
	// InsertAnswer は回答行を1件追加する。
	InsertAnswer(ctx context.Context, assessmentID, criteriaID int64, answer bool, score float64) error
	// Commit はトランザクションを確定する。
	Commit() error
	// Rollback はトランザクションを破棄する。Commit後の呼び出しは無害。
	Rollback() error
}

// AssessmentRepository は評価履歴の読み取りインターフェース。
type AssessmentRepository interface {
	// ListByUser はユーザーの評価一覧を作成日時降順で返す。
	// 各要素には回答スコア合計が集計済みで入る（Percentage/Ratingは未設定）。
	ListByUser(ctx context.Context, userID int64) ([]*model.AssessmentSummary, error)

	// FindOwned はIDとユーザーIDの両方が一致する評価を取得する。
	// 不存在と非所有はどちらもnilを返し、区別しない。
	FindOwned(ctx context.Context, id, userID int64) (*model.Assessment, error)

	// ListAnswers は評価1件の回答内訳を基準情報と結合して返す。
	// 並び順は観点ID、基準IDの昇順。
	ListAnswers(ctx context.Context, assessmentID int64) ([]model.AnswerDetail, error)
}
