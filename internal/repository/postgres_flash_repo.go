package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/selfcheck/internal/model"
)

// PostgresFlashRepo はPostgreSQLを使用したワンショット通知リポジトリ。
// セッションとは独立したトークンをキーにするため、ログアウトで
// セッションが破棄されても通知は次の1回の読み取りまで生き残る。
type PostgresFlashRepo struct {
	db *sql.DB
}

// NewPostgresFlashRepo はPostgresFlashRepoを生成する。
func NewPostgresFlashRepo(db *sql.DB) *PostgresFlashRepo {
	return &PostgresFlashRepo{db: db}
}

// Append はトークンに紐づく通知を1件追加する。
func (r *PostgresFlashRepo) Append(ctx context.Context, token, kind, message string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO flashes (token, kind, message) VALUES ($1, $2, $3)`,
		token, kind, message,
	)
	if err != nil {
		return fmt.Errorf("failed to append flash message: %w", err)
	}
	return nil
}

// Drain はトークンに紐づく全通知を追加順で返し、同時に削除する。
// 削除と取得を1文で行うため、2回目の読み取りでは必ず空になる。
func (r *PostgresFlashRepo) Drain(ctx context.Context, token string) ([]model.FlashMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`WITH drained AS (
		     DELETE FROM flashes WHERE token = $1
		     RETURNING id, kind, message
		 )
		 SELECT kind, message FROM drained ORDER BY id`,
		token,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to drain flash messages: %w", err)
	}
	defer rows.Close()

	var messages []model.FlashMessage
	for rows.Next() {
		var m model.FlashMessage
		if err := rows.Scan(&m.Kind, &m.Message); err != nil {
			return nil, fmt.Errorf("failed to scan flash message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flash messages: %w", err)
	}

	return messages, nil
}

// compile-time interface check
var _ FlashRepository = (*PostgresFlashRepo)(nil)
