package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresScoringStore はPostgreSQLを使用した採点トランザクションストア。
type PostgresScoringStore struct {
	db *sql.DB
}

// NewPostgresScoringStore はPostgresScoringStoreを生成する。
func NewPostgresScoringStore(db *sql.DB) *PostgresScoringStore {
	return &PostgresScoringStore{db: db}
}

// Begin は採点用トランザクションを開始する。
// 分離レベルはストレージエンジンのデフォルト（少なくともread committed）に従う。
func (s *PostgresScoringStore) Begin(ctx context.Context) (ScoringTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin scoring transaction: %w", err)
	}
	return &postgresScoringTx{tx: tx}, nil
}

// postgresScoringTx は*sql.Txをラップした採点トランザクション。
type postgresScoringTx struct {
	tx *sql.Tx
}

// CreateAssessment は評価行を作成し、採番されたIDを返す。
func (t *postgresScoringTx) CreateAssessment(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO assessments (user_id) VALUES ($1) RETURNING id`,
		userID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert assessment: %w", err)
	}
	return id, nil
}

// CriteriaWeight は基準のweightをトランザクション内で取得する。
func (t *postgresScoringTx) CriteriaWeight(ctx context.Context, criteriaID int64) (float64, bool, error) {
	var weight float64
	err := t.tx.QueryRowContext(ctx,
		`SELECT weight FROM criteria WHERE id = $1`,
		criteriaID,
	).Scan(&weight)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up criteria weight: %w", err)
	}

	return weight, true, nil
}

// InsertAnswer は回答行を1件追加する。
func (t *postgresScoringTx) InsertAnswer(ctx context.Context, assessmentID, criteriaID int64, answer bool, score float64) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO assessment_answers (assessment_id, criteria_id, answer, score)
		 VALUES ($1, $2, $3, $4)`,
		assessmentID, criteriaID, answer, score,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assessment answer: %w", err)
	}
	return nil
}

// Commit はトランザクションを確定する。
func (t *postgresScoringTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scoring transaction: %w", err)
	}
	return nil
}

// Rollback はトランザクションを破棄する。Commit済みの場合は何もしない。
func (t *postgresScoringTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("failed to roll back scoring transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ScoringStore = (*PostgresScoringStore)(nil)
