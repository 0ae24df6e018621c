package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/selfcheck/internal/model"
)

// PostgresAssessmentRepo はPostgreSQLを使用した評価履歴リポジトリ。
type PostgresAssessmentRepo struct {
	db *sql.DB
}

// NewPostgresAssessmentRepo はPostgresAssessmentRepoを生成する。
func NewPostgresAssessmentRepo(db *sql.DB) *PostgresAssessmentRepo {
	return &PostgresAssessmentRepo{db: db}
}

// ListByUser はユーザーの評価一覧を作成日時降順で返す。
// スコア合計はSQL側で集計する。回答が無い評価は合計0。
func (r *PostgresAssessmentRepo) ListByUser(ctx context.Context, userID int64) ([]*model.AssessmentSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.created_at, COALESCE(SUM(ans.score), 0) AS total_score
		 FROM assessments a
		 LEFT JOIN assessment_answers ans ON ans.assessment_id = a.id
		 WHERE a.user_id = $1
		 GROUP BY a.id
		 ORDER BY a.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var summaries []*model.AssessmentSummary
	for rows.Next() {
		s := &model.AssessmentSummary{}
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.TotalScore); err != nil {
			return nil, fmt.Errorf("failed to scan assessment summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessments: %w", err)
	}

	return summaries, nil
}

// FindOwned はIDとユーザーIDの両方が一致する評価を取得する。
// 不存在と非所有はどちらもnilを返し、呼び出し側からは区別できない。
func (r *PostgresAssessmentRepo) FindOwned(ctx context.Context, id, userID int64) (*model.Assessment, error) {
	a := &model.Assessment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM assessments WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&a.ID, &a.UserID, &a.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find assessment: %w", err)
	}

	return a, nil
}

// ListAnswers は評価1件の回答内訳を基準情報と結合して返す。
func (r *PostgresAssessmentRepo) ListAnswers(ctx context.Context, assessmentID int64) ([]model.AnswerDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT asp.code, c.code, c.description, c.explanation, c.weight, ans.answer, ans.score
		 FROM assessment_answers ans
		 JOIN criteria c ON c.id = ans.criteria_id
		 JOIN aspects asp ON asp.id = c.aspect_id
		 WHERE ans.assessment_id = $1
		 ORDER BY asp.id, c.id`,
		assessmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessment answers: %w", err)
	}
	defer rows.Close()

	var details []model.AnswerDetail
	for rows.Next() {
		var d model.AnswerDetail
		if err := rows.Scan(&d.AspectCode, &d.CriteriaCode, &d.Description, &d.Explanation, &d.Weight, &d.Answer, &d.Score); err != nil {
			return nil, fmt.Errorf("failed to scan answer detail: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate answer details: %w", err)
	}

	return details, nil
}

// compile-time interface check
var _ AssessmentRepository = (*PostgresAssessmentRepo)(nil)
