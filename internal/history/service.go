// Package history は過去の評価を百分率スコアと評価区分に集計する。
package history

import (
	"context"
	"fmt"
	"math"

	"github.com/hitoshi/selfcheck/internal/model"
	"github.com/hitoshi/selfcheck/internal/repository"
)

// Service は評価履歴の集計サービス層。
// 分母（全基準のweight合計）は全評価・全ユーザーで共通。
type Service struct {
	assessmentRepo repository.AssessmentRepository
	catalogRepo    repository.CatalogRepository
}

// NewService はServiceを生成する。
func NewService(assessmentRepo repository.AssessmentRepository, catalogRepo repository.CatalogRepository) *Service {
	return &Service{
		assessmentRepo: assessmentRepo,
		catalogRepo:    catalogRepo,
	}
}

// ListForUser はユーザーの評価一覧を作成日時降順で返す。
// 各評価に百分率スコアと評価区分を付与する。
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*model.AssessmentSummary, error) {
	totalPossible, err := s.catalogRepo.TotalWeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get total possible weight: %w", err)
	}

	summaries, err := s.assessmentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	for _, summary := range summaries {
		summary.Percentage = Percentage(summary.TotalScore, totalPossible)
		summary.Rating = Classify(summary.Percentage)
	}

	return summaries, nil
}

// GetResult は評価1件の詳細（基準ごとの内訳と合計）を返す。
// 評価は作成したユーザーにのみ見える。不存在と非所有はどちらも
// 同じnot_foundエラーになり、IDの存在は漏れない。
func (s *Service) GetResult(ctx context.Context, userID, assessmentID int64) (*model.AssessmentResult, error) {
	assessment, err := s.assessmentRepo.FindOwned(ctx, assessmentID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find assessment: %w", err)
	}
	if assessment == nil {
		return nil, model.NewAssessmentNotFoundError()
	}

	answers, err := s.assessmentRepo.ListAnswers(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}

	totalPossible, err := s.catalogRepo.TotalWeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get total possible weight: %w", err)
	}

	var totalScore float64
	for _, a := range answers {
		totalScore += a.Score
	}

	pct := Percentage(totalScore, totalPossible)

	return &model.AssessmentResult{
		Assessment:    *assessment,
		Answers:       answers,
		TotalScore:    totalScore,
		TotalPossible: totalPossible,
		Percentage:    pct,
		Rating:        Classify(pct),
	}, nil
}

// Percentage は百分率スコアを計算し、小数第2位に丸める（四捨五入、0.5は0から遠い方へ）。
// 分母が0以下の場合は0を返す。
func Percentage(totalScore, totalPossible float64) float64 {
	if totalPossible <= 0 {
		return 0
	}
	pct := totalScore / totalPossible * 100
	return math.Round(pct*100) / 100
}

// Classify は百分率スコアから評価区分を導く。
// 75.00ちょうどはExcellentではなくGood（境界は厳密比較）。
func Classify(pct float64) model.Rating {
	switch {
	case pct > 75:
		return model.RatingExcellent
	case pct >= 50:
		return model.RatingGood
	default:
		return model.RatingPoor
	}
}
