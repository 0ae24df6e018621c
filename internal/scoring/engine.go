// Package scoring は提出された回答を採点し、評価として永続化する。
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hitoshi/selfcheck/internal/model"
	"github.com/hitoshi/selfcheck/internal/repository"
)

// MetricsRecorder は採点結果のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordSubmission()
	RecordSubmissionFailure()
	RecordSubmitLatency(duration time.Duration)
}

// Engine は提出された回答集合を1つのアトミックな評価に変換する。
// 同一ユーザーの並行提出は直列化しない。2つの並行提出はそれぞれ独立した
// 評価行として採点される。
type Engine struct {
	store   repository.ScoringStore
	metrics MetricsRecorder
}

// NewEngine はEngineを生成する。metricsはnil可。
func NewEngine(store repository.ScoringStore, metrics MetricsRecorder) *Engine {
	return &Engine{
		store:   store,
		metrics: metrics,
	}
}

// Submit は回答集合を単一トランザクションで採点・永続化し、評価IDを返す。
// answersはcriteria-id（文字列）から回答値へのマップで、"1"のみtrueに解釈する。
//
// いずれかの回答のcriteria-idが整数でない場合はValidationError、
// 基準が存在しない場合はnot_foundタグのAPIErrorを返し、どちらの場合も
// この提出による行は一切残らない。トランザクション内の全文は同一コネクション上で
// 逐次発行される。
func (e *Engine) Submit(ctx context.Context, userID int64, answers map[string]string) (int64, error) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.RecordSubmitLatency(time.Since(start))
		}
	}()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		e.recordFailure()
		return 0, fmt.Errorf("failed to start submission: %w", err)
	}
	// 成功時はCommit済みのため、このRollbackは何もしない。
	defer tx.Rollback()

	assessmentID, err := tx.CreateAssessment(ctx, userID)
	if err != nil {
		e.recordFailure()
		return 0, err
	}

	for criteriaIDStr, value := range answers {
		criteriaID, err := strconv.ParseInt(criteriaIDStr, 10, 64)
		if err != nil {
			e.recordFailure()
			return 0, model.NewValidationError(fmt.Sprintf("Invalid criteria id: %s", criteriaIDStr))
		}

		weight, found, err := tx.CriteriaWeight(ctx, criteriaID)
		if err != nil {
			e.recordFailure()
			return 0, err
		}
		if !found {
			e.recordFailure()
			return 0, model.NewCriteriaNotFoundError(criteriaIDStr)
		}

		answer := value == "1"
		score := 0.0
		if answer {
			score = weight
		}

		if err := tx.InsertAnswer(ctx, assessmentID, criteriaID, answer, score); err != nil {
			e.recordFailure()
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		e.recordFailure()
		return 0, err
	}

	slog.Info("assessment saved",
		slog.Int64("assessment_id", assessmentID),
		slog.Int64("user_id", userID),
		slog.Int("answers", len(answers)),
	)

	if e.metrics != nil {
		e.metrics.RecordSubmission()
	}

	return assessmentID, nil
}

func (e *Engine) recordFailure() {
	if e.metrics != nil {
		e.metrics.RecordSubmissionFailure()
	}
}
