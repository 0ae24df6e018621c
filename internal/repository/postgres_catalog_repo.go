package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/selfcheck/internal/model"
)

// PostgresCatalogRepo はPostgreSQLを使用した評価階層リポジトリ。
// 階層は読み取り専用で、このリポジトリは書き込みを一切行わない。
type PostgresCatalogRepo struct {
	db *sql.DB
}

// NewPostgresCatalogRepo はPostgresCatalogRepoを生成する。
func NewPostgresCatalogRepo(db *sql.DB) *PostgresCatalogRepo {
	return &PostgresCatalogRepo{db: db}
}

// ListCategories は全カテゴリをID昇順で返す。
func (r *PostgresCatalogRepo) ListCategories(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, name FROM categories ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		c := &model.Category{}
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// ListAspects は全観点をID昇順で返す。
func (r *PostgresCatalogRepo) ListAspects(ctx context.Context) ([]*model.Aspect, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category_id, code, name FROM aspects ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list aspects: %w", err)
	}
	defer rows.Close()

	var aspects []*model.Aspect
	for rows.Next() {
		a := &model.Aspect{}
		if err := rows.Scan(&a.ID, &a.CategoryID, &a.Code, &a.Name); err != nil {
			return nil, fmt.Errorf("failed to scan aspect: %w", err)
		}
		aspects = append(aspects, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aspects: %w", err)
	}

	return aspects, nil
}

// ListCriteria は全基準をID昇順で返す。
func (r *PostgresCatalogRepo) ListCriteria(ctx context.Context) ([]*model.Criteria, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aspect_id, code, description, explanation, weight
		 FROM criteria ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list criteria: %w", err)
	}
	defer rows.Close()

	var criteria []*model.Criteria
	for rows.Next() {
		c := &model.Criteria{}
		if err := rows.Scan(&c.ID, &c.AspectID, &c.Code, &c.Description, &c.Explanation, &c.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan criteria: %w", err)
		}
		criteria = append(criteria, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate criteria: %w", err)
	}

	return criteria, nil
}

// TotalWeight は全基準のweight合計を返す。基準が無い場合は0。
// 全ユーザー・全評価で共通の分母となる。
func (r *PostgresCatalogRepo) TotalWeight(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(weight), 0) FROM criteria`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum criteria weights: %w", err)
	}
	return total, nil
}

// compile-time interface check
var _ CatalogRepository = (*PostgresCatalogRepo)(nil)
