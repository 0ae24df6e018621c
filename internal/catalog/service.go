// Package catalog は評価階層（カテゴリ・観点・基準）の読み取り専用ビューを提供する。
package catalog

import (
	"context"
	"fmt"

	"github.com/hitoshi/selfcheck/internal/model"
	"github.com/hitoshi/selfcheck/internal/repository"
)

// Service は評価階層をネスト構造に組み立てるサービス層。
// 書き込みは一切行わない。
type Service struct {
	repo repository.CatalogRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.CatalogRepository) *Service {
	return &Service{repo: repo}
}

// Tree はカテゴリ・観点・基準をロードし、ネストしたツリーを返す。
// 各階層はID昇順。親が解決できない観点・基準はツリーから落とす（エラーにはしない）。
func (s *Service) Tree(ctx context.Context) ([]*model.CategoryTree, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	aspects, err := s.repo.ListAspects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aspects: %w", err)
	}
	criteria, err := s.repo.ListCriteria(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load criteria: %w", err)
	}

	return BuildTree(categories, aspects, criteria), nil
}

// BuildTree はフラットな3階層のリストからネスト構造を組み立てる純粋変換。
// 入力リストの順序（ID昇順）をそのまま保持する。
// category_idが未知の観点、aspect_idが解決できない基準は黙って捨てる。
// 元の行自体には手を付けない。
func BuildTree(categories []*model.Category, aspects []*model.Aspect, criteria []*model.Criteria) []*model.CategoryTree {
	tree := make([]*model.CategoryTree, 0, len(categories))
	categoryIndex := make(map[int64]*model.CategoryTree, len(categories))
	for _, c := range categories {
		node := &model.CategoryTree{Category: *c}
		tree = append(tree, node)
		categoryIndex[c.ID] = node
	}

	aspectIndex := make(map[int64]*model.AspectNode, len(aspects))
	for _, a := range aspects {
		parent, ok := categoryIndex[a.CategoryID]
		if !ok {
			continue
		}
		node := &model.AspectNode{Aspect: *a}
		parent.Aspects = append(parent.Aspects, node)
		aspectIndex[a.ID] = node
	}

	for _, cr := range criteria {
		parent, ok := aspectIndex[cr.AspectID]
		if !ok {
			continue
		}
		parent.Criteria = append(parent.Criteria, cr)
	}

	return tree
}
