package model

// Category は評価階層の最上位区分。
type Category struct {
	ID   int64
	Code string
	Name string
}

// Aspect はCategoryに属する評価観点。
type Aspect struct {
	ID         int64
	CategoryID int64
	Code       string
	Name       string
}

// Criteria はAspectに属する評価基準。
// Weightは肯定回答時に加算される配点で、常に0以上。
type Criteria struct {
	ID          int64
	AspectID    int64
	Code        string
	Description string
	Explanation string
	Weight      float64
}

// CategoryTree はカテゴリ配下に観点・基準をネストした読み取り専用ツリー。
type CategoryTree struct {
	Category
	Aspects []*AspectNode
}

// AspectNode は観点とその配下の基準。
type AspectNode struct {
	Aspect
	Criteria []*Criteria
}
