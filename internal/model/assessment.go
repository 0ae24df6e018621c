package model

import "time"

// Assessment は1回の自己評価の提出を表す。作成後は不変。
type Assessment struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}

// AssessmentAnswer は評価基準1件に対する回答。
// Scoreは answer ? criteria.weight : 0 で固定される。
type AssessmentAnswer struct {
	AssessmentID int64
	CriteriaID   int64
	Answer       bool
	Score        float64
}

// Rating は百分率スコアから導かれる評価区分。
type Rating string

const (
	RatingExcellent Rating = "Excellent"
	RatingGood      Rating = "Good"
	RatingPoor      Rating = "Poor"
)

// AssessmentSummary は過去の評価1件の集計結果。
type AssessmentSummary struct {
	ID         int64
	CreatedAt  time.Time
	TotalScore float64
	Percentage float64
	Rating     Rating
}

// AnswerDetail は評価結果詳細の1行。基準情報と回答を結合したもの。
type AnswerDetail struct {
	AspectCode   string
	CriteriaCode string
	Description  string
	Explanation  string
	Weight       float64
	Answer       bool
	Score        float64
}

// AssessmentResult は1件の評価の詳細（基準ごとの内訳と合計）。
type AssessmentResult struct {
	Assessment    Assessment
	Answers       []AnswerDetail
	TotalScore    float64
	TotalPossible float64
	Percentage    float64
	Rating        Rating
}
