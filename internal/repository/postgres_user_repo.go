package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/selfcheck/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const uniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByLogin はusernameまたはemailの一致でユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, created_at
		 FROM users WHERE username = $1 OR email = $1 LIMIT 1`,
		login,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by login: %w", err)
	}

	return user, nil
}

// Create はユーザーを作成し、採番されたIDとcreated_atを埋めて返す。
// username/emailの一意制約違反はconflictタグのAPIErrorに変換する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		user.Username, user.Email, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDuplicateUserError()
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// List は検索・ページング・ソート条件付きでユーザー一覧と総件数を返す。
func (r *PostgresUserRepo) List(ctx context.Context, q ListUsersQuery) ([]*model.User, int, error) {
	q = normalizeListQuery(q)

	where := ""
	args := []any{}
	if q.Search != "" {
		where = "WHERE username ILIKE $1 OR email ILIKE $1"
		args = append(args, "%"+q.Search+"%")
	}

	var total int
	countSQL := fmt.Sprintf(`SELECT COUNT(*) FROM users %s`, where)
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	offset := (q.Page - 1) * q.PerPage
	args = append(args, q.PerPage, offset)
	// Sort/OrderはnormalizeListQueryでホワイトリスト済みのため直接埋め込める。
	listSQL := fmt.Sprintf(
		`SELECT id, username, email, password_hash, role, created_at
		 FROM users %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		where, q.Sort, q.Order, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, total, nil
}

// Update はユーザー情報を更新する。PasswordHashが空の場合はハッシュを変更しない。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	var result sql.Result
	var err error

	if user.PasswordHash != "" {
		result, err = r.db.ExecContext(ctx,
			`UPDATE users SET username = $1, email = $2, password_hash = $3, role = $4 WHERE id = $5`,
			user.Username, user.Email, user.PasswordHash, user.Role, user.ID,
		)
	} else {
		result, err = r.db.ExecContext(ctx,
			`UPDATE users SET username = $1, email = $2, role = $3 WHERE id = $4`,
			user.Username, user.Email, user.Role, user.ID,
		)
	}

	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDuplicateUserError()
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError()
	}

	return nil
}

// UpdateRole は指定ユーザーのroleを変更する。
func (r *PostgresUserRepo) UpdateRole(ctx context.Context, id int64, role model.Role) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $1 WHERE id = $2`,
		role, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError()
	}

	return nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 関連するsessions、assessmentsはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError()
	}

	return nil
}

// isUniqueViolation はPostgreSQLの一意制約違反かどうかを判定する。
// ドライバ固有のエラー判別はこのストレージ境界に閉じ込める。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// normalizeListQuery はページングとソートの条件を安全な値に正規化する。
func normalizeListQuery(q ListUsersQuery) ListUsersQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 10
	}
	switch q.Sort {
	case "username", "email", "created_at":
	default:
		q.Sort = "created_at"
	}
	if q.Order == "asc" {
		q.Order = "ASC"
	} else {
		q.Order = "DESC"
	}
	return q
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
