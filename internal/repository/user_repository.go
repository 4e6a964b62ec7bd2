package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classora/classora-api/internal/models"
	"github.com/classora/classora-api/pkg/query"
)

var userColumns = query.Columns{
	Searchable: map[string]string{
		"username": "u.username",
		"email":    "u.email",
		"role_key": "u.role_key",
	},
	Sortable: map[string]string{
		"username":   "u.username",
		"email":      "u.email",
		"created_at": "u.created_at",
	},
	DefaultSort: "u.created_at",
}

// UserRepository manages persistence for users and their refresh tokens.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// List returns users matching the uniform list parameters.
func (r *UserRepository) List(ctx context.Context, params query.Params) ([]models.User, int, error) {
	clause := userColumns.Build(params, 0)

	q := fmt.Sprintf(`SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash, u.role_key, u.active, u.last_login, u.created_at, u.updated_at
        FROM users u WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		clause.Where, clause.OrderBy, clause.Limit, clause.Offset)

	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, q, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM users u WHERE %s", clause.Where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, clause.Args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// FindByID fetches a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail fetches a user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, "SELECT * FROM users WHERE LOWER(email) = LOWER($1)", email); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByUsernameOrEmail reports which unique credential field collides.
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email, excludeID string) (usernameTaken, emailTaken bool, err error) {
	q := `SELECT
        COUNT(*) FILTER (WHERE LOWER(username) = LOWER($1)) AS usernames,
        COUNT(*) FILTER (WHERE LOWER(email) = LOWER($2)) AS emails
        FROM users WHERE ($3 = '' OR id <> $3)`
	var counts struct {
		Usernames int `db:"usernames"`
		Emails    int `db:"emails"`
	}
	if err := r.db.GetContext(ctx, &counts, q, username, email, excludeID); err != nil {
		return false, false, fmt.Errorf("check user uniqueness: %w", err)
	}
	return counts.Usernames > 0, counts.Emails > 0, nil
}

// Create inserts a new user, optionally within a caller-supplied transaction.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return createUser(ctx, r.db, user)
}

func createUser(ctx context.Context, e sqlx.ExtContext, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	const q = `INSERT INTO users (id, username, email, first_name, last_name, password_hash, role_key, active, created_at, updated_at)
        VALUES (:id, :username, :email, :first_name, :last_name, :password_hash, :role_key, :active, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, e, q, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update modifies an existing user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const q = `UPDATE users SET username = :username, email = :email, first_name = :first_name, last_name = :last_name, role_key = :role_key, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, q, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps the last successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE users SET last_login = $2 WHERE id = $1", id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CreateRefreshToken persists an issued refresh token.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const q = `INSERT INTO refresh_tokens (id, user_id, token, expires_at, revoked, ip_address, user_agent, created_at)
        VALUES (:id, :user_id, :token, :expires_at, :revoked, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, q, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken loads a refresh token by its opaque value.
func (r *UserRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := r.db.GetContext(ctx, &rt, "SELECT * FROM refresh_tokens WHERE token = $1", token); err != nil {
		return nil, err
	}
	return &rt, nil
}

// RevokeRefreshToken marks a single token revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const q = `UPDATE refresh_tokens SET revoked = true, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes every live token for a user.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	const q = `UPDATE refresh_tokens SET revoked = true, revoked_at = $2 WHERE user_id = $1 AND NOT revoked`
	if _, err := r.db.ExecContext(ctx, q, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}
