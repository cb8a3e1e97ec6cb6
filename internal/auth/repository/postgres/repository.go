package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arunabh-a/Colbin-Assignment/internal/auth/domain"
	autherror "github.com/arunabh-a/Colbin-Assignment/internal/errors"
)

const uniqueViolationCode = "23505"

// DB is the subset of pgxpool.Pool the repository uses; tests substitute a
// pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ domain.UserRepository = (*PostgresRepository)(nil)

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, name, bio, role, email_verified, last_login_at, created_at, updated_at
		FROM users
		WHERE email = $1
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, password_hash, name, bio, role, email_verified, last_login_at, created_at, updated_at
		FROM users
		WHERE id = $1
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, email, password_hash, name, bio, role, email_verified, verification_token_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)
    `, user.ID, user.Email, user.PasswordHash, user.Name, user.Bio, user.Role,
		user.EmailVerified, user.VerificationTokenHash, user.CreatedAt, user.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return autherror.ErrEmailAlreadyInUse
	}

	return err
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET last_login_at = $2, updated_at = now() WHERE id = $1
	`, userID, at)
	return err
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, userID, name, bio string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET name = $2, bio = $3, updated_at = now() WHERE id = $1
	`, userID, name, bio)
	return err
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, userID, role string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET role = $2, updated_at = now() WHERE id = $1
	`, userID, role)
	return err
}

func (r *PostgresRepository) VerifyEmailByTokenHash(ctx context.Context, tokenHash string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET email_verified = true, verification_token_hash = NULL, updated_at = now()
		WHERE verification_token_hash = $1
	`, tokenHash)
	if err != nil {
		return false, fmt.Errorf("failed to verify email: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) ListUsers(ctx context.Context) ([]*domain.User, error) {
	query := `
		SELECT id, email, password_hash, name, bio, role, email_verified, last_login_at, created_at, updated_at
		FROM users
		ORDER BY created_at;
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *PostgresRepository) StoreRefreshToken(ctx context.Context, rt *domain.RefreshToken) error {
	query := `INSERT INTO refresh_tokens (id, user_id, token_hash, ip_address, user_agent, expires_at, created_at, revoked)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query,
		rt.ID, rt.UserID, rt.TokenHash, rt.IPAddress, rt.UserAgent,
		rt.ExpiresAt, rt.CreatedAt, rt.Revoked)
	return err
}

func (r *PostgresRepository) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, ip_address, user_agent, expires_at, created_at, revoked
		FROM refresh_tokens
		WHERE token_hash = $1 AND revoked = false
		LIMIT 1;
	`
	row := r.db.QueryRow(ctx, query, tokenHash)

	var rt domain.RefreshToken
	err := row.Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.IPAddress, &rt.UserAgent,
		&rt.ExpiresAt, &rt.CreatedAt, &rt.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &rt, nil
}

// RotateRefreshToken is the single conditional write at the heart of the
// rotation protocol. The WHERE clause carries the record's expected state, so
// of any number of concurrent rotations for the same secret at most one can
// match; the rest see zero rows affected.
func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, id, oldHash, newHash string,
	expiresAt time.Time, meta domain.RequestMeta) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET token_hash = $3, expires_at = $4, ip_address = $5, user_agent = $6, created_at = now()
		WHERE id = $1 AND token_hash = $2 AND revoked = false
	`
	tag, err := r.db.Exec(ctx, query, id, oldHash, newHash, expiresAt, meta.IPAddress, meta.UserAgent)
	if err != nil {
		return false, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) RevokeRefreshTokenByHash(ctx context.Context, tokenHash string) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = true
		WHERE token_hash = $1 AND revoked = false
	`
	tag, err := r.db.Exec(ctx, query, tokenHash)
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) RevokeAllByUserID(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND revoked = false
	`, userID)
	return err
}

func (r *PostgresRepository) GetActiveTokensByUserID(ctx context.Context, userID string) ([]*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, ip_address, user_agent, expires_at, created_at, revoked
		FROM refresh_tokens
		WHERE user_id = $1 AND revoked = false AND expires_at > now()
		ORDER BY created_at DESC;
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.RefreshToken
	for rows.Next() {
		var rt domain.RefreshToken
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.IPAddress, &rt.UserAgent,
			&rt.ExpiresAt, &rt.CreatedAt, &rt.Revoked); err != nil {
			return nil, fmt.Errorf("failed to scan refresh token: %w", err)
		}
		tokens = append(tokens, &rt)
	}

	return tokens, rows.Err()
}

// DeleteOldestByUserID revokes active chains beyond the newest keep.
func (r *PostgresRepository) DeleteOldestByUserID(ctx context.Context, userID string, keep int) error {
	query := `
		UPDATE refresh_tokens SET revoked = true
		WHERE id IN (
			SELECT id FROM refresh_tokens
			WHERE user_id = $1 AND revoked = false AND expires_at > now()
			ORDER BY created_at DESC
			OFFSET $2
		)
	`
	_, err := r.db.Exec(ctx, query, userID, keep)
	return err
}

func (r *PostgresRepository) RecordLoginAttempt(ctx context.Context, email, ip string, success bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (id, email, ip_address, attempt_time, successful)
		VALUES (gen_random_uuid(), $1, $2, now(), $3)
	`, email, ip, success)
	return err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Bio,
		&user.Role, &user.EmailVerified, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
