package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"
	"github.com/HelloTanvir/devcamper-api/internal/domain/query"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, name, email, role, password_hash, reset_password_token, reset_password_expire, created_at, updated_at`

// UserResource lists users without credentials.
var UserResource = query.Resource{
	Table:   "users",
	Columns: []string{"id", "name", "email", "role", "created_at", "updated_at"},
	Fields: map[string]query.Field{
		"id":        {Column: "id", Kind: query.UUID},
		"name":      {Column: "name", Kind: query.String},
		"email":     {Column: "email", Kind: query.String},
		"role":      {Column: "role", Kind: query.String},
		"createdAt": {Column: "created_at", Kind: query.Time},
		"updatedAt": {Column: "updated_at", Kind: query.Time},
	},
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	// ConsumeResetToken sets a new password for the user holding an
	// unexpired reset token with the given hash and clears the token in the
	// same statement, so a token authorizes at most one reset.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*model.User, error)
	List(ctx context.Context, p query.Params) (*query.Result[model.User], error)
	Update(ctx context.Context, user *model.User) error
	// SetPassword stores a new hash and clears any pending reset token.
	SetPassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id string, tokenHash *string, expire *time.Time) error
	Delete(ctx context.Context, id string) error
}

type pgUserRepository struct {
	db *sqlx.DB
}

func NewPgUserRepository(db *sqlx.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, name, email, role, password_hash, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.Role, user.HashedPassword, now, now)
	if err != nil {
		// Unique violations pass through and surface as duplicate-field errors.
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := getOne(ctx, r.db, user, "pgUserRepository.FindByEmail", query, email); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if !validID(id) {
		return nil, common.ErrNotFound
	}
	user := &model.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := getOne(ctx, r.db, user, "pgUserRepository.FindByID", query, id); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*model.User, error) {
	user := &model.User{}
	query := `UPDATE users
	          SET password_hash = $1, reset_password_token = NULL, reset_password_expire = NULL, updated_at = $2
	          WHERE reset_password_token = $3 AND reset_password_expire > $2
	          RETURNING ` + userColumns
	if err := getOne(ctx, r.db, user, "pgUserRepository.ConsumeResetToken", query, passwordHash, now, tokenHash); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) List(ctx context.Context, p query.Params) (*query.Result[model.User], error) {
	return query.Find[model.User](ctx, r.db, UserResource, p)
}

func (r *pgUserRepository) Update(ctx context.Context, user *model.User) error {
	if !validID(user.ID) {
		return common.ErrNotFound
	}
	now := time.Now().UTC()
	query := `UPDATE users SET name = $1, email = $2, role = $3, updated_at = $4 WHERE id = $5`
	if err := execOne(ctx, r.db, "pgUserRepository.Update", query, user.Name, user.Email, user.Role, now, user.ID); err != nil {
		return err
	}
	user.UpdatedAt = now
	return nil
}

func (r *pgUserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users
	          SET password_hash = $1, reset_password_token = NULL, reset_password_expire = NULL, updated_at = $2
	          WHERE id = $3`
	return execOne(ctx, r.db, "pgUserRepository.SetPassword", query, passwordHash, time.Now().UTC(), id)
}

func (r *pgUserRepository) SetResetToken(ctx context.Context, id string, tokenHash *string, expire *time.Time) error {
	query := `UPDATE users SET reset_password_token = $1, reset_password_expire = $2 WHERE id = $3`
	return execOne(ctx, r.db, "pgUserRepository.SetResetToken", query, tokenHash, expire, id)
}

func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return common.ErrNotFound
	}
	return execOne(ctx, r.db, "pgUserRepository.Delete", `DELETE FROM users WHERE id = $1`, id)
}
