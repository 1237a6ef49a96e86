package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/magazinehq/magazine-api/internal/models"
)

const userColumns = `id, username, email, first_name, last_name, description, password_hash, active, profile_image, created_at, updated_at`

// UserRepository provides database access for accounts and their role set.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier with roles loaded.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	return r.findOne(ctx, query, id)
}

// FindByUsername returns a user by exact username with roles loaded.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1 LIMIT 1`, userColumns)
	return r.findOne(ctx, query, username)
}

// FindByUsernameOrEmail resolves a principal that may have logged in with
// either identifier.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1 OR email = $1 LIMIT 1`, userColumns)
	return r.findOne(ctx, query, usernameOrEmail)
}

// ExistsByUsername reports whether the username is taken.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	if err := r.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

// ExistsByEmail reports whether the email is taken.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// Count returns the total number of registered users. The first-ever
// registration bootstraps the admin account.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

// Create inserts a new user and attaches the given role names inside one
// transaction.
func (r *UserRepository) Create(ctx context.Context, user *models.User, roleNames []string) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO users (id, username, email, first_name, last_name, description, password_hash, active, profile_image, created_at, updated_at)
		VALUES (:id, :username, :email, :first_name, :last_name, :description, :password_hash, :active, :profile_image, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	const attach = `INSERT INTO user_roles (user_id, role_id) SELECT $1, id FROM roles WHERE name = $2`
	for _, name := range roleNames {
		if _, err := tx.ExecContext(ctx, attach, user.ID, name); err != nil {
			return fmt.Errorf("attach role %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create user: %w", err)
	}
	user.Roles = roleNames
	return nil
}

// Update persists the mutable profile fields.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET first_name = :first_name, last_name = :last_name, description = :description, profile_image = :profile_image, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// Delete removes the user row; user_roles, refresh_tokens, posts, comments
// and likes cascade at the schema level.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// AddRole attaches the named role to the user; attaching an already-held
// role is a no-op.
func (r *UserRepository) AddRole(ctx context.Context, userID, roleName string) error {
	const query = `INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
		ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, roleName); err != nil {
		return fmt.Errorf("add role %s: %w", roleName, err)
	}
	return nil
}

// List returns all users with roles loaded, newest first.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY created_at DESC`, userColumns)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		roles, err := r.roleNames(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].Roles = roles
	}
	return users, nil
}

// ListByRole returns active users holding the named role.
func (r *UserRepository) ListByRole(ctx context.Context, roleName string) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u
		WHERE u.active = TRUE AND EXISTS (
			SELECT 1 FROM user_roles ur JOIN roles ro ON ro.id = ur.role_id
			WHERE ur.user_id = u.id AND ro.name = $1)
		ORDER BY u.username ASC`, prefixColumns("u"))
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, roleName); err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	for i := range users {
		roles, err := r.roleNames(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].Roles = roles
	}
	return users, nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	roles, err := r.roleNames(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return &user, nil
}

func (r *UserRepository) roleNames(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT ro.name FROM roles ro JOIN user_roles ur ON ur.role_id = ro.id WHERE ur.user_id = $1 ORDER BY ro.name`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, userID); err != nil {
		return nil, fmt.Errorf("load user roles: %w", err)
	}
	return names, nil
}

func prefixColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.username, %[1]s.email, %[1]s.first_name, %[1]s.last_name, %[1]s.description, %[1]s.password_hash, %[1]s.active, %[1]s.profile_image, %[1]s.created_at, %[1]s.updated_at`, alias)
}
