package postgres

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/mechmaster/subscription-management/internal/user"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(userID int64) (*user.User, error) {
	var u user.User
	query := `SELECT id, email, name, contact, is_active,
	                 subscription_status, subscription_start_date,
	                 subscription_end_date, is_paid,
	                 created_at, updated_at
	          FROM users WHERE id = $1`

	if err := r.db.Get(&u, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetPermissions(userID int64) ([]string, error) {
	var permissions []string
	query := `SELECT p.name
	          FROM permissions p
	          JOIN user_permissions up ON p.id = up.permission_id
	          WHERE up.user_id = $1
	          ORDER BY p.name`

	if err := r.db.Select(&permissions, query, userID); err != nil {
		return nil, err
	}
	return permissions, nil
}
