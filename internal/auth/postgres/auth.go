package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mechmaster/subscription-management/internal"
	"github.com/mechmaster/subscription-management/internal/auth"
	userDatamodel "github.com/mechmaster/subscription-management/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetPasswordForEmail(email string) (string, string, error) {
	var passwordHash string
	var userID string
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if err == sql.ErrNoRows {
			return "", "", fmt.Errorf("user not found")
		}
		return "", "", err
	}
	return passwordHash, userID, nil
}

func (r *Repository) CreateUser(name, email, contact, passwordHash string) (*internal.User, error) {
	record := &userDatamodel.User{
		Name:               name,
		Email:              strings.ToLower(email),
		Contact:            contact,
		PasswordHash:       passwordHash,
		IsActive:           true,
		SubscriptionStatus: userDatamodel.SubscriptionStatusInactive,
	}

	if err := r.db.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, auth.ErrEmailTaken
		}
		return nil, err
	}

	return &internal.User{
		ID:      record.ID,
		Email:   record.Email,
		Name:    record.Name,
		Contact: record.Contact,
	}, nil
}

func (r *Repository) GetUserWithPermissions(userID int64) (*internal.User, error) {
	var user internal.User

	query := `SELECT id, email, name, contact FROM users WHERE id = ? AND is_active = true`

	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Contact); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	permQuery := `SELECT p.name
	             FROM permissions p
	             JOIN user_permissions up ON p.id = up.permission_id
	             WHERE up.user_id = ?`

	rows, err := r.db.Raw(permQuery, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var permName string
		if err := rows.Scan(&permName); err != nil {
			return nil, err
		}
		permissions = append(permissions, permName)
	}

	user.Permissions = permissions
	return &user, nil
}
