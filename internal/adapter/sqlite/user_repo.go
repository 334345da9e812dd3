package sqlite

import (
	"context"
	"time"

	"presensi/internal/domain"
)

var _ domain.UserRepository = (*DB)(nil)

func (m *userModel) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Name:         m.Nama,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func (d *DB) findUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var m userModel
	err := d.gorm.WithContext(ctx).Where(query, arg).Take(&m).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.toDomain(), nil
}

// GetByEmail retrieves a user by email.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return d.findUser(ctx, "email = ?", email)
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return d.findUser(ctx, "id = ?", id)
}

// Create creates a new user.
func (d *DB) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	m := userModel{
		Nama:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    time.Now().UTC(),
	}
	if err := d.gorm.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, mapUniqueViolation(err)
	}
	return m.toDomain(), nil
}

// Count returns the total number of users.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int64
	err := d.gorm.WithContext(ctx).Model(&userModel{}).Count(&n).Error
	return int(n), err
}
