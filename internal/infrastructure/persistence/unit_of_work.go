package persistence

import (
	"context"

	"github.com/customers/backend/internal/domain/customer"
	"gorm.io/gorm"
)

// GormUnitOfWork runs work inside a gorm transaction
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute hands fn a repository bound to a new transaction. gorm commits
// when fn returns nil and rolls back on error or panic.
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repo customer.Repository) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewGormCustomerRepository(tx))
	})
}
