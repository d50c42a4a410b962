package customer

import (
	"context"

	"github.com/customers/backend/internal/domain/shared"
)

// Repository persists customers
type Repository interface {
	shared.Repository[*Customer]
	UniquenessChecker
}

// UniquenessChecker answers whether an email is already registered
type UniquenessChecker interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
