package customer

import (
	"errors"
	"fmt"

	"github.com/customers/backend/internal/domain/shared"
)

// ErrCustomerAlreadyExists builds the conflict error for email
func ErrCustomerAlreadyExists(email string) *shared.DomainError {
	return shared.NewDomainError(
		shared.ErrAlreadyExists.Code,
		fmt.Sprintf("Customer with email '%s' already exists.", email),
	)
}

// ErrCustomerNotFound is returned when no customer has the requested ID
var ErrCustomerNotFound = shared.NewDomainError(shared.ErrNotFound.Code, "Customer not found")

// IsAlreadyExists reports whether err is a duplicate-customer conflict
func IsAlreadyExists(err error) bool {
	return errors.Is(err, shared.ErrAlreadyExists)
}

// IsNotFound reports whether err means the customer does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
