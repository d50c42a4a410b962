package customer

import "context"

// RegistrationService holds registration rules that span more than one customer
type RegistrationService struct {
	checker UniquenessChecker
}

// NewRegistrationService creates a RegistrationService
func NewRegistrationService(checker UniquenessChecker) *RegistrationService {
	return &RegistrationService{checker: checker}
}

// ValidateEmailAvailability fails with ErrCustomerAlreadyExists when the
// email belongs to a stored customer
func (s *RegistrationService) ValidateEmailAvailability(ctx context.Context, email Email) error {
	exists, err := s.checker.ExistsByEmail(ctx, email.String())
	if err != nil {
		return err
	}
	if exists {
		return ErrCustomerAlreadyExists(email.String())
	}
	return nil
}
