package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/customers/backend/internal/domain/customer"
	"github.com/customers/backend/internal/domain/shared"
	"github.com/customers/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCustomerRepository implements customer.Repository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// Add inserts a customer. A unique violation on email becomes
// customer.ErrCustomerAlreadyExists.
func (r *GormCustomerRepository) Add(ctx context.Context, c *customer.Customer) error {
	model := models.CustomerModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return customer.ErrCustomerAlreadyExists(c.Email.String())
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// Update writes name, email and updated_at
func (r *GormCustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"name":       c.Name,
			"email":      c.Email.String(),
			"updated_at": c.UpdatedAt,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return customer.ErrCustomerAlreadyExists(c.Email.String())
		}
		return fmt.Errorf("update customer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return customer.ErrCustomerNotFound
	}
	return nil
}

// GetByID finds a customer by its ID
func (r *GormCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customer.ErrCustomerNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Delete removes a customer by ID
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CustomerModel{})
	if result.Error != nil {
		return fmt.Errorf("delete customer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return customer.ErrCustomerNotFound
	}
	return nil
}

// Search filters by exact match on known columns; other keys are ignored
func (r *GormCustomerRepository) Search(ctx context.Context, filter shared.Filter) ([]*customer.Customer, error) {
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{})

	keys := make([]string, 0, len(filter))
	for k := range filter {
		if _, ok := models.CustomerColumns[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		query = query.Where(fmt.Sprintf("%s = ?", k), filter[k])
	}

	return r.find(query)
}

// ListAll returns every customer, oldest first
func (r *GormCustomerRepository) ListAll(ctx context.Context) ([]*customer.Customer, error) {
	return r.find(r.db.WithContext(ctx).Model(&models.CustomerModel{}))
}

// ExistsByEmail reports whether a customer uses email
func (r *GormCustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count returns the number of stored customers
func (r *GormCustomerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormCustomerRepository) find(query *gorm.DB) ([]*customer.Customer, error) {
	var rows []models.CustomerModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	customers := make([]*customer.Customer, len(rows))
	for i := range rows {
		customers[i] = rows[i].ToDomain()
	}
	return customers, nil
}

var _ customer.Repository = (*GormCustomerRepository)(nil)
