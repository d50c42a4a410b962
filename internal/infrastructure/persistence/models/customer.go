package models

import (
	"github.com/customers/backend/internal/domain/customer"
)

// CustomerModel is the persistence model of customer.Customer
type CustomerModel struct {
	BaseModel
	Name  string `gorm:"type:varchar(255);not null"`
	Email string `gorm:"type:varchar(255);not null;uniqueIndex:ix_customers_email"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the model to a domain customer
func (m *CustomerModel) ToDomain() *customer.Customer {
	return &customer.Customer{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Email:      customer.RehydrateEmail(m.Email),
	}
}

// CustomerModelFromDomain converts a domain customer to its model
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	m := &CustomerModel{
		Name:  c.Name,
		Email: c.Email.String(),
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// CustomerColumns are the columns a customer search may filter on
var CustomerColumns = map[string]struct{}{
	"id":         {},
	"name":       {},
	"email":      {},
	"created_at": {},
	"updated_at": {},
}
