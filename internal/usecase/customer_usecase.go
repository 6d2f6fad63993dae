package usecase

import (
	"context"

	"github.com/iho/bankledger/internal/domain"
)

// CustomerUseCase serves customer lookups.
type CustomerUseCase struct {
	customerRepo CustomerRepository
}

// NewCustomerUseCase creates a new CustomerUseCase.
func NewCustomerUseCase(customerRepo CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{customerRepo: customerRepo}
}

// GetCustomer returns a customer visible to actor.
func (uc *CustomerUseCase) GetCustomer(ctx context.Context, actor domain.Principal, id string) (*domain.Customer, error) {
	if err := authorize(actor, id); err != nil {
		return nil, err
	}

	return uc.customerRepo.GetByID(ctx, id)
}

// SearchCustomers finds customers by name prefix. Employees only.
func (uc *CustomerUseCase) SearchCustomers(ctx context.Context, actor domain.Principal, query domain.CustomerQuery) ([]*domain.Customer, error) {
	if err := requireEmployee(actor); err != nil {
		return nil, err
	}

	query.Limit, query.Offset = domain.ValidatePagination(query.Limit, query.Offset)

	return uc.customerRepo.Search(ctx, query)
}
