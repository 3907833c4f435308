package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"customerapi/internal/customer/models"
	id "customerapi/pkg/domain"
	"customerapi/pkg/platform/sentinel"
)

// Error Contract:
// - Return sentinel.ErrNotFound when the customer does not exist
// - Return sentinel.ErrAlreadyUsed when the email belongs to another customer
// - Return wrapped errors for infrastructure failures

// InMemory stores customers in a map for tests and local development.
type InMemory struct {
	mu        sync.RWMutex
	customers map[id.CustomerID]*models.Customer
	emails    map[string]id.CustomerID
	nextID    id.CustomerID
}

func NewInMemory() *InMemory {
	return &InMemory{
		customers: make(map[id.CustomerID]*models.Customer),
		emails:    make(map[string]id.CustomerID),
	}
}

// Save inserts c when it has no ID yet, assigning one, and replaces the
// stored record otherwise.
func (s *InMemory) Save(_ context.Context, c *models.Customer) error {
	if c == nil {
		return fmt.Errorf("save customer: nil customer")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *models.Customer
	if !c.ID.IsNil() {
		var ok bool
		if existing, ok = s.customers[c.ID]; !ok {
			return fmt.Errorf("customer %s: %w", c.ID, sentinel.ErrNotFound)
		}
	}

	key := models.EmailKey(c.Email)
	if owner, ok := s.emails[key]; ok && owner != c.ID {
		return fmt.Errorf("email %q: %w", c.Email, sentinel.ErrAlreadyUsed)
	}

	if existing == nil {
		s.nextID++
		c.ID = s.nextID
	} else {
		delete(s.emails, models.EmailKey(existing.Email))
	}

	s.customers[c.ID] = c.Clone()
	s.emails[key] = c.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, customerID id.CustomerID) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[customerID]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", customerID, sentinel.ErrNotFound)
	}
	return c.Clone(), nil
}

// FindAll returns every customer ordered by ID.
func (s *InMemory) FindAll(_ context.Context) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) DeleteByID(_ context.Context, customerID id.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return fmt.Errorf("customer %s: %w", customerID, sentinel.ErrNotFound)
	}
	delete(s.emails, models.EmailKey(c.Email))
	delete(s.customers, customerID)
	return nil
}

// DeleteAll empties the store. IDs keep increasing afterwards.
func (s *InMemory) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = make(map[id.CustomerID]*models.Customer)
	s.emails = make(map[string]id.CustomerID)
	return nil
}
