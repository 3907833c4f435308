package handler

import "customerapi/internal/customer/models"

// CustomerResponse is the public JSON form of a customer.
type CustomerResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toCustomerResponse(c *models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:    int64(c.ID),
		Name:  c.Name,
		Email: c.Email,
	}
}

func toCustomerResponses(customers []*models.Customer) []CustomerResponse {
	out := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, toCustomerResponse(c))
	}
	return out
}
