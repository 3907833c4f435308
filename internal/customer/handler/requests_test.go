package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "customerapi/pkg/domain-errors"
)

type CustomerRequestSuite struct {
	suite.Suite
}

func TestCustomerRequestSuite(t *testing.T) {
	suite.Run(t, new(CustomerRequestSuite))
}

func ptr(s string) *string { return &s }

func (s *CustomerRequestSuite) TestValidate() {
	tests := []struct {
		name    string
		req     CustomerRequest
		wantMsg string
	}{
		{"valid", CustomerRequest{Name: ptr("Alice"), Email: ptr("alice@example.com")}, ""},
		{"both null", CustomerRequest{}, "name and email must be provided"},
		{"name null", CustomerRequest{Email: ptr("alice@example.com")}, "name must be provided"},
		{"email blank", CustomerRequest{Name: ptr("Alice"), Email: ptr("")}, "email must be provided"},
		{"name too long", CustomerRequest{Name: ptr(strings.Repeat("a", 256)), Email: ptr("a@example.com")}, "name must be 255 characters or less"},
		{"bad email", CustomerRequest{Name: ptr("Alice"), Email: ptr("alice")}, "email must be a valid email address"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := tt.req.Validate()
			if tt.wantMsg == "" {
				s.NoError(err)
				return
			}
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
			s.Equal(tt.wantMsg, dErrors.MessageOf(err))
		})
	}
}

func (s *CustomerRequestSuite) TestNormalize() {
	req := CustomerRequest{Name: ptr("  Alice\t"), Email: ptr(" alice@example.com ")}
	req.Normalize()
	s.Equal("Alice", req.NameValue())
	s.Equal("alice@example.com", req.EmailValue())

	blank := CustomerRequest{Name: ptr("   ")}
	blank.Normalize()
	s.Equal("name and email must be provided", dErrors.MessageOf(blank.Validate()))
}
