package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "customerapi/pkg/domain-errors"
)

// TestParseCustomerID_Invariants validates the parsing invariant:
// "ids are plain decimal int64 values".
func TestParseCustomerID_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    CustomerID
		wantErr bool
	}{
		{"empty string", "", 0, true},
		{"lone minus", "-", 0, true},
		{"double minus", "--1", 0, true},
		{"explicit plus sign", "+7", 0, true},
		{"not a number", "abc", 0, true},
		{"surrounding whitespace", " 12 ", 0, true},
		{"SQL injection attempt", "1; DROP TABLE customers;--", 0, true},
		{"path traversal", "../../etc/passwd", 0, true},
		{"null byte", "12\x00", 0, true},
		{"overflows int64", "99999999999999999999", 0, true},
		{"underflows int64", "-9223372036854775809", 0, true},
		{"oversized input", strings.Repeat("1", 1000), 0, true},
		{"leading zeros", "007", 7, false},
		{"valid id", "42", 42, false},
		{"six digit id", "999999", 999999, false},
		{"max int64", "9223372036854775807", 9223372036854775807, false},
		{"zero", "0", 0, false},
		{"negative", "-1", -1, false},
		{"min int64", "-9223372036854775808", -9223372036854775808, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCustomerID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCustomerID_String(t *testing.T) {
	assert.Equal(t, "42", CustomerID(42).String())
	assert.True(t, CustomerID(0).IsNil())
	assert.False(t, CustomerID(1).IsNil())
	assert.True(t, CustomerID(1).Assignable())
	assert.False(t, CustomerID(0).Assignable())
	assert.False(t, CustomerID(-5).Assignable())
}

func TestAPIVersion(t *testing.T) {
	v, err := ParseAPIVersion("v1")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1", v.PathPrefix())

	_, err = ParseAPIVersion("v9")
	require.Error(t, err)
	assert.True(t, APIVersion("").IsNil())
}
