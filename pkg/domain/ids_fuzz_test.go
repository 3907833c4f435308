package domain

import (
	"testing"
)

// FuzzParseCustomerID checks that parsing never panics and that accepted ids
// round-trip through their string form.
func FuzzParseCustomerID(f *testing.F) {
	f.Add("")
	f.Add("1")
	f.Add("999999")
	f.Add("-5")
	f.Add("'; DROP TABLE customers;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("9223372036854775808")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseCustomerID(input)
		if err != nil {
			return
		}
		if id <= 0 {
			t.Errorf("accepted non-positive id %d from %q", id, input)
		}
		roundTrip, err := ParseCustomerID(id.String())
		if err != nil {
			t.Errorf("valid id failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed id value")
		}
	})
}
