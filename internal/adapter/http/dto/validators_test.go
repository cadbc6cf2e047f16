package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CreateWithdrawalRequest{
		UserID:   "  6a1f6f0e-1111-4222-8333-444455556666  ",
		Amount:   40000,
		BankInfo: " VCB 00123456789 ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "6a1f6f0e-1111-4222-8333-444455556666", req.UserID)
	assert.Equal(t, "VCB 00123456789", req.BankInfo)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := CreateWithdrawalRequest{
		UserID:   "6a1f6f0e-1111-4222-8333-444455556666",
		Amount:   40000,
		BankInfo: "VCB <script>alert('x')</script> 001",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.BankInfo, "&lt;script&gt;")
	assert.NotContains(t, req.BankInfo, "<script>")
}

func TestSanitizeStruct_NonStructIsNoop(t *testing.T) {
	s := "  hello  "
	SanitizeStruct(&s)
	assert.Equal(t, "  hello  ", s)

	SanitizeStruct(nil)
}

// --- safe_id validator ---

func TestValidateSafeID(t *testing.T) {
	cases := []struct {
		value string
		ok    bool
	}{
		{"scheduled", true},
		{"mark_paid", true},
		{"status.v2", true},
		{"a-b-c", true},
		{"has space", false},
		{"semi;colon", false},
		{"<tag>", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, safeStringRe.MatchString(tc.value), "value %q", tc.value)
	}
}
