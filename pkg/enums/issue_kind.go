package enums

import "fmt"

// IssueKind enumerates the findings a cart validation pass can report.
type IssueKind string

const (
	IssueKindOutOfStock          IssueKind = "out_of_stock"
	IssueKindApprovalRequired    IssueKind = "approval_required"
	IssueKindBelowMinimumOrder   IssueKind = "below_minimum_order"
	IssueKindDeliveryUnavailable IssueKind = "delivery_unavailable"
)

var validIssueKinds = []IssueKind{
	IssueKindOutOfStock,
	IssueKindApprovalRequired,
	IssueKindBelowMinimumOrder,
	IssueKindDeliveryUnavailable,
}

// String implements fmt.Stringer.
func (i IssueKind) String() string {
	return string(i)
}

// IsValid reports whether the value is known.
func (i IssueKind) IsValid() bool {
	for _, candidate := range validIssueKinds {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseIssueKind converts raw input into an IssueKind.
func ParseIssueKind(value string) (IssueKind, error) {
	for _, candidate := range validIssueKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid issue kind %q", value)
}
