package domain

// ClaimStatus is the lifecycle state of a claim.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimRejected ClaimStatus = "rejected"
	ClaimPaid     ClaimStatus = "paid"
)

// claimTransitions lists the explicit status changes. paid is reached only by
// recording a successful claim payment.
var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimPending:  {ClaimApproved, ClaimRejected},
	ClaimApproved: {ClaimRejected},
}

// ParseClaimStatus validates a claim status string.
func ParseClaimStatus(s string) (ClaimStatus, error) {
	switch st := ClaimStatus(s); st {
	case ClaimPending, ClaimApproved, ClaimRejected, ClaimPaid:
		return st, nil
	}
	return "", Validationf("invalid claim status '%s'", s)
}

// CanTransition reports whether a claim may move from s to next.
func (s ClaimStatus) CanTransition(next ClaimStatus) bool {
	for _, allowed := range claimTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanPending   LoanStatus = "pending"
	LoanApproved  LoanStatus = "approved"
	LoanRepaid    LoanStatus = "repaid"
	LoanDefaulted LoanStatus = "defaulted"
)

// repaid is terminal: it has no outgoing edges.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanPending:   {LoanApproved},
	LoanApproved:  {LoanDefaulted, LoanRepaid},
	LoanDefaulted: {LoanApproved, LoanRepaid},
}

// ParseLoanStatus validates a loan status string.
func ParseLoanStatus(s string) (LoanStatus, error) {
	switch st := LoanStatus(s); st {
	case LoanPending, LoanApproved, LoanRepaid, LoanDefaulted:
		return st, nil
	}
	return "", Validationf("invalid loan status '%s'", s)
}

// CanTransition reports whether an explicit status change from s to next is allowed.
func (s LoanStatus) CanTransition(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s LoanStatus) Terminal() bool {
	return len(loanTransitions[s]) == 0
}

// PolicyStatus is the state of an insurance policy.
type PolicyStatus string

const (
	PolicyActive    PolicyStatus = "active"
	PolicyExpired   PolicyStatus = "expired"
	PolicyCancelled PolicyStatus = "cancelled"
)

// ParsePolicyStatus validates a policy status; empty means active.
func ParsePolicyStatus(s string) (PolicyStatus, error) {
	switch st := PolicyStatus(s); st {
	case "":
		return PolicyActive, nil
	case PolicyActive, PolicyExpired, PolicyCancelled:
		return st, nil
	}
	return "", Validationf("invalid policy status '%s'", s)
}
