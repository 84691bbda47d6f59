package domain

// Scope identifies one departmental ledger or the central ledger.
type Scope string

const (
	ScopeHospital  Scope = "hospital"
	ScopeMedicine  Scope = "medicine"
	ScopeOperation Scope = "operation"
	ScopeOptics    Scope = "optics"

	// ScopeMain is the central ledger that mirrors selected department
	// postings as vouchers. It never receives postings directly.
	ScopeMain Scope = "main"
)

// DepartmentScopes lists the scopes that accept postings.
var DepartmentScopes = []Scope{
	ScopeHospital,
	ScopeMedicine,
	ScopeOperation,
	ScopeOptics,
}

// IsDepartment reports whether s is a posting-capable department scope.
func (s Scope) IsDepartment() bool {
	switch s {
	case ScopeHospital, ScopeMedicine, ScopeOperation, ScopeOptics:
		return true
	}
	return false
}

// IsValid reports whether s is a known scope, including main.
func (s Scope) IsValid() bool {
	return s == ScopeMain || s.IsDepartment()
}

// Prefix returns the short code used in transaction numbers.
func (s Scope) Prefix() string {
	switch s {
	case ScopeHospital:
		return "HOS"
	case ScopeMedicine:
		return "MED"
	case ScopeOperation:
		return "OPR"
	case ScopeOptics:
		return "OPT"
	case ScopeMain:
		return "MAIN"
	}
	return "UNK"
}
