package domain

// MirrorPolicy decides which department postings are mirrored into the
// central ledger and which of those collapse into one same-day voucher.
// In the observed deployments only the hospital scope mirrors; the policy
// is configuration rather than divergent code paths.
type MirrorPolicy struct {
	mirror    map[Scope]bool
	aggregate map[Scope]map[TransactionKind]bool
}

// NewMirrorPolicy builds a policy from the set of mirroring scopes and the
// (scope, kind) pairs whose same-day postings aggregate into one voucher.
func NewMirrorPolicy(mirrorScopes []Scope, aggregateDaily map[Scope][]TransactionKind) MirrorPolicy {
	p := MirrorPolicy{
		mirror:    make(map[Scope]bool, len(mirrorScopes)),
		aggregate: make(map[Scope]map[TransactionKind]bool, len(aggregateDaily)),
	}
	for _, s := range mirrorScopes {
		p.mirror[s] = true
	}
	for s, kinds := range aggregateDaily {
		m := make(map[TransactionKind]bool, len(kinds))
		for _, k := range kinds {
			m[k] = true
		}
		p.aggregate[s] = m
	}
	return p
}

// Mirrors reports whether postings in scope are mirrored into main.
func (p MirrorPolicy) Mirrors(scope Scope) bool {
	return p.mirror[scope]
}

// AggregatesDaily reports whether same-day postings of (scope, kind)
// merge into a single voucher instead of creating one voucher each.
func (p MirrorPolicy) AggregatesDaily(scope Scope, kind TransactionKind) bool {
	return p.aggregate[scope][kind]
}
