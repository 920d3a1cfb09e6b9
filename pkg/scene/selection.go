package scene

// Coordinator is the selection policy: given one entry's active-state
// change, decide which siblings must be deactivated so that at most one
// entry per cluster is active. Deactivations get no side effects of their
// own, which keeps the rule idempotent and order-independent.
type Coordinator struct{}

// Apply enforces the policy over a cluster's entries. Called synchronously
// from the changing entry, before persistence sees the change. commit
// carries the origin of the change: sibling deactivations caused by a
// remote activation stay local, because the store already reflects them.
func (Coordinator) Apply(siblings []*Entry, changed *Entry, active bool, t Transition, commit bool) {
	if !active {
		return
	}
	for _, en := range siblings {
		if en != changed && en.IsActive() {
			en.setActive(false, t, commit)
		}
	}
}
