package core

// Snapshot is the full working set delivered by a store backend.
// Consumers replace it wholesale on every change-feed event; there is
// no incremental merging.
type Snapshot struct {
	Heads        []Head
	Transactions []Transaction
}

// HeadByID resolves a head by its identifier with a linear lookup.
// All transaction-to-head joins happen here, client side.
func (s Snapshot) HeadByID(id string) (Head, bool) {
	for _, h := range s.Heads {
		if h.ID == id {
			return h, true
		}
	}
	return Head{}, false
}
