package inventory

import "sync"

// Bucket identifies which inventory pool a resource lives in
type Bucket string

const (
	BucketSolid     Bucket = "solid"
	BucketLiquid    Bucket = "liquid"
	BucketLivestock Bucket = "livestock"
)

// Ledger is the single shared view over current resource quantities and
// capacity counters. It answers "do we have enough" and applies commutative
// deltas; it is never mutated by the resolver or the requirement evaluator.
//
// All mutations are add/subtract by resource id, so out-of-order application
// from multiple completed jobs is safe as long as each delta is applied
// exactly once.
type Ledger struct {
	mu        sync.RWMutex
	solid     map[string]float64
	liquid    map[string]float64
	livestock map[string]float64

	capacityTotal map[string]float64
	capacityUsed  map[string]float64
}

// Snapshot is the externally supplied ownership view the ledger is built from
type Snapshot struct {
	Solid         map[string]float64
	Liquid        map[string]float64
	Livestock     map[string]float64
	CapacityTotal map[string]float64
	CapacityUsed  map[string]float64
}

// NewLedger builds a ledger from an ownership snapshot. Nil maps are allowed.
func NewLedger(snap Snapshot) *Ledger {
	return &Ledger{
		solid:         copyAmounts(snap.Solid),
		liquid:        copyAmounts(snap.Liquid),
		livestock:     copyAmounts(snap.Livestock),
		capacityTotal: copyAmounts(snap.CapacityTotal),
		capacityUsed:  copyAmounts(snap.CapacityUsed),
	}
}

func copyAmounts(src map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Have returns the current quantity of a resource, looking through the
// solid, liquid and livestock buckets in that order.
func (l *Ledger) Have(resourceID string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.haveLocked(resourceID)
}

func (l *Ledger) haveLocked(resourceID string) float64 {
	if v, ok := l.solid[resourceID]; ok {
		return v
	}
	if v, ok := l.liquid[resourceID]; ok {
		return v
	}
	if v, ok := l.livestock[resourceID]; ok {
		return v
	}
	return 0
}

// CanAfford reports whether every entry of a normalized price map is covered
// by current stock. The returned shortfall list names each resource that is
// short; every entry is evaluated (entries are independent).
func (l *Ledger) CanAfford(price PriceMap) (bool, []string) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var shortfalls []string
	for _, line := range price {
		if l.haveLocked(line.ID) < line.Amount {
			shortfalls = append(shortfalls, line.ID)
		}
	}
	return len(shortfalls) == 0, shortfalls
}

// ApplyDelta applies a commutative resource delta (positive = credit,
// negative = debit). Each id lands in the bucket it already occupies;
// previously unseen resources default to the solid bucket.
func (l *Ledger) ApplyDelta(delta map[string]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, amount := range delta {
		if amount == 0 {
			continue
		}
		switch {
		case contains(l.liquid, id):
			l.liquid[id] += amount
		case contains(l.livestock, id):
			l.livestock[id] += amount
		default:
			l.solid[id] += amount
		}
	}
}

func contains(m map[string]float64, id string) bool {
	_, ok := m[id]
	return ok
}

// CapacityAvailable returns total minus used for a capacity counter
// (footprint, animal capacity). Unknown counters report zero available.
func (l *Ledger) CapacityAvailable(kind string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := l.capacityTotal[kind]
	used := l.capacityUsed[kind]
	if used < 0 {
		used = -used
	}
	return total - used
}

// ApplyCapacityDelta adjusts a capacity counter: negative deltas consume
// capacity (used grows), positive deltas grant it (total grows).
func (l *Ledger) ApplyCapacityDelta(kind string, delta float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if delta < 0 {
		l.capacityUsed[kind] += -delta
		return
	}
	l.capacityTotal[kind] += delta
}

// Amounts returns a copy of current quantities across all buckets,
// for status display.
func (l *Ledger) Amounts() map[string]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]float64, len(l.solid)+len(l.liquid)+len(l.livestock))
	for k, v := range l.solid {
		out[k] = v
	}
	for k, v := range l.liquid {
		out[k] = v
	}
	for k, v := range l.livestock {
		out[k] = v
	}
	return out
}
