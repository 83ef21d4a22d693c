package inventory

import "encoding/json"

// PriceLine is one canonical cost entry
type PriceLine struct {
	ID     string
	Amount float64
}

// PriceMap is the canonical cost form: resource id → price line.
// Produced by Normalize; all engine code consumes this shape only.
type PriceMap map[string]PriceLine

// Total returns the sum of all amounts (display helper)
func (p PriceMap) Total() float64 {
	var total float64
	for _, line := range p {
		total += line.Amount
	}
	return total
}

// Clone returns a copy that can be mutated without affecting the original
func (p PriceMap) Clone() PriceMap {
	out := make(PriceMap, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Negate returns the map with all amounts sign-flipped (escrow deltas)
func (p PriceMap) Negate() map[string]float64 {
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = -v.Amount
	}
	return out
}

// Amounts returns the map as plain resource → amount pairs
func (p PriceMap) Amounts() map[string]float64 {
	out := make(map[string]float64, len(p))
	for k, v := range p {
		out[k] = v.Amount
	}
	return out
}

// Normalize converts any of the accepted cost representations into a
// canonical PriceMap. Three input shapes are accepted:
//
//   - a list of {id, amount} rows
//   - a keyed map whose values are themselves {id, amount} objects
//   - a keyed map whose keys are resource ids and values are bare numbers
//
// Zero, negative and malformed entries are dropped silently: game content
// is externally supplied and the normalizer must be total. Applying
// Normalize to an already-normalized map yields an equal map.
func Normalize(spec interface{}) PriceMap {
	out := make(PriceMap)

	switch v := spec.(type) {
	case nil:
		return out

	case PriceMap:
		for key, line := range v {
			putLine(out, key, line.ID, line.Amount)
		}

	case map[string]PriceLine:
		for key, line := range v {
			putLine(out, key, line.ID, line.Amount)
		}

	case []interface{}:
		for _, row := range v {
			m, ok := row.(map[string]interface{})
			if !ok {
				continue
			}
			id, _ := m["id"].(string)
			amount, ok := toFloat(m["amount"])
			if !ok {
				continue
			}
			putLine(out, id, id, amount)
		}

	case map[string]interface{}:
		for key, raw := range v {
			// Value may be a bare number or a nested {id, amount} object
			if amount, ok := toFloat(raw); ok {
				putLine(out, key, key, amount)
				continue
			}
			if m, ok := raw.(map[string]interface{}); ok {
				id, _ := m["id"].(string)
				if id == "" {
					id = key
				}
				amount, ok := toFloat(m["amount"])
				if !ok {
					continue
				}
				putLine(out, key, id, amount)
			}
		}

	case map[string]float64:
		for key, amount := range v {
			putLine(out, key, key, amount)
		}

	case map[string]int:
		for key, amount := range v {
			putLine(out, key, key, float64(amount))
		}
	}

	return out
}

func putLine(out PriceMap, key, id string, amount float64) {
	if key == "" || amount <= 0 {
		return
	}
	if id == "" {
		id = key
	}
	out[key] = PriceLine{ID: id, Amount: amount}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
