package app

import (
	"encoding/json"
	"fmt"
)

// The candidate ledger is a JSON array of distinct candidate strings.
// Appends are idempotent under exact string equality, which is what
// makes same-ledger write races tolerable: replaying stale-then-fresh
// appends in any order converges to the same set.

func decodeLedger(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode candidate ledger: %w", err)
	}
	return items, nil
}

func encodeLedger(items []string) ([]byte, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode candidate ledger: %w", err)
	}
	return raw, nil
}

// appendCandidate adds cand unless it is already present. Returns the
// (possibly unchanged) slice and whether anything was added.
func appendCandidate(items []string, cand string) ([]string, bool) {
	for _, existing := range items {
		if existing == cand {
			return items, false
		}
	}
	return append(items, cand), true
}
