package token

import "strings"

// Merge combines entries restored from a backup into the current set.
// Entries are matched by case-insensitive (issuer, account). On a
// match the entry with the newer UpdatedAt wins unless keepExisting is
// set, in which case the current entry always stays. A replaced entry
// keeps its current id — ids are immutable store keys and must not
// churn on restore. Unmatched restored entries are appended in backup
// order.
//
// The backup codec itself is merge-agnostic; this policy belongs to
// the caller.
func Merge(current, restored []Entry, keepExisting bool) []Entry {
	key := func(e Entry) string {
		return strings.ToLower(e.Issuer) + "\x00" + strings.ToLower(e.Account)
	}

	index := make(map[string]int, len(current))
	result := make([]Entry, len(current))
	copy(result, current)
	for i, e := range current {
		index[key(e)] = i
	}

	for _, r := range restored {
		i, ok := index[key(r)]
		if !ok {
			result = append(result, r)
			index[key(r)] = len(result) - 1
			continue
		}
		if keepExisting {
			continue
		}
		if r.UpdatedAt.After(result[i].UpdatedAt) {
			id := result[i].ID
			result[i] = r
			result[i].ID = id
		}
	}

	return result
}
