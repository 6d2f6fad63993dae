package domain

import "sort"

// MergeHistory unions per-account transaction lists into a single feed.
// Each transaction appears once, most recent first; equal timestamps order by id descending.
func MergeHistory(lists ...[]*Transaction) []*Transaction {
	seen := make(map[string]struct{})
	merged := make([]*Transaction, 0)

	for _, list := range lists {
		for _, tx := range list {
			if tx == nil {
				continue
			}
			if _, dup := seen[tx.ID]; dup {
				continue
			}
			seen[tx.ID] = struct{}{}
			merged = append(merged, tx)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Timestamp.Equal(merged[j].Timestamp) {
			return merged[i].ID > merged[j].ID
		}
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	return merged
}

// Paginate slices txs by limit and offset after ValidatePagination.
func Paginate(txs []*Transaction, limit, offset int) []*Transaction {
	limit, offset = ValidatePagination(limit, offset)
	if offset >= len(txs) {
		return []*Transaction{}
	}

	end := offset + limit
	if end > len(txs) {
		end = len(txs)
	}

	return txs[offset:end]
}
