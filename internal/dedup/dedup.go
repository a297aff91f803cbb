// Package dedup removes repeated promos within a batch and against previously stored ones.
package dedup

import "github.com/Adda-Baaj/hot-promos/internal/domain"

// Batch keeps the first occurrence of each id, preserving order.
func Batch(items []domain.Promo) []domain.Promo {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.Promo, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// AgainstHistory drops every item whose id or title exactly matches a history record.
func AgainstHistory(items, history []domain.Promo) []domain.Promo {
	ids := make(map[string]struct{}, len(history))
	titles := make(map[string]struct{}, len(history))
	for _, h := range history {
		if h.ID != "" {
			ids[h.ID] = struct{}{}
		}
		if h.Title != "" {
			titles[h.Title] = struct{}{}
		}
	}

	out := make([]domain.Promo, 0, len(items))
	for _, it := range items {
		if _, ok := ids[it.ID]; ok {
			continue
		}
		if _, ok := titles[it.Title]; ok {
			continue
		}
		out = append(out, it)
	}
	return out
}
