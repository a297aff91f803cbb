package domain

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"strings"
	"time"
)

// Promo is a normalized deal listing scraped from a provider page.
type Promo struct {
	ID        string
	Title     string
	Price     string
	Temp      string
	Link      string
	CreatedAt time.Time

	// Provenance, used for logging only.
	Provider string
	Route    string
}

// Complete reports whether the promo carries a link and may be persisted and broadcast.
func (p Promo) Complete() bool {
	return strings.TrimSpace(p.Link) != ""
}

// PromoID derives the stable identity of a listing. The source-native id wins when the
// adapter extracted one; otherwise the link is hashed.
func PromoID(nativeID, link string) string {
	if id := strings.TrimSpace(nativeID); id != "" {
		return id
	}
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	sum := sha1.Sum([]byte(link))
	return hex.EncodeToString(sum[:])
}

// Record is the persisted shape of a promo.
type Record struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Temp      string `json:"temp,omitempty"`
	CreatedAt int64  `json:"created_at"`
	Link      string `json:"link"`
	Price     string `json:"price,omitempty"`
}

// RecordFromPromo maps a promo onto the store schema (created_at in epoch milliseconds).
func RecordFromPromo(p Promo) Record {
	return Record{
		ID:        p.ID,
		Title:     p.Title,
		Temp:      p.Temp,
		CreatedAt: p.CreatedAt.UnixMilli(),
		Link:      p.Link,
		Price:     p.Price,
	}
}

// Promo converts a stored record back into a promo.
func (r Record) Promo() Promo {
	p := Promo{
		ID:    r.ID,
		Title: r.Title,
		Temp:  r.Temp,
		Link:  r.Link,
		Price: r.Price,
	}
	if r.CreatedAt > 0 {
		p.CreatedAt = time.UnixMilli(r.CreatedAt).UTC()
	}
	return p
}
