package domain

import (
	"testing"
	"time"
)

func TestPromoIDIsDeterministic(t *testing.T) {
	links := []string{"https://deals.example/t/1", " https://deals.example/t/2 ", "x"}
	for _, link := range links {
		first := PromoID("", link)
		second := PromoID("", link)
		if first == "" || first != second {
			t.Fatalf("PromoID(%q) not stable: %q vs %q", link, first, second)
		}
	}
}

func TestPromoIDPrefersNativeID(t *testing.T) {
	if got := PromoID(" 12345 ", "https://deals.example/t/1"); got != "12345" {
		t.Fatalf("expected native id, got %q", got)
	}
	if got := PromoID("", ""); got != "" {
		t.Fatalf("expected empty id without native id or link, got %q", got)
	}
}

func TestPromoIDSameListingAcrossPages(t *testing.T) {
	// The same listing may show up with surrounding whitespace on different pages.
	if PromoID("", "https://deals.example/t/1") != PromoID("", "https://deals.example/t/1\n") {
		t.Fatalf("expected equal ids for the same link")
	}
}

func TestRecordUsesEpochMillis(t *testing.T) {
	created := time.Date(2024, time.March, 1, 12, 30, 0, 250*int(time.Millisecond), time.UTC)
	p := Promo{ID: "1", Title: "Deal", Link: "http://x/1", Price: "$10", Temp: "150°", CreatedAt: created}

	rec := RecordFromPromo(p)
	if rec.CreatedAt != created.UnixMilli() {
		t.Fatalf("created_at = %d, want %d", rec.CreatedAt, created.UnixMilli())
	}

	back := rec.Promo()
	if !back.CreatedAt.Equal(created) {
		t.Fatalf("created_at round trip: got %v want %v", back.CreatedAt, created)
	}
	if back.ID != p.ID || back.Title != p.Title || back.Link != p.Link || back.Price != p.Price || back.Temp != p.Temp {
		t.Fatalf("unexpected promo %#v", back)
	}
}

func TestCompleteRequiresLink(t *testing.T) {
	if (Promo{Title: "x"}).Complete() {
		t.Fatalf("promo without link must not be complete")
	}
	if (Promo{Title: "x", Link: "   "}).Complete() {
		t.Fatalf("whitespace link must not be complete")
	}
	if !(Promo{Title: "x", Link: "http://x"}).Complete() {
		t.Fatalf("promo with link must be complete")
	}
}
