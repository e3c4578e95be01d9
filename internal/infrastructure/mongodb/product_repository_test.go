package mongodb

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProductDocumentToEntity(t *testing.T) {
	oid := primitive.NewObjectID()
	now := time.Now().UTC()
	d := productDocument{
		ID:            oid,
		Name:          "Trail Runner",
		Price:         89.9,
		Category:      "shoes",
		Stock:         3,
		AverageRating: 4.5,
		ReviewCount:   2,
		CreatedAt:     now,
	}
	p := d.toEntity()
	if p.ID != oid.Hex() {
		t.Fatalf("id = %s", p.ID)
	}
	if p.Price.StringFixed(2) != "89.90" {
		t.Fatalf("price = %s", p.Price)
	}
	if p.AverageRating != 4.5 || p.ReviewCount != 2 || !p.CreatedAt.Equal(now) {
		t.Fatalf("unexpected product %+v", p)
	}
}

func TestValidID(t *testing.T) {
	var r ProductRepository
	cases := map[string]bool{
		primitive.NewObjectID().Hex(): true,
		"65a1b2c3d4e5f60718293a4b":     true,
		"":                             false,
		"not-an-id":                    false,
		"65a1b2c3d4e5f60718293a4":      false,
	}
	for id, want := range cases {
		if got := r.ValidID(id); got != want {
			t.Errorf("ValidID(%q) = %v, want %v", id, got, want)
		}
	}
}
