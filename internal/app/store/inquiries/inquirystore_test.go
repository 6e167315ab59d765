package inquirystore_test

import (
	"context"
	"testing"

	memdocs "github.com/dalemusser/dispatchhub/internal/app/store/docstore/memory"
	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	inquirystore "github.com/dalemusser/dispatchhub/internal/app/store/inquiries"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
)

func TestStore_SetLocation_MergesOnlyLocation(t *testing.T) {
	docs := memdocs.New()
	store := inquirystore.New(docs)
	ctx := context.Background()

	_ = docs.UpsertMerge(ctx, docstore.CollectionInquiry, "i1", docstore.Document{
		"address":     "1 Main St",
		"city":        "Springfield",
		"description": "needs groceries",
	})

	if err := store.SetLocation(ctx, "i1", models.Location{Latitude: 39.8, Longitude: -89.6}); err != nil {
		t.Fatalf("SetLocation failed: %v", err)
	}

	inq, err := store.Get(ctx, "i1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if inq.Description != "needs groceries" || inq.Address != "1 Main St" {
		t.Errorf("other fields changed: %+v", inq)
	}
	if inq.Location == nil || inq.Location.Latitude != 39.8 || inq.Location.Longitude != -89.6 {
		t.Errorf("unexpected location %+v", inq.Location)
	}
}

func TestStore_List_SkipsUndecodable(t *testing.T) {
	docs := memdocs.New()
	store := inquirystore.New(docs)
	ctx := context.Background()

	_ = docs.UpsertMerge(ctx, docstore.CollectionInquiry, "good", docstore.Document{"city": "Springfield"})
	_ = docs.UpsertMerge(ctx, docstore.CollectionInquiry, "bad", docstore.Document{"location": "not an object"})

	var badIDs []string
	got, err := store.List(ctx, func(id string, err error) { badIDs = append(badIDs, id) })
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "good" {
		t.Errorf("unexpected inquiries: %+v", got)
	}
	if len(badIDs) != 1 || badIDs[0] != "bad" {
		t.Errorf("bad ids = %v, want [bad]", badIDs)
	}
}
