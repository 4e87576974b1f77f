package collections

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/rs/zerolog"
)

func TestUpserter_CreatesMissingCollection(t *testing.T) {
	catalog := newFakeCatalog()
	u := NewUpserter(catalog, zerolog.Nop())

	res, err := u.Upsert(context.Background(), "HBO", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if !res.Created || res.Added != 2 {
		t.Errorf("Created/Added = %v/%d, want true/2", res.Created, res.Added)
	}
	col := catalog.collectionNamed("HBO")
	if col == nil {
		t.Fatal("collection HBO not created")
	}
	if res.CollectionID != col.ID {
		t.Errorf("CollectionID = %q, want %q", res.CollectionID, col.ID)
	}
	if got := catalog.members[col.ID]; !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("members = %v, want [a b]", got)
	}
}

func TestUpserter_ReusesExactNameOnly(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.collections = []Collection{{ID: "lower", Name: "hbo"}, {ID: "exact", Name: "HBO"}}
	u := NewUpserter(catalog, zerolog.Nop())

	res, err := u.Upsert(context.Background(), "HBO", []string{"a"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if res.Created {
		t.Error("existing collection should be reused")
	}
	if res.CollectionID != "exact" {
		t.Errorf("CollectionID = %q, want exact", res.CollectionID)
	}
	if len(catalog.collections) != 2 {
		t.Errorf("collections = %d, want 2", len(catalog.collections))
	}
}

func TestUpserter_Idempotent(t *testing.T) {
	catalog := newFakeCatalog()
	u := NewUpserter(catalog, zerolog.Nop())
	ctx := context.Background()

	first, err := u.Upsert(ctx, "HBO", []string{"a", "b"})
	if err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}
	second, err := u.Upsert(ctx, "HBO", []string{"a", "b"})
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	if first.CollectionID != second.CollectionID {
		t.Errorf("CollectionID changed from %q to %q", first.CollectionID, second.CollectionID)
	}
	if second.Created || second.Added != 0 {
		t.Errorf("second Created/Added = %v/%d, want false/0", second.Created, second.Added)
	}
	if got := catalog.members[first.CollectionID]; !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("members = %v, want [a b]", got)
	}
	if catalog.addCalls != 1 {
		t.Errorf("addCalls = %d, want 1; second upsert must not write", catalog.addCalls)
	}
}

func TestUpserter_AdditiveMerge(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.collections = []Collection{{ID: "c1", Name: "HBO"}}
	catalog.members["c1"] = []string{"m1", "m2"}
	u := NewUpserter(catalog, zerolog.Nop())

	res, err := u.Upsert(context.Background(), "HBO", []string{"s1", "s2"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if res.Added != 2 {
		t.Errorf("Added = %d, want 2", res.Added)
	}
	got := append([]string(nil), catalog.members["c1"]...)
	sort.Strings(got)
	if want := []string{"m1", "m2", "s1", "s2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("members = %v, want %v", got, want)
	}
}

func TestUpserter_PartialOverlap(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.collections = []Collection{{ID: "c1", Name: "HBO"}}
	catalog.members["c1"] = []string{"a"}
	u := NewUpserter(catalog, zerolog.Nop())

	res, err := u.Upsert(context.Background(), "HBO", []string{"a", "b", "b"})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if res.Added != 1 {
		t.Errorf("Added = %d, want 1", res.Added)
	}
	if got := catalog.members["c1"]; !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("members = %v, want [a b]", got)
	}
}

func TestUpserter_SharedName(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.collections = []Collection{{ID: "first", Name: "HBO"}, {ID: "second", Name: "HBO"}}
	u := NewUpserter(catalog, zerolog.Nop())

	res, err := u.Upsert(context.Background(), "HBO", nil)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !res.Shared {
		t.Error("Shared = false, want true")
	}
	if res.CollectionID != "first" {
		t.Errorf("CollectionID = %q, want first", res.CollectionID)
	}
}

func TestUpserter_EmptyShowsStillCreates(t *testing.T) {
	catalog := newFakeCatalog()
	u := NewUpserter(catalog, zerolog.Nop())

	res, err := u.Upsert(context.Background(), "HBO", nil)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !res.Created || res.Added != 0 {
		t.Errorf("Created/Added = %v/%d, want true/0", res.Created, res.Added)
	}
	if catalog.addCalls != 0 {
		t.Errorf("addCalls = %d, want 0", catalog.addCalls)
	}
}

func TestUpserter_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		setup func(*fakeCatalog)
		want  []error
	}{
		{"create", func(c *fakeCatalog) { c.createErr = boom }, []error{ErrCatalogWriteFailed, ErrCreateFailed, boom}},
		{"add", func(c *fakeCatalog) { c.addErr = boom }, []error{ErrCatalogWriteFailed, ErrAddFailed}},
		{"list", func(c *fakeCatalog) { c.listErr = boom }, []error{ErrCatalogReadFailed}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := newFakeCatalog()
			tt.setup(catalog)

			_, err := NewUpserter(catalog, zerolog.Nop()).Upsert(context.Background(), "HBO", []string{"a"})
			if err == nil {
				t.Fatal("expected error")
			}
			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Errorf("Upsert() error = %v, want it to wrap %v", err, want)
				}
			}
		})
	}
}
