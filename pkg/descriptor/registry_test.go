package descriptor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistry_RequiresName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Type{}); err == nil {
		t.Fatal("expected error for unnamed descriptor")
	}
	if err := r.Register(Type{Name: "  "}); err == nil {
		t.Fatal("expected error for blank descriptor name")
	}
}

func TestRegistry_ForDocumentFiltersAndOrders(t *testing.T) {
	r := NewRegistry()
	for _, tt := range []Type{
		{Name: "Orders", Documents: []string{"commerce"}},
		{Name: "Everywhere"},
		{Name: "Audit", Documents: []string{"Internal"}},
	} {
		if err := r.Register(tt); err != nil {
			t.Fatalf("register %s: %v", tt.Name, err)
		}
	}

	names := func(types []Type) []string {
		out := make([]string, len(types))
		for i, tt := range types {
			out[i] = tt.Name
		}
		return out
	}

	if diff := cmp.Diff([]string{"Orders", "Everywhere"}, names(r.ForDocument("commerce"))); diff != "" {
		t.Fatalf("commerce mismatch (-want +got):\n%s", diff)
	}
	// document filter matching is case-insensitive
	if diff := cmp.Diff([]string{"Everywhere", "Audit"}, names(r.ForDocument("INTERNAL"))); diff != "" {
		t.Fatalf("internal mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Everywhere"}, names(r.ForDocument("unknown"))); diff != "" {
		t.Fatalf("unknown mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_ForDocumentMemoizes(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Type{Name: "First"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	before := r.ForDocument("docs")
	if len(before) != 1 {
		t.Fatalf("expected one descriptor, got %d", len(before))
	}

	// late registration is invisible to an already-discovered document
	if err := r.Register(Type{Name: "Late"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	after := r.ForDocument("docs")
	if len(after) != 1 {
		t.Fatalf("memoized discovery must not see late registrations, got %d", len(after))
	}

	// a document discovered after the late registration sees both
	fresh := r.ForDocument("other")
	if len(fresh) != 2 {
		t.Fatalf("expected two descriptors for fresh document, got %d", len(fresh))
	}
}
