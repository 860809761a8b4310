package resolver

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-asyncapi/pkg/spec"
)

func TestResolve_PromotesIdentifiedSchema(t *testing.T) {
	doc := spec.NewDocument()
	user := spec.NewSchema("object")
	user.ID = "User"
	user.SetProperty("name", spec.InlineSchema(spec.NewSchema("string")))

	got := Resolve(doc, user, "", "")
	if !got.IsRef() || got.Ref != "#/components/schemas/User" {
		t.Fatalf("expected reference to User, got %+v", got)
	}
	if !doc.Components.Schemas.Has("User") {
		t.Fatal("expected User in components.schemas")
	}
}

func TestResolve_SelfReferentialTerminates(t *testing.T) {
	doc := spec.NewDocument()

	node := spec.NewSchema("object")
	node.ID = "Node"
	node.SetProperty("next", spec.InlineSchema(node))

	got := Resolve(doc, node, "", "")
	if !got.IsRef() || got.Ref != "#/components/schemas/Node" {
		t.Fatalf("expected reference to Node, got %+v", got)
	}
	if doc.Components.Schemas.Len() != 1 {
		t.Fatalf("expected exactly one component, got keys %v", doc.Components.Schemas.Keys())
	}

	stored, _ := doc.Components.Schemas.Get("Node")
	next, _ := stored.Schema.Properties.Get("next")
	if !next.IsRef() || next.Ref != "#/components/schemas/Node" {
		t.Fatalf("expected next to be a self reference, got %+v", next)
	}
}

func TestResolve_SecondSubmissionIsIdempotent(t *testing.T) {
	doc := spec.NewDocument()

	order := spec.NewSchema("object")
	order.ID = "Order"
	order.SetProperty("total", spec.InlineSchema(spec.NewSchema("number")))

	first := Resolve(doc, order, "", "")

	// mutate after promotion: a second submission must not revisit children
	order.SetProperty("poison", spec.InlineSchema(&spec.Schema{ID: "Poison"}))
	second := Resolve(doc, order, "", "")

	if diff := cmp.Diff(first.Ref, second.Ref); diff != "" {
		t.Fatalf("ref mismatch (-first +second):\n%s", diff)
	}
	if doc.Components.Schemas.Has("Poison") {
		t.Fatal("second submission should not have recursed into children")
	}
}

func TestResolve_AnonymousRootUsesRootID(t *testing.T) {
	doc := spec.NewDocument()
	anon := spec.NewSchema("object")

	got := Resolve(doc, anon, "notificationCreated", "")
	if got.Ref != "#/components/schemas/notificationCreated" {
		t.Fatalf("expected rootID-keyed reference, got %+v", got)
	}
}

func TestResolve_InlineParentWithIdentifiedChildren(t *testing.T) {
	doc := spec.NewDocument()

	address := spec.NewSchema("object")
	address.ID = "Address"

	parent := spec.NewSchema("object")
	parent.SetProperty("home", spec.InlineSchema(address))
	parent.SetProperty("tag", spec.InlineSchema(spec.NewSchema("string")))

	got := Resolve(doc, parent, "", "")
	if got.IsRef() {
		t.Fatalf("anonymous parent without root id should stay inline, got ref %q", got.Ref)
	}
	home, _ := got.Schema.Properties.Get("home")
	if !home.IsRef() || home.Ref != "#/components/schemas/Address" {
		t.Fatalf("expected child promoted, got %+v", home)
	}
	tag, _ := got.Schema.Properties.Get("tag")
	if tag.IsRef() {
		t.Fatalf("anonymous child should stay inline, got ref %q", tag.Ref)
	}
}

func TestResolve_BaseIDPrefixesKeys(t *testing.T) {
	doc := spec.NewDocument()
	user := &spec.Schema{ID: "User", Types: spec.TypeSet{"object"}}

	got := Resolve(doc, user, "", "admin.")
	if got.Ref != "#/components/schemas/admin.User" {
		t.Fatalf("expected prefixed key, got %q", got.Ref)
	}
	if !doc.Components.Schemas.Has("admin.User") {
		t.Fatalf("expected prefixed component, got keys %v", doc.Components.Schemas.Keys())
	}
}

func TestResolve_RefAnnotationsCarried(t *testing.T) {
	doc := spec.NewDocument()
	user := &spec.Schema{
		ID:          "User",
		Types:       spec.TypeSet{"object"},
		Description: "an account holder",
		Default:     map[string]any{},
	}

	got := Resolve(doc, user, "", "")
	if got.Description != "an account holder" {
		t.Fatalf("expected description carried onto ref, got %q", got.Description)
	}
	if got.Default == nil {
		t.Fatal("expected default carried onto ref")
	}
}

func TestResolve_NilInputsFailClosed(t *testing.T) {
	if got := Resolve(nil, spec.NewSchema("string"), "X", ""); got.IsRef() {
		t.Fatalf("nil document should yield inline node, got ref %q", got.Ref)
	}
	doc := spec.NewDocument()
	if got := Resolve(doc, nil, "X", ""); got.IsRef() || got.Schema != nil {
		t.Fatalf("nil schema should yield empty inline node, got %+v", got)
	}
}
