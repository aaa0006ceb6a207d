package permission

import (
	"testing"

	"github.com/jabolina/go-sync/internal/model"
)

func TestAllowAll(t *testing.T) {
	r := AllowAll()
	if !r.Visible("doc-1", "peer-a") {
		t.Fatalf("expected AllowAll to admit every document/peer pair")
	}
	if !r.Mutable("doc-1", "peer-a") {
		t.Fatalf("expected AllowAll to admit mutation for every document/peer pair")
	}
}

func TestZeroValueDefaultsToAllow(t *testing.T) {
	var r Rules
	if !r.Visible("doc-1", "peer-a") {
		t.Fatalf("expected a zero-value Rules to default to visible")
	}
	if !r.Mutable("doc-1", "peer-a") {
		t.Fatalf("expected a zero-value Rules to default to mutable")
	}
}

func TestCustomPredicates(t *testing.T) {
	r := Rules{
		Visibility: func(docId model.DocId, peer model.PeerId) bool {
			return peer == "trusted"
		},
		Mutability: func(docId model.DocId, peer model.PeerId) bool {
			return false
		},
	}
	if !r.Visible("doc-1", "trusted") {
		t.Fatalf("expected trusted peer to see the document")
	}
	if r.Visible("doc-1", "stranger") {
		t.Fatalf("expected stranger not to see the document")
	}
	if r.Mutable("doc-1", "trusted") {
		t.Fatalf("expected mutability to be denied regardless of peer")
	}
}
