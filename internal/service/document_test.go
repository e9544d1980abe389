package service

import (
	"errors"
	"testing"

	"github.com/jalonsogo/figma-conveyor/internal/repository"
)

func TestDocumentServiceCreateAndVersions(t *testing.T) {
	env := newTestEnv(t)

	doc := env.createDocument(t)
	if doc.Key == "" || doc.Version != 1 || doc.Name != "Sample" {
		t.Fatalf("unexpected created document: %+v", doc)
	}

	updated, err := env.docs.SetSelection(doc.Key, []string{"card"})
	if err != nil {
		t.Fatalf("SetSelection error: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2, got %d", updated.Version)
	}

	tree, record, err := env.docs.LoadTree(doc.Key)
	if err != nil {
		t.Fatalf("LoadTree error: %v", err)
	}
	if record.Version != 2 || len(tree.Selection) != 1 || tree.Selection[0] != "card" {
		t.Fatalf("unexpected selection state: version=%d selection=%v", record.Version, tree.Selection)
	}

	versions, err := env.docs.GetVersions(doc.Key)
	if err != nil || len(versions) != 2 {
		t.Fatalf("GetVersions: versions=%d err=%v", len(versions), err)
	}

	list, err := env.docs.List()
	if err != nil || len(list) != 1 {
		t.Fatalf("List: docs=%d err=%v", len(list), err)
	}
}

func TestDocumentServiceErrors(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.docs.Create(CreateDocumentRequest{Tree: []byte(`{"pages": []}`)}); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}

	doc := env.createDocument(t)
	if _, err := env.docs.SetSelection(doc.Key, []string{"nope"}); !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode, got %v", err)
	}
	if _, err := env.docs.GetVersions("missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := env.docs.LoadTree("missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
