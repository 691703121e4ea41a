package catalog_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/csvcharts/internal/catalog"
)

func TestCatalogAddSaveLoad(t *testing.T) {
	dir := t.TempDir()
	c := catalog.New(dir)
	e, err := c.Add("claims", "https://example.com/data/claims.csv", "insurance claims")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.ID == "" {
		t.Fatalf("expected generated id")
	}
	if _, err := c.Add("policies", filepath.Join("data", "policies.csv"), ""); err != nil {
		t.Fatalf("add policies: %v", err)
	}
	if err := c.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := catalog.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.RootDir() != dir {
		t.Fatalf("root dir %s, want %s", loaded.RootDir(), dir)
	}
	list := loaded.List()
	if len(list) != 2 || list[0].Name != "claims" || list[1].Name != "policies" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if !filepath.IsAbs(list[1].Source) {
		t.Fatalf("local source should be absolute, got %s", list[1].Source)
	}
	if got := loaded.Resolve("CLAIMS"); got != "https://example.com/data/claims.csv" {
		t.Fatalf("resolve by name: %s", got)
	}
	if got := loaded.Resolve(e.ID); got != e.Source {
		t.Fatalf("resolve by id: %s", got)
	}
	if got := loaded.Resolve("./other.csv"); got != "./other.csv" {
		t.Fatalf("literal path should pass through, got %s", got)
	}
}

func TestCatalogDuplicateAndRemove(t *testing.T) {
	c := catalog.New(t.TempDir())
	if _, err := c.Add("claims", "a.csv", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := c.Add("Claims", "b.csv", ""); !errors.Is(err, catalog.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := c.Remove("claims"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := c.Remove("claims"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := c.Add("", "x.csv", ""); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestLoadMissingCatalogIsEmpty(t *testing.T) {
	c, err := catalog.Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.List()) != 0 {
		t.Fatalf("expected empty catalog")
	}
	var nilCat *catalog.Catalog
	if nilCat.Resolve("x.csv") != "x.csv" {
		t.Fatalf("nil catalog should pass keys through")
	}
}
