package catalog

import (
	"errors"
	"testing"
)

func TestDefault_InitialIsRequested(t *testing.T) {
	c := Default()
	if c.Initial() != "Requested" {
		t.Errorf("Initial() = %q, want Requested", c.Initial())
	}
	if len(c) != 6 {
		t.Errorf("expected 6 default statuses, got %d", len(c))
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default catalog should be valid: %v", err)
	}
}

func TestCatalog_InitialFallback(t *testing.T) {
	var c Catalog
	if c.Initial() != FallbackInitialStatus {
		t.Errorf("empty catalog Initial() = %q", c.Initial())
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := Catalog{{Name: "Open", Color: "#fff"}, {Name: "Closed", Color: "#000000"}}

	if !c.Contains("Closed") || c.Contains("Missing") {
		t.Error("Contains returned the wrong result")
	}
	if c.Color("Open") != "#fff" {
		t.Errorf("Color(Open) = %q", c.Color("Open"))
	}
	if c.Color("Missing") != "" {
		t.Error("unknown status should have no color")
	}
	if got := c.Names(); len(got) != 2 || got[0] != "Open" {
		t.Errorf("Names() = %v", got)
	}
}

func TestCatalog_Validate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		wantErr bool
	}{
		{"empty", Catalog{}, true},
		{"blank name", Catalog{{Name: " "}}, true},
		{"duplicate", Catalog{{Name: "A"}, {Name: "A"}}, true},
		{"bad color", Catalog{{Name: "A", Color: "blue"}}, true},
		{"no color", Catalog{{Name: "A"}}, false},
		{"ok", Catalog{{Name: "A", Color: "#abcdef"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if !errors.Is(Catalog{}.Validate(), ErrEmptyCatalog) {
		t.Error("empty catalog should return ErrEmptyCatalog")
	}
	if !errors.Is(Catalog{{Name: ""}}.Validate(), ErrInvalidCatalog) {
		t.Error("catalog with an empty name should return ErrInvalidCatalog")
	}
}

func TestCatalog_CloneIsIndependent(t *testing.T) {
	c := Default()
	cp := c.Clone()
	cp[0].Name = "Changed"
	if c[0].Name != "Requested" {
		t.Error("Clone shares the backing array")
	}
}
