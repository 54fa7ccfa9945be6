package names

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestLoad(t *testing.T) {
	table, err := Load(filepath.Join("testdata", "names.yaml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if table.Title("EVENT_FESTIVAL") != "Festival of Lanterns" {
		t.Fatalf("unexpected title %q", table.Title("EVENT_FESTIVAL"))
	}
	if table.Title("EVENT_UNKNOWN") != "EVENT_UNKNOWN" {
		t.Fatalf("expected key fallback")
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("npc without first name", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "names.yaml")
		if err := os.WriteFile(path, []byte("npc_names:\n  - {last: Voss}\n"), 0o600); err != nil {
			t.Fatalf("writing file: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestExpand(t *testing.T) {
	table, err := Load(filepath.Join("testdata", "names.yaml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"no placeholders", "Quiet day.", "Quiet day."},
		{"node", "Storm over {nodeName}.", "Storm over Harbor."},
		{"npc parts", "{npcFirstName} {npcLastName} of the {cultureName}", "Ada Voss of the Tidefolk"},
		{"full npc", "{npcName} speaks", "Ada Voss speaks"},
		{"repeated token", "{nodeName}, {nodeName}", "Harbor, Harbor"},
		{"unknown token kept", "{dragonName} attacks", "{dragonName} attacks"},
		{"unbalanced brace", "{nodeName", "{nodeName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Expand(tt.template, newRand()); got != tt.want {
				t.Fatalf("Expand(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestNilTable(t *testing.T) {
	var table *Table
	if got := table.Expand("{nodeName}", newRand()); got != "{nodeName}" {
		t.Fatalf("expected template unchanged, got %q", got)
	}
	if table.Title("KEY") != "KEY" {
		t.Fatalf("expected key fallback")
	}
	if _, ok := table.ResolvePlaceholder(NodeName, newRand()); ok {
		t.Fatalf("expected nil table to resolve nothing")
	}

	empty := &Table{}
	if got := empty.Expand("{npcFirstName}", newRand()); got != "{npcFirstName}" {
		t.Fatalf("expected empty lists to leave tokens, got %q", got)
	}
}

func TestResolvePlaceholder(t *testing.T) {
	table := &Table{NPCNames: []Person{{First: "Bren"}}}
	if v, ok := table.ResolvePlaceholder(NPCFirstName, newRand()); !ok || v != "Bren" {
		t.Fatalf("unexpected first name %q %v", v, ok)
	}
	if _, ok := table.ResolvePlaceholder(NPCLastName, newRand()); ok {
		t.Fatalf("expected missing last name to be unresolved")
	}
	if v, _ := table.ResolvePlaceholder(NPCName, newRand()); v != "Bren" {
		t.Fatalf("unexpected full name %q", v)
	}
}
