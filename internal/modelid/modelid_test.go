package modelid

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Identifier
		wantErr bool
	}{
		{"minecraft:block/stone", New("minecraft", "block/stone"), false},
		{"block/stone", New(DefaultNamespace, "block/stone"), false},
		{":block/stone", New(DefaultNamespace, "block/stone"), false},
		{"ExampleMod:Item/Lens", New("examplemod", "item/lens"), false},
		{"examplemod:", Identifier{}, true},
		{"bad ns:item", Identifier{}, true},
		{"examplemod:item lens", Identifier{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidIdentifier) {
				t.Errorf("expected ErrInvalidIdentifier, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("minecraft:trident_in_hand#inventory")
	if err != nil {
		t.Fatalf("ParseModel failed: %v", err)
	}
	if m.Identifier != New("minecraft", "trident_in_hand") {
		t.Errorf("unexpected base %v", m.Identifier)
	}
	if m.Variant != "inventory" {
		t.Errorf("expected variant inventory, got %q", m.Variant)
	}
	if m.String() != "minecraft:trident_in_hand#inventory" {
		t.Errorf("round trip mismatch: %s", m)
	}

	plain, err := ParseModel("minecraft:block/stone")
	if err != nil {
		t.Fatalf("ParseModel failed: %v", err)
	}
	if plain.Variant != "" || plain.String() != "minecraft:block/stone" {
		t.Errorf("unexpected model identifier %v", plain)
	}

	if _, err := ParseModel("minecraft:lamp#lit=true,facing=north"); err != nil {
		t.Errorf("expected property variant to parse, got %v", err)
	}
	if _, err := ParseModel("minecraft:lamp#bad variant"); err == nil {
		t.Error("expected error for variant with space")
	}
}

func TestKeyRoundTrip(t *testing.T) {
	m := MustParseModel("minecraft:spyglass_in_hand#inventory")
	key := m.Key()
	if key.Path != "spyglass_in_hand#inventory" {
		t.Errorf("unexpected key path %q", key.Path)
	}
	if back := SplitKey(key); back != m {
		t.Errorf("SplitKey(Key()) = %v, want %v", back, m)
	}

	plain := MustParseModel("minecraft:block/stone")
	if plain.Key() != plain.Identifier {
		t.Errorf("expected plain key to equal identifier")
	}
}

func TestLess(t *testing.T) {
	a := New("a", "z")
	b := New("b", "a")
	c := New("b", "b")
	if !a.Less(b) || !b.Less(c) || c.Less(a) {
		t.Error("unexpected ordering")
	}
}
