package catalog

import "testing"

func TestResolveItemExactAndAlias(t *testing.T) {
	c := MustLoad()

	item, ok := c.ResolveItem("Longsword")
	if !ok {
		t.Fatal("expected longsword to resolve")
	}
	if item.PriceCp != 1500 {
		t.Fatalf("expected 1500 cp, got %d", item.PriceCp)
	}

	aliased, ok := c.ResolveItem("healing potion")
	if !ok {
		t.Fatal("expected alias to resolve")
	}
	if aliased.Name != "Potion of Healing" {
		t.Fatalf("expected Potion of Healing, got %q", aliased.Name)
	}
	if !aliased.Consumable || aliased.HealNotation != "2d4+2" {
		t.Fatalf("expected healing consumable, got %+v", aliased)
	}
}

func TestResolveItemNormalizesArticles(t *testing.T) {
	c := MustLoad()

	item, ok := c.ResolveItem("  the   Longsword ")
	if !ok || item.Name != "Longsword" {
		t.Fatalf("expected article-stripped resolution, got %+v ok=%v", item, ok)
	}
}

func TestResolveItemFuzzy(t *testing.T) {
	c := MustLoad()

	item, ok := c.ResolveItem("longswrd")
	if !ok {
		t.Fatal("expected fuzzy match for misspelled item")
	}
	if item.Name != "Longsword" {
		t.Fatalf("expected Longsword, got %q", item.Name)
	}
}

func TestResolveItemMiss(t *testing.T) {
	c := MustLoad()

	if _, ok := c.ResolveItem("zzzzqqqq"); ok {
		t.Fatal("expected no match for gibberish")
	}
	if _, ok := c.ResolveItem("   "); ok {
		t.Fatal("expected no match for blank name")
	}
}

func TestResolveSpellLevels(t *testing.T) {
	c := MustLoad()

	tests := []struct {
		name          string
		wantLevel     int
		concentration bool
	}{
		{"Fire Bolt", 0, false},
		{"fireball", 3, false},
		{"Hold Person", 2, true},
		{"cure wounds", 1, false},
	}
	for _, tt := range tests {
		spell, ok := c.ResolveSpell(tt.name)
		if !ok {
			t.Fatalf("expected %q to resolve", tt.name)
		}
		if spell.Level != tt.wantLevel {
			t.Fatalf("%q: expected level %d, got %d", tt.name, tt.wantLevel, spell.Level)
		}
		if spell.Concentration != tt.concentration {
			t.Fatalf("%q: expected concentration=%v", tt.name, tt.concentration)
		}
	}
}

func TestResolveSpellFuzzy(t *testing.T) {
	c := MustLoad()

	spell, ok := c.ResolveSpell("firebal")
	if !ok {
		t.Fatal("expected fuzzy spell match")
	}
	if spell.Name != "Fireball" {
		t.Fatalf("expected Fireball, got %q", spell.Name)
	}
}
