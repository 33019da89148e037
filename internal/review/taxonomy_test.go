package review

import "testing"

func TestGetTag_Found(t *testing.T) {
	tag := GetTag("era-kamakura")
	if tag == nil {
		t.Fatal("GetTag(era-kamakura) returned nil")
	}
	if tag.Category != CategoryEra {
		t.Errorf("category = %q, want %q", tag.Category, CategoryEra)
	}
	if tag.Label == "" || tag.Description == "" {
		t.Error("label or description is empty")
	}
}

func TestGetTag_NotFound(t *testing.T) {
	if tag := GetTag("nonexistent"); tag != nil {
		t.Errorf("GetTag(nonexistent) = %v, want nil", tag)
	}
}

func TestTagsByCategory(t *testing.T) {
	tests := []struct {
		category Category
		want     int
	}{
		{CategoryEra, 8},
		{CategoryTheme, 6},
		{CategoryMistake, 6},
	}
	for _, tt := range tests {
		tags := TagsByCategory(tt.category)
		if len(tags) != tt.want {
			t.Errorf("TagsByCategory(%s) = %d entries, want %d", tt.category, len(tags), tt.want)
		}
	}
}

func TestSeedData_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for _, tag := range seedTags {
		if seen[tag.ID] {
			t.Errorf("duplicate tag ID: %s", tag.ID)
		}
		seen[tag.ID] = true
	}
}

func TestSeedData_AllFieldsPopulated(t *testing.T) {
	for _, tag := range seedTags {
		if tag.ID == "" || tag.Label == "" || tag.Description == "" {
			t.Errorf("tag %q has empty fields", tag.ID)
		}
		switch tag.Category {
		case CategoryEra, CategoryTheme, CategoryMistake:
		default:
			t.Errorf("tag %q has unknown category %q", tag.ID, tag.Category)
		}
	}
}
