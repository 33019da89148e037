package review

// Category groups tags into the three axes weakness statistics track.
type Category string

const (
	CategoryEra     Category = "era"
	CategoryTheme   Category = "theme"
	CategoryMistake Category = "mistake"
)

// Tag is one entry in the review taxonomy: a historical era, a thematic
// field, or a mistake pattern.
type Tag struct {
	ID          string
	Category    Category
	Label       string
	Description string
}

// registry is the package-level tag registry, keyed by ID.
var registry map[string]*Tag

// byCategory indexes tags by category.
var byCategory map[Category][]*Tag

func init() {
	registry = make(map[string]*Tag, len(seedTags))
	byCategory = make(map[Category][]*Tag)
	for i := range seedTags {
		t := &seedTags[i]
		registry[t.ID] = t
		byCategory[t.Category] = append(byCategory[t.Category], t)
	}
}

// GetTag returns a tag by ID, or nil if not found.
func GetTag(id string) *Tag {
	return registry[id]
}

// TagsByCategory returns all tags in a category.
func TagsByCategory(c Category) []*Tag {
	return byCategory[c]
}

// AllTags returns every tag in the taxonomy.
func AllTags() []*Tag {
	result := make([]*Tag, 0, len(seedTags))
	for i := range seedTags {
		result = append(result, &seedTags[i])
	}
	return result
}

// KnownTag reports whether id belongs to the taxonomy.
func KnownTag(id string) bool {
	_, ok := registry[id]
	return ok
}
