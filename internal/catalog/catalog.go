package catalog

import "fmt"

// Subcategory is one searchable listing type inside a main category.
type Subcategory struct {
	Name  string
	Param int
}

// Category maps a main category to its search parameter and subcategories.
// Subcategories keep declaration order so runs are deterministic.
type Category struct {
	Name          string
	Param         int
	Subcategories []Subcategory
}

// Catalog is the static category structure of the source site.
// This is configuration, not runtime state; the site's c/t URL parameters
// are stable and change only when the site changes.
func Catalog() []Category {
	return []Category{
		{
			Name:  "rent",
			Param: 1,
			Subcategories: []Subcategory{
				{Name: "عقارات", Param: 1},
				{Name: "شقة", Param: 2},
				{Name: "بيت", Param: 3},
				{Name: "أرض", Param: 4},
				{Name: "عمارة", Param: 5},
				{Name: "شاليه", Param: 6},
				{Name: "مزرعة", Param: 7},
				{Name: "تجاري", Param: 8},
			},
		},
		{
			Name:  "sale",
			Param: 2,
			Subcategories: []Subcategory{
				{Name: "عقارات", Param: 1},
				{Name: "شقة", Param: 2},
				{Name: "بيت", Param: 3},
				{Name: "أرض", Param: 4},
				{Name: "عمارة", Param: 5},
				{Name: "شاليه", Param: 6},
				{Name: "مزرعة", Param: 7},
				{Name: "تجاري", Param: 8},
			},
		},
		{
			Name:  "exchange",
			Param: 3,
			Subcategories: []Subcategory{
				{Name: "بيوت", Param: 3},
				{Name: "أراضي", Param: 4},
			},
		},
	}
}

// Select returns the catalog restricted to the named categories.
// An empty selection returns the full catalog; unknown names are ignored.
func Select(names []string) []Category {
	full := Catalog()
	if len(names) == 0 {
		return full
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var out []Category
	for _, c := range full {
		if wanted[c.Name] {
			out = append(out, c)
		}
	}
	return out
}

// SearchURL substitutes the category and subcategory parameters into the
// search URL template.
func SearchURL(template string, c Category, s Subcategory) string {
	return fmt.Sprintf(template, c.Param, s.Param)
}
