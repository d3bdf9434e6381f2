package core

import "strings"

// Category is the closed spending-category enumeration. Values outside the
// set coerce to CategoryOther at the classifier boundary.
type Category string

const (
	CategoryFoodDining     Category = "food_dining"
	CategoryGroceries      Category = "groceries"
	CategoryTransportation Category = "transportation"
	CategoryUtilities      Category = "utilities"
	CategoryHousing        Category = "housing"
	CategoryHealthcare     Category = "healthcare"
	CategoryEntertainment  Category = "entertainment"
	CategoryShopping       Category = "shopping"
	CategoryEducation      Category = "education"
	CategoryTravel         Category = "travel"
	CategoryIncome         Category = "income"
	CategoryTransfer       Category = "transfer"
	CategoryOther          Category = "other"
)

// Categories lists every member of the enumeration, in the order presented
// to the external classifier.
var Categories = []Category{
	CategoryFoodDining,
	CategoryGroceries,
	CategoryTransportation,
	CategoryUtilities,
	CategoryHousing,
	CategoryHealthcare,
	CategoryEntertainment,
	CategoryShopping,
	CategoryEducation,
	CategoryTravel,
	CategoryIncome,
	CategoryTransfer,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory case-normalizes s and reports whether it is an exact member
// of the enumeration.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c, true
	}
	return CategoryOther, false
}

// CategoryNames returns the enumeration as plain strings, for prompts and
// validation messages.
func CategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return names
}
