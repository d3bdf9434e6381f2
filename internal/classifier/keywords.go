package classifier

import (
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// keywordGroup binds a category to the description keywords that select it.
type keywordGroup struct {
	category core.Category
	keywords []string
}

// fallbackGroups is evaluated in order, first match wins. The ordering is
// fixed so that a description matching several groups always resolves the
// same way between runs.
var fallbackGroups = []keywordGroup{
	{core.CategoryFoodDining, []string{"restaurant", "mcdonald", "burger", "pizza", "cafe", "coffee", "dining"}},
	{core.CategoryGroceries, []string{"grocery", "supermarket", "walmart", "target", "costco", "market"}},
	{core.CategoryTransportation, []string{"gas", "shell", "exxon", "bp", "chevron", "fuel"}},
}

// fallbackCategory is the deterministic keyword classifier used when the
// model is unavailable. Positive amounts resolve to income without touching
// the keyword table.
func fallbackCategory(description string, amount decimal.Decimal) core.Category {
	if amount.IsPositive() {
		return core.CategoryIncome
	}

	lower := strings.ToLower(description)
	for _, group := range fallbackGroups {
		for _, keyword := range group.keywords {
			if strings.Contains(lower, keyword) {
				return group.category
			}
		}
	}
	return core.CategoryOther
}
