package forecast

import "github.com/shopspring/decimal"

// DefaultReorderLevel applies to products with no configured threshold.
const DefaultReorderLevel = 10

var safetyMultiplier = decimal.RequireFromString("1.2")

// ReorderSuggestion returns how many units to keep on order: the predicted demand
// plus 20% safety stock, but never less than the product's reorder level.
func ReorderSuggestion(predicted int, reorderLevel *int) int {
	level := DefaultReorderLevel
	if reorderLevel != nil && *reorderLevel > 0 {
		level = *reorderLevel
	}

	withSafety := decimal.NewFromInt(int64(predicted)).Mul(safetyMultiplier).Round(0).IntPart()
	if int(withSafety) > level {
		return int(withSafety)
	}
	return level
}
