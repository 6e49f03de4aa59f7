/*
points.go - Function-weight selection policies

PURPOSE:
  A worked day can be registered under several functions at once. The
  selection policy decides how their weights combine into the single
  effective multiplier used to weight hours into points.

POLICIES:
  maior:    the maximum weight among the selected functions
  primeira: the weight of the first function in selection order
  soma:     the sum of all selected weights

DOWNSTREAM USE:
  points = hours × multiplier
  suggested daily value = hours × base rate × multiplier (advisory; the
  user can override it when registering the day)
*/
package payroll

import "github.com/shopspring/decimal"

// SelectionPolicy picks how multiple function weights combine.
type SelectionPolicy string

const (
	PolicyMaior    SelectionPolicy = "maior"
	PolicyPrimeira SelectionPolicy = "primeira"
	PolicySoma     SelectionPolicy = "soma"
)

// Valid reports whether p is one of the known policies.
func (p SelectionPolicy) Valid() bool {
	switch p {
	case PolicyMaior, PolicyPrimeira, PolicySoma:
		return true
	}
	return false
}

// EffectiveMultiplier combines the selected functions' weights under the
// given policy. Returns zero for an empty selection. Pure.
func EffectiveMultiplier(selected []Function, policy SelectionPolicy) decimal.Decimal {
	if len(selected) == 0 {
		return decimal.Zero
	}
	switch policy {
	case PolicyPrimeira:
		return selected[0].Weight
	case PolicySoma:
		sum := decimal.Zero
		for _, f := range selected {
			sum = sum.Add(f.Weight)
		}
		return sum
	default: // maior
		max := selected[0].Weight
		for _, f := range selected[1:] {
			if f.Weight.GreaterThan(max) {
				max = f.Weight
			}
		}
		return max
	}
}

// Points weights hours worked by the effective multiplier.
func Points(hours, multiplier decimal.Decimal) decimal.Decimal {
	return hours.Mul(multiplier)
}

// SuggestedDailyValue computes the advisory daily value from hours, the
// configured base rate (currency per hour) and the effective multiplier.
// The user can edit the result; the consolidation engine never enforces it.
func SuggestedDailyValue(hours, baseRate, multiplier decimal.Decimal) decimal.Decimal {
	return hours.Mul(baseRate).Mul(multiplier)
}
