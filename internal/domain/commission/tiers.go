package commission

import "github.com/shopspring/decimal"

type Tier struct {
	MinPercentage int
	Bonus         decimal.Decimal
}

// BonusTiers is ordered from the highest threshold down.
var BonusTiers = []Tier{
	{MinPercentage: 100, Bonus: decimal.NewFromInt(500)},
	{MinPercentage: 96, Bonus: decimal.NewFromInt(400)},
	{MinPercentage: 90, Bonus: decimal.NewFromInt(300)},
	{MinPercentage: 86, Bonus: decimal.NewFromInt(200)},
	{MinPercentage: 80, Bonus: decimal.NewFromInt(100)},
}

func BonusFor(percentage int) decimal.Decimal {
	for _, tier := range BonusTiers {
		if percentage >= tier.MinPercentage {
			return tier.Bonus
		}
	}
	return decimal.Zero
}
