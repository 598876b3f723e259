package npdsdk

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// maxAmount keeps kopecks well inside int64.
var maxAmount = decimal.New(9, 15)

// Amount is a sum of money in kopecks. Keeping amounts integral makes the
// submitted total match the service's own sum of the lines exactly.
type Amount int64

// AmountFromFloat converts a rouble value such as 150.555 to kopecks,
// rounding half away from zero. The value is rounded as written in decimal,
// so 1.005 becomes 1.01 even though its binary form is slightly smaller.
func AmountFromFloat(roubles float64) (Amount, error) {
	if math.IsNaN(roubles) || math.IsInf(roubles, 0) {
		return 0, fmt.Errorf("%w: amount is not a number", ErrInvalidIncome)
	}
	return amountFromDecimal(decimal.NewFromFloat(roubles))
}

func amountFromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative amount", ErrInvalidIncome)
	}
	if d.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: amount too large", ErrInvalidIncome)
	}
	return Amount(d.Round(2).Shift(2).IntPart()), nil
}

// String formats the amount with exactly two decimals, e.g. "301.12".
func (a Amount) String() string {
	sign := ""
	if a < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s%d.%02d", sign, int64(a)/100, int64(a)%100)
}

// Float returns the amount in roubles.
func (a Amount) Float() float64 {
	return float64(a) / 100
}

// MarshalJSON encodes the amount as a JSON number in roubles.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number in roubles.
func (a *Amount) UnmarshalJSON(data []byte) error {
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", string(data), err)
	}
	v, err := amountFromDecimal(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// totalOf sums amount × quantity over the services, rounding once at the end
// so fractional quantities do not round per line.
func totalOf(services []Service) Amount {
	sum := decimal.Zero
	for _, s := range services {
		sum = sum.Add(decimal.NewFromInt(int64(s.Amount)).Mul(decimal.NewFromFloat(s.Quantity)))
	}
	return Amount(sum.Round(0).IntPart())
}
