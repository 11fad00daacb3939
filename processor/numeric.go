package processor

import "github.com/shopspring/decimal"

// nullSum is a SQL-style SUM: nulls are skipped and an all-null input is null.
type nullSum struct {
	sum decimal.Decimal
	n   int
}

func (s *nullSum) Add(d decimal.NullDecimal) {
	if !d.Valid {
		return
	}
	s.sum = s.sum.Add(d.Decimal)
	s.n++
}

func (s nullSum) Value() decimal.NullDecimal {
	if s.n == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(s.sum)
}

// Avg is the SQL-style AVG over the same inputs.
func (s nullSum) Avg() decimal.NullDecimal {
	if s.n == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(s.sum.Div(decimal.NewFromInt(int64(s.n))))
}

// divide returns num / den, or null when den is null or zero.
func divide(num decimal.Decimal, den decimal.NullDecimal) decimal.NullDecimal {
	if !den.Valid || den.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(num.Div(den.Decimal))
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
