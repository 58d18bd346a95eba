package amm

import (
	"fmt"

	"github.com/hxuan190/amm-router/internal/domain"
)

// Trade is a route priced for one concrete amount.
type Trade struct {
	Route          *Route
	TradeType      domain.TradeType
	InputAmount    domain.CurrencyAmount
	OutputAmount   domain.CurrencyAmount
	ExecutionPrice domain.Price
	PriceImpact    domain.Percent
}

func ExactIn(route *Route, amountIn domain.CurrencyAmount) (*Trade, error) {
	return NewTrade(route, amountIn, domain.ExactInput)
}

func ExactOut(route *Route, amountOut domain.CurrencyAmount) (*Trade, error) {
	return NewTrade(route, amountOut, domain.ExactOutput)
}

// NewTrade simulates amount through every pair of the route, forward for
// exact input and backward for exact output.
func NewTrade(route *Route, amount domain.CurrencyAmount, tradeType domain.TradeType) (*Trade, error) {
	n := len(route.Pairs)
	amounts := make([]domain.CurrencyAmount, n+1)

	switch tradeType {
	case domain.ExactInput:
		if !amount.Currency.Equals(route.Input) {
			return nil, fmt.Errorf("%w: amount in %s, route input %s", ErrTokenMismatch, amount.Currency, route.Input)
		}
		amounts[0] = amount.Wrapped()
		for i, p := range route.Pairs {
			out, _, err := p.GetOutputAmount(amounts[i], true)
			if err != nil {
				return nil, err
			}
			amounts[i+1] = out
		}
	case domain.ExactOutput:
		if !amount.Currency.Equals(route.Output) {
			return nil, fmt.Errorf("%w: amount in %s, route output %s", ErrTokenMismatch, amount.Currency, route.Output)
		}
		amounts[n] = amount.Wrapped()
		for i := n; i > 0; i-- {
			in, _, err := route.Pairs[i-1].GetInputAmount(amounts[i], true)
			if err != nil {
				return nil, err
			}
			amounts[i-1] = in
		}
	default:
		return nil, fmt.Errorf("unknown trade type %d", tradeType)
	}

	var input, output domain.CurrencyAmount
	if tradeType == domain.ExactInput {
		input = amount
	} else {
		input = domain.FromFractionalAmount(route.Input, amounts[0].Numerator(), amounts[0].Denominator())
	}
	if tradeType == domain.ExactOutput {
		output = amount
	} else {
		output = domain.FromFractionalAmount(route.Output, amounts[n].Numerator(), amounts[n].Denominator())
	}

	impact, err := computePriceImpact(route, input, output)
	if err != nil {
		return nil, err
	}
	return &Trade{
		Route:          route,
		TradeType:      tradeType,
		InputAmount:    input,
		OutputAmount:   output,
		ExecutionPrice: domain.NewPrice(input.Currency, output.Currency, input.Quotient(), output.Quotient()),
		PriceImpact:    impact,
	}, nil
}

// computePriceImpact compares the output with what the mid price promises for the input.
func computePriceImpact(route *Route, input, output domain.CurrencyAmount) (domain.Percent, error) {
	mid, err := route.MidPrice()
	if err != nil {
		return domain.Percent{}, err
	}
	quoted, err := mid.QuoteAmount(input)
	if err != nil {
		return domain.Percent{}, err
	}
	if quoted.Sign() == 0 {
		return domain.NewPercentInt(0, 1), nil
	}
	impact := quoted.Fraction.Sub(output.Fraction).Div(quoted.Fraction)
	return domain.NewPercent(impact.Numerator(), impact.Denominator()), nil
}

func checkSlippage(slippage domain.Percent) error {
	if slippage.Sign() < 0 {
		return ErrInvalidSlippage
	}
	return nil
}

// MinimumAmountOut is the least output accepted under slippage. Exact-output trades return the output unchanged.
func (t *Trade) MinimumAmountOut(slippage domain.Percent) (domain.CurrencyAmount, error) {
	if err := checkSlippage(slippage); err != nil {
		return domain.CurrencyAmount{}, err
	}
	if t.TradeType == domain.ExactOutput {
		return t.OutputAmount, nil
	}
	factor := domain.NewFractionInt(1, 1).Add(slippage.Fraction).Invert()
	minOut := factor.MulInt(t.OutputAmount.Quotient()).Quotient()
	return domain.FromRawAmount(t.OutputAmount.Currency, minOut), nil
}

// MaximumAmountIn is the most input spent under slippage. Exact-input trades return the input unchanged.
func (t *Trade) MaximumAmountIn(slippage domain.Percent) (domain.CurrencyAmount, error) {
	if err := checkSlippage(slippage); err != nil {
		return domain.CurrencyAmount{}, err
	}
	if t.TradeType == domain.ExactInput {
		return t.InputAmount, nil
	}
	factor := domain.NewFractionInt(1, 1).Add(slippage.Fraction)
	maxIn := factor.MulInt(t.InputAmount.Quotient()).Quotient()
	return domain.FromRawAmount(t.InputAmount.Currency, maxIn), nil
}

func (t *Trade) WorstExecutionPrice(slippage domain.Percent) (domain.Price, error) {
	maxIn, err := t.MaximumAmountIn(slippage)
	if err != nil {
		return domain.Price{}, err
	}
	minOut, err := t.MinimumAmountOut(slippage)
	if err != nil {
		return domain.Price{}, err
	}
	return domain.NewPrice(maxIn.Currency, minOut.Currency, maxIn.Quotient(), minOut.Quotient()), nil
}

// InputOutputComparator orders trades by larger output, then smaller input.
func InputOutputComparator(a, b *Trade) int {
	if c := a.OutputAmount.Fraction.Cmp(b.OutputAmount.Fraction); c != 0 {
		return -c
	}
	return a.InputAmount.Fraction.Cmp(b.InputAmount.Fraction)
}

// TradeComparator extends InputOutputComparator with lower price impact, then fewer hops.
func TradeComparator(a, b *Trade) int {
	if c := InputOutputComparator(a, b); c != 0 {
		return c
	}
	if c := a.PriceImpact.Cmp(b.PriceImpact.Fraction); c != 0 {
		return c
	}
	return len(a.Route.Path) - len(b.Route.Path)
}
