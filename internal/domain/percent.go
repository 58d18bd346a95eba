package domain

import (
	"fmt"
	"math/big"
	"strings"
)

var hundred = NewFractionInt(100, 1)

// Percent is a fraction displayed as a percentage.
type Percent struct {
	Fraction
}

func NewPercent(numerator, denominator *big.Int) Percent {
	return Percent{Fraction: NewFraction(numerator, denominator)}
}

func NewPercentInt(numerator, denominator int64) Percent {
	return Percent{Fraction: NewFractionInt(numerator, denominator)}
}

// PercentFromBps builds a percent from basis points.
func PercentFromBps(bps int64) Percent {
	return NewPercentInt(bps, 10000)
}

// Bps rounds the percent down to whole basis points.
func (p Percent) Bps() int64 {
	v := p.Fraction.MulInt(BasisPoints).Quotient()
	if !v.IsInt64() {
		return 0
	}
	return v.Int64()
}

func (p Percent) ToSignificant(digits int32) string {
	return p.Fraction.Mul(hundred).ToSignificant(digits)
}

func (p Percent) ToFixed(places int32) string {
	return p.Fraction.Mul(hundred).ToFixed(places)
}

func (p Percent) String() string {
	return p.ToFixed(2) + "%"
}

type TradeType uint8

const (
	ExactInput TradeType = iota
	ExactOutput
)

func (t TradeType) String() string {
	switch t {
	case ExactInput:
		return "EXACT_INPUT"
	case ExactOutput:
		return "EXACT_OUTPUT"
	default:
		return "UNKNOWN"
	}
}

// ParseTradeType accepts EXACT_INPUT / EXACT_OUTPUT and the ExactIn / ExactOut spellings.
func ParseTradeType(s string) (TradeType, error) {
	switch strings.ToUpper(strings.ReplaceAll(s, "_", "")) {
	case "EXACTINPUT", "EXACTIN":
		return ExactInput, nil
	case "EXACTOUTPUT", "EXACTOUT":
		return ExactOutput, nil
	}
	return 0, fmt.Errorf("unknown trade type %q", s)
}
