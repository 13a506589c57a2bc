package formulas

import (
	"fmt"
	"math"
)

// Bond models a fixed-coupon bond priced off a flat yield curve, settling on
// a coupon date with no embedded options.
//
// All rates are decimals (5% = 0.05), time is in years, and prices are in
// the same units as the face value.
type Bond struct {
	FaceValue       float64
	CouponRate      float64
	YearsToMaturity int
	YieldToMaturity float64
	PaymentsPerYear int
}

// NewBond validates the parameters and constructs a Bond.
func NewBond(faceValue, couponRate float64, yearsToMaturity int, yieldToMaturity float64, paymentsPerYear int) (*Bond, error) {
	if faceValue <= 0 {
		return nil, fmt.Errorf("face value must be positive, got %v", faceValue)
	}
	if couponRate < 0 {
		return nil, fmt.Errorf("coupon rate cannot be negative, got %v", couponRate)
	}
	if yearsToMaturity <= 0 {
		return nil, fmt.Errorf("years to maturity must be positive, got %d", yearsToMaturity)
	}
	// Negative yields are allowed, but the discount factor must stay defined.
	if yieldToMaturity <= -1 {
		return nil, fmt.Errorf("yield to maturity must be greater than -1, got %v", yieldToMaturity)
	}
	switch paymentsPerYear {
	case 1, 2, 4, 12:
	default:
		return nil, fmt.Errorf("payments per year must be 1, 2, 4 or 12, got %d", paymentsPerYear)
	}

	return &Bond{
		FaceValue:       faceValue,
		CouponRate:      couponRate,
		YearsToMaturity: yearsToMaturity,
		YieldToMaturity: yieldToMaturity,
		PaymentsPerYear: paymentsPerYear,
	}, nil
}

func (b *Bond) totalPeriods() int {
	return b.YearsToMaturity * b.PaymentsPerYear
}

func (b *Bond) periodicCoupon() float64 {
	return b.CouponRate * b.FaceValue / float64(b.PaymentsPerYear)
}

func (b *Bond) periodicYield() float64 {
	return b.YieldToMaturity / float64(b.PaymentsPerYear)
}

// cashFlow returns the payment in period t (1-based); the final period pays
// the coupon plus principal.
func (b *Bond) cashFlow(t int) float64 {
	cf := b.periodicCoupon()
	if t == b.totalPeriods() {
		cf += b.FaceValue
	}
	return cf
}

// Price returns the present value of all future cash flows.
func (b *Bond) Price() float64 {
	y := b.periodicYield()
	total := 0.0
	for t := 1; t <= b.totalPeriods(); t++ {
		total += b.cashFlow(t) / math.Pow(1+y, float64(t))
	}
	return total
}

// MacaulayDuration returns the PV-weighted average time to cash flows, in
// years.
func (b *Bond) MacaulayDuration() float64 {
	y := b.periodicYield()
	price := b.Price()
	weighted := 0.0
	for t := 1; t <= b.totalPeriods(); t++ {
		pv := b.cashFlow(t) / math.Pow(1+y, float64(t))
		weighted += float64(t) * pv
	}
	return weighted / price / float64(b.PaymentsPerYear)
}

// ModifiedDuration returns the first-order price sensitivity to yield.
func (b *Bond) ModifiedDuration() float64 {
	return b.MacaulayDuration() / (1 + b.periodicYield())
}

// Convexity returns the curvature of the price-yield relationship, in years
// squared.
func (b *Bond) Convexity() float64 {
	y := b.periodicYield()
	price := b.Price()
	sum := 0.0
	for t := 1; t <= b.totalPeriods(); t++ {
		discount := math.Pow(1+y, float64(t+2))
		sum += b.cashFlow(t) * float64(t) * float64(t+1) / discount
	}
	return sum / (price * float64(b.PaymentsPerYear*b.PaymentsPerYear))
}

// EstimatePriceChange estimates the relative price change for a yield shift
// using the duration-convexity adjustment.
func (b *Bond) EstimatePriceChange(yieldShift float64) float64 {
	return -b.ModifiedDuration()*yieldShift + 0.5*b.Convexity()*yieldShift*yieldShift
}
