package scoring

import (
	"math"
	"time"

	"salonpro-crm/models"
)

// Sub-score caps. They add up to 100; the coupon bonus rides on top and the
// total is clamped.
const (
	capFrequency   = 15.0
	capConsistency = 10.0
	capSpend       = 10.0
	capOrderValue  = 5.0
	capRegularity  = 10.0
	capEngagement  = 10.0
	capReliability = 15.0
	capRecency     = 15.0
	capDiversity   = 5.0
	capPremium     = 5.0

	couponBonus = 5.0
)

// Breakdown holds every weighted sub-score that makes up Score.
type Breakdown struct {
	Frequency   float64 `json:"frequency"`
	Consistency float64 `json:"consistency"`
	Spend       float64 `json:"spend"`
	OrderValue  float64 `json:"orderValue"`
	Regularity  float64 `json:"regularity"`
	Engagement  float64 `json:"engagement"`
	Reliability float64 `json:"reliability"`
	Recency     float64 `json:"recency"`
	Diversity   float64 `json:"diversity"`
	Premium     float64 `json:"premium"`
	Coupon      float64 `json:"coupon"`
}

// Total is the unclamped sum of the sub-scores.
func (b Breakdown) Total() float64 {
	return b.Frequency + b.Consistency + b.Spend + b.OrderValue + b.Regularity +
		b.Engagement + b.Reliability + b.Recency + b.Diversity + b.Premium + b.Coupon
}

// Result is everything the client card shows.
type Result struct {
	Score             int       `json:"score"`
	ReturnProbability int       `json:"returnProbability"`
	Level             Level     `json:"level"`
	Patterns          []Pattern `json:"patterns"`
	Actions           []Action  `json:"actions"`
	Breakdown         Breakdown `json:"breakdown"`
	Metrics           Metrics   `json:"metrics"`
}

// Evaluate scores one client. client may be nil when only the order history is known.
func Evaluate(orders []models.Order, client *models.Client, now time.Time) Result {
	m := Analyze(orders, now)
	hasCoupon := client != nil && client.Coupon != nil && *client.Coupon != ""

	res := Result{
		Metrics:           m,
		Breakdown:         ComputeBreakdown(m, hasCoupon),
		ReturnProbability: ReturnProbability(m),
	}
	res.Score = Score(m, hasCoupon)

	var createdAt time.Time
	if client != nil {
		createdAt = client.CreatedAt
	}
	res.Level = LevelFor(res.Score, m, createdAt, now)
	res.Patterns = DetectPatterns(m)
	res.Actions = SuggestActions(res.Level, res.Patterns, m, hasCoupon)
	return res
}

// Score is the 0–100 loyalty/value score. A client without orders scores 0.
func Score(m Metrics, hasCoupon bool) int {
	if m.Orders == 0 {
		return 0
	}
	return clampPercent(ComputeBreakdown(m, hasCoupon).Total())
}

// ComputeBreakdown evaluates each weighted sub-score.
func ComputeBreakdown(m Metrics, hasCoupon bool) Breakdown {
	if m.Orders == 0 {
		return Breakdown{}
	}
	b := Breakdown{
		Frequency:   capped(m.VisitsPerMonth*7.5, capFrequency),
		Consistency: capped(float64(m.RecentVisits)*2.5, capConsistency),
		Spend:       capped(m.TotalSpend/100, capSpend),
		OrderValue:  capped(m.AverageOrderValue/20, capOrderValue),
		Regularity:  regularityPoints(m),
		Engagement:  capped(float64(m.Upcoming)*5, capEngagement),
		Reliability: ReliabilityPoints(m),
		Recency:     recencyPoints(m.DaysSinceLastVisit),
		Diversity:   capped(float64(m.DistinctServices)*1.25, capDiversity),
		Premium:     capped(float64(m.PremiumLines)*2.5, capPremium),
	}
	if hasCoupon {
		b.Coupon = couponBonus
	}
	return b
}

// ReliabilityPoints is the inverse of the no-show/cancellation rate.
func ReliabilityPoints(m Metrics) float64 {
	if m.Orders == 0 {
		return 0
	}
	return capReliability * (1 - m.MissRate())
}

func regularityPoints(m Metrics) float64 {
	if m.Intervals == 0 {
		return 0
	}
	var pts float64
	switch {
	case m.MeanInterval <= 30:
		pts = 5
	case m.MeanInterval <= 60:
		pts = 3
	case m.MeanInterval <= 90:
		pts = 1.5
	}
	if m.Intervals == 1 {
		// one gap says nothing about variance yet
		pts += 2.5
	} else {
		pts += 5 * math.Max(0, 1-m.IntervalCV)
	}
	return capped(pts, capRegularity)
}

func recencyPoints(days int) float64 {
	switch {
	case days < 0:
		return 0
	case days <= 14:
		return 15
	case days <= 30:
		return 12
	case days <= 60:
		return 8
	case days <= 90:
		return 5
	case days <= 180:
		return 2
	default:
		return 0
	}
}

// Return probability weights.
const (
	weightRecency     = 0.25
	weightFrequency   = 0.25
	weightEngagement  = 0.20
	weightReliability = 0.20
	weightLoyalty     = 0.10
)

// ReturnProbability estimates, 0–100, how likely the client is to book again.
func ReturnProbability(m Metrics) int {
	if m.Orders == 0 {
		return 0
	}
	engagement := 0.6*math.Min(1, float64(m.Upcoming)) + 0.4*math.Min(1, float64(m.RecentVisits)/3)
	p := weightRecency*recencyFactor(m.DaysSinceLastVisit) +
		weightFrequency*math.Min(1, m.VisitsPerMonth/2) +
		weightEngagement*engagement +
		weightReliability*(1-m.MissRate()) +
		weightLoyalty*m.TopServiceShare
	return clampPercent(p * 100)
}

func recencyFactor(days int) float64 {
	switch {
	case days < 0:
		return 0
	case days <= 14:
		return 1
	case days <= 30:
		return 0.85
	case days <= 60:
		return 0.6
	case days <= 90:
		return 0.4
	case days <= 180:
		return 0.2
	default:
		return 0.05
	}
}

func capped(v, limit float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Min(v, limit)
}

func clampPercent(v float64) int {
	r := int(math.Round(v))
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}
