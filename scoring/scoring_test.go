package scoring

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonpro-crm/models"
)

var now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func order(daysAgo float64, status string, price float64, services ...models.OrderService) models.Order {
	start := now.Add(-time.Duration(daysAgo * float64(day)))
	return models.Order{
		ID:       uuid.New(),
		StartAt:  start,
		EndAt:    start.Add(time.Hour),
		Price:    price,
		Status:   status,
		Services: services,
	}
}

var (
	cut   = models.OrderService{Name: "Cut", Price: 40, DurationMinutes: 45}
	color = models.OrderService{Name: "Color", Price: 90, DurationMinutes: 90, Premium: true}
)

func TestEmptyHistoryScoresZero(t *testing.T) {
	coupon := "WELCOME10"
	client := &models.Client{Coupon: &coupon, CreatedAt: now.Add(-5 * day)}

	res := Evaluate(nil, client, now)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 0, res.ReturnProbability)
	assert.Equal(t, LevelNew, res.Level)

	deletedOnly := []models.Order{order(3, models.OrderDeleted, 100, cut)}
	res = Evaluate(deletedOnly, client, now)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, 0, res.ReturnProbability)
}

func TestAnalyzeClassifiesOrders(t *testing.T) {
	orders := []models.Order{
		order(60, models.OrderCompleted, 40, cut),
		order(30, models.OrderCompleted, 130, cut, color),
		order(10, models.OrderNoShow, 40, cut),
		order(5, models.OrderCancelled, 40, cut),
		order(2, models.OrderDeleted, 40, cut),
		order(-7, models.OrderConfirmed, 40, cut),
		order(-60, models.OrderPending, 40, cut),
	}
	m := Analyze(orders, now)

	assert.Equal(t, 6, m.Orders)
	assert.Equal(t, 2, m.Visits)
	assert.Equal(t, 1, m.NoShows)
	assert.Equal(t, 1, m.Cancelled)
	assert.Equal(t, 1, m.Upcoming)
	assert.Equal(t, 2, m.RecentVisits)
	assert.InDelta(t, 170, m.TotalSpend, 1e-9)
	assert.InDelta(t, 85, m.AverageOrderValue, 1e-9)
	assert.Equal(t, 30, m.DaysSinceLastVisit)
	assert.Equal(t, 1, m.Intervals)
	assert.InDelta(t, 30, m.MeanInterval, 1e-9)
	assert.Equal(t, 2, m.DistinctServices)
	assert.Equal(t, 1, m.PremiumLines)
	assert.Equal(t, "Cut", m.TopService)
	assert.InDelta(t, 2.0/3.0, m.TopServiceShare, 1e-9)
	assert.InDelta(t, 0.5, m.MissRate(), 1e-9)
}

func TestScoreBreakdown(t *testing.T) {
	orders := []models.Order{
		order(84, models.OrderCompleted, 50, cut),
		order(56, models.OrderCompleted, 50, cut),
		order(28, models.OrderCompleted, 50, cut),
		order(7, models.OrderCompleted, 150, cut, color),
		order(-14, models.OrderConfirmed, 50, cut),
	}
	m := Analyze(orders, now)
	b := ComputeBreakdown(m, false)

	assert.InDelta(t, 10, b.Consistency, 1e-9)
	assert.InDelta(t, 3, b.Spend, 1e-9)
	assert.InDelta(t, 3.75, b.OrderValue, 1e-9)
	assert.InDelta(t, 5, b.Engagement, 1e-9)
	assert.InDelta(t, 15, b.Reliability, 1e-9)
	assert.InDelta(t, 15, b.Recency, 1e-9)
	assert.InDelta(t, 2.5, b.Diversity, 1e-9)
	assert.InDelta(t, 2.5, b.Premium, 1e-9)
	assert.Zero(t, b.Coupon)

	withCoupon := ComputeBreakdown(m, true)
	assert.InDelta(t, b.Total()+5, withCoupon.Total(), 1e-9)
	assert.Equal(t, Score(m, false)+5, Score(m, true))
}

func TestScoreIsClamped(t *testing.T) {
	var orders []models.Order
	for i := 0; i < 40; i++ {
		orders = append(orders, order(float64(i*7), models.OrderCompleted, 300, cut, color))
	}
	for i := 1; i <= 3; i++ {
		orders = append(orders, order(float64(-i*7), models.OrderConfirmed, 300, cut))
	}
	m := Analyze(orders, now)
	assert.Equal(t, 100, Score(m, true))
	assert.LessOrEqual(t, ReturnProbability(m), 100)
}

func randomHistory(r *rand.Rand) []models.Order {
	statuses := models.OrderStatuses
	catalog := []models.OrderService{cut, color, {Name: "Blow dry", Price: 25, DurationMinutes: 30}}
	n := r.Intn(25)
	orders := make([]models.Order, 0, n)
	for i := 0; i < n; i++ {
		daysAgo := r.Float64()*500 - 60
		var svcs []models.OrderService
		lines := r.Intn(3) + 1
		for j := 0; j < lines; j++ {
			svcs = append(svcs, catalog[r.Intn(len(catalog))])
		}
		orders = append(orders, order(daysAgo, statuses[r.Intn(len(statuses))], float64(r.Intn(300)), svcs...))
	}
	return orders
}

func TestScoreAndProbabilityStayInRange(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	coupon := "X"
	for i := 0; i < 500; i++ {
		orders := randomHistory(r)
		client := &models.Client{CreatedAt: now.Add(-time.Duration(r.Intn(400)) * day)}
		if r.Intn(2) == 0 {
			client.Coupon = &coupon
		}
		res := Evaluate(orders, client, now)
		assert.GreaterOrEqual(t, res.Score, 0)
		assert.LessOrEqual(t, res.Score, 100)
		assert.GreaterOrEqual(t, res.ReturnProbability, 0)
		assert.LessOrEqual(t, res.ReturnProbability, 100)
		assert.Contains(t, Levels, res.Level)
	}
}

// onCadenceVisit is a completed order priced at least at the current average,
// placed one mean interval after the last visit, reusing the top service.
func onCadenceVisit(m Metrics, orders []models.Order) (models.Order, bool) {
	if m.Intervals == 0 || m.LastVisit == nil {
		return models.Order{}, false
	}
	start := m.LastVisit.Add(time.Duration(m.MeanInterval * float64(day)))
	if start.After(now) {
		return models.Order{}, false
	}
	var svc []models.OrderService
	for _, o := range orders {
		for _, s := range o.Services {
			if s.Name == m.TopService {
				svc = []models.OrderService{s}
			}
		}
	}
	return models.Order{
		ID:       uuid.New(),
		StartAt:  start,
		EndAt:    start.Add(time.Hour),
		Price:    m.AverageOrderValue + 1,
		Status:   models.OrderCompleted,
		Services: svc,
	}, true
}

func TestOnCadenceVisitNeverLowersScore(t *testing.T) {
	base := []models.Order{
		order(100, models.OrderCompleted, 50, cut),
		order(79, models.OrderCompleted, 50, cut),
		order(51, models.OrderCompleted, 50, cut),
		order(40, models.OrderNoShow, 50, cut),
	}
	m := Analyze(base, now)
	extra, ok := onCadenceVisit(m, base)
	require.True(t, ok)

	after := Analyze(append(base, extra), now)
	assert.Greater(t, Score(after, false), Score(m, false))
	assert.GreaterOrEqual(t, ReturnProbability(after), ReturnProbability(m))

	r := rand.New(rand.NewSource(11))
	checked := 0
	for i := 0; i < 1000; i++ {
		orders := randomHistory(r)
		before := Analyze(orders, now)
		extra, ok := onCadenceVisit(before, orders)
		if !ok {
			continue
		}
		checked++
		grown := Analyze(append(orders, extra), now)
		assert.GreaterOrEqual(t, Score(grown, false), Score(before, false))
		assert.GreaterOrEqual(t, Score(grown, true), Score(before, true))
	}
	assert.Greater(t, checked, 50)
}

func TestNoShowNeverRaisesReliability(t *testing.T) {
	orders := []models.Order{
		order(40, models.OrderCompleted, 50, cut),
		order(20, models.OrderCompleted, 50, cut),
	}
	before := ReliabilityPoints(Analyze(orders, now))
	after := ReliabilityPoints(Analyze(append(orders, order(3, models.OrderNoShow, 50, cut)), now))
	assert.InDelta(t, 15, before, 1e-9)
	assert.InDelta(t, 10, after, 1e-9)

	r := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		hist := randomHistory(r)
		noShow := order(r.Float64()*200, models.OrderNoShow, 50, cut)
		assert.LessOrEqual(t,
			ReliabilityPoints(Analyze(append(hist, noShow), now)),
			ReliabilityPoints(Analyze(hist, now))+1e-9)
	}
}

func TestReturnProbabilityDecaysWithRecency(t *testing.T) {
	m := Metrics{
		Orders:          6,
		Visits:          5,
		NoShows:         1,
		RecentVisits:    2,
		VisitsPerMonth:  1.2,
		TopServiceShare: 0.7,
	}
	prev := 101
	for days := 0; days <= 400; days++ {
		m.DaysSinceLastVisit = days
		p := ReturnProbability(m)
		assert.LessOrEqual(t, p, prev, "days=%d", days)
		prev = p
	}

	history := []models.Order{
		order(70, models.OrderCompleted, 50, cut),
		order(40, models.OrderCompleted, 50, cut),
		order(10, models.OrderCompleted, 50, cut),
	}
	prev = 101
	for shift := 0; shift <= 300; shift += 5 {
		shifted := make([]models.Order, len(history))
		for i, o := range history {
			o.StartAt = o.StartAt.Add(-time.Duration(shift) * day)
			shifted[i] = o
		}
		p := ReturnProbability(Analyze(shifted, now))
		assert.LessOrEqual(t, p, prev, "shift=%d", shift)
		prev = p
	}
}

func TestLevels(t *testing.T) {
	m := Metrics{Visits: 4}
	old := now.Add(-200 * day)
	assert.Equal(t, LevelVIP, LevelFor(80, m, old, now))
	assert.Equal(t, LevelLoyal, LevelFor(79, m, old, now))
	assert.Equal(t, LevelRegular, LevelFor(40, m, old, now))
	assert.Equal(t, LevelOccasional, LevelFor(20, m, old, now))
	assert.Equal(t, LevelAtRisk, LevelFor(19, m, old, now))
	assert.Equal(t, LevelNew, LevelFor(19, m, now.Add(-10*day), now))
	assert.Equal(t, LevelNew, LevelFor(5, Metrics{Visits: 1}, old, now))
}

func TestPatternsAndActions(t *testing.T) {
	// Saturday mornings every four weeks, same cut, then nothing for months.
	sat := time.Date(2026, 3, 7, 9, 30, 0, 0, time.UTC)
	var orders []models.Order
	for i := 0; i < 4; i++ {
		start := sat.Add(time.Duration(i) * 28 * day)
		orders = append(orders, models.Order{
			ID: uuid.New(), StartAt: start, EndAt: start.Add(45 * time.Minute),
			Price: 40, Status: models.OrderCompleted, Services: []models.OrderService{cut},
		})
	}
	coupon := "BACK20"
	res := Evaluate(orders, &models.Client{Coupon: &coupon, CreatedAt: sat.Add(-day)}, now)

	assert.Contains(t, res.Patterns, PatternWeekendRegular)
	assert.Contains(t, res.Patterns, PatternMorningPerson)
	assert.Contains(t, res.Patterns, PatternClockwork)
	assert.Contains(t, res.Patterns, PatternLapsed)
	assert.Contains(t, res.Patterns, PatternSingleService)
	assert.NotContains(t, res.Patterns, PatternEveningPerson)
	assert.NotContains(t, res.Patterns, PatternNoShowProne)

	assert.Contains(t, res.Actions, ActionWinback)
	assert.Contains(t, res.Actions, ActionCrossSell)
	assert.Contains(t, res.Actions, ActionCouponNudge)
	assert.NotContains(t, res.Actions, ActionRebook)
}

func TestSuggestRebookingAndDeposit(t *testing.T) {
	orders := []models.Order{
		order(60, models.OrderCompleted, 50, cut),
		order(40, models.OrderNoShow, 50, cut),
		order(35, models.OrderCompleted, 50, cut),
		order(30, models.OrderCancelled, 50, cut),
		order(20, models.OrderCompleted, 50, color),
	}
	m := Analyze(orders, now)
	patterns := DetectPatterns(m)
	assert.Contains(t, patterns, PatternNoShowProne)
	assert.NotContains(t, patterns, PatternLapsed)

	actions := SuggestActions(LevelRegular, patterns, m, false)
	assert.Contains(t, actions, ActionDeposit)
	assert.Contains(t, actions, ActionRebook)
	assert.NotContains(t, actions, ActionLoyaltyReward)
}
