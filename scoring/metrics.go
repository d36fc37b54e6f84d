package scoring

import (
	"math"
	"sort"
	"time"

	"salonpro-crm/models"
)

const (
	day            = 24 * time.Hour
	daysPerMonth   = 30.44
	upcomingWindow = 30 * day
	trailingWindow = 90 * day
)

// Metrics are the raw facts about a client's order history that every
// score, probability and insight is derived from.
type Metrics struct {
	Orders    int `json:"orders"` // non-deleted orders
	Visits    int `json:"visits"`
	NoShows   int `json:"noShows"`
	Cancelled int `json:"cancelled"`
	Upcoming  int `json:"upcoming"`
	// visits inside the trailing 90 days
	RecentVisits int `json:"recentVisits"`

	TotalSpend        float64 `json:"totalSpend"`
	AverageOrderValue float64 `json:"averageOrderValue"`

	FirstVisit         *time.Time `json:"firstVisit"`
	LastVisit          *time.Time `json:"lastVisit"`
	DaysSinceLastVisit int        `json:"daysSinceLastVisit"` // -1 without visits
	ActiveMonths       float64    `json:"activeMonths"`
	VisitsPerMonth     float64    `json:"visitsPerMonth"`

	Intervals    int     `json:"intervals"`
	MeanInterval float64 `json:"meanInterval"` // days
	IntervalCV   float64 `json:"intervalCv"`

	ServiceLines     int     `json:"serviceLines"`
	DistinctServices int     `json:"distinctServices"`
	PremiumLines     int     `json:"premiumLines"`
	TopService       string  `json:"topService"`
	TopServiceShare  float64 `json:"topServiceShare"`

	WeekendShare float64 `json:"weekendShare"`
	MorningShare float64 `json:"morningShare"`
	EveningShare float64 `json:"eveningShare"`
}

// Missed counts the bookings the client did not honour.
func (m Metrics) Missed() int { return m.NoShows + m.Cancelled }

// MissRate is missed / settled bookings, zero when nothing has settled yet.
func (m Metrics) MissRate() float64 {
	settled := m.Visits + m.Missed()
	if settled == 0 {
		return 0
	}
	return float64(m.Missed()) / float64(settled)
}

// Analyze classifies orders relative to now. Times of day are read in now's location.
func Analyze(orders []models.Order, now time.Time) Metrics {
	m := Metrics{DaysSinceLastVisit: -1}
	loc := now.Location()

	var visits []models.Order
	for _, o := range orders {
		if o.Status == models.OrderDeleted {
			continue
		}
		m.Orders++

		switch {
		case o.Status == models.OrderNoShow:
			m.NoShows++
		case o.Status == models.OrderCancelled:
			m.Cancelled++
		case !o.StartAt.After(now):
			visits = append(visits, o)
		case o.StartAt.Sub(now) <= upcomingWindow &&
			(o.Status == models.OrderPending || o.Status == models.OrderConfirmed):
			m.Upcoming++
		}
	}

	m.Visits = len(visits)
	if m.Visits == 0 {
		return m
	}

	sort.Slice(visits, func(i, j int) bool { return visits[i].StartAt.Before(visits[j].StartAt) })

	serviceCounts := make(map[string]int)
	var weekend, morning, evening int
	for _, v := range visits {
		m.TotalSpend += v.Price
		if now.Sub(v.StartAt) <= trailingWindow {
			m.RecentVisits++
		}

		local := v.StartAt.In(loc)
		if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
			weekend++
		}
		if local.Hour() < 12 {
			morning++
		} else if local.Hour() >= 17 {
			evening++
		}

		for _, s := range v.Services {
			m.ServiceLines++
			serviceCounts[serviceKey(s)]++
			if s.Premium {
				m.PremiumLines++
			}
		}
	}

	n := float64(m.Visits)
	m.AverageOrderValue = m.TotalSpend / n
	m.WeekendShare = float64(weekend) / n
	m.MorningShare = float64(morning) / n
	m.EveningShare = float64(evening) / n

	first := visits[0].StartAt
	last := visits[len(visits)-1].StartAt
	m.FirstVisit = &first
	m.LastVisit = &last
	m.DaysSinceLastVisit = int(now.Sub(last) / day)
	m.ActiveMonths = math.Max(1, now.Sub(first).Hours()/24/daysPerMonth)
	m.VisitsPerMonth = n / m.ActiveMonths

	m.Intervals, m.MeanInterval, m.IntervalCV = intervalStats(visits)

	m.DistinctServices = len(serviceCounts)
	if m.ServiceLines > 0 {
		top, topCount := topService(serviceCounts)
		m.TopService = top
		m.TopServiceShare = float64(topCount) / float64(m.ServiceLines)
	}

	return m
}

func serviceKey(s models.OrderService) string {
	if s.Name != "" {
		return s.Name
	}
	return s.ServiceID.String()
}

// topService breaks ties alphabetically so the result is deterministic.
func topService(counts map[string]int) (string, int) {
	var best string
	bestCount := -1
	for name, c := range counts {
		if c > bestCount || (c == bestCount && name < best) {
			best, bestCount = name, c
		}
	}
	return best, bestCount
}

// intervalStats returns the count, mean and coefficient of variation of the
// gaps (in days) between consecutive visits. visits must be sorted.
func intervalStats(visits []models.Order) (int, float64, float64) {
	if len(visits) < 2 {
		return 0, 0, 0
	}
	gaps := make([]float64, 0, len(visits)-1)
	var sum float64
	for i := 1; i < len(visits); i++ {
		g := visits[i].StartAt.Sub(visits[i-1].StartAt).Hours() / 24
		gaps = append(gaps, g)
		sum += g
	}
	mean := sum / float64(len(gaps))
	if mean <= 0 {
		return len(gaps), 0, 0
	}
	var sq float64
	for _, g := range gaps {
		sq += (g - mean) * (g - mean)
	}
	std := math.Sqrt(sq / float64(len(gaps)))
	return len(gaps), mean, std / mean
}
