package controllers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/scoring"
	"salonpro-crm/utils"
)

// ReportController groups the analytics endpoints.
type ReportController struct{}

type AnalyticsSummary struct {
	CurrentMonthRevenue   float64          `json:"currentMonthRevenue"`
	MonthGrowth           float64          `json:"monthGrowth"`
	CurrentQuarterRevenue float64          `json:"currentQuarterRevenue"`
	QuarterGrowth         float64          `json:"quarterGrowth"`
	CurrentYearRevenue    float64          `json:"currentYearRevenue"`
	YearGrowth            float64          `json:"yearGrowth"`
	TopServices           []ServiceSummary `json:"topServices"`
	TopClients            []ClientSummary  `json:"topClients"`
	QuickStats            QuickStatistics  `json:"quickStats"`
}

type ServiceSummary struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type ClientSummary struct {
	Name   string  `json:"name"`
	Visits int     `json:"visits"`
	Spent  float64 `json:"spent"`
}

type QuickStatistics struct {
	TotalClients     int     `json:"totalClients"`
	TotalInvoices    int     `json:"totalInvoices"`
	AvgMonthlyVisits float64 `json:"avgMonthlyVisits"`
	AvgOrderValue    float64 `json:"avgOrderValue"`
}

// LevelBucket is one row of the client level distribution.
type LevelBucket struct {
	Level   scoring.Level `json:"level"`
	Count   int           `json:"count"`
	Percent float64       `json:"percent"`
}

type ClientReport struct {
	TotalClients             int           `json:"totalClients"`
	Levels                   []LevelBucket `json:"levels"`
	AverageScore             float64       `json:"averageScore"`
	AverageReturnProbability float64       `json:"averageReturnProbability"`
	AtRisk                   []ScoredName  `json:"atRisk"`
}

type ScoredName struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Score             int       `json:"score"`
	ReturnProbability int       `json:"returnProbability"`
}

func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	now := time.Now().In(Location)
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, Location)
	quarterStart := rc.getQuarterStart(now)
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, Location)

	type period struct{ start, end time.Time }
	periods := []period{
		{firstOfMonth, firstOfMonth.AddDate(0, 1, 0)},
		{firstOfMonth.AddDate(0, -1, 0), firstOfMonth},
		{quarterStart, quarterStart.AddDate(0, 3, 0)},
		{quarterStart.AddDate(0, -3, 0), quarterStart},
		{yearStart, yearStart.AddDate(1, 0, 0)},
		{yearStart.AddDate(-1, 0, 0), yearStart},
	}
	revenue := make([]float64, len(periods))
	for i, p := range periods {
		total, err := rc.getRevenue(salonID, p.start, p.end)
		if err != nil {
			respondDBError(c, err, "")
			return
		}
		revenue[i] = total
	}

	monthInvoices, err := rc.invoicesBetween(salonID, firstOfMonth, firstOfMonth.AddDate(0, 1, 0))
	if err != nil {
		respondDBError(c, err, "")
		return
	}
	topClients, err := rc.getTopClients(monthInvoices, 4)
	if err != nil {
		respondDBError(c, err, "")
		return
	}

	quickStats, err := rc.getQuickStatistics(salonID)
	if err != nil {
		respondDBError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, AnalyticsSummary{
		CurrentMonthRevenue:   revenue[0],
		MonthGrowth:           rc.calculateGrowthPercentage(revenue[0], revenue[1]),
		CurrentQuarterRevenue: revenue[2],
		QuarterGrowth:         rc.calculateGrowthPercentage(revenue[2], revenue[3]),
		CurrentYearRevenue:    revenue[4],
		YearGrowth:            rc.calculateGrowthPercentage(revenue[4], revenue[5]),
		TopServices:           rc.getTopServices(monthInvoices, 4),
		TopClients:            topClients,
		QuickStats:            quickStats,
	})
}

// GetClientReport scores every client and reports the level distribution.
func (rc *ReportController) GetClientReport(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var clients []models.Client
	if err := config.DB.Where("salon_id = ? AND is_active = ?", salonID, true).Find(&clients).Error; err != nil {
		respondDBError(c, err, "")
		return
	}

	report := ClientReport{TotalClients: len(clients), AtRisk: []ScoredName{}}
	counts := make(map[scoring.Level]int, len(scoring.Levels))

	if len(clients) > 0 {
		results, err := scoreClients(salonID, clients, time.Now().In(Location))
		if err != nil {
			respondDBError(c, err, "")
			return
		}

		var scoreSum, probSum int
		for _, cl := range clients {
			r := results[cl.CustomerUUID]
			counts[r.Level]++
			scoreSum += r.Score
			probSum += r.ReturnProbability
			if r.Level == scoring.LevelAtRisk {
				report.AtRisk = append(report.AtRisk, ScoredName{
					ID: cl.ID, Name: cl.Name, Score: r.Score, ReturnProbability: r.ReturnProbability,
				})
			}
		}
		report.AverageScore = float64(scoreSum) / float64(len(clients))
		report.AverageReturnProbability = float64(probSum) / float64(len(clients))
		sort.SliceStable(report.AtRisk, func(i, j int) bool {
			return report.AtRisk[i].ReturnProbability < report.AtRisk[j].ReturnProbability
		})
	}

	for _, level := range scoring.Levels {
		bucket := LevelBucket{Level: level, Count: counts[level]}
		if len(clients) > 0 {
			bucket.Percent = float64(bucket.Count) * 100 / float64(len(clients))
		}
		report.Levels = append(report.Levels, bucket)
	}

	c.JSON(http.StatusOK, report)
}

// getRevenue sums invoice totals in [start, end).
func (rc *ReportController) getRevenue(salonID uuid.UUID, start, end time.Time) (float64, error) {
	var total float64
	err := config.DB.Model(&models.Invoice{}).
		Where("salon_id = ? AND invoice_date >= ? AND invoice_date < ?", salonID, start.UTC(), end.UTC()).
		Select("COALESCE(SUM(total), 0)").
		Scan(&total).Error
	return total, err
}

func (rc *ReportController) invoicesBetween(salonID uuid.UUID, start, end time.Time) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := config.DB.Preload("Items").
		Where("salon_id = ? AND invoice_date >= ? AND invoice_date < ?", salonID, start.UTC(), end.UTC()).
		Find(&invoices).Error
	return invoices, err
}

func (rc *ReportController) getQuarterStart(date time.Time) time.Time {
	quarter := (int(date.Month())-1)/3 + 1
	startMonth := time.Month((quarter-1)*3 + 1)
	return time.Date(date.Year(), startMonth, 1, 0, 0, 0, 0, date.Location())
}

func (rc *ReportController) calculateGrowthPercentage(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return ((current - previous) / previous) * 100
}

func (rc *ReportController) getTopServices(invoices []models.Invoice, limit int) []ServiceSummary {
	byName := map[string]*ServiceSummary{}
	for _, inv := range invoices {
		for _, it := range inv.Items {
			s, ok := byName[it.ServiceName]
			if !ok {
				s = &ServiceSummary{Name: it.ServiceName}
				byName[it.ServiceName] = s
			}
			s.Count += it.Quantity
			s.Revenue += it.TotalPrice
		}
	}

	out := make([]ServiceSummary, 0, len(byName))
	for _, s := range byName {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (rc *ReportController) getTopClients(invoices []models.Invoice, limit int) ([]ClientSummary, error) {
	byClient := map[uuid.UUID]*ClientSummary{}
	ids := make([]uuid.UUID, 0)
	for _, inv := range invoices {
		s, ok := byClient[inv.ClientID]
		if !ok {
			s = &ClientSummary{}
			byClient[inv.ClientID] = s
			ids = append(ids, inv.ClientID)
		}
		s.Visits++
		s.Spent += inv.Total
	}
	if len(ids) == 0 {
		return []ClientSummary{}, nil
	}

	var clients []models.Client
	if err := config.DB.Select("id", "name").Where("id IN ?", ids).Find(&clients).Error; err != nil {
		return nil, err
	}

	out := make([]ClientSummary, 0, len(clients))
	for _, cl := range clients {
		s := byClient[cl.ID]
		s.Name = cl.Name
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Spent != out[j].Spent {
			return out[i].Spent > out[j].Spent
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (rc *ReportController) getQuickStatistics(salonID uuid.UUID) (QuickStatistics, error) {
	var stats QuickStatistics

	var totalClients int64
	if err := config.DB.Model(&models.Client{}).Where("salon_id = ?", salonID).Count(&totalClients).Error; err != nil {
		return stats, err
	}
	stats.TotalClients = int(totalClients)

	var invoices []models.Invoice
	if err := config.DB.Select("id", "invoice_date", "total").Where("salon_id = ?", salonID).Find(&invoices).Error; err != nil {
		return stats, err
	}
	stats.TotalInvoices = len(invoices)
	if len(invoices) == 0 {
		return stats, nil
	}

	months := map[string]int{}
	var revenue float64
	for _, inv := range invoices {
		months[inv.InvoiceDate.In(Location).Format("2006-01")]++
		revenue += inv.Total
	}
	stats.AvgMonthlyVisits = float64(len(invoices)) / float64(len(months))
	stats.AvgOrderValue = revenue / float64(len(invoices))

	return stats, nil
}
