package scoring

import (
	"math"
	"time"
)

type Level string

const (
	LevelVIP        Level = "vip"
	LevelLoyal      Level = "loyal"
	LevelRegular    Level = "regular"
	LevelOccasional Level = "occasional"
	LevelNew        Level = "new"
	LevelAtRisk     Level = "at_risk"
)

// Levels lists the badges from best to worst; reports keep this order.
var Levels = []Level{LevelVIP, LevelLoyal, LevelRegular, LevelOccasional, LevelNew, LevelAtRisk}

type Pattern string

const (
	PatternWeekendRegular Pattern = "weekend_regular"
	PatternMorningPerson  Pattern = "morning_person"
	PatternEveningPerson  Pattern = "evening_person"
	PatternClockwork      Pattern = "clockwork"
	PatternHighSpender    Pattern = "high_spender"
	PatternPremiumLover   Pattern = "premium_lover"
	PatternNoShowProne    Pattern = "no_show_prone"
	PatternLapsed         Pattern = "lapsed"
	PatternSingleService  Pattern = "single_service"
)

type Action string

const (
	ActionWinback       Action = "send_winback_offer"
	ActionDeposit       Action = "require_deposit"
	ActionLoyaltyReward Action = "offer_loyalty_reward"
	ActionRebook        Action = "suggest_rebooking"
	ActionWelcome       Action = "welcome_followup"
	ActionCrossSell     Action = "cross_sell"
	ActionCouponNudge   Action = "send_coupon_reminder"
)

const (
	newClientWindow   = 30 * day
	highSpenderAOV    = 80.0
	lapsedMinimumDays = 45
)

// LevelFor maps a score to its badge. Low scorers are "new" while they are
// still getting started and "at_risk" afterwards.
func LevelFor(score int, m Metrics, createdAt time.Time, now time.Time) Level {
	switch {
	case score >= 80:
		return LevelVIP
	case score >= 60:
		return LevelLoyal
	case score >= 40:
		return LevelRegular
	case score >= 20:
		return LevelOccasional
	}
	if m.Visits <= 1 || (!createdAt.IsZero() && now.Sub(createdAt) <= newClientWindow) {
		return LevelNew
	}
	return LevelAtRisk
}

// DetectPatterns lists the behavioural traits visible in the history.
func DetectPatterns(m Metrics) []Pattern {
	patterns := []Pattern{}
	if m.Visits >= 3 {
		if m.WeekendShare >= 0.6 {
			patterns = append(patterns, PatternWeekendRegular)
		}
		if m.MorningShare >= 0.6 {
			patterns = append(patterns, PatternMorningPerson)
		}
		if m.EveningShare >= 0.6 {
			patterns = append(patterns, PatternEveningPerson)
		}
	}
	if m.Intervals >= 2 && m.IntervalCV < 0.25 {
		patterns = append(patterns, PatternClockwork)
	}
	if m.Visits >= 1 && m.AverageOrderValue >= highSpenderAOV {
		patterns = append(patterns, PatternHighSpender)
	}
	if m.ServiceLines > 0 && float64(m.PremiumLines)/float64(m.ServiceLines) >= 0.5 {
		patterns = append(patterns, PatternPremiumLover)
	}
	if m.Visits+m.Missed() >= 3 && m.MissRate() >= 0.25 {
		patterns = append(patterns, PatternNoShowProne)
	}
	if isLapsed(m) {
		patterns = append(patterns, PatternLapsed)
	}
	if m.Visits >= 3 && m.DistinctServices == 1 {
		patterns = append(patterns, PatternSingleService)
	}
	return patterns
}

func isLapsed(m Metrics) bool {
	if m.Visits == 0 || m.Upcoming > 0 {
		return false
	}
	threshold := math.Max(lapsedMinimumDays, 2*m.MeanInterval)
	return float64(m.DaysSinceLastVisit) > threshold
}

// SuggestActions turns level and patterns into retention steps for the front desk.
func SuggestActions(level Level, patterns []Pattern, m Metrics, hasCoupon bool) []Action {
	has := func(p Pattern) bool {
		for _, x := range patterns {
			if x == p {
				return true
			}
		}
		return false
	}

	actions := []Action{}
	lapsed := has(PatternLapsed)
	if lapsed {
		actions = append(actions, ActionWinback)
	}
	if has(PatternNoShowProne) {
		actions = append(actions, ActionDeposit)
	}
	if level == LevelVIP || level == LevelLoyal {
		actions = append(actions, ActionLoyaltyReward)
	}
	if !lapsed && m.Upcoming == 0 && m.Visits > 0 && m.MeanInterval > 0 &&
		float64(m.DaysSinceLastVisit) >= 0.8*m.MeanInterval {
		actions = append(actions, ActionRebook)
	}
	if level == LevelNew {
		actions = append(actions, ActionWelcome)
	}
	if has(PatternSingleService) {
		actions = append(actions, ActionCrossSell)
	}
	if hasCoupon && m.Upcoming == 0 {
		actions = append(actions, ActionCouponNudge)
	}
	return actions
}
