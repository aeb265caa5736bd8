package controller

import (
	"time"

	"flowcrm/models"
	"flowcrm/store"
	"flowcrm/utils"

	"github.com/gofiber/fiber/v2"
)

// DashboardController aggregates cross-entity metrics for the home screen.
type DashboardController struct {
	Store *store.Store
}

func NewDashboardController(s *store.Store) *DashboardController {
	return &DashboardController{Store: s}
}

// Overview returns the headline numbers: entity totals, this month's lead
// and won-deal counts, and the caller's open task load.
func (dc *DashboardController) Overview(c *fiber.Ctx) error {
	t := tenantDB(c)
	user := currentUser(c)
	ctx := c.UserContext()

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	totalLeads, _, _, err := t.LeadStatistics(ctx)
	if err != nil {
		return storeErrResponse(c, err, "Dashboard")
	}
	totalContacts, err := t.CountContacts(ctx)
	if err != nil {
		return storeErrResponse(c, err, "Dashboard")
	}
	totalDeals, err := t.CountDeals(ctx, "", nil, nil, nil, nil)
	if err != nil {
		return storeErrResponse(c, err, "Dashboard")
	}
	totalTasks, err := t.CountTasks(ctx)
	if err != nil {
		return storeErrResponse(c, err, "Dashboard")
	}

	leadsThisMonth, err := t.CountLeads(ctx, &monthStart, nil)
	if err != nil {
		return storeErrResponse(c, err, "Dashboard")
	}
	leadsLastMonth, err := t.CountLeads(ctx, &lastMonthStart, &monthStart)
	if err != nil {
		return storeErrResponse(c, err, "Dashboard")
	}
	wonThisMonth, err := t.CountDeals(ctx, models.DealStageClosedWon, nil, nil, &monthStart, nil)
	if err != nil {
		return storeErrResponse(c, err, "Dashboard")
	}
	wonLastMonth, err := t.CountDeals(ctx, models.DealStageClosedWon, nil, nil, &lastMonthStart, &monthStart)
	if err != nil {
		return storeErrResponse(c, err, "Dashboard")
	}

	myPendingTasks, err := t.CountPendingTasks(ctx, user.ID)
	if err != nil {
		return storeErrResponse(c, err, "Dashboard")
	}
	myOverdueTasks, err := t.CountOverdueTasks(ctx, user.ID)
	if err != nil {
		return storeErrResponse(c, err, "Dashboard")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Dashboard overview retrieved", fiber.Map{
		"totals": fiber.Map{
			"leads":    totalLeads,
			"contacts": totalContacts,
			"deals":    totalDeals,
			"tasks":    totalTasks,
		},
		"this_month": fiber.Map{
			"new_leads":   leadsThisMonth,
			"deals_won":   wonThisMonth,
			"lead_growth": growthPercent(leadsThisMonth, leadsLastMonth),
			"won_growth":  growthPercent(wonThisMonth, wonLastMonth),
			"started_at":  monthStart,
		},
		"last_month": fiber.Map{
			"new_leads": leadsLastMonth,
			"deals_won": wonLastMonth,
		},
		"my_tasks": fiber.Map{
			"pending": myPendingTasks,
			"overdue": myOverdueTasks,
		},
	})
}

// growthPercent compares this month against last. A previous month of zero
// reads as 100% growth when anything happened at all.
func growthPercent(current, previous int64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return float64(current-previous) / float64(previous) * 100
}

// Pipeline returns per-stage deal counts and value totals.
func (dc *DashboardController) Pipeline(c *fiber.Ctx) error {
	t := tenantDB(c)

	summary, err := t.PipelineSummary(c.UserContext())
	if err != nil {
		return storeErrResponse(c, err, "Dashboard")
	}

	var openValue, weightedValue float64
	for _, s := range summary {
		if !models.IsClosedStage(s.Stage) {
			openValue += s.TotalValue
			weightedValue += s.WeightedValue
		}
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Pipeline retrieved", fiber.Map{
		"stages":              summary,
		"open_value":          openValue,
		"open_weighted_value": weightedValue,
	})
}

// RecentActivity returns the newest activity records for the feed.
func (dc *DashboardController) RecentActivity(c *fiber.Ctx) error {
	t := tenantDB(c)

	opts := store.ListOptions{Page: 1, Limit: c.QueryInt("limit", 10), Sort: "-created_at"}
	activities, _, err := t.FindActivities(c.UserContext(), store.ActivityFilter{}, opts)
	if err != nil {
		return storeErrResponse(c, err, "Dashboard")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Recent activity retrieved", activities)
}
