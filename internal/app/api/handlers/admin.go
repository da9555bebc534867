package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arbops/billing/internal/app/service/billing"
	"github.com/arbops/billing/internal/app/service/statistics"
	"github.com/arbops/billing/pkg/response"
)

// @Summary      List Transactions (Admin)
// @Description  Retrieves a paginated and filterable list of payment transactions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body billing.ScanTransactionsRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListTransactions
// @Router       /api/v1/admin/list_transactions [post]
func ApiListTransactions(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req billing.ScanTransactionsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ScanTransactions(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Billing Statistics (Admin)
// @Description  Retrieves daily transaction counts and revenue.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.BillingStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespBillingStatistic
// @Router       /api/v1/admin/get_billing_statistic [post]
func ApiGetBillingStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.BillingStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetDailyBillingStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Grant Plan (Admin)
// @Description  Activates a plan for a user without payment.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body handlers.GrantPlanRequest true "Grant plan request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/grant_plan [post]
func ApiGrantPlan(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GrantPlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.UserID == "" || req.PlanID == "" || req.OperatorID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id or plan_id or operator_id"))
			return
		}
		if err := svc.GrantPlan(c.Request.Context(), req.UserID, req.PlanID, req.OperatorID); err != nil {
			code := response.APIResponseCodeError
			if errors.Is(err, billing.ErrUserNotFound) || errors.Is(err, billing.ErrUnknownPlan) {
				code = response.APIResponseCodeNotFound
			}
			c.JSON(http.StatusOK, response.ErrorT[any](code, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

type GrantPlanRequest struct {
	UserID     string `json:"user_id"`
	PlanID     string `json:"plan_id"`
	OperatorID string `json:"operator_id"`
}

func RegisterAdminRoutes(r gin.IRouter, svc *billing.Service, stats *statistics.Service) {
	r.POST("/list_transactions", ApiListTransactions(svc))
	r.POST("/get_billing_statistic", ApiGetBillingStatistic(stats))
	r.POST("/grant_plan", ApiGrantPlan(svc))
}
