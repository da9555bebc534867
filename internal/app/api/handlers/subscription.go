package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arbops/billing/internal/app/service/billing"
	"github.com/arbops/billing/pkg/response"
)

// @Summary      User subscriptions
// @Description  Returns the subscriptions for a user as shown on the dashboard.
// @Tags         Billing
// @Produce      json
// @Param        user_id path string true "User ID"
// @Success      200  {object}  handlers.RespUserSubscriptions
// @Router       /api/v1/billing/subscriptions/{user_id} [get]
func ApiGetUserSubscriptions(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		if userID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id"))
			return
		}
		subs, err := svc.GetUserSubscriptions(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(subs))
	}
}

func RegisterBillingRoutes(r gin.IRouter, svc *billing.Service) {
	r.GET("/subscriptions/:user_id", ApiGetUserSubscriptions(svc))
}
