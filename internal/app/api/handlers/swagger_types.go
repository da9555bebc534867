package handlers

import (
	"github.com/arbops/billing/internal/app/service/billing"
	"github.com/arbops/billing/internal/app/service/statistics"
	"github.com/arbops/billing/pkg/response"
	"github.com/arbops/billing/pkg/types"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespWebhookAck is the provider-facing acknowledgement.
type RespWebhookAck struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RespListTransactions wraps ScanTransactionsResponse in the standard envelope.
type RespListTransactions struct {
	Code    response.APIResponseCode         `json:"code"`
	Message string                           `json:"message"`
	Data    billing.ScanTransactionsResponse `json:"data"`
}

// RespBillingStatistic wraps BillingStatisticResponse in the standard envelope.
type RespBillingStatistic struct {
	Code    response.APIResponseCode            `json:"code"`
	Message string                              `json:"message"`
	Data    statistics.BillingStatisticResponse `json:"data"`
}

// RespUserSubscriptions wraps the dashboard subscription view in the standard envelope.
type RespUserSubscriptions struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    []types.UserSubscriptionInfo `json:"data"`
}
