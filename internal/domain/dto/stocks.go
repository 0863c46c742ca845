package dto

import (
	"github.com/guttosm/marketpulse/internal/ingestion"
	"github.com/guttosm/marketpulse/internal/service"
)

// UpdateHistoryResponse is returned by POST /api/v1/stocks/history/update.
// It is sent with 207 Multi-Status when at least one symbol failed.
type UpdateHistoryResponse struct {
	Message      string `json:"message" example:"Historical stock data updated successfully"`
	SuccessCount int    `json:"success_count" example:"2"`
	ingestion.Report
}

// NewUpdateHistoryResponse builds the response for a finished backfill.
func NewUpdateHistoryResponse(rep *ingestion.Report) UpdateHistoryResponse {
	msg := "Historical stock data updated successfully"
	if rep.Partial() {
		msg = "Historical data update completed with some errors"
	}
	return UpdateHistoryResponse{
		Message:      msg,
		SuccessCount: rep.Symbols - len(rep.Errors),
		Report:       *rep,
	}
}

// AddStocksResponse is returned by POST /api/v1/stocks/add. It is sent with
// 207 Multi-Status when at least one symbol could not be registered.
type AddStocksResponse struct {
	Message string `json:"message" example:"Stocks added successfully"`
	service.AddReport
}

// NewAddStocksResponse builds the response for a finished registration.
func NewAddStocksResponse(rep *service.AddReport) AddStocksResponse {
	msg := "Stocks added successfully"
	if rep.Partial() {
		msg = "Stocks added with some errors"
	}
	return AddStocksResponse{Message: msg, AddReport: *rep}
}
