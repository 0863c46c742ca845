package dto

import "time"

// ErrorResponse is the JSON body of every non-2xx response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Message      string    `json:"message" example:"symbol is required"`
	ErrorDetails string    `json:"error,omitempty" example:"strconv.Atoi: parsing \"x\": invalid syntax"`
	Timestamp    time.Time `json:"timestamp" example:"2025-09-12T20:30:00Z"`
}

// NewErrorResponse builds an ErrorResponse stamped with the current UTC time.
// err may be nil.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}

func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}
