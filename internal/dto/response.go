package dto

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
	Data    any  `json:"data"`
}

// ErrorResponse is returned for every failed request. Severity is PARTIAL when
// some writes were kept and the ledger needs manual reconciliation.
type ErrorResponse struct {
	Success  bool   `json:"success" example:"false"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity,omitempty"`
	Details  any    `json:"details,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data any) SuccessResponse {
	return SuccessResponse{Success: true, Data: data}
}
