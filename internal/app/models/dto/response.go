package dto

// APIResponse is the envelope for successful responses.
type APIResponse struct {
	Data    interface{}  `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// MessageResponse carries a bare confirmation message.
type MessageResponse struct {
	Message string `json:"message" example:"Operation completed successfully"`
}

// PaginationInfo describes the page returned in a list response.
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage" example:"1"`
	TotalPages  int   `json:"totalPages" example:"5"`
	PageSize    int   `json:"pageSize" example:"10"`
	TotalItems  int64 `json:"totalItems" example:"42"`
}

// CountResponse reports how many records an operation changed.
type CountResponse struct {
	Count int64 `json:"count" example:"3"`
}
