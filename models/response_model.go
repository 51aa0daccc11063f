package models

// PaginatedForecastsResponse is the response structure for the persisted forecast list.
type PaginatedForecastsResponse struct {
	Data       []DemandForecast `json:"data"`
	Pagination PaginationInfo   `json:"pagination"`
}

// PaginationInfo holds metadata for paginated responses.
type PaginationInfo struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
}
