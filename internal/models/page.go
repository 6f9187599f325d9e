package models

// Page is the Spring Data page envelope some list endpoints return.
type Page[T any] struct {
	Content       []T  `json:"content"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Last          bool `json:"last"`
	First         bool `json:"first"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
}
