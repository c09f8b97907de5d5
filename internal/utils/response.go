package utils

import "github.com/labstack/echo/v4"

// Envelope is the uniform response body produced by every handler:
// {"success": bool, "message": string, "data": payload}.  Success mirrors
// whether the status code is 2xx so clients can branch without
// inspecting the code.
type Envelope struct {
    Success bool        `json:"success"`
    Message string      `json:"message"`
    Data    interface{} `json:"data"`
}

// Pagination describes the page window of a list response.  Pages is
// ceil(Total/Limit).
type Pagination struct {
    Page  int   `json:"page"`
    Limit int   `json:"limit"`
    Total int64 `json:"total"`
    Pages int64 `json:"pages"`
}

// NewPagination computes the pagination block for a list response.
func NewPagination(page, limit int, total int64) Pagination {
    pages := (total + int64(limit) - 1) / int64(limit)
    return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// ListPayload wraps list items with their pagination block under data.
type ListPayload struct {
    Items      interface{} `json:"items"`
    Pagination Pagination  `json:"pagination"`
}

// Respond writes the envelope with the given status, message and payload.
func Respond(c echo.Context, status int, message string, data interface{}) error {
    return c.JSON(status, Envelope{
        Success: status >= 200 && status < 300,
        Message: message,
        Data:    data,
    })
}

// Fail writes a non-success envelope with an empty data object.
func Fail(c echo.Context, status int, message string) error {
    return Respond(c, status, message, map[string]any{})
}
