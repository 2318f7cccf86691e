// Package httperror defines the error body for HTTP responses.
package httperror

type Error struct {
	Message string `json:"error" example:"the monthKey parameter must be set"`
}

func New(e error) Error {
	return Error{
		Message: e.Error(),
	}
}
