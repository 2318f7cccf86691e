// Package httputil provides helpers for request handling.
package httputil

import (
	"errors"
	"io"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var ErrInvalidBody = errors.New("the body of your request contains invalid or un-parseable data. Please check and try again")

// BindData binds the data from the request to the struct passed in the interface.
//
// An empty request body is not an error, the target keeps its zero
// values. Endpoints whose parameters are all optional rely on this.
func BindData(c *gin.Context, data interface{}) error {
	if err := c.ShouldBindJSON(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}

		log.Error().Str("request-id", requestid.Get(c)).Msgf("%T: %v", err, err.Error())
		return ErrInvalidBody
	}

	return nil
}
