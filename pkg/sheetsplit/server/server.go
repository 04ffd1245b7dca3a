// Package server exposes the invocation pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/invoke"
)

// Invoker runs one invocation from a raw event payload.
type Invoker interface {
	Handle(ctx context.Context, payload []byte) (invoke.Response, error)
}

// New builds the HTTP router:
//
//	POST /invoke   event JSON body, responds with the invocation Response
//	GET  /healthz  liveness check
func New(inv Invoker, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/invoke", invokeHandler(inv, log))

	return r
}

func invokeHandler(inv Invoker, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, invoke.Response{
				StatusCode: http.StatusBadRequest,
				Body:       "failed to read request body",
			})
			return
		}

		resp, err := inv.Handle(c.Request.Context(), payload)
		if err != nil {
			// Already logged by the handler with its invocation context.
			log.Debug().Err(err).Int("status", resp.StatusCode).Msg("invoke returned error")
		}
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		c.JSON(status, resp)
	}
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
