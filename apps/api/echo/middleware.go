package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core"
)

// requestLogger logs every request once it has been handled.
func requestLogger(logger core.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			if err != nil {
				ctx.Error(err) // commit the response so its status is known
			}

			req, res := ctx.Request(), ctx.Response()
			fields := map[string]interface{}{
				"status":  res.Status,
				"method":  req.Method,
				"path":    req.URL.Path,
				"query":   req.URL.RawQuery,
				"ip":      ctx.RealIP(),
				"latency": time.Since(start).String(),
			}
			switch {
			case res.Status >= 500:
				logger.Error("request failed", fields)
			case res.Status >= 400:
				logger.Warn("client error", fields)
			default:
				logger.Info("request handled", fields)
			}
			return nil
		}
	}
}
