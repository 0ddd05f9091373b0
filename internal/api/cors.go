package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contactgate/internal/gateway"
	"contactgate/internal/logging"
)

// CORS admits browser requests from the allowed origins only. Preflight
// requests get 200 or 403. Requests without an Origin header are not from a
// browser and pass through.
func CORS(allowedOrigins []string, log logging.Logger) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		header := c.Writer.Header()
		header.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		header.Set("Access-Control-Allow-Headers", "Content-Type, Accept-Language")
		header.Set("Access-Control-Max-Age", "86400")
		header.Add("Vary", "Origin")

		_, originAllowed := allowed[origin]
		if originAllowed {
			header.Set("Access-Control-Allow-Origin", origin)
		}

		// handle preflight
		if c.Request.Method == http.MethodOptions {
			if originAllowed {
				c.AbortWithStatus(http.StatusOK)
			} else {
				c.AbortWithStatus(http.StatusForbidden)
			}
			return
		}

		if origin != "" && !originAllowed {
			log.Warn(c.Request.Context(), "Invalid origin", "origin", origin)
			c.AbortWithStatusJSON(http.StatusForbidden, gateway.Result{Success: false, Error: "Forbidden"})
			return
		}

		c.Next()
	}
}
