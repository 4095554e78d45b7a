// Package requestid assigns every request a unique id for log correlation.
package requestid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header is the header carrying the request id on both request and response.
const Header = "X-Request-Id"

// New creates the middleware. An id supplied by the caller is kept, so ids
// survive proxy hops; otherwise a fresh one is generated.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(Header)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals("request_id", rid)
		c.Set(Header, rid)
		return c.Next()
	}
}
