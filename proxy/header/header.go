// Package header provides header handling for the azrelay relay.
//
// The relay sits between an OpenAI-style client and an Azure OpenAI
// deployment like so:
//
//	Client <--> Relay <--> Azure OpenAI
//
// Client request headers are not forwarded: the upstream request carries
// only the content type and the api-key credential. Upstream response
// headers are copied back with the per-connection ones removed, and every
// relayed response is opened up to cross-origin callers.
package header

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/azrelay/pkg/azure"
)

const (
	// AllowOrigin, AllowMethods and AllowHeaders are the CORS headers the
	// relay sets.
	AllowOrigin  = "Access-Control-Allow-Origin"
	AllowMethods = "Access-Control-Allow-Methods"
	AllowHeaders = "Access-Control-Allow-Headers"

	wildcard = "*"
)

// Handler manages headers between relay connections.
type Handler struct{}

// NewHandler creates a new header Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// skipResponse is the set of upstream response headers (client <-- relay <-- upstream)
// that are not copied back to the downstream client.
var skipResponse = map[string]struct{}{
	// Hop-by-hop headers: only meaningful for a single transport-level connection.
	"Connection": {},
	"Keep-Alive": {},

	// fasthttp manages chunked transfer encoding for the client-facing
	// response independently.
	"Transfer-Encoding": {},

	// Go's http.Transport strips Content-Encoding after auto-decompression,
	// so the body the relay holds is always identity encoded. Fiber's
	// compress middleware sets its own when it re-compresses.
	"Content-Encoding": {},

	// Length of the upstream wire body, not of what the relay sends.
	"Content-Length": {},
}

// SetUpstreamRequestHeaders sets the headers of an outbound Azure request.
// Only Content-Type and the api-key credential are sent.
func (h *Handler) SetUpstreamRequestHeaders(req *http.Request, apiKey string) {
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(azure.APIKeyHeader, apiKey)
}

// SetClientResponseHeaders copies response headers from the upstream
// http.Response to the Fiber context, filtering headers that the relay
// should not forward back down to the client, and allows any origin.
func (h *Handler) SetClientResponseHeaders(c *fiber.Ctx, resp *http.Response) {
	for k, v := range resp.Header {
		if _, skip := skipResponse[k]; skip {
			continue
		}
		for _, val := range v {
			c.Response().Header.Add(k, val)
		}
	}
	c.Set(AllowOrigin, wildcard)
}

// SetPreflight sets the permissive CORS headers of a preflight response.
func (h *Handler) SetPreflight(c *fiber.Ctx) {
	c.Set(AllowOrigin, wildcard)
	c.Set(AllowMethods, wildcard)
	c.Set(AllowHeaders, wildcard)
}
