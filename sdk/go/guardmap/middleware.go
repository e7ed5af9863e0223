package guardmap

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ToolHeader names the request header that carries the agent tool name.
const ToolHeader = "X-Guardmap-Tool"

// Middleware returns an http.Handler that evaluates policy on each request
// before passing it to next. Blocked requests receive a 403 with a JSON body.
func (c *Client) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := requestFromHTTP(r)
		d, err := c.Check(r.Context(), req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if !d.Allowed {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]any{
				"blocked":   true,
				"tool":      req.Tool,
				"reason":    d.Reason,
				"policy_id": d.PolicyID,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestFromHTTP maps an HTTP request to an ActionRequest. The tool is
// the X-Guardmap-Tool header, or "http_<method>" when absent.
func requestFromHTTP(r *http.Request) ActionRequest {
	tool := r.Header.Get(ToolHeader)
	if tool == "" {
		tool = "http_" + strings.ToLower(r.Method)
	}
	return ActionRequest{
		Tool: tool,
		Args: map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"host":   r.Host,
		},
		Approval: r.Header.Get("X-Guardmap-Approved") == "true",
	}
}
