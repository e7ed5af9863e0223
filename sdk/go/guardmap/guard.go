package guardmap

import "context"

// ToolFunc is the function signature that Wrap guards.
type ToolFunc func(ctx context.Context, req ActionRequest) (any, error)

// Wrap returns a ToolFunc that evaluates policy before calling fn.
// If policy denies the action, it returns a *BlockedError without calling fn.
func (c *Client) Wrap(fn ToolFunc) ToolFunc {
	return func(ctx context.Context, req ActionRequest) (any, error) {
		d, err := c.Check(ctx, req)
		if err != nil {
			return nil, err
		}
		if !d.Allowed {
			return nil, &BlockedError{
				Request:  req,
				PolicyID: d.PolicyID,
				Reason:   d.Reason,
			}
		}
		return fn(ctx, req)
	}
}
