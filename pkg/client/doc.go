// Package client talks to a declutter server over HTTP.
//
// # Overview
//
// A [Client] wraps the session endpoints of the server:
//
//   - [Client.CreateSession]: open a session that scopes placement state
//   - [Client.Generalize]: post a scene and receive the visible markers
//   - [Client.DeleteSession]: drop the session and its placements
//
// Consecutive Generalize calls on one session are stable: markers shown by
// one call keep their place in the next as long as they stay in view.
//
// # Retry
//
// Transient failures (network errors, 5xx responses) are retried with
// exponential backoff. Client errors such as an invalid scene are returned
// immediately as [*APIError], which carries the server's error code:
//
//	res, err := c.Generalize(ctx, id, sc, pipeline.Options{PanX: 32})
//	var apiErr *client.APIError
//	if errors.As(err, &apiErr) && apiErr.Code == errors.ErrCodeSessionNotFound {
//	    // session expired, open a new one
//	}
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Request timeout: 30 seconds
//   - Max attempts: 3
//   - Base backoff: 500 milliseconds
package client
