// Package httputil provides HTTP helpers shared by the tutor engines.
//
// # Retry
//
// [Retry] runs an operation with exponential backoff. Only errors wrapped in
// [RetryableError] are retried; anything else returns immediately:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    if httputil.TransientStatus(resp.StatusCode) {
//	        return &httputil.RetryableError{Err: statusErr(resp)}
//	    }
//	    ...
//	})
//
// Streaming responses should only retry until the first successful status
// line: once events have been forwarded to the client a retry would replay
// them.
package httputil
