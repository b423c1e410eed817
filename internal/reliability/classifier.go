package reliability

import "time"

// IsRetryableHTTPStatus classifies retryable HTTP status codes, as returned
// by a failed websocket handshake.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsRetryableCloseCode classifies websocket close codes after which a peer
// should reconnect.
func IsRetryableCloseCode(code int) bool {
	switch code {
	case 1001, // going away
		1006, // abnormal closure
		1011, // internal error
		1012, // service restart
		1013: // try again later
		return true
	default:
		return false
	}
}

// ExponentialBackoff computes a deterministic capped backoff duration.
func ExponentialBackoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}
