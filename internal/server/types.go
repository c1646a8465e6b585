package server

// Response is the body of /calculate.
type Response struct {
	// N is the requested index.
	N int `json:"n"`
	// Result is F(n) as a decimal string, "+Inf" on overflow. JSON numbers
	// cannot carry non-finite values or the full width of large floats.
	Result string `json:"result,omitempty"`
	// Exact reports whether Result is the exact Fibonacci number.
	Exact bool `json:"exact"`
	// Duration is the formatted execution time.
	Duration string `json:"duration"`
	// Algorithm is the variant that ran.
	Algorithm string `json:"algorithm"`
	// Error is set when the calculation failed.
	Error string `json:"error,omitempty"`
}

// ErrorResponse is the body of a request-level failure.
type ErrorResponse struct {
	// Error is the HTTP status text.
	Error string `json:"error"`
	// Message describes the failure.
	Message string `json:"message,omitempty"`
}

// CacheResponse is the body of /cache.
type CacheResponse struct {
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	Fills    uint64  `json:"fills"`
	Filled   int     `json:"filled"`
	Capacity int     `json:"capacity"`
	HitRatio float64 `json:"hit_ratio"`
}
