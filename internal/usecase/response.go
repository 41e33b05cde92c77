package usecase

// Response is the transport-neutral result of one request. Transports
// render it themselves: the HTTP server writes Body as-is, the Lambda
// adapter base64-encodes it when Binary is set.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Binary     bool
}
