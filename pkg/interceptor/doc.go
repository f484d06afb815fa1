// Package interceptor provides the stock interceptors of go-rest.
//
// Every interceptor is a rest.Factory bound to its configuration struct. It
// can be applied positionally or wrapped onto an existing client:
//
//	client := interceptor.ErrorCode(rest.NewHTTPClient(), nil)
//	client = client.Wrap(interceptor.Mime.With(&interceptor.MimeConfig{Mime: "application/json"}))
//
// Some interceptors read per-request overrides from rest.Request.Attributes.
// The recognized keys are the Attr constants of this package.
package interceptor

// Request attributes read by the interceptors of this package.
const (
	// AttrTimeout overrides TimeoutConfig.Timeout. It holds a time.Duration or
	// a number of milliseconds.
	AttrTimeout = "timeout"

	// AttrTransient overrides TimeoutConfig.Transient.
	AttrTransient = "transient"

	AttrUsername = "username"
	AttrPassword = "password"

	// AttrCSRFToken and AttrCSRFTokenName override CSRFConfig.
	AttrCSRFToken     = "csrfToken"
	AttrCSRFTokenName = "csrfTokenName"

	// AttrRequestID is set by RequestID to the identifier it sent.
	AttrRequestID = "requestID"
)
