package rest

// Dispatch is what a request handler yields: either the (possibly transformed)
// *Request, dispatched to the parent client, or one of the ComplexRequest
// variants UseClient, UseResponse and Abort.
type Dispatch interface {
	dispatch()
}

func (*Request) dispatch() {}

// UseClient dispatches Request to Client instead of the parent client.
type UseClient struct {
	Request *Request
	Client  Client
}

func (UseClient) dispatch() {}

// UseResponse skips dispatch and continues with the response phase using
// Response.
type UseResponse struct {
	Response *Response
}

func (UseResponse) dispatch() {}

// Abort dispatches Request to the parent client while racing Signal. When the
// signal fires first the invocation fails with the received error, bypassing
// the response phase. A signal already fired prevents dispatch altogether.
type Abort struct {
	Request *Request
	Signal  <-chan error

	// Stop, when set, is called as soon as dispatch settles. It reports false
	// when the signal has been or is about to be sent, as time.Timer.Stop does,
	// in which case the invocation waits for it and fails.
	Stop func() bool
}

func (Abort) dispatch() {}
