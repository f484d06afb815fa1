package transport

import (
	"net/http"

	"github.com/luizaranda/go-rest/pkg/internal"
)

// UserAgent is the User-Agent sent when the request has none.
var UserAgent = "go-rest/" + internal.Version

// UserAgentDecorator returns a RoundTripDecorator that sets UserAgent on
// requests lacking one.
func UserAgentDecorator() RoundTripDecorator {
	return func(base http.RoundTripper) http.RoundTripper {
		return &UserAgentRoundTripper{Transport: base}
	}
}

type UserAgentRoundTripper struct {
	Transport http.RoundTripper
}

func (ua *UserAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.UserAgent() == "" {
		req.Header.Set("User-Agent", UserAgent)
	}
	return ua.Transport.RoundTrip(req)
}
