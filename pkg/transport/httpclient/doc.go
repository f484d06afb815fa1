/*
Package httpclient builds the *http.Client used by the HTTP root client of
package rest. Clients keep TCP connections pooled through transport.PooledTransport
and record telemetry on every request through the transport decorators.

Requests built with NewRequest have rewindable bodies, so they can be sent
again by retries and redirects.
*/
package httpclient
