package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ReaderFunc returns a fresh reader over the same body on every call. It is
// the optimal body type for NewRequest.
type ReaderFunc func() (io.Reader, error)

// GetBody adapts r to the signature of http.Request.GetBody.
func (r ReaderFunc) GetBody() (io.ReadCloser, error) {
	tmp, err := r()
	if err != nil {
		return nil, err
	}
	if rc, ok := tmp.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(tmp), nil
}

// lenReader is implemented by the in-memory readers, which lets NewRequest
// send the right Content-Length.
type lenReader interface{ Len() int }

// NewRequest creates an http.Request whose body can be read again through
// GetBody.
//
// rawBody may be nil, a string, a []byte, a *bytes.Buffer, a *bytes.Reader, a
// *strings.Reader, an io.ReadSeeker, a ReaderFunc or any other io.Reader,
// which is read fully upfront.
func NewRequest(ctx context.Context, method, url string, rawBody any) (*http.Request, error) {
	if rawBody == nil {
		return http.NewRequestWithContext(ctx, method, url, nil)
	}

	readerFunc, contentLength, err := rewindable(rawBody)
	if err != nil {
		return nil, err
	}

	body, err := readerFunc()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.ContentLength = contentLength
	req.GetBody = readerFunc.GetBody
	if contentLength == 0 {
		req.Body = http.NoBody
	}

	return req, nil
}

func rewindable(rawBody any) (ReaderFunc, int64, error) {
	switch body := rawBody.(type) {
	case ReaderFunc:
		return measured(body)

	case func() (io.Reader, error):
		return measured(body)

	case string:
		return func() (io.Reader, error) { return strings.NewReader(body), nil }, int64(len(body)), nil

	case []byte:
		return func() (io.Reader, error) { return bytes.NewReader(body), nil }, int64(len(body)), nil

	case *bytes.Buffer:
		buf := body.Bytes()
		return func() (io.Reader, error) { return bytes.NewReader(buf), nil }, int64(len(buf)), nil

	// Snapshots keep the reader positions independent between reads.
	case *bytes.Reader:
		snapshot := *body
		return func() (io.Reader, error) { r := snapshot; return &r, nil }, int64(body.Len()), nil

	case *strings.Reader:
		snapshot := *body
		return func() (io.Reader, error) { r := snapshot; return &r, nil }, int64(body.Len()), nil

	case io.ReadSeeker:
		var n int64 = -1
		if lr, ok := body.(lenReader); ok {
			n = int64(lr.Len())
		}
		return func() (io.Reader, error) {
			_, err := body.Seek(0, io.SeekStart)
			return body, err
		}, n, nil

	case io.Reader:
		buf, err := io.ReadAll(body)
		if err != nil {
			return nil, 0, err
		}
		return func() (io.Reader, error) { return bytes.NewReader(buf), nil }, int64(len(buf)), nil

	default:
		return nil, 0, fmt.Errorf("httpclient: cannot handle body of type %T", rawBody)
	}
}

// measured calls f once to learn the body length, if the reader knows it.
func measured(f ReaderFunc) (ReaderFunc, int64, error) {
	tmp, err := f()
	if err != nil {
		return nil, 0, err
	}

	n := int64(-1)
	if lr, ok := tmp.(lenReader); ok {
		n = int64(lr.Len())
	}
	if c, ok := tmp.(io.Closer); ok {
		_ = c.Close()
	}
	return f, n, nil
}
