package httpserver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"os"
	"strings"
)

var ErrMalformedRequest = errors.New("malformed request line")

// Request holds the parts of an HTTP request the page handler looks at.
type Request struct {
	Method string
	Path   string
	Proto  string
	Header textproto.MIMEHeader
}

// ParseRequest reads the request line and the header block from r.
// A connection closed before any byte arrives yields io.EOF.
func ParseRequest(r io.Reader) (Request, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	tp := textproto.NewReader(br)

	line, err := tp.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return Request{}, io.EOF
		}
		return Request{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Request{}, fmt.Errorf("%w: %q", ErrMalformedRequest, line)
	}

	req := Request{
		Method: fields[0],
		Path:   fields[1],
	}
	if len(fields) > 2 {
		req.Proto = fields[2]
	}

	// Clients that half-close or go quiet after the request line send no
	// headers. The request line alone is enough to answer.
	header, err := tp.ReadMIMEHeader()
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrDeadlineExceeded) {
		return Request{}, fmt.Errorf("%w: bad header block: %w", ErrMalformedRequest, err)
	}
	req.Header = header

	return req, nil
}

// RoutePath returns the request path without its query string.
func (r Request) RoutePath() string {
	path, _, _ := strings.Cut(r.Path, "?")
	return path
}
