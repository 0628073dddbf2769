package httpserver

import (
	"bytes"
	"fmt"
	"io"
)

type Status int

const (
	StatusOK                  Status = 200
	StatusBadRequest          Status = 400
	StatusNotFound            Status = 404
	StatusInternalServerError Status = 500
)

func (s Status) Code() int {
	return int(s)
}

func (s Status) Reason() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "BAD REQUEST"
	case StatusNotFound:
		return "NOT FOUND"
	case StatusInternalServerError:
		return "INTERNAL SERVER ERROR"
	default:
		return "UNKNOWN"
	}
}

type Response struct {
	Status Status
	Body   []byte
}

func NewResponse(status Status, body []byte) Response {
	return Response{Status: status, Body: body}
}

// WriteTo writes the status line, a Content-Length header and the body.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "HTTP/1.1 %d %s\r\n", r.Status.Code(), r.Status.Reason())
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", len(r.Body))
	buf.Write(r.Body)
	return buf.WriteTo(w)
}

func (r Response) String() string {
	var buf bytes.Buffer
	r.WriteTo(&buf)
	return buf.String()
}
