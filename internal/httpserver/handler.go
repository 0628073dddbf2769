package httpserver

import (
	"io/fs"
	"net/http"
)

var (
	notFoundFallback = []byte("404 Not Found")
	serverErrorBody  = []byte("Internal Server Error")
	badRequestBody   = []byte("Bad Request")
)

// Handler answers requests from a route table backed by a page filesystem.
type Handler struct {
	routes   *RouteTable
	pages    fs.FS
	notFound string
}

func NewHandler(routes *RouteTable, pages fs.FS, notFound string) *Handler {
	return &Handler{
		routes:   routes,
		pages:    pages,
		notFound: notFound,
	}
}

// Handle serves GET requests for known routes. A route whose file cannot be
// read yields 500; any other request yields the not-found page.
func (h *Handler) Handle(req Request) Response {
	if req.Method == http.MethodGet {
		if file, ok := h.routes.Lookup(req.RoutePath()); ok {
			content, err := fs.ReadFile(h.pages, file)
			if err != nil {
				return NewResponse(StatusInternalServerError, serverErrorBody)
			}
			return NewResponse(StatusOK, content)
		}
	}
	return h.notFoundResponse()
}

func (h *Handler) notFoundResponse() Response {
	if h.notFound != "" {
		if content, err := fs.ReadFile(h.pages, h.notFound); err == nil {
			return NewResponse(StatusNotFound, content)
		}
	}
	return NewResponse(StatusNotFound, notFoundFallback)
}
