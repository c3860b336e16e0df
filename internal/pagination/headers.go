package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	HeaderPage  = "X-Page"
	HeaderLimit = "X-Limit"
	HeaderTotal = "X-Total-Count"

	contextKey = "pagination"
)

// Attach stores the resolved window on the request so Headers can publish it.
func Attach(c *gin.Context, p Pagination) {
	c.Set(contextKey, p)
}

// FromContext returns the window attached by the handler, if any.
func FromContext(c *gin.Context) (Pagination, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return Pagination{}, false
	}
	p, ok := v.(Pagination)
	return p, ok
}

// Headers writes X-Page, X-Limit and X-Total-Count for handlers that called Attach.
// The values are injected right before the status line goes out, so the handler may
// attach them at any point before it renders.
func Headers() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer = &headerWriter{ResponseWriter: c.Writer, c: c}
		c.Next()
	}
}

type headerWriter struct {
	gin.ResponseWriter
	c *gin.Context
}

func (w *headerWriter) inject() {
	if w.ResponseWriter.Written() {
		return
	}
	p, ok := FromContext(w.c)
	if !ok {
		return
	}
	h := w.ResponseWriter.Header()
	h.Set(HeaderPage, strconv.Itoa(p.Page))
	h.Set(HeaderLimit, strconv.Itoa(p.Limit))
	h.Set(HeaderTotal, strconv.Itoa(p.Total))
}

func (w *headerWriter) WriteHeader(code int) {
	w.inject()
	w.ResponseWriter.WriteHeader(code)
}

func (w *headerWriter) WriteHeaderNow() {
	w.inject()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *headerWriter) Write(b []byte) (int, error) {
	w.inject()
	return w.ResponseWriter.Write(b)
}

func (w *headerWriter) WriteString(s string) (int, error) {
	w.inject()
	return w.ResponseWriter.WriteString(s)
}
