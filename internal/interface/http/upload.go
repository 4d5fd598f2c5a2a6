package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/frtweb/blog-backend/internal/application"
	"github.com/frtweb/blog-backend/pkg/response"
)

var errNoFile = errors.New("file is required")

// formMemory bounds the part of a form kept in memory; the rest spills to disk.
const formMemory = 8 << 20

// parseMultipart caps the request body at maxBytes and parses the form.
// On failure it writes 413 or 400 and returns false.
func parseMultipart(c *gin.Context, maxBytes int64) bool {
	if c.Request.MultipartForm != nil {
		return true
	}
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}
	mem := int64(formMemory)
	if maxBytes > 0 && maxBytes < mem {
		mem = maxBytes
	}
	if err := c.Request.ParseMultipartForm(mem); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, "upload too large", fmt.Sprintf("limit is %d bytes", tooLarge.Limit))
			return false
		}
		response.Error(c, http.StatusBadRequest, "invalid multipart form", nil)
		return false
	}
	return true
}

// openedFiles collects files that must be closed once the request is done.
type openedFiles []multipart.File

func (o *openedFiles) Close() {
	for _, f := range *o {
		_ = f.Close()
	}
	*o = nil
}

func (o *openedFiles) open(fh *multipart.FileHeader) (application.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return application.Upload{}, err
	}
	*o = append(*o, f)
	return application.Upload{Filename: fh.Filename, Body: f}, nil
}

// formFile opens the first file under field; nil when the field is absent.
func (o *openedFiles) formFile(r *http.Request, field string) (*application.Upload, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}
	up, err := o.open(r.MultipartForm.File[field][0])
	if err != nil {
		return nil, err
	}
	return &up, nil
}

// formFiles opens every file under field.
func (o *openedFiles) formFiles(r *http.Request, field string) ([]application.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	fhs := r.MultipartForm.File[field]
	out := make([]application.Upload, 0, len(fhs))
	for _, fh := range fhs {
		up, err := o.open(fh)
		if err != nil {
			return nil, err
		}
		out = append(out, up)
	}
	return out, nil
}
