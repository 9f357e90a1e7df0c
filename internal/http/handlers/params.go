package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/apierr"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/platform/media"
	"github.com/omickelsen/Mickelsen-Farms-v2-sub000/internal/services"
)

// scopedParam reads a page-scoped parameter from its header, falling back to
// the query string and then the form.
func scopedParam(c *gin.Context, name string) string {
	if v := strings.TrimSpace(c.GetHeader(name)); v != "" {
		return v
	}
	lower := strings.ToLower(name)
	if v := strings.TrimSpace(c.Query(lower)); v != "" {
		return v
	}
	if strings.HasPrefix(c.ContentType(), "multipart/") || c.ContentType() == "application/x-www-form-urlencoded" {
		return strings.TrimSpace(c.PostForm(lower))
	}
	return ""
}

// readUpload pulls one multipart file, capped at maxBytes.
func readUpload(c *gin.Context, field string, maxBytes int64) (*services.Upload, error) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)
	}
	fh, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, errUploadTooLarge()
		}
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, apierr.BadRequest("invalid multipart body")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apierr.BadRequest("unreadable upload")
	}
	defer f.Close()

	data, err := media.ReadLimited(f, maxBytes)
	if err != nil {
		if errors.Is(err, media.ErrTooLarge) {
			return nil, errUploadTooLarge()
		}
		return nil, apierr.BadRequest("unreadable upload")
	}
	return &services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func errUploadTooLarge() error {
	return apierr.New(http.StatusRequestEntityTooLarge, apierr.CodeBadRequest, errors.New("upload is too large"))
}
