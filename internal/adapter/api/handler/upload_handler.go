package handler

import (
	"github.com/labstack/echo/v4"

	"linkup/internal/usecase"
	"linkup/pkg/errors"
	"linkup/pkg/response"
)

type UploadHandler struct {
	uploader usecase.FileUploader
}

func NewUploadHandler(uploader usecase.FileUploader) *UploadHandler {
	return &UploadHandler{
		uploader: uploader,
	}
}

// Upload stores an image blob and returns its download URL. Nothing is
// written to any chat here; appending the image message is a separate call
// the client makes only after this one succeeded.
func (h *UploadHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.Validation("file field is required"))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.UploadFailed(err))
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := h.uploader.Upload(c.Request().Context(), src, contentType, nil)
	if err != nil {
		return response.Error(c, errors.UploadFailed(err))
	}

	return response.Created(c, map[string]string{
		"url": url,
	})
}
