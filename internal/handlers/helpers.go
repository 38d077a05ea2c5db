package handlers

import (
	"errors"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"vidtube/internal/models"
	"vidtube/pkg/blobstore"
)

// Guards are the middleware each handler attaches to its routes.
type Guards struct {
	// Required rejects anonymous callers.
	Required fiber.Handler
	// Optional identifies the caller when a token is present.
	Optional fiber.Handler
	// RateLimit throttles the credential endpoints.
	RateLimit fiber.Handler
}

// formFile opens the first present multipart file among fields. It returns a
// nil file when none was sent; the caller must invoke the returned close
// function once the upload is done.
func formFile(c *fiber.Ctx, fields ...string) (*blobstore.File, func(), error) {
	for _, field := range fields {
		header, err := c.FormFile(field)
		if err != nil {
			if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
				continue
			}
			return nil, nil, models.NewInvalidArgumentError("Invalid multipart form", err.Error())
		}
		f, err := header.Open()
		if err != nil {
			return nil, nil, models.NewInternalError("failed to read uploaded file", err)
		}
		return fileFromHeader(header, f), func() { _ = f.Close() }, nil
	}
	return nil, func() {}, nil
}

func fileFromHeader(header *multipart.FileHeader, f multipart.File) *blobstore.File {
	return &blobstore.File{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Reader:      f,
	}
}

// pageParams reads the page and limit query parameters; malformed values
// fall back to the defaults.
func pageParams(c *fiber.Ctx) (int, int) {
	return c.QueryInt("page", models.DefaultPage), c.QueryInt("limit", models.DefaultLimit)
}

// parseFloat reads an optional numeric form value.
func parseFloat(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, models.NewInvalidArgumentError("Invalid number", err.Error())
	}
	return f, nil
}
