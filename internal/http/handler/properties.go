package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"propertyapi/internal/asset"
	"propertyapi/internal/service"
)

// imagesField is the multipart field carrying uploaded images.
const imagesField = "images"

func criteriaFromQuery(c *fiber.Ctx) service.Criteria {
	return service.Criteria{
		Query:  c.Query("query"),
		Type:   c.Query("type"),
		Budget: c.Query("budget"),
	}
}

// ListProperties returns every property, or the filtered set when any filter parameter is given.
//
// @Summary     List properties
// @Tags        properties
// @Produce     json
// @Param       query  query string false "case-insensitive title substring"
// @Param       type   query string false "exact property type"
// @Param       budget query string false "budget tier (low, medium, high)"
// @Success     200 {array} model.Property
// @Failure     500 {object} errorPayload
// @Router      /api/properties [get]
func ListProperties(svc service.PropertyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		criteria := criteriaFromQuery(c)
		if !criteria.IsZero() {
			return filter(c, svc, criteria)
		}
		items, err := svc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err, "Failed to fetch properties.")
		}
		return c.JSON(items)
	}
}

// FilterProperties returns the properties matching all given filter parameters.
//
// @Summary     Filter properties
// @Tags        properties
// @Produce     json
// @Param       query  query string false "case-insensitive title substring"
// @Param       type   query string false "exact property type"
// @Param       budget query string false "budget tier (low, medium, high)"
// @Success     200 {array} model.Property
// @Failure     500 {object} errorPayload
// @Router      /api/properties/filter [get]
func FilterProperties(svc service.PropertyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return filter(c, svc, criteriaFromQuery(c))
	}
}

func filter(c *fiber.Ctx, svc service.PropertyService, criteria service.Criteria) error {
	items, err := svc.Filter(c.UserContext(), criteria)
	if err != nil {
		return writeServiceError(c, err, "Error fetching properties")
	}
	return c.JSON(items)
}

// UploadProperty creates a property from a multipart form with files under "images".
//
// @Summary     Create property
// @Tags        properties
// @Accept      multipart/form-data
// @Produce     json
// @Param       projectId   formData string true  "project id"
// @Param       title       formData string true  "title"
// @Param       area        formData number true  "area"
// @Param       price       formData number true  "price"
// @Param       description formData string true  "description"
// @Param       location    formData string true  "location"
// @Param       type        formData string false "type"
// @Param       images      formData file   false "images"
// @Success     201 {object} map[string]any
// @Failure     400 {object} errorPayload
// @Failure     500 {object} errorPayload
// @Security    BearerAuth
// @Router      /api/properties/upload-property [post]
func UploadProperty(svc service.PropertyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var files []asset.File
		if isMultipart(c) {
			form, err := c.MultipartForm()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "invalid multipart form")
			}
			files = uploadedFiles(form.File[imagesField])
		}

		in := service.PropertyInput{
			ProjectID:   c.FormValue("projectId"),
			Title:       c.FormValue("title"),
			Area:        c.FormValue("area"),
			Price:       c.FormValue("price"),
			Description: c.FormValue("description"),
			Location:    c.FormValue("location"),
			Type:        c.FormValue("type"),
		}

		p, err := svc.Create(c.UserContext(), in, files)
		if err != nil {
			return writeServiceError(c, err, "Failed to upload property.")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":  "Property uploaded successfully!",
			"property": p,
		})
	}
}

func uploadedFiles(headers []*multipart.FileHeader) []asset.File {
	files := make([]asset.File, 0, len(headers))
	for _, fh := range headers {
		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		files = append(files, asset.File{
			Name:        fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}

// UpdateProperty applies a partial update from a JSON or form body.
//
// @Summary     Update property
// @Tags        properties
// @Accept      json
// @Produce     json
// @Param       id   path string         true "property id"
// @Param       body body map[string]any true "fields to change"
// @Success     200 {object} map[string]any
// @Failure     400 {object} errorPayload
// @Failure     404 {object} errorPayload
// @Failure     500 {object} errorPayload
// @Security    BearerAuth
// @Router      /api/properties/{id} [put]
func UpdateProperty(svc service.PropertyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		patch, err := updateBody(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "body must be a JSON object or form")
		}

		p, err := svc.Update(c.UserContext(), c.Params("id"), patch)
		if err != nil {
			return writeServiceError(c, err, "Server error")
		}
		return c.JSON(fiber.Map{
			"message":         "Property updated successfully",
			"updatedProperty": p,
		})
	}
}

// updateBody reads the request body as a flat key/value map. JSON numbers are kept as
// json.Number so the service decides how to convert them.
func updateBody(c *fiber.Ctx) (map[string]any, error) {
	patch := map[string]any{}

	switch {
	case isMultipart(c):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		for k, v := range form.Value {
			if len(v) > 0 {
				patch[k] = v[0]
			}
		}
	case strings.HasPrefix(contentType(c), fiber.MIMEApplicationForm):
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			patch[string(k)] = string(v)
		})
	default:
		body := bytes.TrimSpace(c.Body())
		if len(body) == 0 {
			return patch, nil
		}
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&patch); err != nil {
			return nil, err
		}
		if patch == nil {
			patch = map[string]any{}
		}
	}
	return patch, nil
}

// DeleteProperty removes a property and its images.
//
// @Summary     Delete property
// @Tags        properties
// @Produce     json
// @Param       id path string true "property id"
// @Success     200 {object} map[string]any
// @Failure     404 {object} errorPayload
// @Failure     500 {object} errorPayload
// @Security    BearerAuth
// @Router      /api/properties/{id} [delete]
func DeleteProperty(svc service.PropertyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeServiceError(c, err, "Server error")
		}
		return c.JSON(fiber.Map{"message": "Property deleted successfully"})
	}
}

func contentType(c *fiber.Ctx) string {
	return strings.ToLower(string(c.Request().Header.ContentType()))
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(contentType(c), fiber.MIMEMultipartForm)
}
