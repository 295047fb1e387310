package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/repositories"
	"github.com/elimu-cbe/cbe-platform/internal/services"
	"github.com/elimu-cbe/cbe-platform/internal/utils"
	"github.com/elimu-cbe/cbe-platform/internal/validator"
)

// maxResourceSize caps uploaded files at 50 MiB
const maxResourceSize = 50 << 20

type ResourceHandler struct {
	BaseHandler
	resourceService services.ResourceService
	validator       *validator.Validator
}

func NewResourceHandler(
	resourceService services.ResourceService,
	validator *validator.Validator,
	logger utils.Logger,
) *ResourceHandler {
	return &ResourceHandler{
		BaseHandler:     NewBaseHandler(logger),
		resourceService: resourceService,
		validator:       validator,
	}
}

// UploadResource stores a learning resource file with its metadata
// @Summary Upload resource
// @Tags resources
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Resource file"
// @Param title formData string true "Title"
// @Param subject formData string true "Subject"
// @Param grade_level formData string true "Grade level"
// @Success 201 {object} models.Resource
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /resources [post]
func (h *ResourceHandler) UploadResource(c *gin.Context) {
	var req services.CreateResourceRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid resource metadata",
			Details: err.Error(),
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Missing resource file",
			Details: err.Error(),
		})
		return
	}
	if fileHeader.Size > maxResourceSize {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "file_too_large",
			Message: "Resource file exceeds the size limit",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Failed to read resource file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Uploading resource", "title", req.Title, "file", fileHeader.Filename, "size", fileHeader.Size)

	resource, err := h.resourceService.Upload(c.Request.Context(), &req, services.UploadedFile{
		Reader:      file,
		FileName:    fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resource)
}

// GetResource returns resource metadata with a presigned download URL
// @Summary Get resource
// @Tags resources
// @Produce json
// @Param id path uint true "Resource ID"
// @Success 200 {object} models.Resource
// @Failure 404 {object} ErrorResponse
// @Router /resources/{id} [get]
func (h *ResourceHandler) GetResource(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	resource, err := h.resourceService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resource)
}

// ListResources lists resources with filters
// @Summary List resources
// @Tags resources
// @Produce json
// @Param subject query string false "Subject filter"
// @Param grade_level query string false "Grade level filter"
// @Param type query string false "Resource type"
// @Success 200 {object} services.ResourceListResponse
// @Router /resources [get]
func (h *ResourceHandler) ListResources(c *gin.Context) {
	limit, offset := h.parsePagination(c)
	filters := repositories.ResourceFilters{
		Limit:  limit,
		Offset: offset,
	}
	if subject := c.Query("subject"); subject != "" {
		filters.Subject = &subject
	}
	if gradeLevel := c.Query("grade_level"); gradeLevel != "" {
		filters.GradeLevel = &gradeLevel
	}
	if resourceType := c.Query("type"); resourceType != "" {
		rt := models.ResourceType(resourceType)
		filters.Type = &rt
	}
	if uploadedBy := c.Query("uploaded_by"); uploadedBy != "" {
		filters.UploadedBy = &uploadedBy
	}

	resources, err := h.resourceService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resources)
}

// DeleteResource removes a resource and its stored file
// @Summary Delete resource
// @Tags resources
// @Param id path uint true "Resource ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /resources/{id} [delete]
func (h *ResourceHandler) DeleteResource(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Deleting resource", "resource_id", id)

	if err := h.resourceService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
