package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/adforge/backend/internal/http/dto"
	"github.com/adforge/backend/internal/middleware"
	"github.com/adforge/backend/internal/models"
	"github.com/adforge/backend/internal/pipeline"
	"github.com/adforge/backend/internal/repositories"
	"github.com/adforge/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TemplateHandler struct {
	templateService *services.TemplateService
	log             *zap.Logger
}

func NewTemplateHandler(templateService *services.TemplateService, log *zap.Logger) *TemplateHandler {
	return &TemplateHandler{templateService: templateService, log: log}
}

// ImportTemplates accepts a multipart "file" field holding a CSV or XLSX
// sheet. Imported templates belong to the caller and are private unless the
// "visibility" form value says otherwise.
func (h *TemplateHandler) ImportTemplates(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return h.badRequest(c, "file is required")
	}

	visibility := models.VisibilityPrivate
	if v := c.FormValue("visibility"); v != "" {
		visibility, err = models.ParseVisibility(strings.ToUpper(strings.TrimSpace(v)))
		if err != nil {
			return h.badRequest(c, err.Error())
		}
	}
	owner, err := models.UserOwnership(middleware.GetUserID(c), visibility)
	if err != nil {
		return h.writeError(c, &pipeline.UnauthorizedError{Reason: err.Error()})
	}

	f, err := fh.Open()
	if err != nil {
		return h.badRequest(c, "could not read uploaded file")
	}
	defer f.Close()

	result, err := h.templateService.ImportFile(c.UserContext(), fh.Filename, f, owner)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

func (h *TemplateHandler) CreateFromTask(c *fiber.Ctx) error {
	var req dto.CreateFromTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "invalid request")
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		return h.badRequest(c, "invalid task_id")
	}

	tmpl, err := h.templateService.CreateFromTask(c.UserContext(), middleware.GetUserID(c), taskID, pipeline.TaskTemplateInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Visibility:  req.Visibility,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: tmpl})
}

func (h *TemplateHandler) ListTemplates(c *fiber.Ctx) error {
	filter := repositories.TemplateFilter{
		Search:    c.Query("q"),
		OwnedOnly: c.QueryBool("mine", false),
		Limit:     20,
	}
	if v := c.Query("category"); v != "" {
		cat := models.Category(strings.ToUpper(strings.TrimSpace(v)))
		if !models.IsValidCategory(cat) {
			return h.badRequest(c, "unknown category")
		}
		filter.Category = &cat
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	templates, err := h.templateService.List(c.UserContext(), middleware.GetUserID(c), filter)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ListResponse{
		Items:  templates,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}})
}

func (h *TemplateHandler) GetTemplate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.badRequest(c, "invalid template id")
	}

	tmpl, err := h.templateService.Get(c.UserContext(), middleware.GetUserID(c), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: tmpl})
}

func (h *TemplateHandler) UpdateTemplate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.badRequest(c, "invalid template id")
	}

	var req dto.UpdateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "invalid request")
	}

	tmpl, err := h.templateService.Update(c.UserContext(), middleware.GetUserID(c), id, req.ToPatch())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: tmpl})
}

func (h *TemplateHandler) SetVisibility(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.badRequest(c, "invalid template id")
	}

	var req dto.SetVisibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "invalid request")
	}

	tmpl, err := h.templateService.SetVisibility(c.UserContext(), middleware.GetUserID(c), id, models.Visibility(req.Visibility))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: tmpl})
}

func (h *TemplateHandler) DeleteTemplate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.badRequest(c, "invalid template id")
	}

	if err := h.templateService.Delete(c.UserContext(), middleware.GetUserID(c), id); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// LaunchTemplate expands a template into a launch payload. The body holds
// optional overrides and may be empty.
func (h *TemplateHandler) LaunchTemplate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.badRequest(c, "invalid template id")
	}

	var overrides models.LaunchOverrides
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&overrides); err != nil {
			return h.badRequest(c, "invalid request")
		}
	}

	payload, err := h.templateService.Launch(c.UserContext(), middleware.GetUserID(c), id, overrides)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: payload})
}

func (h *TemplateHandler) GetHistory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.badRequest(c, "invalid template id")
	}

	entries, err := h.templateService.History(c.UserContext(), middleware.GetUserID(c), id, c.QueryInt("limit", 50))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}

func (h *TemplateHandler) badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}

// writeError maps pipeline errors to status codes. Anything else is logged
// and reported as an internal error.
func (h *TemplateHandler) writeError(c *fiber.Ctx, err error) error {
	resp := dto.ErrorResponse{Error: err.Error(), RequestID: middleware.GetRequestID(c)}

	var (
		verr *pipeline.ValidationError
		derr *pipeline.DuplicateError
		nerr *pipeline.NotFoundError
		uerr *pipeline.UnauthorizedError
	)
	status := fiber.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = fiber.StatusBadRequest
		resp.Rule, resp.Field = verr.Rule, verr.Field
	case errors.As(err, &derr):
		status = fiber.StatusConflict
	case errors.As(err, &nerr):
		status = fiber.StatusNotFound
	case errors.As(err, &uerr):
		status = fiber.StatusForbidden
	default:
		h.log.Error("template request failed",
			zap.String("request_id", resp.RequestID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		resp.Error = "internal error"
	}
	return c.Status(status).JSON(resp)
}
