package controller

import (
	"errors"

	"pdf-assistant-be/internal/dto"
	"pdf-assistant-be/internal/pkg/serverutils"
	"pdf-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// httpError translates service sentinels into fiber errors at the transport
// boundary so the response middleware stays ignorant of the service package.
func httpError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrBusy),
		errors.Is(err, service.ErrMergePending),
		errors.Is(err, service.ErrNoMergePending):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNoDocument):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrNotPDF):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	Dispatch(ctx *fiber.Ctx) error
	SubmitMerge(ctx *fiber.Ctx) error
	CancelMerge(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Document(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Post("/upload", c.Upload)
	h.Post(":id/dispatch", c.Dispatch)
	h.Post(":id/merge", c.SubmitMerge)
	h.Post(":id/merge/cancel", c.CancelMerge)
	h.Get(":id", c.Show)
	h.Get(":id/document", c.Document)
}

func (c *sessionController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing 'file' form field")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unable to read uploaded file")
	}
	defer file.Close()

	res, err := c.service.StartSession(ctx.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		return httpError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Session started", res))
}

func (c *sessionController) Dispatch(ctx *fiber.Ctx) error {
	var req dto.DispatchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Dispatch(ctx.Context(), ctx.Params("id"), &req)
	if err != nil {
		return httpError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Command processed", res))
}

func (c *sessionController) SubmitMerge(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing 'file' form field")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unable to read uploaded file")
	}
	defer file.Close()

	res, err := c.service.SubmitMergeDocument(ctx.Context(), ctx.Params("id"), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		return httpError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Merge completed", res))
}

func (c *sessionController) CancelMerge(ctx *fiber.Ctx) error {
	res, err := c.service.CancelMerge(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return httpError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Merge cancelled", res))
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Snapshot(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return httpError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

// Document proxies the current revision's bytes from the engine so the preview
// iframe can point at this server.
func (c *sessionController) Document(ctx *fiber.Ctx) error {
	body, contentType, err := c.service.OpenDocument(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return httpError(err)
	}

	if contentType == "" {
		contentType = "application/pdf"
	}
	ctx.Set(fiber.HeaderContentType, contentType)
	return ctx.SendStream(body)
}
