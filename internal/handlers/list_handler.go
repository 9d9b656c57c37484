package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"shoppingtop/internal/apperror"
	"shoppingtop/internal/middleware"
	"shoppingtop/internal/models"
	"shoppingtop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ListResponse is the JSON representation of a shopping list.
type ListResponse struct {
	ID        uint     `json:"id"`
	Shop      string   `json:"shop"`
	ShopItems string   `json:"shop_items"`
	Items     []string `json:"items"`
	Date      *string  `json:"date"`
	Shopper   uint     `json:"shopper"`
	Done      bool     `json:"done"`
}

// NewListResponse converts a stored list to its JSON representation.
func NewListResponse(l models.List) ListResponse {
	resp := ListResponse{
		ID:        l.ID,
		Shop:      l.Shop,
		ShopItems: l.ShopItems,
		Items:     l.Items(),
		Shopper:   l.ShopperID,
		Done:      l.Done,
	}
	if l.Date != nil {
		date := l.FormattedDate()
		resp.Date = &date
	}
	return resp
}

// ListHandler handles HTTP requests for shopping lists.
type ListHandler struct {
	service *services.ListService
	logger  *slog.Logger
}

// NewListHandler creates a new ListHandler.
func NewListHandler(service *services.ListService, logger *slog.Logger) *ListHandler {
	return &ListHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the list routes. router is expected to be the
// session-protected "/shoppinglist" group.
func (h *ListHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleIndex)
	router.Get("/new", h.HandleNewForm)
	router.Post("/new", h.HandleCreate)
	router.Get("/:id<int>", h.HandleDetail)
	router.Get("/:id<int>/update", h.HandleEditForm)
	router.Post("/:id<int>/update", h.HandleUpdate)
	router.Get("/:id<int>/delete", h.HandleConfirmDelete)
	router.Post("/:id<int>/delete", h.HandleDelete)
}

// HandleIndex shows every list.
func (h *ListHandler) HandleIndex(c *fiber.Ctx) error {
	lists, err := h.service.ListAll(c.UserContext())
	if err != nil {
		return err
	}

	if wantsJSON(c) {
		resp := make([]ListResponse, 0, len(lists))
		for _, l := range lists {
			resp = append(resp, NewListResponse(l))
		}
		return c.JSON(resp)
	}
	return page(c, fiber.StatusOK, "lists/index", fiber.Map{
		"Title": "Shopping lists",
		"Lists": lists,
	})
}

// HandleDetail shows a single list.
func (h *ListHandler) HandleDetail(c *fiber.Ctx) error {
	list, err := h.loadList(c)
	if err != nil {
		return err
	}

	if wantsJSON(c) {
		return c.JSON(NewListResponse(*list))
	}
	return page(c, fiber.StatusOK, "lists/detail", fiber.Map{
		"Title": list.String(),
		"List":  list,
	})
}

// HandleNewForm shows an empty list form.
func (h *ListHandler) HandleNewForm(c *fiber.Ctx) error {
	return h.renderForm(c, fiber.StatusOK, "New list", "/shoppinglist/new/", models.ListInput{}, nil)
}

// HandleCreate creates a list owned by the logged in user.
func (h *ListHandler) HandleCreate(c *fiber.Ctx) error {
	input, err := bindListInput(c)
	if err == nil {
		var list *models.List
		list, err = h.service.Create(c.UserContext(), middleware.CurrentUserID(c), input)
		if err == nil {
			if wantsJSON(c) {
				return c.Status(fiber.StatusCreated).JSON(NewListResponse(*list))
			}
			return c.Redirect(list.URL(), fiber.StatusFound)
		}
	}

	if errors.Is(err, apperror.ErrValidation) {
		return h.renderForm(c, fiber.StatusBadRequest, "New list", "/shoppinglist/new/", input, apperror.Fields(err))
	}
	return err
}

// HandleEditForm shows the form pre-filled with the list's current values.
func (h *ListHandler) HandleEditForm(c *fiber.Ctx) error {
	list, err := h.loadList(c)
	if err != nil {
		return err
	}
	return h.renderForm(c, fiber.StatusOK, "Edit "+list.String(), list.URL()+"/update/", models.InputFromList(*list), nil)
}

// HandleUpdate replaces every field of a list with the submitted values.
func (h *ListHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := listID(c)
	if err != nil {
		return err
	}
	action := fmt.Sprintf("/shoppinglist/%d/update/", id)

	input, err := bindListInput(c)
	if err == nil {
		var list *models.List
		list, err = h.service.Update(c.UserContext(), id, input)
		if err == nil {
			if wantsJSON(c) {
				return c.JSON(NewListResponse(*list))
			}
			return c.Redirect(list.URL(), fiber.StatusFound)
		}
	}

	if errors.Is(err, apperror.ErrValidation) {
		return h.renderForm(c, fiber.StatusBadRequest, "Edit list", action, input, apperror.Fields(err))
	}
	return err
}

// HandleConfirmDelete asks for confirmation before deleting.
func (h *ListHandler) HandleConfirmDelete(c *fiber.Ctx) error {
	list, err := h.loadList(c)
	if err != nil {
		return err
	}

	if wantsJSON(c) {
		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("Are you sure you want to delete \"%s\"?", list.String()),
			"list":    NewListResponse(*list),
		})
	}
	return page(c, fiber.StatusOK, "lists/confirm_delete", fiber.Map{
		"Title": "Delete " + list.String(),
		"List":  list,
	})
}

// HandleDelete permanently deletes a list.
func (h *ListHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := listID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}

	h.logger.Info("list deleted", slog.Uint64("list_id", uint64(id)), slog.Uint64("user_id", uint64(middleware.CurrentUserID(c))))
	if wantsJSON(c) {
		return c.JSON(fiber.Map{
			"message": fmt.Sprintf("List %d deleted successfully", id),
		})
	}
	return c.Redirect("/shoppinglist/", fiber.StatusFound)
}

func (h *ListHandler) loadList(c *fiber.Ctx) (*models.List, error) {
	id, err := listID(c)
	if err != nil {
		return nil, err
	}
	return h.service.GetByID(c.UserContext(), id)
}

// renderForm shows the list form, or for JSON clients the validation errors.
func (h *ListHandler) renderForm(c *fiber.Ctx, status int, title, action string, input models.ListInput, fieldErrors map[string]string) error {
	if fieldErrors == nil {
		fieldErrors = map[string]string{}
	}
	if wantsJSON(c) {
		if status == fiber.StatusOK {
			return c.JSON(fiber.Map{"action": action, "form": input})
		}
		return c.Status(status).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  fieldErrors,
		})
	}
	return page(c, status, "lists/form", fiber.Map{
		"Title":  title,
		"Action": action,
		"Input":  input,
		"Errors": fieldErrors,
	})
}

func listID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperror.NotFound("list", c.Params("id"))
	}
	return uint(id), nil
}

// bindListInput reads a JSON body or an HTML form into a ListInput.
func bindListInput(c *fiber.Ctx) (models.ListInput, error) {
	var input models.ListInput
	if c.Is("json") {
		if err := c.BodyParser(&input); err != nil {
			return input, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		return input, nil
	}

	input.Shop = c.FormValue("shop")
	input.ShopItems = strings.ReplaceAll(c.FormValue("shop_items"), "\r\n", "\n")
	input.Date = c.FormValue("date")
	input.Done = checked(c.FormValue("done"))
	if raw := c.FormValue("shopper"); raw != "" {
		shopper, err := strconv.ParseUint(raw, 10, 0)
		if err != nil {
			return input, apperror.ValidationFailed("shopper", "Select a valid choice. That choice is not one of the available choices.")
		}
		input.Shopper = uint(shopper)
	}
	return input, nil
}

// checked interprets an HTML checkbox value.
func checked(value string) bool {
	switch strings.ToLower(value) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
