package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tasklists/internal/logging"
	"github.com/Skotchmaster/tasklists/internal/service"
	"github.com/Skotchmaster/tasklists/internal/transport"
	"github.com/Skotchmaster/tasklists/internal/util"
)

type ListHTTP struct {
	Svc *service.ListService
}

func listID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *ListHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list_create")

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req transport.CreateListRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_list_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.Create(ctx, user.ID, req)
	if err != nil {
		return serviceError(ctx, "create_list_error", err)
	}
	return success(c, http.StatusCreated, echo.Map{"list": item})
}

func (h *ListHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	limit := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)

	res, err := h.Svc.List(ctx, user.ID, page, limit, c.QueryParam("search"))
	if err != nil {
		return serviceError(ctx, "list_lists_error", err)
	}
	return success(c, http.StatusOK, res)
}

func (h *ListHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	limit := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)

	res, err := h.Svc.Search(ctx, user.ID, c.QueryParam("q"), page, limit)
	if err != nil {
		return serviceError(ctx, "search_lists_error", err)
	}
	return success(c, http.StatusOK, res)
}

func (h *ListHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := listID(c)
	if err != nil {
		return err
	}

	item, err := h.Svc.Get(ctx, user.ID, id)
	if err != nil {
		return listError(c, "get_list_error", err)
	}
	return success(c, http.StatusOK, echo.Map{"list": item})
}

func (h *ListHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "list_update")

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := listID(c)
	if err != nil {
		return err
	}

	var req transport.PatchListRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_list_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.Update(ctx, user.ID, id, req)
	if err != nil {
		return listError(c, "update_list_error", err)
	}
	return success(c, http.StatusOK, echo.Map{"list": item})
}

func (h *ListHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := listID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, user.ID, id); err != nil {
		return listError(c, "delete_list_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func listError(c echo.Context, event string, err error) error {
	if errors.Is(err, service.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "List item not found")
	}
	return serviceError(c.Request().Context(), event, err)
}
