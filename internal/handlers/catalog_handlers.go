package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"fortexx_ledger/internal/services"
)

type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) ListServers(c echo.Context) error {
	servers, err := h.catalog.ListServers(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, servers)
}

func (h *CatalogHandler) GetServer(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	server, err := h.catalog.ServerByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, server)
}

func (h *CatalogHandler) CreateServer(c echo.Context) error {
	var req ServerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	server := req.model()
	if err := h.catalog.CreateServer(c.Request().Context(), server); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, server)
}

func (h *CatalogHandler) UpdateServer(c echo.Context) error {
	var req ServerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.ID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}
	server := req.model()
	if err := h.catalog.UpdateServer(c.Request().Context(), server); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, server)
}

func (h *CatalogHandler) DeleteServer(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteServer(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	product, err := h.catalog.ProductByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) ProductsByServer(c echo.Context) error {
	id, err := idParam(c, "serverId")
	if err != nil {
		return err
	}
	products, err := h.catalog.ProductsByServer(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if err := bindProduct(c, &req); err != nil {
		return err
	}
	product := req.model()
	if err := h.catalog.CreateProduct(c.Request().Context(), product); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	var req ProductRequest
	if err := bindProduct(c, &req); err != nil {
		return err
	}
	if req.ID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}
	product := req.model()
	if err := h.catalog.UpdateProduct(c.Request().Context(), product); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return httpError(err)
	}
	return nil
}

func bindProduct(c echo.Context, req *ProductRequest) error {
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	if req.PriceEur.IsNegative() || req.PriceCzk.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "prices must not be negative")
	}
	return nil
}
