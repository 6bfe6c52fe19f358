package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"fortexx_ledger/internal/services"
)

// LastPaymentsCount is the size of the unpaged payment listing.
const LastPaymentsCount = 20

type PaymentHandler struct {
	store     *services.PaymentStore
	gateway   *services.SMSGateway
	informant *services.InformantService
}

func NewPaymentHandler(store *services.PaymentStore, gateway *services.SMSGateway, informant *services.InformantService) *PaymentHandler {
	return &PaymentHandler{store: store, gateway: gateway, informant: informant}
}

// LastPayments returns the most recent payments
func (h *PaymentHandler) LastPayments(c echo.Context) error {
	payments, err := h.store.LastPayments(c.Request().Context(), LastPaymentsCount)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, NewPaymentDTOs(payments))
}

// PaymentsPage returns one page of payments, newest first
func (h *PaymentHandler) PaymentsPage(c echo.Context) error {
	size, err := positiveParam(c, "show_num")
	if err != nil {
		return err
	}
	page, err := positiveParam(c, "page")
	if err != nil {
		return err
	}

	payments, err := h.store.PaymentsPage(c.Request().Context(), size, page)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, NewPaymentDTOs(payments))
}

// PaymentByID returns a single payment
func (h *PaymentHandler) PaymentByID(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	payment, err := h.store.PaymentByID(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, NewPaymentDTO(payment))
}

// PaymentsByUser returns every payment of a nickname
func (h *PaymentHandler) PaymentsByUser(c echo.Context) error {
	payments, err := h.store.PaymentsByUser(c.Request().Context(), c.Param("name"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, NewPaymentDTOs(payments))
}

// Gateway handles the SMS billing gateway callback. Charges are answered with
// the plain text acknowledgement the gateway expects; reports with no content.
func (h *PaymentHandler) Gateway(c echo.Context) error {
	var req services.GatewayRequest
	binder := &echo.DefaultBinder{}
	if err := binder.BindQueryParams(c, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid gateway parameters")
	}
	if c.Request().Method == http.MethodPost {
		if err := binder.BindBody(c, &req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid gateway parameters")
		}
	}

	result, err := h.gateway.Handle(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}

	if result.Mode == services.GatewayModeCharge {
		return c.String(http.StatusOK, result.Text)
	}
	return c.NoContent(http.StatusNoContent)
}

// Informant records an out-of-band payment report
func (h *PaymentHandler) Informant(c echo.Context) error {
	var req InformantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}

	payment, err := h.informant.Report(c.Request().Context(), services.InformantReport{
		ID:        req.ID,
		Nickname:  req.Nickname,
		Country:   req.Country,
		Type:      req.Type,
		Info:      req.Info,
		ProductID: req.ProductID,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, NewPaymentDTO(payment))
}

// Activate marks a payment as confirmed. A payment that is already active is
// answered with 304 so the caller can tell nothing changed.
func (h *PaymentHandler) Activate(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	result, err := h.store.Activate(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}

	switch result.Outcome {
	case services.ActivationActivated:
		return c.JSON(http.StatusOK, NewPaymentDTO(result.Payment))
	case services.ActivationAlreadyActive:
		return c.NoContent(http.StatusNotModified)
	case services.ActivationNotFound:
		return httpError(services.ErrNotFound)
	default:
		return errors.New("unknown activation outcome")
	}
}
