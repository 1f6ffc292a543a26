// Package control exposes the agent's local HTTP surface: health, status,
// operator device-ID submission, and the remote-control events (reload and
// restart).
package control

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RMHEDGE/screens-native/internal/notify"
	"github.com/RMHEDGE/screens-native/internal/session"
)

// Handler routes control requests into the session controller's inbox.
type Handler struct {
	controller *session.Controller
	notifier   *notify.Console
	version    string
}

// NewHandler creates a control handler.
func NewHandler(controller *session.Controller, notifier *notify.Console, version string) *Handler {
	return &Handler{
		controller: controller,
		notifier:   notifier,
		version:    version,
	}
}

// RegisterRoutes registers the control API with the Echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	api := e.Group("/api")
	api.GET("/health", h.HandleHealth)
	api.GET("/status", h.HandleStatus)
	api.POST("/device", h.HandleSubmitDevice)
	api.POST("/control/reload", h.HandleReload)
	api.POST("/control/restart", h.HandleRestart)
}

// HandleHealth returns agent health.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}

// statusResponse is the agent's observable state.
type statusResponse struct {
	Phase         session.Phase         `json:"phase"`
	DeviceID      string                `json:"deviceId,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

// HandleStatus returns the session phase, device ID and recent
// notifications.
func (h *Handler) HandleStatus(c echo.Context) error {
	phase, deviceID := h.controller.Status()
	return c.JSON(http.StatusOK, statusResponse{
		Phase:         phase,
		DeviceID:      deviceID,
		Notifications: h.notifier.Recent(),
	})
}

// submitRequest is the operator's device-ID form.
type submitRequest struct {
	DeviceID string `json:"deviceId"`
}

// HandleSubmitDevice accepts a device ID and starts the fetch-and-display
// transition. The fetch outcome is observable via /api/status.
func (h *Handler) HandleSubmitDevice(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.DeviceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "deviceId is required")
	}
	h.controller.Enqueue(session.SubmitDeviceID{DeviceID: req.DeviceID})
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "checking config for " + req.DeviceID,
	})
}

// HandleReload triggers a re-fetch of the current device's display tree.
func (h *Handler) HandleReload(c echo.Context) error {
	h.controller.Enqueue(session.ControlReload{})
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "reload requested",
	})
}

// HandleRestart triggers a full process restart.
func (h *Handler) HandleRestart(c echo.Context) error {
	h.controller.Enqueue(session.ControlRestart{})
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "restart requested",
	})
}
