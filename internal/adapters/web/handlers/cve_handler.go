package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lcalzada-xor/assetvuln/internal/core/domain"
	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
)

// CVEHandler triggers reconciliation runs.
type CVEHandler struct {
	Reconciler ports.Reconciler
	// runCtx bounds background runs; it is cancelled on shutdown.
	runCtx context.Context
}

// NewCVEHandler creates a new CVEHandler
func NewCVEHandler(runCtx context.Context, reconciler ports.Reconciler) *CVEHandler {
	return &CVEHandler{Reconciler: reconciler, runCtx: runCtx}
}

// HandleUpdate reconciles one device synchronously when device_name is
// given, otherwise starts a full run in the background.
func (h *CVEHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	deviceName := r.URL.Query().Get("device_name")
	if deviceName == "" {
		go h.Reconciler.ReconcileAll(h.runCtx)
		writeJSON(w, http.StatusAccepted, map[string]string{"message": "Update of all assets started"})
		return
	}

	err := h.Reconciler.ReconcileDevice(r.Context(), deviceName)
	switch {
	case errors.Is(err, domain.ErrAssetNotFound):
		writeError(w, http.StatusNotFound, "Asset not found")
	case err != nil:
		slog.Error("device update failed", "device", deviceName, "err", err)
		writeError(w, http.StatusInternalServerError, "Error updating and mapping data")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Data updated and mapped successfully"})
	}
}
