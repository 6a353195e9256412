package chat_http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"agent-assist/internal/domain"
)

// mapPipelineError translates the pipeline error taxonomy to HTTP. Upstream
// provider failures surface as 502 so callers can distinguish "our bug"
// from "our provider is down"; everything else is a generic 500.
func (h *Handler) mapPipelineError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrEmptyQuery) {
		return errorJSON(c, http.StatusBadRequest, "La pregunta no puede estar vacía")
	}

	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		h.logger.Error("provider_failure",
			slog.String("provider", string(pe.Provider)),
			slog.String("error", pe.Error()))
		return errorJSON(c, http.StatusBadGateway, providerMessage(pe.Provider))
	}

	return h.internalError(c, err)
}

func providerMessage(p domain.Provider) string {
	switch p {
	case domain.ProviderEmbedding, domain.ProviderSearch:
		return "El servicio de búsqueda no está disponible en este momento. Intenta de nuevo más tarde."
	case domain.ProviderGeneration:
		return "El servicio de respuestas no está disponible en este momento. Intenta de nuevo más tarde."
	default:
		return "Servicio no disponible. Intenta de nuevo más tarde."
	}
}

func (h *Handler) internalError(c echo.Context, err error) error {
	h.logger.Error("request_failed",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()))
	return errorJSON(c, http.StatusInternalServerError, "Error interno del servidor")
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}
