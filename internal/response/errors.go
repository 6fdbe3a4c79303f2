package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrTermNotFound  ErrCode = "TERM_NOT_FOUND"
	ErrClassNotFound ErrCode = "CLASS_NOT_FOUND"

	// ─── Sync ──────────────────────────────────────────────────────────
	ErrSyncInProgress   ErrCode = "SYNC_IN_PROGRESS"
	ErrUpstreamAuth     ErrCode = "UPSTREAM_AUTH_FAILED"
	ErrUpstreamFailed   ErrCode = "UPSTREAM_UNAVAILABLE"
	ErrTokenUnavailable ErrCode = "TOKEN_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "La validación falló. Revise los datos enviados."
	case ErrInvalidID:
		return "El formato del ID no es válido."
	case ErrInvalidPayload:
		return "El cuerpo de la petición no es válido."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Recurso no encontrado."
	case ErrTermNotFound:
		return "El período solicitado no existe. Sincronice los períodos primero."
	case ErrClassNotFound:
		return "La clase solicitada no existe."

	// ─── Sync ──────────────────────────────────────────────────────────
	case ErrSyncInProgress:
		return "Ya hay una sincronización en curso para este período."
	case ErrUpstreamAuth:
		return "La autenticación con Brightspace falló. Renueve el token OAuth."
	case ErrUpstreamFailed:
		return "Brightspace no está disponible en este momento."
	case ErrTokenUnavailable:
		return "No hay un token OAuth configurado."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Demasiadas peticiones. Intente de nuevo más tarde."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Ocurrió un error interno del servidor."
	default:
		return "Ocurrió un error inesperado."
	}
}
