package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	zlog "github.com/rs/zerolog/log"

	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
	"github.com/opticamarket/marketplace-backend/pkg/logger"
)

// retryAfterSeconds is advertised on 503 responses while a collaborator is down.
const retryAfterSeconds = 5

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Data: data})
}

// WriteError renders err as an error envelope. Untyped errors become INTERNAL_ERROR and never
// leak their message. Client errors are logged at warn, server errors at error.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	policy := pkgerrors.PolicyFor(typed.Code())

	body := ErrorBody{
		Code:      string(typed.Code()),
		Message:   policy.Public,
		RequestID: w.Header().Get("X-Request-Id"),
	}
	if policy.ExposeMessage && typed.Message() != "" {
		body.Message = typed.Message()
	}
	if policy.ExposeDetails {
		body.Details = typed.Details()
	}

	ctx = logg.WithFields(ctx, pkgerrors.LogFields(err))
	if policy.Status >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
	} else {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "request.rejected")
	}

	if policy.Status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	writeJSON(w, policy.Status, ErrorEnvelope{Error: body})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zlog.Error().Err(err).Int("status", status).Msg("failed to encode response")
	}
}
