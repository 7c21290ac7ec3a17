package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/hooterhq/hooter-backend/api/responses"
	webhooksvc "github.com/hooterhq/hooter-backend/internal/webhooks"
	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"github.com/hooterhq/hooter-backend/pkg/logger"
)

const (
	signatureHeader = "X-Signature"

	// maxWebhookBody bounds how much of a delivery is read before the HMAC
	// check can reject it.
	maxWebhookBody = 1 << 20
)

type webhookFunc func(ctx context.Context, body []byte, signature string) (webhooksvc.Outcome, error)

// WebhookProductUpdate reconciles a remote product change into the mirror.
func WebhookProductUpdate(rec *webhooksvc.Reconciler, logg *logger.Logger) http.HandlerFunc {
	return webhookHandler(rec.HandleProductUpdate, logg)
}

// WebhookInventoryUpdate reconciles a remote inventory level change.
func WebhookInventoryUpdate(rec *webhooksvc.Reconciler, logg *logger.Logger) http.HandlerFunc {
	return webhookHandler(rec.HandleInventoryUpdate, logg)
}

func webhookHandler(handle webhookFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		outcome, err := handle(r.Context(), body, r.Header.Get(signatureHeader))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"outcome": string(outcome)})
	}
}
