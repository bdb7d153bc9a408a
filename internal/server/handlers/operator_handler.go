package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/batchdesk/internal/apperrors"
	"github.com/mamadbah2/batchdesk/internal/domain/models"
	service "github.com/mamadbah2/batchdesk/internal/service/whatsapp"
	"github.com/mamadbah2/batchdesk/pkg/requestid"
)

// OperatorHandler is the WhatsApp side of the dashboard: warehouse operators send batch
// commands through the Meta webhook and receive expiry notifications.
type OperatorHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

// NewOperatorHandler wires the handler.
func NewOperatorHandler(svc service.MessagingService, logger *zap.Logger) *OperatorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperatorHandler{svc: svc, logger: logger}
}

// VerifySubscription answers Meta's hub challenge.
func (h *OperatorHandler) VerifySubscription(c *gin.Context) {
	challenge, err := h.svc.VerifyWebhookToken(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.logger.Warn("operator webhook subscription refused",
			zap.String("mode", c.Query("hub.mode")),
			zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// ReceiveCommands runs the batch commands carried by a webhook callback. Meta redelivers
// on any non-2xx answer, so failed commands are logged and acknowledged.
func (h *OperatorHandler) ReceiveCommands(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid operator webhook payload", zap.Error(err))
		writeError(c, http.StatusBadRequest, apperrors.Validation("invalid payload"))
		return
	}

	ctx := c.Request.Context()
	log := h.logger.With(zap.String("request_id", requestid.From(ctx)))

	messages := operatorMessages(payload)
	for _, msg := range messages {
		log.Info("operator command received",
			zap.String("from", msg.From),
			zap.String("message_id", msg.ID),
			zap.String("command", string(models.ParseCommand(msg.CommandText()).Type)))
	}

	if err := h.svc.HandleWebhook(ctx, payload); err != nil {
		log.Error("operator commands failed", zap.Int("messages", len(messages)), zap.Error(err))
	}
	c.Status(http.StatusOK)
}

// Notify pushes a manual message to an operator.
func (h *OperatorHandler) Notify(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid operator notification", zap.Error(err))
		writeError(c, http.StatusBadRequest, apperrors.Validation("to and message are required"))
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		err = apperrors.Normalize(err)
		status := apperrors.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("operator notification failed", zap.String("to", req.To), zap.Error(err))
		}
		writeError(c, status, err)
		return
	}

	c.Status(http.StatusAccepted)
}

func operatorMessages(payload models.WebhookPayload) []models.InboundMessage {
	var out []models.InboundMessage
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			out = append(out, change.Value.Messages...)
		}
	}
	return out
}
