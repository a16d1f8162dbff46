package handler

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/VrajaTechnologies/vraja-woocommerce/internal/application/sync"
	"github.com/VrajaTechnologies/vraja-woocommerce/internal/domain/store"
)

// maxWebhookPayloadSize bounds inbound delivery bodies (256KB; order
// payloads with many lines stay well under this)
const maxWebhookPayloadSize = 262144

// WebhookHandler receives store deliveries. These endpoints are called by
// WooCommerce and carry no authentication beyond the source-domain match;
// every response is 200 so a probing sender learns nothing from status
// codes.
type WebhookHandler struct {
	intake *appsync.WebhookIntakeService
	logger *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(intake *appsync.WebhookIntakeService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		intake: intake,
		logger: logger.Named("webhook-handler"),
	}
}

// WebhookResponse is the acknowledgement returned for every delivery
type WebhookResponse struct {
	Received bool `json:"received"`
}

// RegisterRoutes mounts the delivery routes on the engine root. The paths
// must match what RegisterWebhooks put into the store's delivery URLs.
func (h *WebhookHandler) RegisterRoutes(engine *gin.Engine) {
	engine.POST(store.WebhookTopicCustomerCreated.Route(), h.handle(store.WebhookTopicCustomerCreated))
	engine.POST(store.WebhookTopicOrderCreated.Route(), h.handle(store.WebhookTopicOrderCreated))
	engine.POST(store.WebhookTopicProductCreated.Route(), h.handle(store.WebhookTopicProductCreated))
}

func (h *WebhookHandler) handle(topic store.WebhookTopic) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
		if err != nil || len(payload) > maxWebhookPayloadSize {
			c.JSON(http.StatusOK, WebhookResponse{Received: true})
			return
		}

		domain := sourceDomain(c)
		if domain == "" {
			c.JSON(http.StatusOK, WebhookResponse{Received: true})
			return
		}

		if err := h.intake.Handle(c.Request.Context(), domain, topic, payload); err != nil {
			h.logger.Error("delivery processing failed",
				zap.String("topic", string(topic)), zap.String("domain", domain), zap.Error(err))
		}
		c.JSON(http.StatusOK, WebhookResponse{Received: true})
	}
}

// sourceDomain extracts the shop host from the delivery headers
func sourceDomain(c *gin.Context) string {
	source := c.GetHeader("X-WC-Webhook-Source")
	if source == "" {
		return ""
	}
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSuffix(source, "/"))
	}
	return strings.ToLower(u.Host)
}
