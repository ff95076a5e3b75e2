package handlers

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"

	"lifeline/internal/services"
	"lifeline/internal/utils"
	"lifeline/pkg/logger"

	"github.com/gin-gonic/gin"
)

type SMSHandler struct {
	smsLocation services.SMSLocationService
	logger      *logger.Logger
}

func NewSMSHandler(smsLocation services.SMSLocationService, log *logger.Logger) *SMSHandler {
	return &SMSHandler{
		smsLocation: smsLocation,
		logger:      log,
	}
}

// Webhook receives inbound texts from the SMS gateway (Twilio form
// encoding: From, Body) and answers with TwiML.
func (h *SMSHandler) Webhook(c *gin.Context) {
	from := c.PostForm("From")
	body := c.PostForm("Body")

	if from == "" {
		utils.BadRequestResponse(c, "Missing From field")
		return
	}

	reply, err := h.smsLocation.HandleInboundText(c.Request.Context(), from, body)
	if err != nil {
		h.logger.WithError(err).WithField("from", from).Error("failed to handle inbound SMS")
		// Always answer the gateway; the sender gets a neutral message
		// instead of a dropped webhook.
		reply = "We could not process your message. Please try again."
	}

	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml(reply))
}

func twiml(message string) string {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(message))
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><Response><Message>%s</Message></Response>`, escaped.String())
}
