package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/haasonsaas/contactd/pkg/contact"
	"github.com/haasonsaas/contactd/pkg/mailer"
	"github.com/rs/xid"
)

const (
	msgMethodNotAllowed = "Method not allowed."
	msgRateLimited      = "Too many requests. Please try again later."
	msgInvalidBody      = "Invalid request body."
	msgNotConfigured    = "Email service not configured."
	msgSendFailed       = "Failed to send email."
)

func (s *Server) handleContact(c *gin.Context) {
	logger := requestLogger(c, s.logger)
	key := contact.ClientKey(c.Request.Header)
	clientHash := s.hasher.Hash(key)

	decision := s.limiter.Check(key)
	if !decision.Allowed {
		retryAfter := decision.RetryAfter(s.limiter.Now())
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		logger.Info().Str("client", clientHash).Time("reset_at", decision.ResetAt).Msg("contact submission rate limited")
		respondError(c, http.StatusTooManyRequests, msgRateLimited, s.logger)
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		logger.Debug().Err(err).Msg("unparsable contact body")
		respondError(c, http.StatusBadRequest, msgInvalidBody, s.logger)
		return
	}

	sub, err := contact.Validate(contact.FieldsFromBody(body))
	if err != nil {
		var verr *contact.ValidationError
		if errors.As(err, &verr) {
			logger.Debug().Str("reason", verr.Kind.String()).Msg("contact submission rejected")
			respondError(c, http.StatusBadRequest, verr.Kind.Message(), s.logger)
			return
		}
		respondError(c, http.StatusBadRequest, msgInvalidBody, s.logger)
		return
	}

	// A client that disconnects does not abort a send already under way.
	// The idempotency key is minted per dispatch, never taken from the caller.
	ctx := context.WithoutCancel(c.Request.Context())
	sendKey := xid.New().String()
	ctx = mailer.WithIdempotencyKey(ctx, sendKey)
	logger = logger.With().Str("send_key", sendKey).Logger()

	receipt, err := s.dispatcher.Dispatch(ctx, sub)
	s.recordDelivery(ctx, c, clientHash, receipt, err)
	if err != nil {
		var derr *mailer.DispatchError
		if errors.As(err, &derr) && derr.Kind == mailer.NotConfigured {
			respondError(c, http.StatusInternalServerError, msgNotConfigured, s.logger)
			return
		}

		var perr *mailer.ProviderError
		if errors.As(err, &perr) {
			logger.Error().
				Int("provider_status", perr.StatusCode).
				Str("provider_error", perr.Name).
				Str("provider_message", perr.Message).
				Msg("email provider rejected message")
		} else {
			logger.Error().Err(err).Msg("email provider call failed")
		}
		respondError(c, http.StatusInternalServerError, msgSendFailed, s.logger)
		return
	}

	logger.Info().Str("client", clientHash).Str("message_id", receipt.ID).Msg("contact submission sent")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) recordDelivery(ctx context.Context, c *gin.Context, clientHash string, receipt mailer.Receipt, sendErr error) {
	if s.deliveries == nil {
		return
	}

	outcome := outcomeSent
	var derr *mailer.DispatchError
	if errors.As(sendErr, &derr) {
		outcome = derr.Kind.String()
	}

	d := Delivery{
		RequestID:  requestID(c),
		ClientHash: clientHash,
		Outcome:    outcome,
		MessageID:  receipt.ID,
	}
	if err := s.deliveries.Record(ctx, d); err != nil {
		logger := requestLogger(c, s.logger)
		logger.Warn().Err(err).Msg("failed to record delivery")
	}
}
