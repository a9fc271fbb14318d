package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	logger_lib "github.com/s21platform/logger-lib"
	"github.com/s21platform/metrics-lib/pkg"

	"github.com/agrilink/negotiation-service/internal/config"
	api "github.com/agrilink/negotiation-service/internal/generated"
	"github.com/agrilink/negotiation-service/internal/model"
	"github.com/agrilink/negotiation-service/internal/negotiation"
	"github.com/agrilink/negotiation-service/internal/pkg/tx"
)

const maxListLimit = 100

type Handler struct {
	repository       DBRepo
	publisher        Publisher
	validator        Validator
	jwtGenerator     JWTGenerator
	checkoutProducer CheckoutProducer

	now   func() time.Time
	newID func() string
}

func New(
	repo DBRepo,
	publisher Publisher,
	validator Validator,
	jwtGenerator JWTGenerator,
	checkoutProducer CheckoutProducer,
) *Handler {
	return &Handler{
		repository:       repo,
		publisher:        publisher,
		validator:        validator,
		jwtGenerator:     jwtGenerator,
		checkoutProducer: checkoutProducer,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            func() string { return uuid.New().String() },
	}
}

func (h *Handler) GetNegotiations(w http.ResponseWriter, r *http.Request, params api.GetNegotiationsParams) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetNegotiations")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusInternalServerError)
		return
	}

	var status model.NegotiationStatus
	if params.Status != nil && *params.Status != "" {
		status = model.NegotiationStatus(strings.ToUpper(*params.Status))
		if !status.Valid() {
			h.writeDomainError(w, logger, "invalid status filter", fmt.Errorf("%w: status %q", negotiation.ErrInvalidInput, *params.Status))
			return
		}
	}

	var limit uint64
	if params.Limit != nil {
		if *params.Limit <= 0 || *params.Limit > maxListLimit {
			h.writeDomainError(w, logger, "invalid limit", fmt.Errorf("%w: limit must be between 1 and %d", negotiation.ErrInvalidInput, maxListLimit))
			return
		}
		limit = uint64(*params.Limit)
	}

	negotiations, err := h.repository.GetUserNegotiations(r.Context(), userUUID, status, limit)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to get negotiations: %v", err))
		h.writeError(w, fmt.Sprintf("failed to get negotiations: %v", err), http.StatusInternalServerError)
		return
	}

	response := api.GetNegotiationsResponse{
		Negotiations: make([]api.Negotiation, len(*negotiations)),
	}
	for i, chat := range *negotiations {
		response.Negotiations[i] = toAPINegotiation(chat)
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) StartNegotiation(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("StartNegotiation")

	var req api.StartNegotiationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	buyerID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get buyer ID")
		h.writeError(w, "failed to get buyer ID", http.StatusInternalServerError)
		return
	}

	if err := h.validator.ValidateStartNegotiation(&req, buyerID); err != nil {
		h.writeDomainError(w, logger, "negotiation validation failed", err)
		return
	}

	thread, err := negotiation.Start(negotiation.StartParams{
		ListingID:    req.ListingId,
		BuyerID:      buyerID,
		FarmerID:     req.FarmerId,
		Quantity:     req.Quantity,
		InitialOffer: req.InitialOffer,
	}, h.newID(), h.newID(), h.now())
	if err != nil {
		h.writeDomainError(w, logger, "failed to start negotiation", err)
		return
	}

	err = tx.TxExecute(r.Context(), func(ctx context.Context) error {
		if err := h.repository.CreateNegotiation(ctx, &thread.Chat); err != nil {
			logger.Error(fmt.Sprintf("failed to create negotiation: %v", err))
			return err
		}

		for i := range thread.Messages {
			if err := h.repository.SaveMessage(ctx, &thread.Messages[i]); err != nil {
				logger.Error(fmt.Sprintf("failed to save opening offer: %v", err))
				return err
			}
		}

		return nil
	})
	if err != nil {
		h.writeDomainError(w, logger, "failed to start negotiation", err)
		return
	}

	h.increment(r.Context(), "negotiation.started")
	logger.Info(fmt.Sprintf("negotiation %s started by %s on listing %s", thread.Chat.ID, buyerID, thread.Chat.ListingID))

	h.writeJSON(w, toAPINegotiation(thread.Chat), http.StatusCreated)
}

func (h *Handler) GetNegotiation(w http.ResponseWriter, r *http.Request, negotiationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetNegotiation")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusInternalServerError)
		return
	}

	chat, err := h.participantChat(r.Context(), negotiationId, userUUID)
	if err != nil {
		h.writeDomainError(w, logger, "failed to get negotiation", err)
		return
	}

	h.writeJSON(w, toAPINegotiation(*chat), http.StatusOK)
}

func (h *Handler) GetNegotiationMessages(w http.ResponseWriter, r *http.Request, negotiationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetNegotiationMessages")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to find uuid")
		h.writeError(w, "failed to find uuid", http.StatusInternalServerError)
		return
	}

	chat, err := h.participantChat(r.Context(), negotiationId, userUUID)
	if err != nil {
		h.writeDomainError(w, logger, "failed to get negotiation", err)
		return
	}

	messages, err := h.repository.GetNegotiationMessages(r.Context(), negotiationId)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to fetch messages: %v", err))
		h.writeError(w, fmt.Sprintf("failed to fetch messages: %v", err), http.StatusInternalServerError)
		return
	}

	resolved, repaired := negotiation.Resolve(*chat, *messages)
	if repaired > 0 {
		logger.Warn(fmt.Sprintf("repaired offer status of %d messages in negotiation %s", repaired, negotiationId))
	}

	response := api.GetMessagesResponse{
		Messages: make([]api.Message, len(resolved)),
	}
	for i, msg := range resolved {
		response.Messages[i] = toAPIMessage(msg)
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request, negotiationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("SendMessage")

	var req api.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	senderID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get sender ID")
		h.writeError(w, "failed to get sender ID", http.StatusInternalServerError)
		return
	}

	if err := h.validator.ValidateSendMessage(&req); err != nil {
		h.writeDomainError(w, logger, "message validation failed", err)
		return
	}

	thread, upd, err := h.transition(r.Context(), negotiationId, func(t *negotiation.Thread, now time.Time) (negotiation.Update, error) {
		return t.SendText(senderID, req.Text, h.newID(), now)
	})
	if err != nil {
		h.writeDomainError(w, logger, "failed to send message", err)
		return
	}

	h.publish(r.Context(), logger, thread.Chat, upd, false)
	h.increment(r.Context(), "negotiation.message")

	h.writeJSON(w, toAPIMessage(*upd.Appended), http.StatusCreated)
}

func (h *Handler) CounterOffer(w http.ResponseWriter, r *http.Request, negotiationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("CounterOffer")

	var req api.CounterOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	senderID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get sender ID")
		h.writeError(w, "failed to get sender ID", http.StatusInternalServerError)
		return
	}

	if err := h.validator.ValidateCounterOffer(&req); err != nil {
		h.writeDomainError(w, logger, "offer validation failed", err)
		return
	}

	thread, upd, err := h.transition(r.Context(), negotiationId, func(t *negotiation.Thread, now time.Time) (negotiation.Update, error) {
		return t.SendOffer(senderID, req.Price, h.newID(), now)
	})
	if err != nil {
		h.writeDomainError(w, logger, "failed to send offer", err)
		return
	}

	h.publish(r.Context(), logger, thread.Chat, upd, true)
	h.increment(r.Context(), "negotiation.counter")

	h.writeJSON(w, toAPIMessage(*upd.Appended), http.StatusCreated)
}

func (h *Handler) AcceptOffer(w http.ResponseWriter, r *http.Request, negotiationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("AcceptOffer")

	h.decide(w, r, logger, negotiationId, "accepted", (*negotiation.Thread).Accept)
}

func (h *Handler) RejectOffer(w http.ResponseWriter, r *http.Request, negotiationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("RejectOffer")

	h.decide(w, r, logger, negotiationId, "rejected", (*negotiation.Thread).Reject)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request, negotiationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("Checkout")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusInternalServerError)
		return
	}

	chat, err := h.participantChat(r.Context(), negotiationId, userUUID)
	if err != nil {
		h.writeDomainError(w, logger, "failed to get negotiation", err)
		return
	}

	handoff, err := negotiation.Handoff(*chat, userUUID, h.now())
	if err != nil {
		if errors.Is(err, negotiation.ErrCheckoutExpired) {
			h.increment(r.Context(), "negotiation.checkout_expired")
		}
		h.writeDomainError(w, logger, "checkout refused", err)
		return
	}

	if err := h.checkoutProducer.Publish(r.Context(), handoff); err != nil {
		logger.Error(fmt.Sprintf("failed to hand over checkout: %v", err))
		h.writeError(w, fmt.Sprintf("failed to hand over checkout: %v", err), http.StatusBadGateway)
		return
	}

	h.increment(r.Context(), "negotiation.checkout")
	logger.Info(fmt.Sprintf("negotiation %s handed over to cart", negotiationId))

	response := api.CheckoutResponse{
		NegotiationId: handoff.NegotiationID,
		ListingId:     handoff.ListingID,
		BuyerId:       handoff.BuyerID,
		Quantity:      handoff.Quantity,
		Price:         handoff.Price,
		AcceptedAt:    handoff.AcceptedAt,
		ExpiresAt:     handoff.ExpiresAt,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) GetConnectAccessToken(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetConnectAccessToken")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusInternalServerError)
		return
	}

	token, expiresAt, err := h.jwtGenerator.GenerateConnectToken(userUUID)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to generate access token: %v", err))
		h.writeError(w, fmt.Sprintf("failed to generate access token: %v", err), http.StatusInternalServerError)
		return
	}

	logger.Info(fmt.Sprintf("generated access token for user %s", userUUID))

	response := api.GetConnectAccessTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	}

	h.writeJSON(w, response, http.StatusOK)
}

func (h *Handler) GetSubscribeToken(w http.ResponseWriter, r *http.Request, negotiationId string) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("GetSubscribeToken")

	userUUID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get user UUID")
		h.writeError(w, "failed to get user UUID", http.StatusInternalServerError)
		return
	}

	if _, err := h.participantChat(r.Context(), negotiationId, userUUID); err != nil {
		h.writeDomainError(w, logger, "failed to get negotiation", err)
		return
	}

	token, expiresAt, err := h.jwtGenerator.GenerateSubscribeToken(userUUID, negotiationId)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to generate subscribe token: %v", err))
		h.writeError(w, fmt.Sprintf("failed to generate subscribe token: %v", err), http.StatusInternalServerError)
		return
	}

	logger.Info(fmt.Sprintf("generated subscribe token for user %s, negotiation %s", userUUID, negotiationId))

	response := api.GetSubscribeTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Channel:   model.NegotiationChannel(negotiationId),
	}

	h.writeJSON(w, response, http.StatusOK)
}

// ----------------------------- transitions -----------------------------

type transitionFunc func(t *negotiation.Thread, now time.Time) (negotiation.Update, error)

type decisionFunc func(t *negotiation.Thread, actorID string, now time.Time) (negotiation.Update, error)

// transition loads the negotiation under a row lock, applies fn and persists
// the result in the same transaction.
func (h *Handler) transition(ctx context.Context, negotiationID string, fn transitionFunc) (negotiation.Thread, negotiation.Update, error) {
	var (
		thread negotiation.Thread
		upd    negotiation.Update
	)

	err := tx.TxExecute(ctx, func(ctx context.Context) error {
		chat, err := h.repository.GetNegotiation(ctx, negotiationID, true)
		if err != nil {
			return err
		}

		messages, err := h.repository.GetNegotiationMessages(ctx, negotiationID)
		if err != nil {
			return err
		}

		thread = negotiation.NewThread(*chat, *messages)
		repairs := negotiation.Repairs(*messages, thread.Messages)

		upd, err = fn(&thread, h.now())
		if err != nil {
			return err
		}
		upd = upd.WithRepairs(repairs)

		return h.repository.ApplyUpdate(ctx, &thread.Chat, upd)
	})

	return thread, upd, err
}

// decide accepts or rejects the pending offer. Deciding an offer other than the
// one the caller saw is a conflict; without an expected offer, deciding a
// decided negotiation is an invalid state.
func (h *Handler) decide(w http.ResponseWriter, r *http.Request, logger logger_lib.LoggerInterface, negotiationId, outcome string, decision decisionFunc) {
	req, err := decodeDecision(r)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to decode request: %v", err))
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	actorID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok {
		logger.Error("failed to get actor ID")
		h.writeError(w, "failed to get actor ID", http.StatusInternalServerError)
		return
	}

	thread, upd, err := h.transition(r.Context(), negotiationId, func(t *negotiation.Thread, now time.Time) (negotiation.Update, error) {
		if !t.Chat.IsParticipant(actorID) {
			return negotiation.Update{}, fmt.Errorf("%w: %s", negotiation.ErrForbidden, actorID)
		}
		if req.ExpectedOfferId != nil {
			if t.Chat.Status.Terminal() {
				return negotiation.Update{}, fmt.Errorf("%w: negotiation already %s", negotiation.ErrConflict, t.Chat.Status)
			}
			pending, ok := t.PendingOffer()
			if !ok || pending.ID != *req.ExpectedOfferId {
				return negotiation.Update{}, fmt.Errorf("%w: offer %s is no longer pending", negotiation.ErrConflict, *req.ExpectedOfferId)
			}
		}
		return decision(t, actorID, now)
	})
	if err != nil {
		h.writeDomainError(w, logger, "failed to decide offer", err)
		return
	}

	h.publish(r.Context(), logger, thread.Chat, upd, true)
	h.increment(r.Context(), "negotiation."+outcome)
	logger.Info(fmt.Sprintf("negotiation %s %s by %s", negotiationId, outcome, actorID))

	h.writeJSON(w, toAPINegotiation(thread.Chat), http.StatusOK)
}

func decodeDecision(r *http.Request) (api.DecisionRequest, error) {
	var req api.DecisionRequest
	if r.Body == nil {
		return req, nil
	}

	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		return req, nil
	}

	return req, err
}

// participantChat loads the negotiation and hides it from everyone but its buyer and farmer.
func (h *Handler) participantChat(ctx context.Context, negotiationID, userID string) (*model.Negotiation, error) {
	chat, err := h.repository.GetNegotiation(ctx, negotiationID, false)
	if err != nil {
		return nil, err
	}

	if !chat.IsParticipant(userID) {
		return nil, fmt.Errorf("%w: user %s in negotiation %s", negotiation.ErrForbidden, userID, negotiationID)
	}

	return chat, nil
}

// publish pushes the appended message and, when statusChanged, the new status.
// Failures are logged; the write already committed.
func (h *Handler) publish(ctx context.Context, logger logger_lib.LoggerInterface, chat model.Negotiation, upd negotiation.Update, statusChanged bool) {
	if h.publisher == nil {
		return
	}

	channel := model.NegotiationChannel(chat.ID)

	if upd.Appended != nil {
		if err := h.publisher.Publish(ctx, channel, model.NewMessageEvent(*upd.Appended)); err != nil {
			logger.Error(fmt.Sprintf("failed to publish message to negotiation: %v", err))
		}
	}

	if statusChanged {
		if err := h.publisher.Publish(ctx, channel, model.NewStatusEvent(chat)); err != nil {
			logger.Error(fmt.Sprintf("failed to publish status to negotiation: %v", err))
		}
	}
}

func (h *Handler) increment(ctx context.Context, name string) {
	if m := pkg.FromContext(ctx, config.KeyMetrics); m != nil {
		m.Increment(name)
	}
}

// ----------------------------- mapping -----------------------------

func toAPINegotiation(chat model.Negotiation) api.Negotiation {
	return api.Negotiation{
		Id:                chat.ID,
		ListingId:         chat.ListingID,
		BuyerId:           chat.BuyerID,
		FarmerId:          chat.FarmerID,
		RequestedQuantity: chat.RequestedQuantity,
		CurrentOffer:      chat.CurrentOffer,
		Status:            string(chat.Status),
		CreatedAt:         chat.CreatedAt,
		UpdatedAt:         chat.UpdatedAt,
	}
}

func toAPIMessage(msg model.NegotiationMessage) api.Message {
	out := api.Message{
		Id:         msg.ID,
		ChatId:     msg.ChatID,
		SenderId:   msg.SenderID,
		Type:       string(msg.Type),
		OfferValue: msg.OfferValue,
		CreatedAt:  msg.CreatedAt,
	}

	if msg.Text != "" {
		text := msg.Text
		out.Text = &text
	}

	if msg.OfferStatus != nil {
		status := string(*msg.OfferStatus)
		out.OfferStatus = &status
	}

	return out
}

// ----------------------------- helpers -----------------------------

var codeStatuses = map[string]int{
	negotiation.CodeInvalidAmount:   http.StatusBadRequest,
	negotiation.CodeInvalidInput:    http.StatusBadRequest,
	negotiation.CodeForbidden:       http.StatusForbidden,
	negotiation.CodeNotFound:        http.StatusNotFound,
	negotiation.CodeConflict:        http.StatusConflict,
	negotiation.CodeCheckoutExpired: http.StatusGone,
	negotiation.CodeInvalidState:    http.StatusUnprocessableEntity,
}

// writeDomainError maps err to its wire code and HTTP status. Unknown errors are 500s.
func (h *Handler) writeDomainError(w http.ResponseWriter, logger logger_lib.LoggerInterface, message string, err error) {
	code := negotiation.Code(err)
	status, ok := codeStatuses[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logger.Error(fmt.Sprintf("%s: %v", message, err))
	} else {
		logger.Warn(fmt.Sprintf("%s: %v", message, err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Error{Error: fmt.Sprintf("%s: %v", message, err), Code: code})
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.Error{Error: message})
}
