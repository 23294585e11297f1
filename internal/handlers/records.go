package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"minichess/internal/middleware"
	"minichess/internal/models"
	"minichess/internal/records"
)

const requestTimeout = 10 * time.Second

type RecordHandler struct {
	store records.Store
	feed  *FeedHandler
}

func NewRecordHandler(store records.Store, feed *FeedHandler) *RecordHandler {
	return &RecordHandler{store: store, feed: feed}
}

type CreateRecordRequest struct {
	User      string                `json:"user"`
	SessionID string                `json:"sessionId,omitempty"`
	Side      string                `json:"side,omitempty"`
	Result    models.GameResult     `json:"result"`
	Reason    string                `json:"reason,omitempty"`
	Plies     int                   `json:"plies,omitempty"`
	History   []models.HistoryEntry `json:"history"`
}

type messageResponse struct {
	Message interface{} `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg interface{}) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeStoreError maps store failures onto responses.
func writeStoreError(w http.ResponseWriter, err error, id string, fallback string) {
	if errors.Is(err, records.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, fmt.Sprintf("Game with id %s not found", id))
		return
	}
	log.Printf("Records: %s: %v", fallback, err)
	writeMessage(w, http.StatusInternalServerError, fallback)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *records.ValidationError
	if errors.As(err, &verr) {
		writeMessage(w, http.StatusBadRequest, verr.Messages)
		return
	}
	writeMessage(w, http.StatusBadRequest, err.Error())
}

func recordID(r *http.Request) (primitive.ObjectID, string, error) {
	raw := mux.Vars(r)["id"]
	id, err := primitive.ObjectIDFromHex(raw)
	return id, raw, err
}

// owned loads the record and checks it belongs to the authenticated caller.
func (h *RecordHandler) owned(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.GameRecord, bool) {
	id, raw, err := recordID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid game id")
		return nil, false
	}
	rec, err := h.store.Get(ctx, id)
	if err != nil {
		writeStoreError(w, err, raw, "Failed to fetch game")
		return nil, false
	}
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok || claims.UserID != rec.UserID {
		writeMessage(w, http.StatusForbidden, "Game belongs to another user")
		return nil, false
	}
	return rec, true
}

func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if req.User == "" {
		req.User = claims.UserID
	}
	if req.User != claims.UserID {
		writeMessage(w, http.StatusForbidden, "Cannot create games for another user")
		return
	}

	rec := &models.GameRecord{
		UserID:    req.User,
		SessionID: req.SessionID,
		Side:      req.Side,
		Result:    req.Result,
		Reason:    req.Reason,
		Plies:     req.Plies,
		History:   req.History,
	}
	if rec.History == nil {
		rec.History = []models.HistoryEntry{}
	}
	if err := records.Validate(rec); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.store.Create(ctx, rec); err != nil {
		log.Printf("Records: failed to create game: %v", err)
		writeMessage(w, http.StatusBadRequest, "Failed to create game")
		return
	}

	if h.feed != nil {
		h.feed.BroadcastRecord(FeedRecordCreated, rec)
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	recs, err := h.store.List(ctx)
	if err != nil {
		log.Printf("Records: failed to list games: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *RecordHandler) ListUserRecords(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	recs, err := h.store.ListByUser(ctx, mux.Vars(r)["userId"])
	if err != nil {
		log.Printf("Records: failed to list user games: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch user games")
		return
	}
	if len(recs) == 0 {
		writeMessage(w, http.StatusNotFound, "No games found for this user")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id, raw, err := recordID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid game id")
		return
	}
	rec, err := h.store.Get(ctx, id)
	if err != nil {
		writeStoreError(w, err, raw, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rec, ok := h.owned(ctx, w, r)
	if !ok {
		return
	}

	var patch models.RecordPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := records.ValidatePatch(patch); err != nil {
		writeValidationError(w, err)
		return
	}

	updated, err := h.store.Update(ctx, rec.ID, patch)
	if err != nil {
		writeStoreError(w, err, rec.ID.Hex(), "Failed to update game")
		return
	}

	if h.feed != nil {
		h.feed.BroadcastRecord(FeedRecordUpdated, updated)
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rec, ok := h.owned(ctx, w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(ctx, rec.ID); err != nil {
		writeStoreError(w, err, rec.ID.Hex(), "Failed to delete game")
		return
	}

	if h.feed != nil {
		h.feed.BroadcastRecord(FeedRecordDeleted, rec)
	}
	writeMessage(w, http.StatusOK, "Game deleted successfully")
}
