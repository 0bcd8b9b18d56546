package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"near-sft-market/internal/domain"
	"near-sft-market/internal/sft"
)

// maxUploadBytes bounds a mint request: audio plus cover plus form fields.
const maxUploadBytes = 64 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps service errors onto HTTP statuses: caller mistakes are
// 4xx, upstream failures (chain, pinning) are 502, the rest 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	var vErr *sft.ValidationError
	var cErr *sft.ChainError
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
	case errors.Is(err, sft.ErrWalletNotConnected), errors.Is(err, sft.ErrNoAccountSelected):
		status = http.StatusUnauthorized
	case errors.Is(err, sft.ErrUploadFailed):
		status = http.StatusBadGateway
	case errors.As(err, &cErr):
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		s.logger.Printf("ERROR: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// handleClasses lists every token class. The chain is preferred; when it
// is unreachable the local index serves the last known state, so the
// storefront keeps rendering.
func (s *Server) handleClasses(w http.ResponseWriter, r *http.Request) {
	classes := s.market.ListAllClasses(r.Context())
	if len(classes) == 0 && s.classes != nil {
		cached, err := s.classes.GetAll(r.Context())
		if err != nil {
			s.logger.Printf("WARN: class index fallback: %v", err)
		} else {
			classes = cached
		}
	}
	if classes == nil {
		classes = []*domain.TokenClass{}
	}
	writeJSON(w, http.StatusOK, classes)
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	if account == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "account is required"})
		return
	}
	writeJSON(w, http.StatusOK, s.market.InventoryOf(r.Context(), account))
}

// handleSellers resolves the approved sellers of a class. Extra candidate
// accounts can be passed as repeated ?candidate= parameters; they are
// merged with the local seller index.
func (s *Server) handleSellers(w http.ResponseWriter, r *http.Request) {
	classID := r.PathValue("class")
	candidates := r.URL.Query()["candidate"]
	writeJSON(w, http.StatusOK, s.market.FindApprovedSellers(r.Context(), classID, candidates))
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeJSON(w, http.StatusOK, []*domain.MarketEvent{})
		return
	}
	recorded, err := s.events.GetByClass(r.Context(), r.PathValue("class"))
	if err != nil {
		s.logger.Printf("WARN: activity log: %v", err)
		recorded = nil
	}
	if recorded == nil {
		recorded = []*domain.MarketEvent{}
	}
	writeJSON(w, http.StatusOK, recorded)
}

// SessionResponse describes the wallet state for the SPA header.
type SessionResponse struct {
	SignedIn  bool   `json:"signed_in"`
	AccountID string `json:"account_id,omitempty"`
	Balance   string `json:"balance"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	resp := SessionResponse{Balance: "0"}
	if s.wallet != nil && s.wallet.IsSignedIn() {
		resp.SignedIn = true
		resp.AccountID = s.wallet.AccountID()
		resp.Balance = s.wallet.AccountBalance(r.Context())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if s.wallet == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "no wallet configured"})
		return
	}
	if err := s.wallet.SignIn(r.Context()); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	s.handleSession(w, r)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if s.wallet != nil {
		s.wallet.SignOut()
	}
	writeJSON(w, http.StatusOK, SessionResponse{Balance: "0"})
}

// handleMint accepts a multipart form: title, description, copies and
// price fields plus audio and cover file parts. Files are only required
// when the title creates a new class; the service decides that.
func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("parse form: %v", err)})
		return
	}

	copies, err := strconv.ParseUint(r.FormValue("copies"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "copies must be a positive integer"})
		return
	}

	req := &sft.MintRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Copies:      copies,
		Price:       r.FormValue("price"),
	}

	if req.Audio, req.AudioName, err = formFile(r, "audio"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.Cover, req.CoverName, err = formFile(r, "cover"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := s.market.Mint(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// formFile reads an optional multipart file part fully into memory.
func formFile(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", field, err)
	}
	return data, header.Filename, nil
}

type approveRequest struct {
	TokenClassID string `json:"token_class_id"`
	Amount       string `json:"amount"`
}

type revokeRequest struct {
	TokenClassID string `json:"token_class_id"`
}

type buyRequest struct {
	TokenClassID string `json:"token_class_id"`
	SellerID     string `json:"seller_id"`
}

type transferRequest struct {
	TokenClassID string `json:"token_class_id"`
	ReceiverID   string `json:"receiver_id"`
	Amount       string `json:"amount"`
}

type txResponse struct {
	TxHash string `json:"tx_hash"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	hash, err := s.market.Approve(r.Context(), req.TokenClassID, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txResponse{TxHash: hash})
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	hash, err := s.market.Revoke(r.Context(), req.TokenClassID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txResponse{TxHash: hash})
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	hash, err := s.market.Buy(r.Context(), req.TokenClassID, req.SellerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txResponse{TxHash: hash})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	hash, err := s.market.Transfer(r.Context(), req.TokenClassID, req.ReceiverID, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txResponse{TxHash: hash})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := decodeJSON(r, v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}
