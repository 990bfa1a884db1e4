// Package api exposes the ledger over HTTP: JSON operation endpoints, read
// endpoints and a websocket audit-event feed.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/holiman/uint256"
	"github.com/sirupsen/logrus"

	"github.com/novaforge-labs/gravity-ledger/token"
)

// Server routes HTTP requests onto ledger operations. The websocket event
// feed is served by the attached Feed.
type Server struct {
	ledger *token.Ledger
	feed   *Feed
	log    *logrus.Logger
}

// NewServer builds a server around a ledger. feed may be nil when no event
// feed is exposed.
func NewServer(ledger *token.Ledger, feed *Feed, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{ledger: ledger, feed: feed, log: log}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /mint", s.handleMint)
	mux.HandleFunc("POST /burn", s.handleBurn)
	mux.HandleFunc("POST /transfer", s.handleTransfer)
	mux.HandleFunc("POST /transfer-from", s.handleTransferFrom)
	mux.HandleFunc("POST /approve", s.handleApprove)
	mux.HandleFunc("POST /airdrop", s.handleAirdrop)
	mux.HandleFunc("POST /roles/grant", s.handleGrantRole)
	mux.HandleFunc("POST /roles/revoke", s.handleRevokeRole)
	mux.HandleFunc("POST /pause", s.handlePause)
	mux.HandleFunc("POST /unpause", s.handleUnpause)
	mux.HandleFunc("POST /treasury", s.handleUpdateTreasury)
	mux.HandleFunc("POST /recover/foreign", s.handleRecoverForeign)
	mux.HandleFunc("POST /recover/own", s.handleRecoverOwn)
	mux.HandleFunc("POST /recover/native", s.handleRecoverNative)

	mux.HandleFunc("GET /balance", s.handleBalance)
	mux.HandleFunc("GET /allowance", s.handleAllowance)
	mux.HandleFunc("GET /status", s.handleStatus)
	if s.feed != nil {
		mux.Handle("GET /ws/events", s.feed)
	}

	return mux
}

type operationRequest struct {
	Caller     string   `json:"caller"`
	From       string   `json:"from,omitempty"`
	To         string   `json:"to,omitempty"`
	Spender    string   `json:"spender,omitempty"`
	Account    string   `json:"account,omitempty"`
	Role       string   `json:"role,omitempty"`
	Asset      string   `json:"asset,omitempty"`
	Address    string   `json:"address,omitempty"`
	Amount     string   `json:"amount,omitempty"`
	Recipients []string `json:"recipients,omitempty"`
	Amounts    []string `json:"amounts,omitempty"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (*operationRequest, bool) {
	var req operationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return nil, false
	}
	return &req, true
}

func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, errors.New("missing amount")
	}
	return uint256.FromDecimal(s)
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.finish(w, "mint", s.ledger.Mint(req.Caller, req.To, amount))
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.finish(w, "burn", s.ledger.Burn(req.Caller, amount))
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.finish(w, "transfer", s.ledger.Transfer(req.Caller, req.To, amount))
}

func (s *Server) handleTransferFrom(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.finish(w, "transfer_from", s.ledger.TransferFrom(req.Caller, req.From, req.To, amount))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.finish(w, "approve", s.ledger.Approve(req.Caller, req.Spender, amount))
}

func (s *Server) handleAirdrop(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	amounts := make([]*uint256.Int, len(req.Amounts))
	for i, raw := range req.Amounts {
		amount, err := parseAmount(raw)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		amounts[i] = amount
	}
	s.finish(w, "airdrop", s.ledger.Airdrop(req.Caller, req.Recipients, amounts))
}

func (s *Server) handleGrantRole(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	role, err := token.RoleFromString(req.Role)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.finish(w, "grant_role", s.ledger.GrantRole(req.Caller, role, req.Account))
}

func (s *Server) handleRevokeRole(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	role, err := token.RoleFromString(req.Role)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.finish(w, "revoke_role", s.ledger.RevokeRole(req.Caller, role, req.Account))
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	s.finish(w, "pause", s.ledger.Pause(req.Caller))
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	s.finish(w, "unpause", s.ledger.Unpause(req.Caller))
}

func (s *Server) handleUpdateTreasury(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	s.finish(w, "update_treasury", s.ledger.UpdateTreasuryWallet(req.Caller, req.Address))
}

func (s *Server) handleRecoverForeign(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.finish(w, "recover_foreign", s.ledger.RecoverForeignAsset(req.Caller, req.Asset, amount, req.To))
}

func (s *Server) handleRecoverOwn(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.finish(w, "recover_own", s.ledger.RecoverOwnAsset(req.Caller, amount, req.To))
}

func (s *Server) handleRecoverNative(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.finish(w, "recover_native", s.ledger.RecoverNativeCurrency(req.Caller, amount, req.To))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	balance, err := s.ledger.BalanceOf(address)
	if err != nil {
		s.writeError(w, "balance", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"address": address,
		"balance": balance.Dec(),
	})
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	spender := r.URL.Query().Get("spender")
	allowance, err := s.ledger.Allowance(owner, spender)
	if err != nil {
		s.writeError(w, "allowance", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"owner":     owner,
		"spender":   spender,
		"allowance": allowance.Dec(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.ledger.Status())
}

func (s *Server) finish(w http.ResponseWriter, op string, err error) {
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeError maps the ledger error taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, token.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, token.ErrContractPaused):
		status = http.StatusLocked
	case errors.Is(err, token.ErrSupplyCapExceeded),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance),
		errors.Is(err, token.ErrReentrancyDetected):
		status = http.StatusConflict
	case errors.Is(err, token.ErrTransferRejected):
		status = http.StatusBadGateway
	}

	s.log.WithFields(logrus.Fields{"op": op, "status": status}).WithError(err).Warn("operation failed")
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.WithError(err).Error("encode response")
	}
}
