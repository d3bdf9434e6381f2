package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
)

type createAccountRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Balance string `json:"balance"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	balance := decimal.Zero
	if req.Balance != "" {
		parsed, err := core.ParseAmount(req.Balance)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		balance = parsed
	}

	account, err := s.ledger.CreateAccount(r.Context(), userID, ledger.CreateAccountParams{
		Name:    sanitizeInput(req.Name),
		Type:    core.AccountType(req.Type),
		Balance: balance,
	})
	if err != nil {
		s.logDomainError(r, "create account", err)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, userID int64) {
	accounts, err := s.ledger.Accounts(r.Context(), userID)
	if err != nil {
		s.logDomainError(r, "list accounts", err)
		writeDomainError(w, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, toAccountResponse(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := s.ledger.Account(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

type updateAccountRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := ledger.UpdateAccountParams{}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		params.Name = &name
	}
	if req.Type != nil {
		typ := core.AccountType(*req.Type)
		params.Type = &typ
	}

	account, err := s.ledger.UpdateAccount(r.Context(), userID, id, params)
	if err != nil {
		s.logDomainError(r, "update account", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.DeleteAccount(r.Context(), userID, id); err != nil {
		s.logDomainError(r, "delete account", err)
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) logDomainError(r *http.Request, op string, err error) {
	if core.KindOf(err) == core.KindInternal || core.KindOf(err) == core.KindUnknown {
		s.logger.ErrorContext(r.Context(), "Handler failed",
			"op", op,
			applog.FieldError, err.Error())
	}
}
