package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type createTransactionRequest struct {
	AccountID         int64  `json:"account_id"`
	Type              string `json:"type"`
	Amount            string `json:"amount"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	Notes             string `json:"notes"`
	Reference         string `json:"reference"`
	TransferAccountID int64  `json:"transfer_account_id"`
	Date              string `json:"date"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID int64) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
	}

	txn, err := s.ledger.CreateTransaction(r.Context(), userID, ledger.CreateTransactionParams{
		AccountID:         req.AccountID,
		Type:              core.TransactionType(req.Type),
		Amount:            amount,
		Description:       sanitizeInput(req.Description),
		Category:          req.Category,
		Notes:             sanitizeInput(req.Notes),
		Reference:         sanitizeInput(req.Reference),
		TransferAccountID: req.TransferAccountID,
		Date:              date,
	})
	if err != nil {
		s.logDomainError(r, "create transaction", err)
		writeDomainError(w, err)
		return
	}

	s.invalidateSummaries(userID)
	writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID int64) {
	filter, err := parseTransactionFilter(r, userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := s.ledger.Transactions(r.Context(), filter)
	if err != nil {
		s.logDomainError(r, "list transactions", err)
		writeDomainError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, toTransactionResponse(&txns[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := s.ledger.Transaction(r.Context(), userID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

type updateTransactionRequest struct {
	Amount      *string `json:"amount"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Notes       *string `json:"notes"`
	Reference   *string `json:"reference"`
	Date        *string `json:"date"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req updateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := ledger.UpdateTransactionParams{}
	if req.Amount != nil {
		amount, err := core.ParseAmount(*req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		params.Amount = &amount
	}
	if req.Description != nil {
		desc := sanitizeInput(*req.Description)
		params.Description = &desc
	}
	if req.Category != nil {
		params.Category = req.Category
	}
	if req.Notes != nil {
		notes := sanitizeInput(*req.Notes)
		params.Notes = &notes
	}
	if req.Reference != nil {
		ref := sanitizeInput(*req.Reference)
		params.Reference = &ref
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		params.Date = &date
	}

	txn, err := s.ledger.UpdateTransaction(r.Context(), userID, id, params)
	if err != nil {
		s.logDomainError(r, "update transaction", err)
		writeDomainError(w, err)
		return
	}

	s.invalidateSummaries(userID)
	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), userID, id); err != nil {
		s.logDomainError(r, "delete transaction", err)
		writeDomainError(w, err)
		return
	}

	s.invalidateSummaries(userID)
	w.WriteHeader(http.StatusNoContent)
}

type bulkCategorizeRequest struct {
	TransactionIDs []int64 `json:"transaction_ids"`
}

type bulkCategorizeResponse struct {
	Categories map[int64]string `json:"categories"`
}

func (s *Server) handleBulkCategorize(w http.ResponseWriter, r *http.Request, userID int64) {
	var req bulkCategorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.TransactionIDs) == 0 {
		writeError(w, http.StatusBadRequest, "transaction_ids cannot be empty")
		return
	}

	categories, err := s.ledger.BulkCategorize(r.Context(), userID, req.TransactionIDs)
	if err != nil {
		s.logDomainError(r, "bulk categorize", err)
		writeDomainError(w, err)
		return
	}

	out := make(map[int64]string, len(categories))
	for id, category := range categories {
		out[id] = string(category)
	}
	writeJSON(w, http.StatusOK, bulkCategorizeResponse{Categories: out})
}
