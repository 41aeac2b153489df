package http

import (
	"net/http"

	"moneytrack/internal/core"
	"moneytrack/internal/gateway"
)

func (s *Server) currentUserID() string {
	st := s.store.Session()
	if st.Session == nil {
		return ""
	}
	return st.Session.User.ID
}

// requestRange resolves the date filter: an explicit ?month= wins, otherwise
// the shared filter context's selection applies. Both resolve against the
// same clock and location so a token always means the same interval.
func (s *Server) requestRange(r *http.Request) (*core.DateRange, error) {
	if m := r.URL.Query().Get("month"); m != "" {
		rng, err := s.filters.Resolve(core.Month(m))
		if err != nil {
			return nil, err
		}
		return &rng, nil
	}
	rng := s.filters.Range()
	return &rng, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	rng, err := s.requestRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if err := s.store.FetchTransactions(r.Context(), s.currentUserID(), rng); err != nil {
		writeGatewayError(w, err)
		return
	}
	st := s.store.Transactions()
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": toTransactionListJSON(st.Transactions),
		"phase":        st.Phase.String(),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type         string `json:"type"`
		Amount       int64  `json:"amount"`
		Note         string `json:"note"`
		Date         string `json:"date"`
		CategoryID   string `json:"category_id"`
		CreditCardID string `json:"credit_card_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_date", "date must be RFC 3339 or YYYY-MM-DD")
		return
	}

	in := core.TransactionInput{
		Type:         core.TransactionType(req.Type),
		Amount:       core.Amount(req.Amount),
		Note:         req.Note,
		Date:         date,
		UserID:       s.currentUserID(),
		CategoryID:   req.CategoryID,
		CreditCardID: req.CreditCardID,
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_transaction", err.Error())
		return
	}

	created, err := s.store.AddTransaction(r.Context(), in)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Type         *string `json:"type"`
		Amount       *int64  `json:"amount"`
		Note         *string `json:"note"`
		Date         *string `json:"date"`
		CategoryID   *string `json:"category_id"`
		CreditCardID *string `json:"credit_card_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	var patch gateway.TransactionPatch
	if req.Type != nil {
		t := core.TransactionType(*req.Type)
		if !t.Valid() {
			writeError(w, http.StatusUnprocessableEntity, "invalid_transaction", core.ErrInvalidType.Error())
			return
		}
		patch.Type = &t
	}
	if req.Amount != nil {
		a := core.Amount(*req.Amount)
		if err := a.Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_transaction", err.Error())
			return
		}
		patch.Amount = &a
	}
	if req.Date != nil {
		if _, err := parseDate(*req.Date); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_date", "date must be RFC 3339 or YYYY-MM-DD")
			return
		}
		patch.Date = req.Date
	}
	patch.Note = req.Note
	patch.CategoryID = req.CategoryID
	patch.CreditCardID = req.CreditCardID

	updated, err := s.store.UpdateTransaction(r.Context(), id, patch)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeGatewayError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	rng, err := s.requestRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if err := s.store.FetchStats(r.Context(), s.currentUserID(), rng); err != nil {
		writeGatewayError(w, err)
		return
	}
	st := s.store.Stats()
	if st.Stats == nil {
		writeJSON(w, http.StatusOK, statsJSON{})
		return
	}
	writeJSON(w, http.StatusOK, toStatsJSON(*st.Stats))
}

// handleDashboard refreshes every slice for the selected range and returns
// the combined snapshot.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	rng := s.filters.Range()
	userID := s.currentUserID()

	if err := s.store.RefreshAll(r.Context(), userID, &rng); err != nil {
		writeGatewayError(w, err)
		return
	}

	tx := s.store.Transactions()
	stats := s.store.Stats()
	cats := s.store.Categories()
	cards := s.store.CreditCards()
	sess := s.store.Session()

	resp := map[string]any{
		"transactions":  toTransactionListJSON(tx.Transactions),
		"categories":    toCategoryListJSON(cats.Categories),
		"credit_cards":  toCreditCardListJSON(cards.Cards),
		"month":         string(s.filters.Month()),
		"refresh_count": s.filters.RefreshCount(),
	}
	if stats.Stats != nil {
		resp["stats"] = toStatsJSON(*stats.Stats)
	}
	if sess.Session != nil {
		resp["user"] = toSessionJSON(*sess.Session).User
	}
	writeJSON(w, http.StatusOK, resp)
}
