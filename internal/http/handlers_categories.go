package http

import (
	"net/http"

	"moneytrack/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if err := s.store.FetchCategories(r.Context()); err != nil {
		writeGatewayError(w, err)
		return
	}
	st := s.store.Categories()
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": toCategoryListJSON(st.Categories),
		"phase":      st.Phase.String(),
	})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Limit int64  `json:"limit"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	in := core.CategoryInput{Name: req.Name, Limit: core.Amount(req.Limit)}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_category", err.Error())
		return
	}

	created, err := s.store.AddCategory(r.Context(), in)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryJSON(created))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Limit int64  `json:"limit"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	in := core.CategoryInput{Name: req.Name, Limit: core.Amount(req.Limit)}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_category", err.Error())
		return
	}

	updated, err := s.store.UpdateCategory(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryJSON(updated))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveCategory(r.Context(), r.PathValue("id")); err != nil {
		writeGatewayError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCreditCards(w http.ResponseWriter, r *http.Request) {
	if err := s.store.FetchCreditCards(r.Context(), s.currentUserID()); err != nil {
		writeGatewayError(w, err)
		return
	}
	st := s.store.CreditCards()
	writeJSON(w, http.StatusOK, map[string]any{
		"credit_cards": toCreditCardListJSON(st.Cards),
		"phase":        st.Phase.String(),
	})
}
