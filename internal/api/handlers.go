package api

import (
	"net/http"

	"github.com/Veraticus/subscription-sentinel/internal/approval"
	"github.com/Veraticus/subscription-sentinel/internal/billing"
	"github.com/gorilla/mux"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Store.GetDashboardSummary(r.Context())
	if err != nil {
		s.writeError(w, err, "Failed to get dashboard summary")
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.deps.Store.GetSubscriptions(r.Context())
	if err != nil {
		s.writeError(w, err, "Failed to get subscriptions")
		return
	}
	s.writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.deps.Store.GetSubscription(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err, "Failed to get subscription")
		return
	}
	s.writeJSON(w, http.StatusOK, sub)
}

type actionRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err, "")
		return
	}
	action, err := approval.ParseSubscriptionAction(req.Action)
	if err != nil {
		s.writeError(w, err, "")
		return
	}

	sub, err := s.deps.Approvals.UpdateSubscription(r.Context(), mux.Vars(r)["id"], action)
	if err != nil {
		s.writeError(w, err, "Failed to update subscription")
		return
	}
	s.writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.deps.Store.GetTransactions(r.Context())
	if err != nil {
		s.writeError(w, err, "Failed to get transactions")
		return
	}
	s.writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.deps.Store.GetAlerts(r.Context())
	if err != nil {
		s.writeError(w, err, "Failed to get alerts")
		return
	}
	s.writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err, "")
		return
	}
	action, err := approval.ParseAction(req.Action)
	if err != nil {
		s.writeError(w, err, "")
		return
	}

	res, err := s.deps.Approvals.Resolve(r.Context(), mux.Vars(r)["id"], action)
	if err != nil {
		s.writeError(w, err, "Failed to resolve alert")
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := s.deps.Approvals.Dismiss(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err, "Failed to dismiss alert")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "alert": alert})
}

func (s *Server) handleAgentStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.deps.Store.GetAgentStatuses(r.Context())
	if err != nil {
		s.writeError(w, err, "Failed to get agent statuses")
		return
	}
	s.writeJSON(w, http.StatusOK, statuses)
}

// handleRunPipeline answers 500 with the failed result so the execution log reaches
// the caller.
func (s *Server) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Runner.Run(r.Context())
	if err != nil {
		if result == nil {
			s.writeError(w, err, "Failed to run pipeline")
			return
		}
		s.logger.Error("Pipeline run failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSimulateAutoPay(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Billing.SimulateAutoPay(r.Context())
	if err != nil {
		if result == nil {
			s.writeError(w, err, "Failed to simulate auto-pay")
			return
		}
		s.logger.Error("Pipeline run after auto-pay failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req billing.CheckoutRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err, "")
		return
	}

	result, err := s.deps.Billing.Checkout(r.Context(), req)
	if err != nil {
		if result == nil {
			s.writeError(w, err, "Failed to complete checkout")
			return
		}
		s.logger.Error("Pipeline run after checkout failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	s.writeJSON(w, http.StatusCreated, result)
}
