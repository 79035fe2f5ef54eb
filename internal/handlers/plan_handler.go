package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"investBack/internal/models"
	"investBack/internal/plan/authgate"
	"investBack/internal/plan/detail"
	"investBack/internal/plan/payflow"
	"investBack/internal/planapi"
)

type PlanHandler struct {
	Registry *detail.Registry
}

func NewPlanHandler(registry *detail.Registry) *PlanHandler {
	return &PlanHandler{Registry: registry}
}

// planView is the detail screen payload: the snapshot plus what the user may
// do with it right now.
type planView struct {
	Plan         models.Plan     `json:"plan"`
	Actions      []detail.Action `json:"actions"`
	Reconciling  bool            `json:"reconciling"`
	PaymentState payflow.State   `json:"paymentState,omitempty"`
}

func (h *PlanHandler) acquire(w http.ResponseWriter, r *http.Request) (*detail.Controller, bool) {
	session, ok := sessionFromContext(r)
	if !ok {
		http.Error(w, "session missing", http.StatusUnauthorized)
		return nil, false
	}
	c, err := h.Registry.Acquire(r.Context(), session, getParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), planErrorStatus(err))
		return nil, false
	}
	return c, true
}

func (h *PlanHandler) writeView(w http.ResponseWriter, c *detail.Controller) {
	view := planView{
		Plan:        c.Snapshot(),
		Actions:     c.AvailableActions(),
		Reconciling: c.Reconciling(),
	}
	if flow := c.Flow(); flow != nil {
		view.PaymentState = flow.State()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	c, ok := h.acquire(w, r)
	if !ok {
		return
	}
	h.writeView(w, c)
}

func (h *PlanHandler) ReleaseView(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r)
	if !ok {
		http.Error(w, "session missing", http.StatusUnauthorized)
		return
	}
	h.Registry.Release(session, getParam(r, "id"))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "released"})
}

func (h *PlanHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	c, ok := h.acquire(w, r)
	if !ok {
		return
	}
	flow, err := c.MakePayment(r.Context())
	if err != nil {
		http.Error(w, err.Error(), planErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"state":   flow.State(),
		"intents": flow.Intents(),
	})
}

func (h *PlanHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	c, ok := h.acquire(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	flow, err := c.TopUp(r.Context(), req.Amount)
	if err != nil {
		http.Error(w, err.Error(), planErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"state":   flow.State(),
		"intents": flow.Intents(),
	})
}

func (h *PlanHandler) SelectPaymentMethod(w http.ResponseWriter, r *http.Request) {
	c, ok := h.acquire(w, r)
	if !ok {
		return
	}
	flow := c.Flow()
	if flow == nil {
		http.Error(w, "no active payment", http.StatusConflict)
		return
	}

	var req struct {
		Method string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		p   payflow.Presentation
		err error
	)
	switch req.Method {
	case "instant_transfer":
		p, err = flow.SelectInstantTransfer()
	case "bank_transfer":
		p, err = flow.SelectBankTransfer()
	default:
		http.Error(w, "unknown payment method", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), planErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

func (h *PlanHandler) PaymentBack(w http.ResponseWriter, r *http.Request) {
	c, ok := h.acquire(w, r)
	if !ok {
		return
	}
	flow := c.Flow()
	if flow == nil {
		http.Error(w, "no active payment", http.StatusConflict)
		return
	}
	if err := flow.Back(); err != nil {
		http.Error(w, err.Error(), planErrorStatus(err))
		return
	}
	if flow.State() == payflow.StateCancelled {
		_ = c.CancelPayment()
	}
	h.writeView(w, c)
}

func (h *PlanHandler) PaymentCancel(w http.ResponseWriter, r *http.Request) {
	c, ok := h.acquire(w, r)
	if !ok {
		return
	}
	if err := c.CancelPayment(); err != nil {
		http.Error(w, err.Error(), planErrorStatus(err))
		return
	}
	h.writeView(w, c)
}

func (h *PlanHandler) PaymentConfirm(w http.ResponseWriter, r *http.Request) {
	c, ok := h.acquire(w, r)
	if !ok {
		return
	}
	res, err := c.ConfirmPayment()
	if err != nil {
		http.Error(w, err.Error(), planErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"navigateToPlan": res.NavigateToPlan,
		"reconciling":    c.Reconciling(),
	})
}

func (h *PlanHandler) LiquidationSummary(w http.ResponseWriter, r *http.Request) {
	c, ok := h.acquire(w, r)
	if !ok {
		return
	}
	amount, err := amountParam(r, "amount")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	summary, err := c.LiquidationPreview(r.Context(), amount, boolParam(r, "isFull"))
	if err != nil {
		http.Error(w, err.Error(), planErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}

func (h *PlanHandler) Liquidate(w http.ResponseWriter, r *http.Request) {
	c, ok := h.acquire(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount int64 `json:"amount"`
		IsFull bool  `json:"isFull"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	intentID, err := c.Liquidate(r.Context(), req.Amount, req.IsFull)
	if err != nil {
		http.Error(w, err.Error(), planErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"intentId": intentID})
}

func (h *PlanHandler) AuthorizeLiquidation(w http.ResponseWriter, r *http.Request) {
	c, ok := h.acquire(w, r)
	if !ok {
		return
	}
	var req struct {
		IntentID string `json:"intentId"`
		Pin      string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := c.AuthorizeLiquidation(r.Context(), req.IntentID, req.Pin); err != nil {
		http.Error(w, err.Error(), planErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":      "authorized",
		"reconciling": c.Reconciling(),
	})
}

func (h *PlanHandler) RolloverProjection(w http.ResponseWriter, r *http.Request) {
	c, ok := h.acquire(w, r)
	if !ok {
		return
	}
	proj, err := c.RolloverProjection(models.RolloverType(getParam(r, "option")))
	if err != nil {
		http.Error(w, err.Error(), planErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(proj)
}

func (h *PlanHandler) Rollover(w http.ResponseWriter, r *http.Request) {
	c, ok := h.acquire(w, r)
	if !ok {
		return
	}
	var req struct {
		Option models.RolloverType `json:"option"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := c.RolloverNow(r.Context(), req.Option)
	if err != nil {
		http.Error(w, err.Error(), planErrorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func (h *PlanHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	c, ok := h.acquire(w, r)
	if !ok {
		return
	}
	var req struct {
		TermsAccepted bool `json:"termsAccepted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := c.Withdraw(r.Context(), req.TermsAccepted); err != nil {
		http.Error(w, err.Error(), planErrorStatus(err))
		return
	}
	h.writeView(w, c)
}

// planErrorStatus maps engine errors to HTTP statuses. Upstream 4xx statuses
// pass through; other upstream failures surface as a bad gateway.
func planErrorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrPlanNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrActionNotAvailable),
		errors.Is(err, payflow.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrAmountOutOfRange),
		errors.Is(err, models.ErrNegativePayout),
		errors.Is(err, models.ErrInvalidRollover),
		errors.Is(err, models.ErrTermsNotAccepted),
		errors.Is(err, models.ErrPinNotSet),
		errors.Is(err, models.ErrInvalidPin):
		return http.StatusUnprocessableEntity
	}
	var gateErr *authgate.AuthError
	if errors.As(err, &gateErr) {
		return http.StatusUnprocessableEntity
	}
	var apiErr *planapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
