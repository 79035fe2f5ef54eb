package detail

import (
	"context"
	"log"
	"sync"

	"investBack/internal/models"
	"investBack/internal/plan/authgate"
	"investBack/internal/plan/calc"
	"investBack/internal/plan/fsm"
	"investBack/internal/plan/payflow"
	"investBack/internal/plan/reconcile"
	"investBack/internal/plan/watch"
)

// PlanAPI is the upstream surface the controller consumes.
type PlanAPI interface {
	GetPlan(ctx context.Context, planID string) (models.Plan, error)
	Activate(ctx context.Context, planID string) (models.PaymentIntentPair, error)
	TopUp(ctx context.Context, planID string, amount int64) (models.PaymentIntentPair, error)
	Rollover(ctx context.Context, planID string, option models.RolloverType) (models.RolloverResult, error)
	Liquidate(ctx context.Context, planID string, amount int64, isFull bool) (models.LiquidateResult, error)
	LiquidationSummary(ctx context.Context, planID string, amount int64, isFull bool) (models.LiquidationSummary, error)
	Withdraw(ctx context.Context, planID string) error
	AuthorizeIntent(ctx context.Context, intentID, pin string) error
}

// Action is a user-triggered intent offered on the plan detail view.
type Action string

const (
	ActionMakePayment Action = "make_payment"
	ActionTopUp       Action = "top_up"
	ActionLiquidate   Action = "liquidate"
	ActionRollover    Action = "rollover"
	ActionWithdraw    Action = "withdraw"
)

// Config aggregates the engine parameters for one plan view.
type Config struct {
	Reconcile  reconcile.Config
	Watch      watch.Config
	Calculator calc.Calculator
}

// Controller owns the single canonical in-memory Plan for one detail view
// and mediates between user intents and the lifecycle components. Every
// mutation of the plan record is serialized through the controller's mutex
// and applied whole, so renders never observe partial writes.
type Controller struct {
	api      PlanAPI
	gate     *authgate.Gate
	sched    *reconcile.Scheduler
	watcher  *watch.Watcher
	calc     calc.Calculator
	session  models.Session
	infoLog  *log.Logger
	errorLog *log.Logger

	// lifeCtx bounds the polling loop and delayed checks; Close cancels it.
	lifeCtx  context.Context
	lifeStop context.CancelFunc

	mu   sync.Mutex
	plan models.Plan
	flow *payflow.Flow
}

func NewController(api PlanAPI, attempts watch.AttemptStore, session models.Session, cfg Config, infoLog, errorLog *log.Logger) *Controller {
	lifeCtx, lifeStop := context.WithCancel(context.Background())
	c := &Controller{
		api:      api,
		gate:     authgate.NewGate(api, errorLog),
		sched:    reconcile.NewScheduler(api, cfg.Reconcile, infoLog, errorLog),
		watcher:  watch.NewWatcher(api, attempts, cfg.Watch, infoLog, errorLog),
		calc:     cfg.Calculator,
		session:  session,
		infoLog:  infoLog,
		errorLog: errorLog,
		lifeCtx:  lifeCtx,
		lifeStop: lifeStop,
	}
	c.sched.OnChange(c.applyChange)
	c.watcher.OnRollover(func(res models.RolloverResult) {
		if err := c.Refetch(c.lifeCtx); err != nil {
			c.errorLog.Printf("detail: refetch after auto-rollover: %v", err)
		}
	})
	return c
}

// Load fetches the initial snapshot and wires up observation: PENDING plans
// start polling immediately, MATURED plans arm the auto-rollover check.
func (c *Controller) Load(ctx context.Context, planID string) error {
	plan, err := c.api.GetPlan(ctx, planID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.plan = plan
	c.mu.Unlock()

	c.sched.Observe(c.lifeCtx, plan)
	c.watcher.Arm(c.lifeCtx, plan)
	return nil
}

// Snapshot returns the canonical in-memory plan.
func (c *Controller) Snapshot() models.Plan {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plan
}

// Reconciling reports whether a polling loop is active.
func (c *Controller) Reconciling() bool {
	return c.sched.Running()
}

// AvailableActions selects which intents the current status offers.
func (c *Controller) AvailableActions() []Action {
	switch c.Snapshot().Status {
	case fsm.StatusPending:
		return []Action{ActionMakePayment}
	case fsm.StatusActive:
		return []Action{ActionTopUp, ActionLiquidate}
	case fsm.StatusMatured:
		return []Action{ActionRollover, ActionWithdraw}
	default:
		return nil
	}
}

// Flow returns the active payment workflow, nil when none is open.
func (c *Controller) Flow() *payflow.Flow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flow
}

// MakePayment fetches the combined intent pair for a PENDING plan and opens
// the payment workflow at method selection.
func (c *Controller) MakePayment(ctx context.Context) (*payflow.Flow, error) {
	plan := c.Snapshot()
	if plan.Status != fsm.StatusPending {
		return nil, models.ErrActionNotAvailable
	}
	pair, err := c.api.Activate(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	return c.openFlow(pair)
}

// TopUp fetches a top-up specific intent pair for an ACTIVE plan and opens
// the payment workflow.
func (c *Controller) TopUp(ctx context.Context, amount int64) (*payflow.Flow, error) {
	plan := c.Snapshot()
	if plan.Status != fsm.StatusActive {
		return nil, models.ErrActionNotAvailable
	}
	if amount <= 0 {
		return nil, models.ErrAmountOutOfRange
	}
	pair, err := c.api.TopUp(ctx, plan.ID, amount)
	if err != nil {
		return nil, err
	}
	return c.openFlow(pair)
}

func (c *Controller) openFlow(pair models.PaymentIntentPair) (*payflow.Flow, error) {
	flow := payflow.NewFlow()
	if err := flow.Begin(pair); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.flow = flow
	c.mu.Unlock()
	return flow, nil
}

// ConfirmPayment records the optimistic "I have paid" claim: the flow
// closes and the scheduler restarts so the claim is reconciled against
// server truth asynchronously.
func (c *Controller) ConfirmPayment() (payflow.Result, error) {
	flow := c.Flow()
	if flow == nil {
		return payflow.Result{}, payflow.ErrInvalidTransition
	}
	res, err := flow.Confirm()
	if err != nil {
		return payflow.Result{}, err
	}
	if res.RestartReconciliation {
		c.sched.Prime(c.Snapshot())
		c.sched.Start(c.lifeCtx)
	}
	c.mu.Lock()
	c.flow = nil
	c.mu.Unlock()
	return res, nil
}

// CancelPayment closes the active workflow. An in-flight intent fetch is not
// aborted; its response is simply dropped because no flow remains to
// receive it.
func (c *Controller) CancelPayment() error {
	flow := c.Flow()
	if flow == nil {
		return payflow.ErrInvalidTransition
	}
	if err := flow.Cancel(); err != nil {
		return err
	}
	c.mu.Lock()
	c.flow = nil
	c.mu.Unlock()
	return nil
}

// snapLiquidation canonicalises the requested amount: the full balance or
// zero snap to a full-liquidation request.
func (c *Controller) snapLiquidation(plan models.Plan, amount int64, isFull bool) (int64, bool) {
	if isFull || amount == 0 || amount == plan.CurrentPrincipal {
		return plan.CurrentPrincipal, true
	}
	return amount, false
}

// LiquidationPreview validates the request and returns the payout
// breakdown. The server's summary is authoritative; the local calculator
// re-derives it and discrepancies are logged.
func (c *Controller) LiquidationPreview(ctx context.Context, amount int64, isFull bool) (models.LiquidationSummary, error) {
	plan := c.Snapshot()
	if plan.Status != fsm.StatusActive {
		return models.LiquidationSummary{}, models.ErrActionNotAvailable
	}
	amount, isFull = c.snapLiquidation(plan, amount, isFull)
	local, err := c.calc.ComputeLiquidation(plan, amount, isFull)
	if err != nil {
		return models.LiquidationSummary{}, err
	}
	remote, err := c.api.LiquidationSummary(ctx, plan.ID, amount, isFull)
	if err != nil {
		return models.LiquidationSummary{}, err
	}
	if remote != local {
		c.infoLog.Printf("detail: liquidation summary drift for plan %s: local %+v server %+v", plan.ID, local, remote)
	}
	return remote, nil
}

// Liquidate initiates the liquidation and returns the authorization intent
// id to feed through the PIN gate.
func (c *Controller) Liquidate(ctx context.Context, amount int64, isFull bool) (string, error) {
	plan := c.Snapshot()
	if plan.Status != fsm.StatusActive {
		return "", models.ErrActionNotAvailable
	}
	amount, isFull = c.snapLiquidation(plan, amount, isFull)
	if err := c.calc.ValidateLiquidationAmount(plan, amount); err != nil {
		return "", err
	}
	res, err := c.api.Liquidate(ctx, plan.ID, amount, isFull)
	if err != nil {
		return "", err
	}
	return res.IntentID, nil
}

// AuthorizeLiquidation finalises a liquidation through the PIN gate, then
// polls until the principal reflects the payout.
func (c *Controller) AuthorizeLiquidation(ctx context.Context, intentID, pin string) error {
	if err := c.gate.Authorize(ctx, c.session, intentID, pin); err != nil {
		return err
	}
	c.sched.Prime(c.Snapshot())
	c.sched.Start(c.lifeCtx)
	return nil
}

// RolloverProjection previews how the chosen option splits the matured
// position.
func (c *Controller) RolloverProjection(option models.RolloverType) (models.RolloverProjection, error) {
	plan := c.Snapshot()
	return calc.ProjectRollover(plan.CurrentPrincipal, plan.TotalAccruedROI, option)
}

// RolloverNow reinvests a matured plan. The caller navigates to the new
// plan id in the result.
func (c *Controller) RolloverNow(ctx context.Context, option models.RolloverType) (models.RolloverResult, error) {
	plan := c.Snapshot()
	if plan.Status != fsm.StatusMatured {
		return models.RolloverResult{}, models.ErrActionNotAvailable
	}
	if _, err := calc.ProjectRollover(plan.CurrentPrincipal, plan.TotalAccruedROI, option); err != nil {
		return models.RolloverResult{}, err
	}
	c.watcher.Cancel()
	return c.api.Rollover(ctx, plan.ID, option)
}

// Withdraw closes a matured plan behind a terms-acceptance gate. No PIN is
// involved; the action is terminal and the refetch is expected to report
// CLOSED.
func (c *Controller) Withdraw(ctx context.Context, termsAccepted bool) error {
	plan := c.Snapshot()
	if plan.Status != fsm.StatusMatured {
		return models.ErrActionNotAvailable
	}
	if !termsAccepted {
		return models.ErrTermsNotAccepted
	}
	c.watcher.Cancel()
	if err := c.api.Withdraw(ctx, plan.ID); err != nil {
		return err
	}
	if err := c.Refetch(ctx); err != nil {
		c.errorLog.Printf("detail: refetch after withdraw: %v", err)
	}
	return nil
}

// Refetch replaces the canonical plan with a fresh snapshot and re-arms
// observation for the new status.
func (c *Controller) Refetch(ctx context.Context) error {
	c.mu.Lock()
	planID := c.plan.ID
	c.mu.Unlock()

	plan, err := c.api.GetPlan(ctx, planID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.plan = plan
	c.mu.Unlock()

	c.sched.Prime(plan)
	c.watcher.Arm(c.lifeCtx, plan)
	return nil
}

// applyChange merges a scheduler-reported diff into the canonical plan.
// Only the polled fields are written; everything else keeps its value. The
// write happens in one critical section so no partial state is observable.
func (c *Controller) applyChange(ch reconcile.Change) {
	c.mu.Lock()
	if ch.Status != c.plan.Status && !fsm.CanTransition(c.plan.Status, ch.Status) {
		// Server is authoritative even when the transition looks illegal
		// locally; record it for investigation but apply anyway.
		c.errorLog.Printf("detail: plan %s unexpected transition %s -> %s", c.plan.ID, c.plan.Status, ch.Status)
	}
	c.plan.Status = ch.Status
	c.plan.CurrentPrincipal = ch.CurrentPrincipal
	c.plan.RolloverType = ch.RolloverType
	plan := c.plan
	c.mu.Unlock()

	c.infoLog.Printf("detail: plan %s reconciled: status=%s principal=%d", plan.ID, plan.Status, plan.CurrentPrincipal)
	c.watcher.Arm(c.lifeCtx, plan)
}

// Close tears the view down: every outstanding loop, delayed check and
// countdown dies with it.
func (c *Controller) Close() {
	c.sched.Stop()
	c.watcher.Cancel()
	c.lifeStop()
}
