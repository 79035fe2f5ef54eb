package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.sessionMiddleware)

	mux := pat.New()

	// Sessions
	mux.Post("/session/sign_in", standardMiddleware.ThenFunc(app.sessionHandler.SignIn))
	mux.Post("/session/refresh", standardMiddleware.ThenFunc(app.sessionHandler.Refresh))
	mux.Post("/session/logout", authMiddleware.ThenFunc(app.sessionHandler.Logout))

	// Plan detail
	mux.Get("/plan/:id", authMiddleware.ThenFunc(app.planHandler.GetPlan))
	mux.Del("/plan/:id/view", authMiddleware.ThenFunc(app.planHandler.ReleaseView))

	// Payment workflow
	mux.Post("/plan/:id/payment", authMiddleware.ThenFunc(app.planHandler.MakePayment))
	mux.Post("/plan/:id/payment/method", authMiddleware.ThenFunc(app.planHandler.SelectPaymentMethod))
	mux.Post("/plan/:id/payment/back", authMiddleware.ThenFunc(app.planHandler.PaymentBack))
	mux.Post("/plan/:id/payment/cancel", authMiddleware.ThenFunc(app.planHandler.PaymentCancel))
	mux.Post("/plan/:id/payment/confirm", authMiddleware.ThenFunc(app.planHandler.PaymentConfirm))
	mux.Post("/plan/:id/topup", authMiddleware.ThenFunc(app.planHandler.TopUp))

	// Liquidation
	mux.Get("/plan/:id/liquidation_summary", authMiddleware.ThenFunc(app.planHandler.LiquidationSummary))
	mux.Post("/plan/:id/liquidate", authMiddleware.ThenFunc(app.planHandler.Liquidate))
	mux.Post("/plan/:id/liquidate/authorize", authMiddleware.ThenFunc(app.planHandler.AuthorizeLiquidation))

	// Maturity
	mux.Get("/plan/:id/rollover_projection/:option", authMiddleware.ThenFunc(app.planHandler.RolloverProjection))
	mux.Post("/plan/:id/rollover", authMiddleware.ThenFunc(app.planHandler.Rollover))
	mux.Post("/plan/:id/withdraw", authMiddleware.ThenFunc(app.planHandler.Withdraw))

	return standardMiddleware.Then(mux)
}
