package app

import (
	"github.com/go-chi/chi/v5"
	accounthandler "github.com/mvasenkov/benefits/internal/handler/account"
	"github.com/mvasenkov/benefits/internal/handler/middleware"
	transferhandler "github.com/mvasenkov/benefits/internal/handler/transfer"
)

func (app *App) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.WithLogging)

	accountHandler := accounthandler.New(app.accountService)
	transferHandler := transferhandler.New(app.transferService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/accounts", accountHandler.Create)
		r.Get("/accounts", accountHandler.Accounts)
		r.Get("/accounts/{accountID}", accountHandler.Account)
		r.Delete("/accounts/{accountID}", accountHandler.Deactivate)
		r.Get("/accounts/{accountID}/transfers", transferHandler.History)

		r.Post("/transfers", transferHandler.Transfer)
		r.Post("/transfers/async", transferHandler.SubmitTransfer)
	})

	return r
}
