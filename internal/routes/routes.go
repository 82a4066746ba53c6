package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kaspit-backend/internal/buildinfo"
	"kaspit-backend/internal/config"
	handler "kaspit-backend/internal/handlers"
	"kaspit-backend/internal/middleware"
	"kaspit-backend/internal/services/budget"
	"kaspit-backend/internal/services/company"
	"kaspit-backend/internal/services/importer"
	"kaspit-backend/internal/services/ledger"
	service "kaspit-backend/internal/services/reconciliation"
	"kaspit-backend/internal/services/recurring"
	"kaspit-backend/internal/services/reports"
	"kaspit-backend/internal/services/vat"
)

// Services holds everything the API exposes. Imports and Recurring own
// background work the caller must start and stop.
type Services struct {
	Companies      *company.CompanyService
	Ledger         *ledger.LedgerService
	Categories     *ledger.CategoryService
	Recurring      *recurring.RecurringService
	Reconciliation *service.ReconciliationService
	Imports        *importer.ImportService
	Budgets        *budget.BudgetService
	VAT            *vat.VATService
	Reports        *reports.ReportService
}

func NewServices(db *gorm.DB, cfg config.BusinessConfig, log *zap.Logger) *Services {
	recon := service.NewReconciliationService(db, cfg.Matching, log)
	return &Services{
		Companies:      company.NewCompanyService(db, cfg.VAT.DefaultRate),
		Ledger:         ledger.NewLedgerService(db, log),
		Categories:     ledger.NewCategoryService(db),
		Recurring:      recurring.NewRecurringService(db, log),
		Reconciliation: recon,
		Imports:        importer.NewImportService(db, recon, log),
		Budgets:        budget.NewBudgetService(db, cfg.Budget),
		VAT:            vat.NewVATService(db),
		Reports:        reports.NewReportService(db, cfg, log),
	}
}

func RegisterRoutes(r *gin.Engine, s *Services, jwtSecret string, log *zap.Logger) {
	companyHandler := handler.NewCompanyHandler(s.Companies)
	ledgerHandler := handler.NewLedgerHandler(s.Ledger, s.Categories)
	recurringHandler := handler.NewRecurringHandler(s.Recurring)
	importHandler := handler.NewImportHandler(s.Imports)
	reconHandler := handler.NewReconciliationHandler(s.Reconciliation)
	budgetHandler := handler.NewBudgetHandler(s.Budgets)
	reportHandler := handler.NewReportHandler(s.Reports, s.VAT)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": buildinfo.Version})
	})

	authed := api.Group("", middleware.Auth([]byte(jwtSecret)))
	authed.GET("/companies", companyHandler.List)
	authed.POST("/companies", companyHandler.Create)

	co := authed.Group("/companies/:companyId", middleware.CompanyAccess(s.Companies, log))
	write := middleware.RequireWrite()
	owner := middleware.RequireOwner()

	co.GET("", companyHandler.Get)
	co.PUT("", owner, companyHandler.Update)
	co.GET("/members", owner, companyHandler.ListMembers)
	co.POST("/members", owner, companyHandler.AddMember)

	// Ledger
	categories := co.Group("/categories")
	categories.GET("", ledgerHandler.ListCategories)
	categories.POST("", write, ledgerHandler.CreateCategory)
	categories.PUT("/:id", write, ledgerHandler.UpdateCategory)
	categories.DELETE("/:id", write, ledgerHandler.DeleteCategory)

	incomes := co.Group("/incomes")
	incomes.GET("", ledgerHandler.ListIncomes)
	incomes.POST("", write, ledgerHandler.CreateIncome)
	incomes.GET("/:id", ledgerHandler.GetIncome)
	incomes.PUT("/:id", write, ledgerHandler.UpdateIncome)
	incomes.DELETE("/:id", write, ledgerHandler.DeleteIncome)

	expenses := co.Group("/expenses")
	expenses.GET("", ledgerHandler.ListExpenses)
	expenses.POST("", write, ledgerHandler.CreateExpense)
	expenses.GET("/:id", ledgerHandler.GetExpense)
	expenses.PUT("/:id", write, ledgerHandler.UpdateExpense)
	expenses.DELETE("/:id", write, ledgerHandler.DeleteExpense)

	rec := co.Group("/recurring-expenses")
	rec.GET("", recurringHandler.List)
	rec.POST("", write, recurringHandler.Create)
	rec.POST("/generate", write, recurringHandler.Generate)
	rec.GET("/:id", recurringHandler.Get)
	rec.PUT("/:id", write, recurringHandler.Update)
	rec.DELETE("/:id", write, recurringHandler.Delete)
	rec.GET("/:id/occurrences", recurringHandler.Occurrences)

	// Bank statement imports
	imports := co.Group("/imports")
	imports.GET("", importHandler.ListBatches)
	imports.POST("", write, importHandler.Upload)
	imports.POST("/preview", write, importHandler.Preview)
	imports.GET("/:batchId", importHandler.GetBatch)

	profiles := co.Group("/import-profiles")
	profiles.GET("", importHandler.ListProfiles)
	profiles.POST("", write, importHandler.CreateProfile)
	profiles.PUT("/:id", write, importHandler.UpdateProfile)
	profiles.DELETE("/:id", write, importHandler.DeleteProfile)

	// Reconciliation
	tx := co.Group("/transactions")
	tx.GET("", reconHandler.ListTransactions)
	tx.GET("/stats", reconHandler.Stats)
	tx.POST("/bulk-accept", write, reconHandler.BulkAccept)
	tx.POST("/rescore", write, reconHandler.Rescore)
	tx.GET("/:id", reconHandler.GetTransaction)
	tx.GET("/:id/suggestions", reconHandler.Suggestions)
	tx.GET("/:id/history", reconHandler.History)
	tx.POST("/:id/link", write, reconHandler.Link)
	tx.POST("/:id/unlink", write, reconHandler.Unlink)
	tx.POST("/:id/external", write, reconHandler.MarkTransactionExternal)
	tx.POST("/:id/restore", write, reconHandler.RestoreTransaction)
	tx.POST("/:id/entry", write, reconHandler.CreateEntry)

	budgets := co.Group("/budgets")
	budgets.GET("", budgetHandler.List)
	budgets.GET("/status", budgetHandler.Status)
	budgets.POST("", write, budgetHandler.Create)
	budgets.PUT("/:id", write, budgetHandler.Update)
	budgets.DELETE("/:id", write, budgetHandler.Delete)

	reportsGroup := co.Group("/reports")
	reportsGroup.GET("/vat", reportHandler.VAT)
	reportsGroup.GET("/cashflow", reportHandler.CashFlow)
	reportsGroup.GET("/dashboard", reportHandler.Dashboard)
}
