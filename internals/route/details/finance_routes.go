// file: internals/route/details/finance_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"hostelfee_backend/internals/configs"
	ddController "hostelfee_backend/internals/features/finance/due_dates/controller"
	ddRepo "hostelfee_backend/internals/features/finance/due_dates/repository"
	ddRoute "hostelfee_backend/internals/features/finance/due_dates/route"
	dueDateService "hostelfee_backend/internals/features/finance/due_dates/service"
	fsController "hostelfee_backend/internals/features/finance/fee_structures/controller"
	fsRepo "hostelfee_backend/internals/features/finance/fee_structures/repository"
	fsRoute "hostelfee_backend/internals/features/finance/fee_structures/route"
	feeService "hostelfee_backend/internals/features/finance/fee_structures/service"
	ledgerController "hostelfee_backend/internals/features/finance/ledger/controller"
	ledgerRoute "hostelfee_backend/internals/features/finance/ledger/route"
	ledgerService "hostelfee_backend/internals/features/finance/ledger/service"
	paymentController "hostelfee_backend/internals/features/finance/payments/controller"
	paymentModel "hostelfee_backend/internals/features/finance/payments/model"
	paymentRepo "hostelfee_backend/internals/features/finance/payments/repository"
	paymentRoute "hostelfee_backend/internals/features/finance/payments/route"
	paymentService "hostelfee_backend/internals/features/finance/payments/service"
	studentRepo "hostelfee_backend/internals/features/students/repository"
	"hostelfee_backend/internals/helpers/cache"
	"hostelfee_backend/internals/helpers/logger"
	"hostelfee_backend/internals/middlewares/auth"
)

// Finance owns the ledger's shared state: one catalog cache, one due-date cache
// and one coordinator per process, shared by every handler.
type Finance struct {
	FeeStructures *fsController.FeeStructureController
	DueDates      *ddController.TermDueDateController
	Payments      *paymentController.PaymentController
	Ledger        *ledgerController.LedgerController

	Coordinator *ledgerService.Coordinator
	sweeper     *cron.Cron
}

func NewFinance(db *gorm.DB, s configs.Settings) (*Finance, error) {
	log := logger.Log
	loc := s.Location()

	students := studentRepo.NewStudentRepository(db)
	structures := fsRepo.NewFeeStructureRepository(db)
	dueDates := ddRepo.NewTermDueDateRepository(db)
	payments := paymentRepo.NewPaymentRepository(db)

	catalogCache := cache.NewMemory[*feeService.Snapshot]()
	catalog := feeService.NewCatalog(structures, catalogCache, s.CatalogCacheTTL, log.WithField("component", "catalog"))

	dueDateCache := cache.NewMemory[*dueDateService.TermDueDates]()
	resolver := dueDateService.NewResolver(dueDates, dueDateCache, s.DueDateCacheTTL, log.WithField("component", "due_dates"))

	agg := ledgerService.NewAggregator(catalog, resolver, s.AggregateConcurrency, log.WithField("component", "aggregate"))
	coord := ledgerService.NewCoordinator(agg, s.RecomputeDebounce, log.WithField("component", "recompute"))

	// Any write can change cohort figures; memoized results must not outlive it.
	changed := func(string) { coord.ForgetAll() }

	validator := paymentService.NewPaymentValidator(students, payments, s.DuplicatePaymentAfter)
	paySvc := paymentService.NewPaymentService(validator, payments, loc, log.WithField("component", "payments"))
	paySvc.OnRecorded(func(p *paymentModel.Payment) { changed(p.PaymentAcademicYear) })

	fsCtl := fsController.NewFeeStructureController(structures, catalog, students, log.WithField("component", "fee_structures"))
	fsCtl.Changed = changed

	ddCtl := ddController.NewTermDueDateController(dueDates, resolver, log.WithField("component", "due_dates"))
	ddCtl.Changed = changed

	ledgerCtl := ledgerController.NewLedgerController(students, payments, agg, coord, log.WithField("component", "ledger"))
	ledgerCtl.Location = loc
	ledgerCtl.StudentLimit = s.StatsStudentLimit
	ledgerCtl.PaymentLimit = s.CohortPaymentLimit

	sweeper, err := cache.StartSweeper(s.CacheSweepSchedule, log, map[string]cache.Sweeper{
		"catalog":   catalogCache,
		"due_dates": dueDateCache,
	})
	if err != nil {
		return nil, err
	}

	return &Finance{
		FeeStructures: fsCtl,
		DueDates:      ddCtl,
		Payments:      paymentController.NewPaymentController(paySvc, payments, students, log.WithField("component", "payments")),
		Ledger:        ledgerCtl,
		Coordinator:   coord,
		sweeper:       sweeper,
	}, nil
}

// Stop halts the cache sweeper and waits for a running sweep to finish.
func (f *Finance) Stop() {
	if f.sweeper != nil {
		<-f.sweeper.Stop().Done()
	}
}

func FinanceAdminRoutes(r fiber.Router, f *Finance) {
	fsRoute.AdminFeeStructureRoutes(r, f.FeeStructures)
	ddRoute.AdminTermDueDateRoutes(r, f.DueDates)
	paymentRoute.AdminPaymentRoutes(r, f.Payments)
	ledgerRoute.AdminLedgerRoutes(r, f.Ledger)
}

// FinanceUserRoutes serves /students/:id/...; students only reach their own id.
func FinanceUserRoutes(r fiber.Router, f *Finance) {
	self := auth.SelfOrStaff("id")
	ledgerRoute.StudentLedgerRoutes(r, f.Ledger, self)
	paymentRoute.StudentPaymentRoutes(r, f.Payments, self)
}
