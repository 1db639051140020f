// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"hostelfee_backend/internals/configs"
	"hostelfee_backend/internals/constants"
	"hostelfee_backend/internals/helpers/logger"
	"hostelfee_backend/internals/middlewares/auth"
	routeDetails "hostelfee_backend/internals/route/details"
)

var startTime time.Time

// SetupRoutes mounts every group and returns the finance module so the caller
// can stop its background jobs on shutdown.
func SetupRoutes(app *fiber.App, db *gorm.DB, s configs.Settings) (*routeDetails.Finance, error) {
	startTime = time.Now()

	finance, err := routeDetails.NewFinance(db, s)
	if err != nil {
		return nil, err
	}

	jwt := auth.AuthJWT(auth.AuthJWTOpts{
		Secret:              configs.JWTSecret,
		AllowCookieFallback: true,
	})

	// ===================== GROUPS =====================

	logger.Log.Info("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")
	BaseRoutes(public, db)

	logger.Log.Info("[INFO] Setting up PRIVATE (user) group...")
	user := app.Group("/api/u", jwt)

	logger.Log.Info("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := app.Group("/api/a",
		jwt,
		auth.OnlyRoles(constants.RoleErrorStaff("the ledger administration"), constants.StaffRoles...),
	)

	// ===================== MOUNT ROUTES =====================

	logger.Log.Info("[INFO] Mounting Finance routes...")
	routeDetails.FinanceUserRoutes(user, finance)
	routeDetails.FinanceAdminRoutes(admin, finance)

	return finance, nil
}
