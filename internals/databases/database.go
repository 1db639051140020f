package database

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"hostelfee_backend/internals/configs"
	dueDateModel "hostelfee_backend/internals/features/finance/due_dates/model"
	feeModel "hostelfee_backend/internals/features/finance/fee_structures/model"
	paymentModel "hostelfee_backend/internals/features/finance/payments/model"
	studentModel "hostelfee_backend/internals/features/students/model"
	"hostelfee_backend/internals/helpers/logger"
)

var DB *gorm.DB

func ConnectDB() {
	logger.Log.Info("🔌 Connecting to PostgreSQL...")

	// PreferSimpleProtocol keeps us compatible with PgBouncer transaction pooling.
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  configs.PostgresDSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: configs.NewGormLogger()})
	if err != nil {
		logger.Log.Fatalf("❌ DB connect failed: %v", err)
	}
	DB = db
	logger.Log.Info("✅ DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		logger.Log.Warnf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// Migrate creates the ledger tables and the write-time guards the engine relies on.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&feeModel.Course{},
		&feeModel.FeeCategory{},
		&feeModel.FeeStructure{},
		&studentModel.Student{},
		&paymentModel.Payment{},
		&dueDateModel.TermDueDate{},
	); err != nil {
		return err
	}

	// At most one fee structure per discriminator tuple; NULL discriminators collapse to ''.
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_fee_structures_discriminators
		ON fee_structures (
			lower(fee_structure_course),
			fee_structure_academic_year,
			fee_structure_year,
			COALESCE(lower(fee_structure_branch), ''),
			COALESCE(fee_structure_hostel_id::text, ''),
			COALESCE(fee_structure_category_id::text, lower(fee_structure_category), '')
		)
		WHERE fee_structure_deleted_at IS NULL`).Error
}

func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := ping(); err != nil {
			logger.Log.Warnf("warm-up ping err: %v", err)
		}
	}()
}

func Close() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
