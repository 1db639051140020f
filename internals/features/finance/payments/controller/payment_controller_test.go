package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelfee_backend/internals/features/finance/payments/dto"
	"hostelfee_backend/internals/features/finance/payments/model"
	"hostelfee_backend/internals/features/finance/payments/service"
	studentModel "hostelfee_backend/internals/features/students/model"
	studentRepo "hostelfee_backend/internals/features/students/repository"
	"hostelfee_backend/internals/helpers/logger"
)

type stubRecorder struct {
	msgs []string
	err  error
}

func (s *stubRecorder) Check(ctx context.Context, req *dto.CreatePaymentRequest) ([]string, error) {
	return s.msgs, s.err
}

func (s *stubRecorder) Record(ctx context.Context, req *dto.CreatePaymentRequest, recordedBy *uuid.UUID) (*model.Payment, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.msgs) > 0 {
		return nil, &service.ErrInvalidPayment{Messages: s.msgs}
	}
	return &model.Payment{
		PaymentID:        uuid.New(),
		PaymentStudentID: req.PaymentStudentID,
		PaymentAmount:    *req.PaymentAmount,
		PaymentType:      model.PaymentType(req.PaymentType),
		PaymentMethod:    req.PaymentMethod,
	}, nil
}

type stubLister struct{ year string }

func (s *stubLister) ListByStudent(ctx context.Context, id uuid.UUID, academicYear string) ([]model.Payment, error) {
	s.year = academicYear
	return []model.Payment{{PaymentID: uuid.New(), PaymentStudentID: id, PaymentAcademicYear: academicYear, PaymentAmount: decimal.NewFromInt(500)}}, nil
}

type stubStudents map[uuid.UUID]*studentModel.Student

func (s stubStudents) FindByID(ctx context.Context, id uuid.UUID) (*studentModel.Student, error) {
	if st, ok := s[id]; ok {
		return st, nil
	}
	return nil, studentRepo.ErrStudentNotFound
}

func newPaymentApp(rec PaymentRecorder, lister PaymentLister, students StudentFinder) *fiber.App {
	h := NewPaymentController(rec, lister, students, logger.Discard())
	app := fiber.New()
	app.Post("/payments", h.Create)
	app.Post("/payments/validate", h.Validate)
	app.Get("/students/:id/payments", h.ListByStudent)
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

const paymentBody = `{"payment_student_id":"6f1c2a34-1d2e-4f5a-9b8c-7d6e5f4a3b2c","payment_amount":"12000","payment_type":"hostel_fee","payment_term":"term1","payment_method":"cash"}`

func TestCreate_Recorded(t *testing.T) {
	app := newPaymentApp(&stubRecorder{}, &stubLister{}, stubStudents{})

	status, body := do(t, app, fiber.MethodPost, "/payments", paymentBody)
	require.Equal(t, fiber.StatusCreated, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "6f1c2a34-1d2e-4f5a-9b8c-7d6e5f4a3b2c", data["payment_student_id"])
	assert.Equal(t, "12000", data["payment_amount"])
}

func TestCreate_InvalidReturnsMessages(t *testing.T) {
	msgs := []string{"Please select a payment method", "Student not found"}
	app := newPaymentApp(&stubRecorder{msgs: msgs}, &stubLister{}, stubStudents{})

	status, body := do(t, app, fiber.MethodPost, "/payments", paymentBody)
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_ERROR", body["error_code"])
	assert.Equal(t, []any{"Please select a payment method", "Student not found"}, body["messages"])
}

func TestCreate_StoreFailureIs500(t *testing.T) {
	app := newPaymentApp(&stubRecorder{err: errors.New("db down")}, &stubLister{}, stubStudents{})

	status, body := do(t, app, fiber.MethodPost, "/payments", paymentBody)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.NotContains(t, body["message"], "db down")
}

func TestCreate_MalformedJSON(t *testing.T) {
	app := newPaymentApp(&stubRecorder{}, &stubLister{}, stubStudents{})

	status, _ := do(t, app, fiber.MethodPost, "/payments", `{"payment_amount":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestValidate_DryRun(t *testing.T) {
	app := newPaymentApp(&stubRecorder{}, &stubLister{}, stubStudents{})
	status, body := do(t, app, fiber.MethodPost, "/payments/validate", paymentBody)
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, []any{}, data["messages"])

	app = newPaymentApp(&stubRecorder{msgs: []string{"UTR number is required for online payments"}}, &stubLister{}, stubStudents{})
	status, body = do(t, app, fiber.MethodPost, "/payments/validate", paymentBody)
	require.Equal(t, fiber.StatusOK, status)
	data = body["data"].(map[string]any)
	assert.Equal(t, false, data["valid"])
	assert.Equal(t, []any{"UTR number is required for online payments"}, data["messages"])
}

func TestListByStudent_DefaultsToStudentYear(t *testing.T) {
	st := &studentModel.Student{StudentID: uuid.New(), StudentAcademicYear: " 2025-2026 "}
	lister := &stubLister{}
	app := newPaymentApp(&stubRecorder{}, lister, stubStudents{st.StudentID: st})

	status, body := do(t, app, fiber.MethodGet, "/students/"+st.StudentID.String()+"/payments", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "2025-2026", lister.year)
	assert.Len(t, body["data"].([]any), 1)

	status, _ = do(t, app, fiber.MethodGet, "/students/"+st.StudentID.String()+"/payments?academic_year=2023-2024", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "2023-2024", lister.year)

	status, _ = do(t, app, fiber.MethodGet, "/students/"+uuid.NewString()+"/payments", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
