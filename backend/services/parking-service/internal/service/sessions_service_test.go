package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"parkgate/backend/services/parking-service/internal/clients"
	"parkgate/backend/services/parking-service/internal/models"
	"parkgate/backend/services/parking-service/internal/pricing"
	"parkgate/backend/services/parking-service/internal/repository"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (*models.ParkingSession, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.ParkingSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetActiveByPlate(ctx context.Context, plate string) (*models.ParkingSession, error) {
	args := m.Called(ctx, plate)
	if s := args.Get(0); s != nil {
		return s.(*models.ParkingSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetByLot(ctx context.Context, lotID int64) ([]models.ParkingSession, error) {
	args := m.Called(ctx, lotID)
	if s := args.Get(0); s != nil {
		return s.([]models.ParkingSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetByPlate(ctx context.Context, plate string) ([]models.ParkingSession, error) {
	args := m.Called(ctx, plate)
	if s := args.Get(0); s != nil {
		return s.([]models.ParkingSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetByStatus(ctx context.Context, status models.PaymentStatus) ([]models.ParkingSession, error) {
	args := m.Called(ctx, status)
	if s := args.Get(0); s != nil {
		return s.([]models.ParkingSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetAll(ctx context.Context) ([]models.ParkingSession, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.([]models.ParkingSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetActive(ctx context.Context) ([]models.ParkingSession, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.([]models.ParkingSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetRecentByPlate(ctx context.Context, plate string, within time.Duration) ([]models.ParkingSession, error) {
	args := m.Called(ctx, plate, within)
	if s := args.Get(0); s != nil {
		return s.([]models.ParkingSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) CreateWithID(ctx context.Context, s *models.ParkingSession) (bool, int64, error) {
	args := m.Called(ctx, s)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}

func (m *mockStore) Update(ctx context.Context, s *models.ParkingSession, patch models.SessionPatch) (bool, error) {
	args := m.Called(ctx, s, patch)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, s *models.ParkingSession) (bool, error) {
	args := m.Called(ctx, s)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockLots struct {
	mock.Mock
}

func (m *mockLots) GetByID(ctx context.Context, id int64) (*models.ParkingLot, error) {
	args := m.Called(ctx, id)
	if l := args.Get(0); l != nil {
		return l.(*models.ParkingLot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLots) UpdateReserved(ctx context.Context, lot *models.ParkingLot) error {
	args := m.Called(ctx, lot)
	return args.Error(0)
}

type mockPlates struct {
	mock.Mock
}

func (m *mockPlates) GetByUser(ctx context.Context, userID int64) ([]models.UserPlate, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.([]models.UserPlate), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPricing struct {
	mock.Mock
}

func (m *mockPricing) CalculateCost(lot *models.ParkingLot, start, stop time.Time) (pricing.Quote, error) {
	args := m.Called(lot, start, stop)
	return args.Get(0).(pricing.Quote), args.Error(1)
}

type mockPreAuth struct {
	mock.Mock
}

func (m *mockPreAuth) Preauthorize(ctx context.Context, cardToken string, amount decimal.Decimal, simulateDecline bool) (clients.PreAuthDecision, error) {
	args := m.Called(ctx, cardToken, amount, simulateDecline)
	return args.Get(0).(clients.PreAuthDecision), args.Error(1)
}

type mockGate struct {
	mock.Mock
}

func (m *mockGate) OpenGate(ctx context.Context, lotID int64, plate string) (bool, error) {
	args := m.Called(ctx, lotID, plate)
	return args.Bool(0), args.Error(1)
}

type engineMocks struct {
	store   *mockStore
	lots    *mockLots
	plates  *mockPlates
	pricing *mockPricing
	preAuth *mockPreAuth
	gate    *mockGate
}

func newEngine(t *testing.T) (*SessionsService, *engineMocks) {
	t.Helper()
	m := &engineMocks{
		store:   &mockStore{},
		lots:    &mockLots{},
		plates:  &mockPlates{},
		pricing: &mockPricing{},
		preAuth: &mockPreAuth{},
		gate:    &mockGate{},
	}
	svc := NewSessionsService(Collaborators{
		Store:   m.store,
		Lots:    m.lots,
		Plates:  m.plates,
		Pricing: m.pricing,
		Gate:    m.gate,
		PreAuth: m.preAuth,
	}, zap.NewNop())
	return svc, m
}

func (m *engineMocks) assertExpectations(t *testing.T) {
	t.Helper()
	m.store.AssertExpectations(t)
	m.lots.AssertExpectations(t)
	m.plates.AssertExpectations(t)
	m.pricing.AssertExpectations(t)
	m.preAuth.AssertExpectations(t)
	m.gate.AssertExpectations(t)
}

func testLot(capacity, reserved int) *models.ParkingLot {
	return &models.ParkingLot{
		ID:        7,
		Capacity:  capacity,
		Reserved:  reserved,
		Tariff:    decimal.NewFromInt(2),
		DayTariff: decimal.NewFromInt(20),
		Version:   3,
	}
}

func approved() clients.PreAuthDecision {
	return clients.PreAuthDecision{Approved: true}
}

func TestStartSessionSuccess(t *testing.T) {
	svc, m := newEngine(t)
	ctx := context.Background()
	lot := testLot(10, 4)

	m.lots.On("GetByID", ctx, int64(7)).Return(lot, nil)
	m.store.On("GetActiveByPlate", ctx, "AB-12-CD").Return(nil, repository.ErrSessionNotFound)
	m.preAuth.On("Preauthorize", ctx, "tok_1", mock.Anything, false).Return(approved(), nil)
	m.lots.On("UpdateReserved", ctx, lot).Return(nil)
	m.store.On("CreateWithID", ctx, mock.Anything).Return(true, int64(99), nil)
	m.gate.On("OpenGate", ctx, int64(7), "AB-12-CD").Return(true, nil)

	result := svc.StartSession(ctx, StartSessionInput{
		LotID:           7,
		LicensePlate:    "ab-12-cd",
		CardToken:       "tok_1",
		EstimatedAmount: decimal.NewFromInt(10),
	})

	success, ok := result.(StartSuccess)
	require.True(t, ok, "expected StartSuccess, got %T", result)
	assert.Equal(t, int64(99), success.Session.ID)
	assert.Equal(t, "AB-12-CD", success.Session.LicensePlate)
	assert.Equal(t, models.PaymentPreAuthorized, success.Session.PaymentStatus)
	assert.Equal(t, 5, lot.Reserved, "reserved must grow by one")
	assert.Equal(t, 5, success.AvailableSpots)

	m.gate.AssertNumberOfCalls(t, "OpenGate", 1)
	m.assertExpectations(t)
}

func TestStartSessionLotNotFound(t *testing.T) {
	svc, m := newEngine(t)
	ctx := context.Background()

	m.lots.On("GetByID", ctx, int64(7)).Return(nil, repository.ErrLotNotFound)

	result := svc.StartSession(ctx, StartSessionInput{LotID: 7, LicensePlate: "AB-12-CD"})
	assert.IsType(t, StartLotNotFound{}, result)

	m.preAuth.AssertNotCalled(t, "Preauthorize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.store.AssertNotCalled(t, "CreateWithID", mock.Anything, mock.Anything)
}

func TestStartSessionLotFullSkipsPaymentAndStore(t *testing.T) {
	svc, m := newEngine(t)
	ctx := context.Background()

	m.lots.On("GetByID", ctx, int64(7)).Return(testLot(4, 4), nil)

	result := svc.StartSession(ctx, StartSessionInput{LotID: 7, LicensePlate: "AB-12-CD"})
	assert.IsType(t, StartLotFull{}, result)

	m.preAuth.AssertNotCalled(t, "Preauthorize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.store.AssertNotCalled(t, "GetActiveByPlate", mock.Anything, mock.Anything)
	m.store.AssertNotCalled(t, "CreateWithID", mock.Anything, mock.Anything)
	m.lots.AssertNotCalled(t, "UpdateReserved", mock.Anything, mock.Anything)
}

func TestStartSessionAlreadyActive(t *testing.T) {
	svc, m := newEngine(t)
	ctx := context.Background()

	m.lots.On("GetByID", ctx, int64(7)).Return(testLot(10, 4), nil)
	m.store.On("GetActiveByPlate", ctx, "AB-12-CD").
		Return(&models.ParkingSession{ID: 5, LicensePlate: "AB-12-CD"}, nil)

	result := svc.StartSession(ctx, StartSessionInput{LotID: 7, LicensePlate: "AB-12-CD"})
	assert.IsType(t, StartAlreadyActive{}, result)

	m.preAuth.AssertNotCalled(t, "Preauthorize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.store.AssertNotCalled(t, "CreateWithID", mock.Anything, mock.Anything)
	m.lots.AssertNotCalled(t, "UpdateReserved", mock.Anything, mock.Anything)
}

func TestStartSessionPreAuthDeclined(t *testing.T) {
	svc, m := newEngine(t)
	ctx := context.Background()

	m.lots.On("GetByID", ctx, int64(7)).Return(testLot(10, 4), nil)
	m.store.On("GetActiveByPlate", ctx, "AB-12-CD").Return(nil, repository.ErrSessionNotFound)
	m.preAuth.On("Preauthorize", ctx, "tok_1", mock.Anything, true).
		Return(clients.PreAuthDecision{Approved: false}, nil)

	result := svc.StartSession(ctx, StartSessionInput{
		LotID:           7,
		LicensePlate:    "AB-12-CD",
		CardToken:       "tok_1",
		SimulateDecline: true,
	})

	declined, ok := result.(StartPreAuthFailed)
	require.True(t, ok, "expected StartPreAuthFailed, got %T", result)
	assert.Equal(t, "Card declined", declined.Reason)

	m.lots.AssertNotCalled(t, "UpdateReserved", mock.Anything, mock.Anything)
	m.store.AssertNotCalled(t, "CreateWithID", mock.Anything, mock.Anything)
}

func TestStartSessionPersistFailureReleasesCapacity(t *testing.T) {
	svc, m := newEngine(t)
	ctx := context.Background()
	lot := testLot(10, 4)

	m.lots.On("GetByID", ctx, int64(7)).Return(lot, nil)
	m.store.On("GetActiveByPlate", ctx, "AB-12-CD").Return(nil, repository.ErrSessionNotFound)
	m.preAuth.On("Preauthorize", ctx, "tok_1", mock.Anything, false).Return(approved(), nil)
	m.lots.On("UpdateReserved", ctx, lot).Return(nil).Twice()
	m.store.On("CreateWithID", ctx, mock.Anything).Return(false, int64(0), nil)

	result := svc.StartSession(ctx, StartSessionInput{
		LotID:        7,
		LicensePlate: "AB-12-CD",
		CardToken:    "tok_1",
	})

	startErr, ok := result.(StartError)
	require.True(t, ok, "expected StartError, got %T", result)
	assert.Equal(t, "Failed to persist parking session (database error).", startErr.Message)
	assert.Equal(t, 4, lot.Reserved, "reservation must be released")

	m.gate.AssertNotCalled(t, "OpenGate", mock.Anything, mock.Anything, mock.Anything)
	m.assertExpectations(t)
}

func TestStartSessionGateFailureRollsBackEverything(t *testing.T) {
	svc, m := newEngine(t)
	ctx := context.Background()
	lot := testLot(10, 4)

	m.lots.On("GetByID", ctx, int64(7)).Return(lot, nil)
	m.store.On("GetActiveByPlate", ctx, "AB-12-CD").Return(nil, repository.ErrSessionNotFound)
	m.preAuth.On("Preauthorize", ctx, "tok_1", mock.Anything, false).Return(approved(), nil)
	m.lots.On("UpdateReserved", ctx, lot).Return(nil).Twice()
	m.store.On("CreateWithID", ctx, mock.Anything).Return(true, int64(99), nil)
	m.gate.On("OpenGate", ctx, int64(7), "AB-12-CD").Return(false, errors.New("controller offline"))
	m.store.On("Delete", ctx, mock.MatchedBy(func(s *models.ParkingSession) bool {
		return s.ID == 99
	})).Return(true, nil)

	result := svc.StartSession(ctx, StartSessionInput{
		LotID:        7,
		LicensePlate: "AB-12-CD",
		CardToken:    "tok_1",
	})

	startErr, ok := result.(StartError)
	require.True(t, ok, "expected StartError, got %T", result)
	assert.Contains(t, startErr.Message, "Failed to open gate: ")
	assert.Equal(t, 4, lot.Reserved, "reservation must be restored after rollback")

	m.store.AssertNumberOfCalls(t, "Delete", 1)
	m.assertExpectations(t)
}

func TestStopSessionSuccess(t *testing.T) {
	svc, m := newEngine(t)
	ctx := context.Background()
	lot := testLot(10, 5)
	started := time.Now().UTC().Add(-2 * time.Hour)
	active := &models.ParkingSession{
		ID:            99,
		LotID:         7,
		LicensePlate:  "AB-12-CD",
		Started:       started,
		PaymentStatus: models.PaymentPreAuthorized,
	}
	price := decimal.NewFromInt(4)

	m.store.On("GetActiveByPlate", ctx, "AB-12-CD").Return(active, nil)
	m.lots.On("GetByID", ctx, int64(7)).Return(lot, nil)
	m.pricing.On("CalculateCost", lot, started, mock.Anything).
		Return(pricing.Quote{Price: price, BillableHours: 2}, nil)
	m.preAuth.On("Preauthorize", ctx, "tok_1", price, false).Return(approved(), nil)
	m.store.On("Update", ctx, active, mock.Anything).Return(true, nil)
	m.gate.On("OpenGate", ctx, int64(7), "AB-12-CD").Return(true, nil)

	result := svc.StopSession(ctx, StopSessionInput{LicensePlate: "AB-12-CD", CardToken: "tok_1"})

	success, ok := result.(StopSuccess)
	require.True(t, ok, "expected StopSuccess, got %T", result)
	assert.True(t, price.Equal(success.Amount))
	require.NotNil(t, success.Session.Stopped)
	require.NotNil(t, success.Session.Cost)
	assert.True(t, price.Equal(*success.Session.Cost))
	assert.Equal(t, models.PaymentPaid, success.Session.PaymentStatus)

	m.store.AssertNumberOfCalls(t, "Update", 1)
	m.gate.AssertNumberOfCalls(t, "OpenGate", 1)
	m.assertExpectations(t)
}

func TestStopSessionGateFailureRevertsFields(t *testing.T) {
	svc, m := newEngine(t)
	ctx := context.Background()
	lot := testLot(10, 5)
	started := time.Now().UTC().Add(-90 * time.Minute)
	active := &models.ParkingSession{
		ID:            99,
		LotID:         7,
		LicensePlate:  "AB-12-CD",
		Started:       started,
		PaymentStatus: models.PaymentPreAuthorized,
	}
	price := decimal.NewFromInt(4)

	m.store.On("GetActiveByPlate", ctx, "AB-12-CD").Return(active, nil)
	m.lots.On("GetByID", ctx, int64(7)).Return(lot, nil)
	m.pricing.On("CalculateCost", lot, started, mock.Anything).
		Return(pricing.Quote{Price: price, BillableHours: 2}, nil)
	m.preAuth.On("Preauthorize", ctx, "tok_1", price, false).Return(approved(), nil)
	m.store.On("Update", ctx, active, mock.Anything).Return(true, nil)
	m.gate.On("OpenGate", ctx, int64(7), "AB-12-CD").Return(false, nil)

	result := svc.StopSession(ctx, StopSessionInput{LicensePlate: "AB-12-CD", CardToken: "tok_1"})

	stopErr, ok := result.(StopError)
	require.True(t, ok, "expected StopError, got %T", result)
	assert.Contains(t, stopErr.Message, "Payment successful but gate error: ")

	// finalize then revert
	m.store.AssertNumberOfCalls(t, "Update", 2)
	assert.Nil(t, active.Stopped, "stop time must be reverted")
	assert.Nil(t, active.Cost, "cost must be reverted")
	assert.Equal(t, models.PaymentPreAuthorized, active.PaymentStatus)
	m.assertExpectations(t)
}

func TestStopSessionTwice(t *testing.T) {
	svc, m := newEngine(t)
	ctx := context.Background()
	lot := testLot(10, 5)
	started := time.Now().UTC().Add(-time.Hour)
	active := &models.ParkingSession{
		ID:            99,
		LotID:         7,
		LicensePlate:  "AB-12-CD",
		Started:       started,
		PaymentStatus: models.PaymentPreAuthorized,
	}
	price := decimal.NewFromInt(2)

	m.store.On("GetActiveByPlate", ctx, "AB-12-CD").Return(active, nil)
	m.lots.On("GetByID", ctx, int64(7)).Return(lot, nil)
	m.pricing.On("CalculateCost", lot, started, mock.Anything).
		Return(pricing.Quote{Price: price, BillableHours: 1}, nil)
	m.preAuth.On("Preauthorize", ctx, "tok_1", price, false).Return(approved(), nil).Once()
	m.store.On("Update", ctx, active, mock.Anything).Return(true, nil)
	m.gate.On("OpenGate", ctx, int64(7), "AB-12-CD").Return(true, nil).Once()

	first := svc.StopSession(ctx, StopSessionInput{LicensePlate: "AB-12-CD", CardToken: "tok_1"})
	require.IsType(t, StopSuccess{}, first)

	// The second stop finds the already-finalized record.
	second := svc.StopSession(ctx, StopSessionInput{LicensePlate: "AB-12-CD", CardToken: "tok_1"})
	assert.IsType(t, StopAlreadyStopped{}, second)

	m.preAuth.AssertNumberOfCalls(t, "Preauthorize", 1)
	m.gate.AssertNumberOfCalls(t, "OpenGate", 1)
}

func TestStopSessionPlateNotFound(t *testing.T) {
	svc, m := newEngine(t)
	ctx := context.Background()

	m.store.On("GetActiveByPlate", ctx, "ZZ-00-XX").Return(nil, repository.ErrSessionNotFound)

	result := svc.StopSession(ctx, StopSessionInput{LicensePlate: "zz-00-xx"})
	assert.IsType(t, StopPlateNotFound{}, result)
}

func TestStopSessionPaymentDeclined(t *testing.T) {
	svc, m := newEngine(t)
	ctx := context.Background()
	lot := testLot(10, 5)
	started := time.Now().UTC().Add(-time.Hour)
	active := &models.ParkingSession{
		ID:            99,
		LotID:         7,
		LicensePlate:  "AB-12-CD",
		Started:       started,
		PaymentStatus: models.PaymentPreAuthorized,
	}

	m.store.On("GetActiveByPlate", ctx, "AB-12-CD").Return(active, nil)
	m.lots.On("GetByID", ctx, int64(7)).Return(lot, nil)
	m.pricing.On("CalculateCost", lot, started, mock.Anything).
		Return(pricing.Quote{Price: decimal.NewFromInt(2), BillableHours: 1}, nil)
	m.preAuth.On("Preauthorize", ctx, "tok_1", mock.Anything, false).
		Return(clients.PreAuthDecision{Approved: false, Reason: "insufficient funds"}, nil)

	result := svc.StopSession(ctx, StopSessionInput{LicensePlate: "AB-12-CD", CardToken: "tok_1"})

	failed, ok := result.(StopPaymentFailed)
	require.True(t, ok, "expected StopPaymentFailed, got %T", result)
	assert.Equal(t, "insufficient funds", failed.Reason)

	m.store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	m.gate.AssertNotCalled(t, "OpenGate", mock.Anything, mock.Anything, mock.Anything)
	assert.Nil(t, active.Stopped)
	assert.Equal(t, models.PaymentPreAuthorized, active.PaymentStatus)
}
