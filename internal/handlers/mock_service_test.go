package handlers

import (
	"context"
	"net/http"
	"sync"

	"valve_control/internal/models"
	"valve_control/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockValves struct {
	mu         sync.Mutex
	valve      models.Valve
	err        error
	created    []string
	deleted    []int
	lastNumber int
	lastStatus models.AutomationStatus
}

func (m *mockValves) Create(ctx context.Context, number int, name string) (models.Valve, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastNumber = number
	m.created = append(m.created, name)
	return models.NewValve(number, name), m.err
}
func (m *mockValves) Delete(ctx context.Context, number int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, number)
	return m.err
}
func (m *mockValves) Get(ctx context.Context, number int) (models.Valve, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastNumber = number
	return m.valve, m.err
}
func (m *mockValves) SetAutomationStatus(ctx context.Context, number int, st models.AutomationStatus) (models.Valve, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastNumber = number
	m.lastStatus = st
	v := m.valve
	v.AutomationStatus = st
	return v, m.err
}

type mockSchedule struct {
	mu      sync.Mutex
	err     error
	added   []models.ScheduleEntry
	removed []models.ScheduleEntry
}

func (m *mockSchedule) AddEntry(ctx context.Context, number int, e models.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, e)
	return m.err
}
func (m *mockSchedule) RemoveEntry(ctx context.Context, number int, e models.ScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, e)
	return m.err
}

type mockMonitoring struct {
	valves []models.Valve
	err    error
}

func (m *mockMonitoring) Snapshot(ctx context.Context) ([]models.Valve, error) {
	return m.valves, m.err
}

type mockEventLog struct {
	resp   []models.ValveEvent
	err    error
	filter service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ValveEvent, error) {
	m.filter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, Config{})
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
