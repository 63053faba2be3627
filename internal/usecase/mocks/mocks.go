package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cardledger/cardledger/internal/domain"
	"github.com/cardledger/cardledger/internal/usecase"
)

// MockTransaction is a mock implementation of usecase.Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	mu         sync.Mutex
	Committed  bool
	RolledBack bool
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of usecase.TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockIDGenerator is a mock implementation of usecase.IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string

	mu   sync.Mutex
	next int
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return fmt.Sprintf("id-%d", m.next)
}

// MockInstrumentRepository is a mock implementation of usecase.InstrumentRepository.
type MockInstrumentRepository struct {
	mu          sync.RWMutex
	instruments map[string]*domain.Instrument

	CreateFunc  func(ctx context.Context, instrument *domain.Instrument) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Instrument, error)
	ListFunc    func(ctx context.Context, limit, offset int) ([]*domain.Instrument, error)
}

func NewMockInstrumentRepository() *MockInstrumentRepository {
	return &MockInstrumentRepository{
		instruments: make(map[string]*domain.Instrument),
	}
}

func (m *MockInstrumentRepository) Create(ctx context.Context, instrument *domain.Instrument) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, instrument)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instruments[instrument.ID] = instrument
	return nil
}

func (m *MockInstrumentRepository) GetByID(ctx context.Context, id string) (*domain.Instrument, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if instrument, ok := m.instruments[id]; ok {
		return instrument, nil
	}
	return nil, domain.ErrInstrumentNotFound
}

func (m *MockInstrumentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Instrument, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	instruments := make([]*domain.Instrument, 0, len(m.instruments))
	for _, instrument := range m.instruments {
		instruments = append(instruments, instrument)
	}
	sort.Slice(instruments, func(i, j int) bool { return instruments[i].ID < instruments[j].ID })
	return instruments, nil
}

// MockInvoiceRepository is a mock implementation of usecase.InvoiceRepository.
// The default behavior keeps invoices in memory and applies AddToTotal under
// a mutex, mirroring the atomic increment contract of the real repository.
type MockInvoiceRepository struct {
	mu       sync.Mutex
	invoices map[string]*domain.Invoice
	byPeriod map[string]*domain.Invoice

	FindOrCreateFunc     func(ctx context.Context, tx usecase.Transaction, candidate *domain.Invoice) (*domain.Invoice, error)
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Invoice, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Invoice, error)
	ListByInstrumentFunc func(ctx context.Context, instrumentID string, limit, offset int) ([]*domain.Invoice, error)
	AddToTotalFunc       func(ctx context.Context, tx usecase.Transaction, id string, delta domain.Money, updatedAt time.Time) error
	UpdateStatusFunc     func(ctx context.Context, tx usecase.Transaction, id string, status domain.InvoiceStatus, paidAmount domain.Money, updatedAt time.Time) error
}

func NewMockInvoiceRepository() *MockInvoiceRepository {
	return &MockInvoiceRepository{
		invoices: make(map[string]*domain.Invoice),
		byPeriod: make(map[string]*domain.Invoice),
	}
}

func periodKey(instrumentID string, year int, month time.Month) string {
	return fmt.Sprintf("%s/%d-%02d", instrumentID, year, month)
}

func (m *MockInvoiceRepository) FindOrCreate(ctx context.Context, tx usecase.Transaction, candidate *domain.Invoice) (*domain.Invoice, error) {
	if m.FindOrCreateFunc != nil {
		return m.FindOrCreateFunc(ctx, tx, candidate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := periodKey(candidate.InstrumentID, candidate.Year, candidate.Month)
	if existing, ok := m.byPeriod[key]; ok {
		return existing, nil
	}
	stored := *candidate
	m.invoices[stored.ID] = &stored
	m.byPeriod[key] = &stored
	return &stored, nil
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if invoice, ok := m.invoices[id]; ok {
		copied := *invoice
		return &copied, nil
	}
	return nil, domain.ErrInvoiceNotFound
}

func (m *MockInvoiceRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Invoice, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockInvoiceRepository) ListByInstrument(ctx context.Context, instrumentID string, limit, offset int) ([]*domain.Invoice, error) {
	if m.ListByInstrumentFunc != nil {
		return m.ListByInstrumentFunc(ctx, instrumentID, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	invoices := make([]*domain.Invoice, 0)
	for _, invoice := range m.invoices {
		if invoice.InstrumentID == instrumentID {
			copied := *invoice
			invoices = append(invoices, &copied)
		}
	}
	sort.Slice(invoices, func(i, j int) bool {
		if invoices[i].Year != invoices[j].Year {
			return invoices[i].Year > invoices[j].Year
		}
		return invoices[i].Month > invoices[j].Month
	})
	return invoices, nil
}

func (m *MockInvoiceRepository) AddToTotal(ctx context.Context, tx usecase.Transaction, id string, delta domain.Money, updatedAt time.Time) error {
	if m.AddToTotalFunc != nil {
		return m.AddToTotalFunc(ctx, tx, id, delta, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	invoice, ok := m.invoices[id]
	if !ok {
		return domain.ErrInvoiceNotFound
	}
	invoice.TotalAmount += delta
	invoice.UpdatedAt = updatedAt
	return nil
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.InvoiceStatus, paidAmount domain.Money, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, paidAmount, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	invoice, ok := m.invoices[id]
	if !ok {
		return domain.ErrInvoiceNotFound
	}
	invoice.Status = status
	invoice.PaidAmount = paidAmount
	invoice.UpdatedAt = updatedAt
	return nil
}

// Invoice returns the stored invoice by ID, for assertions.
func (m *MockInvoiceRepository) Invoice(id string) *domain.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	if invoice, ok := m.invoices[id]; ok {
		copied := *invoice
		return &copied
	}
	return nil
}

// MockObligationRepository is a mock implementation of usecase.ObligationRepository.
type MockObligationRepository struct {
	mu          sync.Mutex
	obligations map[string]*domain.Obligation

	CreateFunc               func(ctx context.Context, tx usecase.Transaction, obligation *domain.Obligation) error
	GetByIDFunc              func(ctx context.Context, id string) (*domain.Obligation, error)
	GetByIDForUpdateFunc     func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Obligation, error)
	ListByGroupForUpdateFunc func(ctx context.Context, tx usecase.Transaction, groupID string) ([]*domain.Obligation, error)
	ListByInvoiceFunc        func(ctx context.Context, invoiceID string, limit, offset int) ([]*domain.Obligation, error)
	UpdateFunc               func(ctx context.Context, tx usecase.Transaction, obligation *domain.Obligation) error
	DeleteByGroupFunc        func(ctx context.Context, tx usecase.Transaction, groupID string) (int64, error)
}

func NewMockObligationRepository() *MockObligationRepository {
	return &MockObligationRepository{
		obligations: make(map[string]*domain.Obligation),
	}
}

func (m *MockObligationRepository) Create(ctx context.Context, tx usecase.Transaction, obligation *domain.Obligation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, obligation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *obligation
	m.obligations[obligation.ID] = &copied
	return nil
}

func (m *MockObligationRepository) GetByID(ctx context.Context, id string) (*domain.Obligation, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if obligation, ok := m.obligations[id]; ok {
		copied := *obligation
		return &copied, nil
	}
	return nil, domain.ErrObligationNotFound
}

func (m *MockObligationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Obligation, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockObligationRepository) ListByGroupForUpdate(ctx context.Context, tx usecase.Transaction, groupID string) ([]*domain.Obligation, error) {
	if m.ListByGroupForUpdateFunc != nil {
		return m.ListByGroupForUpdateFunc(ctx, tx, groupID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	members := make([]*domain.Obligation, 0)
	for _, obligation := range m.obligations {
		if obligation.GroupID == groupID {
			copied := *obligation
			members = append(members, &copied)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].SequenceIndex < members[j].SequenceIndex })
	return members, nil
}

func (m *MockObligationRepository) ListByInvoice(ctx context.Context, invoiceID string, limit, offset int) ([]*domain.Obligation, error) {
	if m.ListByInvoiceFunc != nil {
		return m.ListByInvoiceFunc(ctx, invoiceID, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obligations := make([]*domain.Obligation, 0)
	for _, obligation := range m.obligations {
		if obligation.InvoiceID == invoiceID {
			copied := *obligation
			obligations = append(obligations, &copied)
		}
	}
	sort.Slice(obligations, func(i, j int) bool { return obligations[i].ID < obligations[j].ID })
	return obligations, nil
}

func (m *MockObligationRepository) Update(ctx context.Context, tx usecase.Transaction, obligation *domain.Obligation) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, obligation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.obligations[obligation.ID]; !ok {
		return domain.ErrObligationNotFound
	}
	copied := *obligation
	m.obligations[obligation.ID] = &copied
	return nil
}

func (m *MockObligationRepository) DeleteByGroup(ctx context.Context, tx usecase.Transaction, groupID string) (int64, error) {
	if m.DeleteByGroupFunc != nil {
		return m.DeleteByGroupFunc(ctx, tx, groupID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, obligation := range m.obligations {
		if obligation.GroupID == groupID {
			delete(m.obligations, id)
			deleted++
		}
	}
	return deleted, nil
}

// Obligation returns the stored obligation by ID, for assertions.
func (m *MockObligationRepository) Obligation(id string) *domain.Obligation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if obligation, ok := m.obligations[id]; ok {
		copied := *obligation
		return &copied
	}
	return nil
}

// Len returns the number of stored obligations.
func (m *MockObligationRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.obligations)
}

// MockRefreshQueue is a mock implementation of usecase.RefreshQueue.
type MockRefreshQueue struct {
	PublishRefreshFunc func(ctx context.Context, invoiceID string) error

	mu        sync.Mutex
	Published []string
}

func NewMockRefreshQueue() *MockRefreshQueue {
	return &MockRefreshQueue{}
}

func (m *MockRefreshQueue) PublishRefresh(ctx context.Context, invoiceID string) error {
	if m.PublishRefreshFunc != nil {
		return m.PublishRefreshFunc(ctx, invoiceID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, invoiceID)
	return nil
}

// PublishedIDs returns a copy of the published invoice IDs.
func (m *MockRefreshQueue) PublishedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Published...)
}
