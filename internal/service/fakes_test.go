package service

import (
	"context"
	"strings"
	"time"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/repository"
)

// fakeState is shared in-memory storage backing every fake repository.
type fakeState struct {
	nextID int64

	rmas      map[int64]*domain.RmaRequest
	itemViews map[int64][]domain.RmaItemView

	activities []domain.ActivityLogEntry

	refunds     map[int64]*domain.Refund
	refundByRma map[int64]int64

	sales     map[int64]*domain.Sale
	saleItems map[int64][]domain.SaleItem

	products map[int64]*domain.Product

	notifications []domain.Notification
	users         map[int64]*domain.User

	metrics map[string]*domain.DailyMetric
}

func newFakeState() *fakeState {
	return &fakeState{
		rmas:        make(map[int64]*domain.RmaRequest),
		itemViews:   make(map[int64][]domain.RmaItemView),
		refunds:     make(map[int64]*domain.Refund),
		refundByRma: make(map[int64]int64),
		sales:       make(map[int64]*domain.Sale),
		saleItems:   make(map[int64][]domain.SaleItem),
		products:    make(map[int64]*domain.Product),
		users:       make(map[int64]*domain.User),
		metrics:     make(map[string]*domain.DailyMetric),
	}
}

func (s *fakeState) id() int64 {
	s.nextID++
	return s.nextID
}

type fakeStore struct {
	state *fakeState
}

func newFakeStore(state *fakeState) *fakeStore {
	return &fakeStore{state: state}
}

func (f *fakeStore) Repos() *repository.Repositories {
	s := f.state
	return &repository.Repositories{
		RMAs:          &fakeRMARepo{s},
		Activities:    &fakeActivityRepo{s},
		Refunds:       &fakeRefundRepo{s},
		Sales:         &fakeSaleRepo{s},
		Products:      &fakeProductRepo{s},
		Notifications: &fakeNotificationRepo{s},
		Users:         &fakeUserRepo{s},
		Metrics:       &fakeMetricsRepo{s},
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(*repository.Repositories) error) error {
	return fn(f.Repos())
}

func cloneRma(rma *domain.RmaRequest) *domain.RmaRequest {
	c := *rma
	return &c
}

type fakeRMARepo struct{ s *fakeState }

func (r *fakeRMARepo) Create(ctx context.Context, rma *domain.RmaRequest) error {
	rma.ID = r.s.id()
	rma.CreatedAt = time.Now()
	r.s.rmas[rma.ID] = cloneRma(rma)
	return nil
}

func (r *fakeRMARepo) GetByID(ctx context.Context, id int64) (*domain.RmaRequest, error) {
	rma, ok := r.s.rmas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRma(rma), nil
}

func (r *fakeRMARepo) GetByNumber(ctx context.Context, number string) (*domain.RmaRequest, error) {
	for _, rma := range r.s.rmas {
		if rma.RmaNumber != nil && *rma.RmaNumber == number {
			return cloneRma(rma), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRMARepo) FindActiveBySale(ctx context.Context, saleID int64) (*domain.RmaRequest, error) {
	for _, rma := range r.s.rmas {
		if rma.SaleID == saleID && !rma.Status.Terminal() {
			return cloneRma(rma), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRMARepo) ListByUser(ctx context.Context, userID int64, status domain.RmaStatus) ([]domain.RmaRequest, error) {
	var out []domain.RmaRequest
	for _, rma := range r.s.rmas {
		if rma.UserID == userID && (status == "" || rma.Status == status) {
			out = append(out, *rma)
		}
	}
	return out, nil
}

func (r *fakeRMARepo) CountNumbersWithPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	for _, rma := range r.s.rmas {
		if rma.RmaNumber != nil && strings.HasPrefix(*rma.RmaNumber, prefix) {
			count++
		}
	}
	return count, nil
}

func (r *fakeRMARepo) CreateItems(ctx context.Context, rmaID int64, items []domain.RmaItem) error {
	for i := range items {
		items[i].ID = r.s.id()
		items[i].RmaID = rmaID

		view := domain.RmaItemView{RmaItem: items[i]}
		if p, ok := r.s.products[items[i].ProductID]; ok {
			view.ProductName = p.Name
		}
		for _, si := range r.s.saleItems[r.s.rmas[rmaID].SaleID] {
			if si.ID == items[i].SaleItemID {
				view.PriceAtPurchaseCents = si.PriceCents
			}
		}
		r.s.itemViews[rmaID] = append(r.s.itemViews[rmaID], view)
	}
	return nil
}

func (r *fakeRMARepo) ListItems(ctx context.Context, rmaID int64) ([]domain.RmaItem, error) {
	var out []domain.RmaItem
	for _, v := range r.s.itemViews[rmaID] {
		out = append(out, v.RmaItem)
	}
	return out, nil
}

func (r *fakeRMARepo) ListItemViews(ctx context.Context, rmaID int64) ([]domain.RmaItemView, error) {
	return r.s.itemViews[rmaID], nil
}

// save replaces the stored aggregate when its current status is in the guard
// set, mirroring the status-guarded UPDATE of the real repository.
func (r *fakeRMARepo) save(rma *domain.RmaRequest, from []domain.RmaStatus) error {
	stored, ok := r.s.rmas[rma.ID]
	if !ok {
		return repository.ErrStatusConflict
	}
	for _, s := range from {
		if stored.Status == s {
			if stored.RmaNumber != nil && rma.RmaNumber == nil {
				rma.RmaNumber = stored.RmaNumber
			}
			r.s.rmas[rma.ID] = cloneRma(rma)
			return nil
		}
	}
	return repository.ErrStatusConflict
}

func (r *fakeRMARepo) SaveValidation(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error {
	return r.save(rma, []domain.RmaStatus{from})
}

func (r *fakeRMARepo) SaveShipping(ctx context.Context, rma *domain.RmaRequest, from []domain.RmaStatus) error {
	return r.save(rma, from)
}

func (r *fakeRMARepo) SaveReceived(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error {
	return r.save(rma, []domain.RmaStatus{from})
}

func (r *fakeRMARepo) SaveInspectionStart(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error {
	return r.save(rma, []domain.RmaStatus{from})
}

func (r *fakeRMARepo) SaveInspectionResult(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error {
	return r.save(rma, []domain.RmaStatus{from})
}

func (r *fakeRMARepo) SaveDisposition(ctx context.Context, rma *domain.RmaRequest, from []domain.RmaStatus) error {
	return r.save(rma, from)
}

func (r *fakeRMARepo) SaveRefundAmount(ctx context.Context, rma *domain.RmaRequest, from domain.RmaStatus) error {
	return r.save(rma, []domain.RmaStatus{from})
}

func (r *fakeRMARepo) SaveStatus(ctx context.Context, rma *domain.RmaRequest, from []domain.RmaStatus) error {
	return r.save(rma, from)
}

type fakeActivityRepo struct{ s *fakeState }

func (r *fakeActivityRepo) Append(ctx context.Context, entry *domain.ActivityLogEntry) error {
	entry.ID = r.s.id()
	entry.CreatedAt = time.Now()
	r.s.activities = append(r.s.activities, *entry)
	return nil
}

func (r *fakeActivityRepo) ListByRMA(ctx context.Context, rmaID int64) ([]domain.ActivityLogEntry, error) {
	var out []domain.ActivityLogEntry
	for _, e := range r.s.activities {
		if e.RmaID == rmaID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeRefundRepo struct{ s *fakeState }

func (r *fakeRefundRepo) Create(ctx context.Context, refund *domain.Refund) error {
	if _, exists := r.s.refundByRma[refund.RmaID]; exists {
		return repository.ErrStatusConflict
	}
	refund.ID = r.s.id()
	refund.CreatedAt = time.Now()
	c := *refund
	r.s.refunds[refund.ID] = &c
	r.s.refundByRma[refund.RmaID] = refund.ID
	return nil
}

func (r *fakeRefundRepo) GetByID(ctx context.Context, id int64) (*domain.Refund, error) {
	refund, ok := r.s.refunds[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *refund
	return &c, nil
}

func (r *fakeRefundRepo) GetByRmaID(ctx context.Context, rmaID int64) (*domain.Refund, error) {
	id, ok := r.s.refundByRma[rmaID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *fakeRefundRepo) SaveResult(ctx context.Context, refund *domain.Refund) error {
	c := *refund
	r.s.refunds[refund.ID] = &c
	return nil
}

type fakeSaleRepo struct{ s *fakeState }

func (r *fakeSaleRepo) GetByID(ctx context.Context, id int64) (*domain.Sale, error) {
	sale, ok := r.s.sales[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *sale
	return &c, nil
}

func (r *fakeSaleRepo) GetForUser(ctx context.Context, saleID, userID int64) (*domain.Sale, error) {
	sale, ok := r.s.sales[saleID]
	if !ok || sale.UserID != userID {
		return nil, repository.ErrNotFound
	}
	c := *sale
	return &c, nil
}

func (r *fakeSaleRepo) UpdateStatus(ctx context.Context, saleID int64, status domain.SaleStatus) error {
	sale, ok := r.s.sales[saleID]
	if !ok {
		return repository.ErrNotFound
	}
	sale.Status = status
	return nil
}

func (r *fakeSaleRepo) CreateWithItems(ctx context.Context, sale *domain.Sale, items []domain.SaleItem) error {
	sale.ID = r.s.id()
	c := *sale
	r.s.sales[sale.ID] = &c
	for i := range items {
		items[i].ID = r.s.id()
		items[i].SaleID = sale.ID
	}
	r.s.saleItems[sale.ID] = append([]domain.SaleItem(nil), items...)
	return nil
}

type fakeProductRepo struct{ s *fakeState }

func (r *fakeProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakeProductRepo) AdjustStock(ctx context.Context, productID, delta int64) error {
	p, ok := r.s.products[productID]
	if !ok || p.Stock+delta < 0 {
		return repository.ErrStatusConflict
	}
	p.Stock += delta
	return nil
}

type fakeNotificationRepo struct{ s *fakeState }

func (r *fakeNotificationRepo) Create(ctx context.Context, note *domain.Notification) error {
	note.ID = r.s.id()
	note.CreatedAt = time.Now()
	r.s.notifications = append(r.s.notifications, *note)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID, limit, offset int64) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, id, userID int64) error {
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == id && r.s.notifications[i].UserID == userID {
			r.s.notifications[i].Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeUserRepo struct{ s *fakeState }

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *u
	return &c, nil
}

type fakeMetricsRepo struct{ s *fakeState }

func (r *fakeMetricsRepo) IncrementClosed(ctx context.Context, metricDate string) error {
	m, ok := r.s.metrics[metricDate]
	if !ok {
		m = &domain.DailyMetric{MetricDate: metricDate}
		r.s.metrics[metricDate] = m
	}
	m.TotalRequests++
	m.CompletedRequests++
	return nil
}

func (r *fakeMetricsRepo) ListRange(ctx context.Context, startDate, endDate string) ([]domain.DailyMetric, error) {
	var out []domain.DailyMetric
	for _, m := range r.s.metrics {
		if startDate != "" && m.MetricDate < startDate {
			continue
		}
		if endDate != "" && m.MetricDate > endDate {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

// recordingNotifier captures every notifier call, still writing the in-app
// rows through the real composition path.
type recordingNotifier struct {
	statusChanges []domain.RmaStatus
	emails        []string
}

func (n *recordingNotifier) RecordStatusChange(ctx context.Context, repos *repository.Repositories, rma *domain.RmaRequest, oldStatus, newStatus domain.RmaStatus) {
	n.statusChanges = append(n.statusChanges, newStatus)
	title, message := composeStatusMessage(rma, newStatus)
	if title == "" {
		return
	}
	_ = repos.Notifications.Create(ctx, &domain.Notification{
		UserID:  rma.UserID,
		RmaID:   rma.ID,
		Title:   title,
		Message: message,
	})
}

func (n *recordingNotifier) SendStatusEmail(ctx context.Context, rma *domain.RmaRequest, eventType, details string) {
	n.emails = append(n.emails, eventType)
}
