package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-booking-api/internal/models"
	"github.com/noah-isme/edu-booking-api/internal/repository"
	appErrors "github.com/noah-isme/edu-booking-api/pkg/errors"
)

var wib = time.FixedZone("WIB", 7*60*60)

// serialTx runs one transaction at a time, which is what the day locks guarantee for a single person.
type serialTx struct {
	mu    sync.Mutex
	calls int
	opts  []*sql.TxOptions
}

func (t *serialTx) WithinTx(ctx context.Context, opts *sql.TxOptions, fn func(exec sqlx.ExtContext) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	t.opts = append(t.opts, opts)
	return fn(nil)
}

// schedulingStore is an in-memory stand-in for the scheduling tables.
type schedulingStore struct {
	mu          sync.Mutex
	seq         int
	providers   map[string]*models.Provider
	requests    map[string]*models.BookingRequest
	sessions    map[string]*models.ScheduledSession
	details     map[string]*models.SessionDetail
	bookings    map[string]*models.RecurringBooking
	reschedules map[string]*models.Reschedule
	rules       map[string]*models.RecurringAvailabilityRule
	exceptions  map[string]*models.AvailabilityException
	locked      []string
}

func newSchedulingStore() *schedulingStore {
	return &schedulingStore{
		providers:   map[string]*models.Provider{},
		requests:    map[string]*models.BookingRequest{},
		sessions:    map[string]*models.ScheduledSession{},
		details:     map[string]*models.SessionDetail{},
		bookings:    map[string]*models.RecurringBooking{},
		reschedules: map[string]*models.Reschedule{},
		rules:       map[string]*models.RecurringAvailabilityRule{},
		exceptions:  map[string]*models.AvailabilityException{},
	}
}

func (s *schedulingStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *schedulingStore) addProvider(id, personID string, role models.ProviderRole) *models.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	provider := &models.Provider{ID: id, PersonID: personID, Role: role, DisplayName: id, IsActive: true}
	s.providers[id] = provider
	return provider
}

func (s *schedulingStore) addSession(providerID string, start time.Time, minutes int) *models.ScheduledSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := &models.ScheduledSession{
		ID:              s.nextID("session"),
		ProviderID:      providerID,
		ScheduledAt:     start,
		DurationMinutes: minutes,
		Status:          models.SessionScheduled,
	}
	s.sessions[session.ID] = session
	return session
}

func (s *schedulingStore) addBooking(booking models.RecurringBooking) *models.RecurringBooking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if booking.ID == "" {
		booking.ID = s.nextID("booking")
	}
	s.bookings[booking.ID] = &booking
	return &booking
}

func (s *schedulingStore) addReschedule(reschedule models.Reschedule) *models.Reschedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reschedule.ID == "" {
		reschedule.ID = s.nextID("reschedule")
	}
	s.reschedules[reschedule.ID] = &reschedule
	return &reschedule
}

func (s *schedulingStore) addRequest(request models.BookingRequest) *models.BookingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if request.ID == "" {
		request.ID = s.nextID("request")
	}
	if request.Status == "" {
		request.Status = models.BookingRequestPending
	}
	s.requests[request.ID] = &request
	return &request
}

func (s *schedulingStore) request(id string) models.BookingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.requests[id]
}

func (s *schedulingStore) session(id string) models.ScheduledSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.sessions[id]
}

func (s *schedulingStore) booking(id string) models.RecurringBooking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.bookings[id]
}

func (s *schedulingStore) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *schedulingStore) LockPersonDays(ctx context.Context, exec sqlx.ExtContext, personID string, dates ...models.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, date := range dates {
		s.locked = append(s.locked, personID+":"+date.String())
	}
	return nil
}

type fakeProviders struct{ *schedulingStore }

func (f fakeProviders) Create(ctx context.Context, provider *models.Provider) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.providers {
		if existing.PersonID == provider.PersonID && existing.Role == provider.Role {
			return repository.ErrDuplicate
		}
	}
	provider.ID = f.nextID("provider")
	provider.IsActive = true
	copied := *provider
	f.providers[provider.ID] = &copied
	return nil
}

func (f fakeProviders) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	provider, ok := f.providers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *provider
	return &copied, nil
}

func (f fakeProviders) ListByPerson(ctx context.Context, personID string) ([]models.Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Provider
	for _, provider := range f.providers {
		if provider.PersonID == personID {
			result = append(result, *provider)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Role < result[j].Role })
	return result, nil
}

func (f fakeProviders) Deactivate(ctx context.Context, exec sqlx.ExtContext, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	provider, ok := f.providers[id]
	if !ok {
		return sql.ErrNoRows
	}
	provider.IsActive = false
	return nil
}

type fakeRequests struct{ *schedulingStore }

func (f fakeRequests) Create(ctx context.Context, request *models.BookingRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	request.ID = f.nextID("request")
	copied := *request
	f.requests[request.ID] = &copied
	return nil
}

func (f fakeRequests) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.BookingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *request
	return &copied, nil
}

func (f fakeRequests) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.BookingRequest, error) {
	return f.FindByID(ctx, exec, id)
}

func (f fakeRequests) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.BookingRequestStatus, declineReason *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	request, ok := f.requests[id]
	if !ok || request.Status != from {
		return sql.ErrNoRows
	}
	request.Status = to
	request.DeclineReason = declineReason
	return nil
}

func (f fakeRequests) List(ctx context.Context, filter models.BookingRequestFilter) ([]models.BookingRequest, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.BookingRequest
	for _, request := range f.requests {
		if filter.ProviderID != "" && request.ProviderID != filter.ProviderID {
			continue
		}
		if filter.RequesterID != "" && request.RequesterID != filter.RequesterID {
			continue
		}
		if filter.Status != "" && request.Status != filter.Status {
			continue
		}
		result = append(result, *request)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, len(result), nil
}

func (f fakeRequests) ExpirePending(ctx context.Context, now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, request := range f.requests {
		if request.Status == models.BookingRequestPending && !request.ExpiryAt.After(now) {
			request.Status = models.BookingRequestExpired
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f fakeRequests) DeclinePendingByProvider(ctx context.Context, exec sqlx.ExtContext, providerID, reason string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, request := range f.requests {
		if request.ProviderID == providerID && request.Status == models.BookingRequestPending {
			request.Status = models.BookingRequestDeclined
			request.DeclineReason = stringPtr(reason)
			count++
		}
	}
	return count, nil
}

type fakeSessions struct{ *schedulingStore }

func (f fakeSessions) Create(ctx context.Context, exec sqlx.ExtContext, session *models.ScheduledSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session.ID = f.nextID("session")
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f fakeSessions) CreateDetail(ctx context.Context, exec sqlx.ExtContext, detail *models.SessionDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *detail
	f.details[detail.SessionID] = &copied
	return nil
}

func (f fakeSessions) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduledSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *session
	return &copied, nil
}

func (f fakeSessions) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduledSession, error) {
	return f.FindByID(ctx, exec, id)
}

func (f fakeSessions) close(id string, to models.SessionStatus, apply func(*models.ScheduledSession)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[id]
	if !ok || session.Status != models.SessionScheduled {
		return sql.ErrNoRows
	}
	session.Status = to
	apply(session)
	return nil
}

func (f fakeSessions) Cancel(ctx context.Context, exec sqlx.ExtContext, id, reason string) error {
	return f.close(id, models.SessionCancelled, func(s *models.ScheduledSession) { s.CancellationReason = &reason })
}

func (f fakeSessions) Complete(ctx context.Context, exec sqlx.ExtContext, id string, notes *string) error {
	return f.close(id, models.SessionCompleted, func(s *models.ScheduledSession) { s.CompletionNotes = notes })
}

func (f fakeSessions) ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]models.ScheduledSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.ScheduledSession
	for _, session := range f.sessions {
		if session.ProviderID == providerID && !session.ScheduledAt.Before(from) && session.ScheduledAt.Before(to) {
			result = append(result, *session)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return result, nil
}

type fakeRecurring struct{ *schedulingStore }

func (f fakeRecurring) Create(ctx context.Context, exec sqlx.ExtContext, booking *models.RecurringBooking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking.ID = f.nextID("booking")
	copied := *booking
	f.bookings[booking.ID] = &copied
	return nil
}

func (f fakeRecurring) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RecurringBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *booking
	return &copied, nil
}

func (f fakeRecurring) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RecurringBooking, error) {
	return f.FindByID(ctx, exec, id)
}

func (f fakeRecurring) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.RecurringBookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok || booking.Status != from {
		return sql.ErrNoRows
	}
	booking.Status = to
	return nil
}

func (f fakeRecurring) SetSessionsCompleted(ctx context.Context, exec sqlx.ExtContext, id string, completed int, status models.RecurringBookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	booking, ok := f.bookings[id]
	if !ok {
		return sql.ErrNoRows
	}
	booking.SessionsCompleted = completed
	booking.Status = status
	return nil
}

func (f fakeRecurring) list(match func(*models.RecurringBooking) bool) []models.RecurringBooking {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.RecurringBooking
	for _, booking := range f.bookings {
		if match(booking) {
			result = append(result, *booking)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (f fakeRecurring) ListByProvider(ctx context.Context, providerID string) ([]models.RecurringBooking, error) {
	return f.list(func(b *models.RecurringBooking) bool { return b.ProviderID == providerID }), nil
}

func (f fakeRecurring) ListByRequester(ctx context.Context, requesterID string) ([]models.RecurringBooking, error) {
	return f.list(func(b *models.RecurringBooking) bool { return b.RequesterID == requesterID }), nil
}

func (f fakeRecurring) CreateReschedule(ctx context.Context, exec sqlx.ExtContext, reschedule *models.Reschedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reschedule.ID = f.nextID("reschedule")
	copied := *reschedule
	f.reschedules[reschedule.ID] = &copied
	return nil
}

func (f fakeRecurring) HasOpenReschedule(ctx context.Context, exec sqlx.ExtContext, bookingID string, original models.Date) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reschedule := range f.reschedules {
		if reschedule.BookingID == bookingID && reschedule.OriginalDate.Equal(original) &&
			reschedule.Status != models.RescheduleRejected {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeRecurring) LockReschedule(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Reschedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reschedule, ok := f.reschedules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *reschedule
	return &copied, nil
}

func (f fakeRecurring) UpdateRescheduleStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.RescheduleStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reschedule, ok := f.reschedules[id]
	if !ok || reschedule.Status != from {
		return sql.ErrNoRows
	}
	reschedule.Status = to
	return nil
}

func (f fakeRecurring) ListReschedules(ctx context.Context, bookingID string) ([]models.Reschedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Reschedule
	for _, reschedule := range f.reschedules {
		if reschedule.BookingID == bookingID {
			result = append(result, *reschedule)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// fakeCommitments joins bookings and sessions to providers by person, like the SQL reader does.
type fakeCommitments struct{ *schedulingStore }

func (f fakeCommitments) SessionsForPerson(ctx context.Context, exec sqlx.ExtContext, personID string, from, to time.Time) ([]models.Commitment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Commitment
	for _, session := range f.sessions {
		provider := f.providers[session.ProviderID]
		if provider == nil || provider.PersonID != personID || session.Status != models.SessionScheduled {
			continue
		}
		commitment := models.Commitment{
			Kind:       models.CommitmentSession,
			ID:         session.ID,
			ProviderID: provider.ID,
			Role:       provider.Role,
			Start:      session.ScheduledAt,
			End:        session.EndsAt(),
		}
		if commitment.Overlaps(from, to) {
			result = append(result, commitment)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

func (f fakeCommitments) RecurringForPerson(ctx context.Context, exec sqlx.ExtContext, personID string, from, to models.Date) ([]models.ProviderRecurringBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.ProviderRecurringBooking
	for _, booking := range f.bookings {
		provider := f.providers[booking.ProviderID]
		if provider == nil || provider.PersonID != personID || !booking.Status.Holds() {
			continue
		}
		if booking.StartDate.After(to) || (booking.EndDate != nil && booking.EndDate.Before(from)) {
			continue
		}
		result = append(result, models.ProviderRecurringBooking{RecurringBooking: *booking, Role: provider.Role})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f fakeCommitments) ApprovedReschedulesForPerson(ctx context.Context, exec sqlx.ExtContext, personID string, from, to models.Date) ([]models.ProviderReschedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	within := func(date models.Date) bool { return !date.Before(from) && !date.After(to) }
	var result []models.ProviderReschedule
	for _, reschedule := range f.reschedules {
		booking := f.bookings[reschedule.BookingID]
		if booking == nil || reschedule.Status != models.RescheduleApproved || !booking.Status.Holds() {
			continue
		}
		provider := f.providers[booking.ProviderID]
		if provider == nil || provider.PersonID != personID {
			continue
		}
		if !within(reschedule.NewDate) && !within(reschedule.OriginalDate) {
			continue
		}
		result = append(result, models.ProviderReschedule{Reschedule: *reschedule, ProviderID: provider.ID, Role: provider.Role})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type fakeAvailability struct{ *schedulingStore }

func (f fakeAvailability) UpsertRule(ctx context.Context, rule *models.RecurringAvailabilityRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rules {
		if existing.ProviderID == rule.ProviderID && existing.DayOfWeek == rule.DayOfWeek &&
			existing.StartTime == rule.StartTime && existing.EndTime == rule.EndTime {
			existing.IsActive = true
			*rule = *existing
			return nil
		}
	}
	rule.ID = f.nextID("rule")
	rule.IsActive = true
	copied := *rule
	f.rules[rule.ID] = &copied
	return nil
}

func (f fakeAvailability) FindRule(ctx context.Context, id string) (*models.RecurringAvailabilityRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule, ok := f.rules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *rule
	return &copied, nil
}

func (f fakeAvailability) ListRules(ctx context.Context, providerID string, activeOnly bool) ([]models.RecurringAvailabilityRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.RecurringAvailabilityRule
	for _, rule := range f.rules {
		if rule.ProviderID == providerID && (!activeOnly || rule.IsActive) {
			result = append(result, *rule)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f fakeAvailability) DeactivateRule(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule, ok := f.rules[id]
	if !ok {
		return sql.ErrNoRows
	}
	rule.IsActive = false
	return nil
}

func (f fakeAvailability) DeactivateProviderRules(ctx context.Context, exec sqlx.ExtContext, providerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, rule := range f.rules {
		if rule.ProviderID == providerID && rule.IsActive {
			rule.IsActive = false
			count++
		}
	}
	return count, nil
}

func (f fakeAvailability) CreateException(ctx context.Context, exception *models.AvailabilityException) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	exception.ID = f.nextID("exception")
	copied := *exception
	f.exceptions[exception.ID] = &copied
	return nil
}

func (f fakeAvailability) FindException(ctx context.Context, id string) (*models.AvailabilityException, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exception, ok := f.exceptions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *exception
	return &copied, nil
}

func (f fakeAvailability) ListExceptions(ctx context.Context, providerID string, from, to models.Date) ([]models.AvailabilityException, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.AvailabilityException
	for _, exception := range f.exceptions {
		if exception.ProviderID == providerID && !exception.Date.Before(from) && !exception.Date.After(to) {
			result = append(result, *exception)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f fakeAvailability) DeleteException(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.exceptions[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.exceptions, id)
	return nil
}

// fakeSlotCache is an in-memory CacheRepository keyed by exact string with prefix-glob deletes.
type fakeSlotCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newFakeSlotCache() *fakeSlotCache {
	return &fakeSlotCache{entries: map[string][]byte{}}
}

func (c *fakeSlotCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeSlotCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *fakeSlotCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

func (c *fakeSlotCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// schedulingFixture wires every service over one store.
type schedulingFixture struct {
	store   *schedulingStore
	tx      *serialTx
	checker *ConflictChecker
	now     time.Time
}

func newSchedulingFixture(now time.Time) *schedulingFixture {
	store := newSchedulingStore()
	return &schedulingFixture{
		store:   store,
		tx:      &serialTx{},
		checker: NewConflictChecker(fakeCommitments{store}, wib, nil),
		now:     now,
	}
}

func (f *schedulingFixture) clock() time.Time { return f.now }

func (f *schedulingFixture) bookingService(opts ...BookingServiceOption) *BookingService {
	opts = append([]BookingServiceOption{WithBookingClock(f.clock)}, opts...)
	return NewBookingService(f.tx, fakeProviders{f.store}, fakeRequests{f.store}, fakeSessions{f.store}, f.store, f.checker,
		BookingPolicy{ExpiryLead: 24 * time.Hour, MaxSessionMinutes: 240}, nil, opts...)
}

func (f *schedulingFixture) recurringService(autoApprove bool, opts ...RecurringBookingServiceOption) *RecurringBookingService {
	opts = append([]RecurringBookingServiceOption{WithRecurringClock(f.clock)}, opts...)
	return NewRecurringBookingService(f.tx, fakeProviders{f.store}, fakeRecurring{f.store}, f.store, f.checker,
		RecurringPolicy{AutoApproveReschedules: autoApprove, HorizonDays: 60}, nil, opts...)
}

func adminActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func personActor(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}
