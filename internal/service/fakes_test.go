package service

// In-memory repository fakes backed by a shared memStore. The fake TxManager
// snapshots the store before running fn and restores it when fn fails, which
// is enough to exercise the all-or-nothing contract without a replica set.

import (
	"context"
	"sort"
	"time"

	"fitmarket/coaching-app/internal/domain"
	"fitmarket/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memStore struct {
	users     map[primitive.ObjectID]domain.User
	requests  map[primitive.ObjectID]domain.CoachingRequest
	cooldowns map[primitive.ObjectID]domain.RequestCooldown
	templates map[primitive.ObjectID]domain.TrainingPlan
	assigned  map[primitive.ObjectID]domain.AssignedPlan
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[primitive.ObjectID]domain.User),
		requests:  make(map[primitive.ObjectID]domain.CoachingRequest),
		cooldowns: make(map[primitive.ObjectID]domain.RequestCooldown),
		templates: make(map[primitive.ObjectID]domain.TrainingPlan),
		assigned:  make(map[primitive.ObjectID]domain.AssignedPlan),
	}
}

func (s *memStore) addUser(role domain.Role) domain.User {
	u := domain.User{
		ID:        primitive.NewObjectID(),
		Name:      "user-" + string(role),
		Email:     primitive.NewObjectID().Hex() + "@example.com",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addRequest(clientID, trainerID primitive.ObjectID, status domain.RequestStatus) domain.CoachingRequest {
	r := domain.CoachingRequest{
		ID:        primitive.NewObjectID(),
		ClientID:  clientID,
		TrainerID: trainerID,
		Status:    status,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.requests[r.ID] = r
	return r
}

func (s *memStore) addTemplate(trainerID primitive.ObjectID) domain.TrainingPlan {
	p := domain.TrainingPlan{
		ID:          primitive.NewObjectID(),
		TrainerID:   trainerID,
		Title:       "Template",
		Description: "Template description",
		Schedule: []domain.ScheduleDay{
			{Day: "monday", Focus: "Full body", Exercises: []string{"squat", "push-up"}},
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.templates[p.ID] = p
	return p
}

// --- Users ---

type fakeUserRepo struct{ store *memStore }

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, existing := range f.store.users {
		if existing.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	f.store.users[user.ID] = *user
	return user.ID, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.store.users {
		if u.Email == email {
			copied := u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := f.store.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := u
	return &copied, nil
}

// --- Coaching requests ---

type fakeRequestRepo struct {
	store     *memStore
	deleteErr error
}

func (f *fakeRequestRepo) Create(_ context.Context, req *domain.CoachingRequest) (primitive.ObjectID, error) {
	req.ID = primitive.NewObjectID()
	if req.Status == "" {
		req.Status = domain.RequestPending
	}
	req.CreatedAt = time.Now().UTC()
	req.UpdatedAt = req.CreatedAt
	f.store.requests[req.ID] = *req
	return req.ID, nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.CoachingRequest, error) {
	r, ok := f.store.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := r
	return &copied, nil
}

func (f *fakeRequestRepo) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID, status *domain.RequestStatus) ([]domain.CoachingRequest, error) {
	var out []domain.CoachingRequest
	for _, r := range f.store.requests {
		if r.TrainerID != trainerID {
			continue
		}
		if status != nil && r.Status != *status {
			continue
		}
		out = append(out, r)
	}
	sortRequestsNewestFirst(out)
	return out, nil
}

func (f *fakeRequestRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.CoachingRequest, error) {
	var out []domain.CoachingRequest
	for _, r := range f.store.requests {
		if r.ClientID == clientID {
			out = append(out, r)
		}
	}
	sortRequestsNewestFirst(out)
	return out, nil
}

func (f *fakeRequestRepo) FindPending(_ context.Context, clientID, trainerID primitive.ObjectID) (*domain.CoachingRequest, error) {
	for _, r := range f.store.requests {
		if r.ClientID == clientID && r.TrainerID == trainerID && r.Status == domain.RequestPending {
			copied := r
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRequestRepo) MarkResponded(_ context.Context, id primitive.ObjectID, status domain.RequestStatus, rejectionReason string, respondedAt time.Time) error {
	r, ok := f.store.requests[id]
	if !ok || r.Status != domain.RequestPending {
		return repository.ErrNotFound
	}
	r.Status = status
	r.RespondedAt = &respondedAt
	r.UpdatedAt = respondedAt
	if status == domain.RequestRejected && rejectionReason != "" {
		r.RejectionReason = rejectionReason
	}
	f.store.requests[id] = r
	return nil
}

func (f *fakeRequestRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.store.requests[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.store.requests, id)
	return nil
}

func sortRequestsNewestFirst(reqs []domain.CoachingRequest) {
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
}

// --- Cooldowns ---

type fakeCooldownRepo struct {
	store     *memStore
	createErr error
}

func (f *fakeCooldownRepo) Create(_ context.Context, cooldown *domain.RequestCooldown) (primitive.ObjectID, error) {
	if f.createErr != nil {
		return primitive.NilObjectID, f.createErr
	}
	cooldown.ID = primitive.NewObjectID()
	cooldown.CreatedAt = time.Now().UTC()
	f.store.cooldowns[cooldown.ID] = *cooldown
	return cooldown.ID, nil
}

func (f *fakeCooldownRepo) FindActive(_ context.Context, clientID, trainerID primitive.ObjectID, now time.Time) (*domain.RequestCooldown, error) {
	for _, c := range f.store.cooldowns {
		if c.ClientID == clientID && c.TrainerID == trainerID && now.Before(c.ExpiresAt) {
			copied := c
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

// --- Template plans ---

type fakeTrainingPlanRepo struct{ store *memStore }

func (f *fakeTrainingPlanRepo) Create(_ context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	plan.CreatedAt = time.Now().UTC()
	plan.UpdatedAt = plan.CreatedAt
	f.store.templates[plan.ID] = *plan
	return plan.ID, nil
}

func (f *fakeTrainingPlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	p, ok := f.store.templates[id]
	if !ok || p.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (f *fakeTrainingPlanRepo) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.TrainingPlan, error) {
	var out []domain.TrainingPlan
	for _, p := range f.store.templates {
		if p.TrainerID == trainerID && p.DeletedAt == nil {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTrainingPlanRepo) Update(_ context.Context, plan *domain.TrainingPlan) error {
	existing, ok := f.store.templates[plan.ID]
	if !ok || existing.DeletedAt != nil || existing.TrainerID != plan.TrainerID {
		return repository.ErrNotFound
	}
	plan.UpdatedAt = time.Now().UTC()
	f.store.templates[plan.ID] = *plan
	return nil
}

func (f *fakeTrainingPlanRepo) SoftDelete(_ context.Context, id, trainerID primitive.ObjectID) error {
	p, ok := f.store.templates[id]
	if !ok || p.DeletedAt != nil || p.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	f.store.templates[id] = p
	return nil
}

// --- Assigned plans ---

type fakeAssignedPlanRepo struct{ store *memStore }

func (f *fakeAssignedPlanRepo) Create(_ context.Context, plan *domain.AssignedPlan) (primitive.ObjectID, error) {
	// Emulates the partial unique index on (clientId) where status=active.
	if plan.Status == domain.PlanActive {
		for _, existing := range f.store.assigned {
			if existing.ClientID == plan.ClientID && existing.Status == domain.PlanActive {
				return primitive.NilObjectID, repository.ErrDuplicate
			}
		}
	}
	plan.ID = primitive.NewObjectID()
	plan.AssignedAt = time.Now().UTC()
	plan.UpdatedAt = plan.AssignedAt
	f.store.assigned[plan.ID] = *plan
	return plan.ID, nil
}

func (f *fakeAssignedPlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.AssignedPlan, error) {
	p, ok := f.store.assigned[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (f *fakeAssignedPlanRepo) GetActiveByClientID(_ context.Context, clientID primitive.ObjectID) (*domain.AssignedPlan, error) {
	for _, p := range f.store.assigned {
		if p.ClientID == clientID && p.Status == domain.PlanActive {
			copied := p
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAssignedPlanRepo) GetByClientAndTrainerID(_ context.Context, clientID, trainerID primitive.ObjectID) ([]domain.AssignedPlan, error) {
	var out []domain.AssignedPlan
	for _, p := range f.store.assigned {
		if p.ClientID == clientID && p.TrainerID == trainerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out, nil
}

func (f *fakeAssignedPlanRepo) ReplacePlanData(_ context.Context, id primitive.ObjectID, data domain.PlanData) error {
	p, ok := f.store.assigned[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.PlanData = data
	p.UpdatedAt = time.Now().UTC()
	f.store.assigned[id] = p
	return nil
}

// --- Transactions ---

type fakeTxManager struct{ store *memStore }

func (f *fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	requests := make(map[primitive.ObjectID]domain.CoachingRequest, len(f.store.requests))
	for k, v := range f.store.requests {
		requests[k] = v
	}
	cooldowns := make(map[primitive.ObjectID]domain.RequestCooldown, len(f.store.cooldowns))
	for k, v := range f.store.cooldowns {
		cooldowns[k] = v
	}

	if err := fn(ctx); err != nil {
		f.store.requests = requests
		f.store.cooldowns = cooldowns
		return err
	}
	return nil
}

// newTestCoachingService wires a coaching service over a fresh store. The
// returned repos expose the failure knobs individual tests flip.
func newTestCoachingService(store *memStore, cooldown time.Duration) (CoachingService, *fakeRequestRepo, *fakeCooldownRepo) {
	requestRepo := &fakeRequestRepo{store: store}
	cooldownRepo := &fakeCooldownRepo{store: store}
	svc := NewCoachingService(
		requestRepo,
		cooldownRepo,
		&fakeTrainingPlanRepo{store: store},
		&fakeAssignedPlanRepo{store: store},
		&fakeUserRepo{store: store},
		&fakeTxManager{store: store},
		cooldown,
	)
	return svc, requestRepo, cooldownRepo
}
