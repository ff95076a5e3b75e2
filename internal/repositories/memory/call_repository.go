package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type callRepository struct {
	mu      sync.RWMutex
	byID    map[primitive.ObjectID]*models.EmergencyCall
	byToken map[string]primitive.ObjectID
	// codes indexes live SMS location codes, mirroring the unique sparse
	// index the Mongo store keeps. Cleared codes are removed here.
	codes map[string]primitive.ObjectID
}

func NewCallRepository() interfaces.CallRepository {
	return &callRepository{
		byID:    make(map[primitive.ObjectID]*models.EmergencyCall),
		byToken: make(map[string]primitive.ObjectID),
		codes:   make(map[string]primitive.ObjectID),
	}
}

func (r *callRepository) Create(ctx context.Context, call *models.EmergencyCall) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if call.ID.IsZero() {
		call.ID = primitive.NewObjectID()
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now()
	}

	dup := *call
	r.byID[call.ID] = &dup
	if call.ShareToken != "" {
		r.byToken[call.ShareToken] = call.ID
	}
	return nil
}

func (r *callRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.EmergencyCall, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, models.ErrCallNotFound
	}
	dup := *stored
	return &dup, nil
}

func (r *callRepository) GetByShareToken(ctx context.Context, token string) (*models.EmergencyCall, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byToken[token]
	if !ok {
		return nil, models.ErrCallNotFound
	}
	dup := *r.byID[id]
	return &dup, nil
}

func (r *callRepository) GetBySMSCode(ctx context.Context, code string, statuses []models.CallStatus) (*models.EmergencyCall, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.codes[code]
	if !ok {
		return nil, models.ErrCallNotFound
	}
	call := r.byID[id]
	if !statusIn(call.Status, statuses) {
		return nil, models.ErrCallNotFound
	}
	dup := *call
	return &dup, nil
}

func (r *callRepository) GetLatestByCallerPhone(ctx context.Context, phone string, statuses []models.CallStatus) (*models.EmergencyCall, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *models.EmergencyCall
	for _, call := range r.byID {
		if call.CallerPhone != phone || !statusIn(call.Status, statuses) {
			continue
		}
		if latest == nil || call.CreatedAt.After(latest.CreatedAt) {
			latest = call
		}
	}
	if latest == nil {
		return nil, models.ErrCallNotFound
	}
	dup := *latest
	return &dup, nil
}

func (r *callRepository) GetActiveAssignment(ctx context.Context, ambulanceID primitive.ObjectID) (*models.EmergencyCall, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, call := range r.byID {
		if call.Status == models.CallStatusAssigned &&
			call.AssignedAmbulanceID != nil && *call.AssignedAmbulanceID == ambulanceID {
			dup := *call
			return &dup, nil
		}
	}
	return nil, models.ErrCallNotFound
}

func (r *callRepository) ListActive(ctx context.Context) ([]*models.EmergencyCall, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.EmergencyCall
	for _, call := range r.byID {
		if !call.Status.IsTerminal() {
			dup := *call
			out = append(out, &dup)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *callRepository) Update(ctx context.Context, call *models.EmergencyCall) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[call.ID]
	if !ok {
		return models.ErrCallNotFound
	}

	r.reindexCode(stored, call)
	dup := *call
	r.byID[call.ID] = &dup
	return nil
}

func (r *callRepository) UpdateExpectingStatus(ctx context.Context, call *models.EmergencyCall, expected models.CallStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[call.ID]
	if !ok {
		return models.ErrCallNotFound
	}
	if stored.Status != expected {
		return &models.InvalidTransitionError{From: stored.Status, To: call.Status}
	}

	r.reindexCode(stored, call)
	dup := *call
	r.byID[call.ID] = &dup
	return nil
}

func (r *callRepository) UpdateClaimingCode(ctx context.Context, call *models.EmergencyCall) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[call.ID]
	if !ok {
		return models.ErrCallNotFound
	}

	if call.SMSLocationCode != "" {
		if owner, taken := r.codes[call.SMSLocationCode]; taken && owner != call.ID {
			return models.ErrDuplicateCode
		}
	}

	r.reindexCode(stored, call)
	dup := *call
	r.byID[call.ID] = &dup
	return nil
}

// reindexCode keeps the live-code index in sync across updates. Callers
// hold the write lock.
func (r *callRepository) reindexCode(old, updated *models.EmergencyCall) {
	if old.SMSLocationCode != "" && old.SMSLocationCode != updated.SMSLocationCode {
		delete(r.codes, old.SMSLocationCode)
	}
	if updated.SMSLocationCode != "" {
		r.codes[updated.SMSLocationCode] = updated.ID
	}
}

func statusIn(status models.CallStatus, statuses []models.CallStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
