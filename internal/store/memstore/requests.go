package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/store"
)

type requestRepo struct{ s *Store }

// copyLog detaches the assistance log from the stored row.
func copyLog(req models.HelpRequest) models.HelpRequest {
	req.AssistanceLog = append([]models.AssistanceEntry{}, req.AssistanceLog...)
	return req
}

func matches(req models.HelpRequest, f models.RequestFilter) bool {
	if f.Status != "" && req.Status != f.Status {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if req.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.RequestType != "" && req.RequestType != f.RequestType {
		return false
	}
	if f.ManagedBy != "" && req.ManagedBy != f.ManagedBy {
		return false
	}
	if f.AssignedVolunteer != "" && req.AssignedVolunteer != f.AssignedVolunteer {
		return false
	}
	if len(f.Priorities) > 0 {
		ok := false
		for _, p := range f.Priorities {
			if req.Priority == p {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func (r requestRepo) Insert(ctx context.Context, req *models.HelpRequest) error {
	defer r.s.lock(ctx)()
	if req.ID == "" {
		req.ID = newID()
	}
	r.s.st.requests.put(req.ID, copyLog(*req))
	return nil
}

func (r requestRepo) Get(ctx context.Context, id string) (*models.HelpRequest, error) {
	defer r.s.lock(ctx)()
	req, ok := r.s.st.requests.get(id)
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, store.ErrNotFound)
	}
	req = copyLog(req)
	return &req, nil
}

func (r requestRepo) List(ctx context.Context, f models.RequestFilter) ([]models.HelpRequest, error) {
	defer r.s.lock(ctx)()
	out := []models.HelpRequest{}
	r.s.st.requests.each(true, func(req models.HelpRequest) bool {
		if matches(req, f) {
			out = append(out, copyLog(req))
		}
		return f.ByUpdated || f.Limit <= 0 || len(out) < f.Limit
	})
	if f.ByUpdated {
		sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
		if f.Limit > 0 && len(out) > f.Limit {
			out = out[:f.Limit]
		}
	}
	return out, nil
}

func (r requestRepo) SumPeople(ctx context.Context, f models.RequestFilter) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	r.s.st.requests.each(false, func(req models.HelpRequest) bool {
		if matches(req, f) {
			n += int64(req.People)
		}
		return true
	})
	return n, nil
}

func (r requestRepo) Apply(ctx context.Context, id string, change store.RequestChange, at time.Time) (*models.HelpRequest, error) {
	defer r.s.lock(ctx)()
	req, ok := r.s.st.requests.get(id)
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, store.ErrNotFound)
	}
	if change.ExpectStatus != nil && req.Status != *change.ExpectStatus {
		return nil, fmt.Errorf("request %s is %s: %w", id, req.Status, store.ErrStale)
	}
	req = copyLog(req)
	if change.Status != nil {
		req.Status = *change.Status
	}
	if change.AssignedVolunteer != nil {
		req.AssignedVolunteer = *change.AssignedVolunteer
	}
	if change.ManagedBy != nil {
		req.ManagedBy = *change.ManagedBy
	}
	if change.CompletionNotes != nil {
		req.CompletionNotes = *change.CompletionNotes
	}
	if change.AppendAssistance != nil {
		req.AssistanceLog = append(req.AssistanceLog, *change.AppendAssistance)
	}
	req.UpdatedAt = at
	r.s.st.requests.put(id, req)
	out := copyLog(req)
	return &out, nil
}

func (r requestRepo) CountByStatus(ctx context.Context) (map[models.RequestStatus]int64, error) {
	defer r.s.lock(ctx)()
	counts := make(map[models.RequestStatus]int64)
	r.s.st.requests.each(false, func(req models.HelpRequest) bool {
		counts[req.Status]++
		return true
	})
	return counts, nil
}

func (r requestRepo) Count(ctx context.Context, f models.RequestFilter) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	r.s.st.requests.each(false, func(req models.HelpRequest) bool {
		if matches(req, f) {
			n++
		}
		return true
	})
	return n, nil
}

func (r requestRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	r.s.st.requests.each(false, func(req models.HelpRequest) bool {
		if !req.CreatedAt.Before(from) && req.CreatedAt.Before(to) {
			n++
		}
		return true
	})
	return n, nil
}

type userRepo struct{ s *Store }

func (r userRepo) Insert(ctx context.Context, u *models.User) error {
	defer r.s.lock(ctx)()
	taken := false
	r.s.st.users.each(false, func(existing models.User) bool {
		if strings.EqualFold(existing.Email, u.Email) {
			taken = true
			return false
		}
		return true
	})
	if taken {
		return fmt.Errorf("user %s: %w", u.Email, store.ErrDuplicate)
	}
	if u.ID == "" {
		u.ID = newID()
	}
	r.s.st.users.put(u.ID, *u)
	return nil
}

func (r userRepo) Get(ctx context.Context, id string) (*models.User, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.st.users.get(id)
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	return &u, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.s.lock(ctx)()
	var found *models.User
	r.s.st.users.each(false, func(u models.User) bool {
		if strings.EqualFold(u.Email, email) {
			found = &u
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
	}
	return found, nil
}

func (r userRepo) List(ctx context.Context) ([]models.User, error) {
	defer r.s.lock(ctx)()
	out := []models.User{}
	r.s.st.users.each(true, func(u models.User) bool {
		out = append(out, u)
		return true
	})
	return out, nil
}

func (r userRepo) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	defer r.s.lock(ctx)()
	out := []models.User{}
	r.s.st.users.each(false, func(u models.User) bool {
		if u.Role == role {
			out = append(out, u)
		}
		return true
	})
	return out, nil
}

func (r userRepo) update(id string, fn func(*models.User)) (*models.User, error) {
	u, ok := r.s.st.users.get(id)
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.s.st.users.put(id, u)
	return &u, nil
}

func (r userRepo) SetActive(ctx context.Context, id string, active bool) (*models.User, error) {
	defer r.s.lock(ctx)()
	return r.update(id, func(u *models.User) { u.IsActive = active })
}

func (r userRepo) SetLocation(ctx context.Context, id string, loc models.GeoPoint) (*models.User, error) {
	defer r.s.lock(ctx)()
	return r.update(id, func(u *models.User) { u.CurrentLocation = &loc })
}

func (r userRepo) CountByRole(ctx context.Context, role models.Role, excludeID string) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	r.s.st.users.each(false, func(u models.User) bool {
		if u.Role == role && u.ID != excludeID {
			n++
		}
		return true
	})
	return n, nil
}
