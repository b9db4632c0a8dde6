// Package challengetest provides an in-memory Repository for tests.
package challengetest

import (
	"context"
	"sort"
	"sync"

	"github.com/hackathonweekly/checkin-hub/internal/domain/challenge"
	"github.com/hackathonweekly/checkin-hub/pkg/timeutil"
)

// Repo is an in-memory challenge.Repository. It mirrors the storage-level
// constraints the real schema enforces: one live period, unique nickname per
// period, one check-in per participant per date.
type Repo struct {
	mu           sync.Mutex
	Periods      map[string]*challenge.Period
	Members      map[string]*challenge.Participant
	Checkins     []*challenge.Checkin
	Certificates map[string]*challenge.Certificate

	// Err, when set, is returned by every method.
	Err error
}

// NewRepo creates an empty Repo.
func NewRepo() *Repo {
	return &Repo{
		Periods:      make(map[string]*challenge.Period),
		Members:      make(map[string]*challenge.Participant),
		Certificates: make(map[string]*challenge.Certificate),
	}
}

var _ challenge.Repository = (*Repo)(nil)

func (r *Repo) CreatePeriod(_ context.Context, p *challenge.Period) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	for _, existing := range r.Periods {
		if !existing.Status.Terminal() {
			return challenge.ErrConflict
		}
	}

	cp := *p
	r.Periods[p.ID] = &cp
	return nil
}

func (r *Repo) PeriodByStatus(_ context.Context, statuses ...challenge.PeriodStatus) (*challenge.Period, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	for _, p := range r.Periods {
		for _, s := range statuses {
			if p.Status == s {
				cp := *p
				return &cp, nil
			}
		}
	}
	return nil, challenge.ErrNotFound
}

func (r *Repo) PeriodByName(_ context.Context, name string) (*challenge.Period, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	for _, p := range r.Periods {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, challenge.ErrNotFound
}

func (r *Repo) LatestPeriod(_ context.Context) (*challenge.Period, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	var latest *challenge.Period
	for _, p := range r.Periods {
		if latest == nil || p.StartAt.After(latest.StartAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, challenge.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *Repo) ActivatePeriod(_ context.Context, periodID string, roster []*challenge.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	p, ok := r.Periods[periodID]
	if !ok || p.Status != challenge.StatusSignup {
		return challenge.ErrConflict
	}

	for id, m := range r.Members {
		if m.PeriodID == periodID {
			delete(r.Members, id)
		}
	}
	for _, m := range roster {
		cp := *m
		r.Members[m.ID] = &cp
	}
	p.Status = challenge.StatusActive
	return nil
}

func (r *Repo) EndPeriod(_ context.Context, periodID string, certs []*challenge.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	p, ok := r.Periods[periodID]
	if !ok || p.Status != challenge.StatusActive {
		return challenge.ErrConflict
	}

	for _, c := range certs {
		cp := *c
		r.Certificates[c.PeriodID+"/"+c.Nickname] = &cp
	}
	p.Status = challenge.StatusEnded
	return nil
}

func (r *Repo) Participants(_ context.Context, periodID string) ([]*challenge.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	var out []*challenge.Participant
	for _, m := range r.Members {
		if m.PeriodID == periodID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].Nickname < out[j].Nickname
		}
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out, nil
}

func (r *Repo) ParticipantByNickname(_ context.Context, periodID, nickname string) (*challenge.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	for _, m := range r.Members {
		if m.PeriodID == periodID && m.Nickname == nickname {
			cp := *m
			return &cp, nil
		}
	}
	return nil, challenge.ErrNotFound
}

func (r *Repo) InsertCheckin(_ context.Context, c *challenge.Checkin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}

	for _, existing := range r.Checkins {
		if existing.ParticipantID != c.ParticipantID {
			continue
		}
		if timeutil.SameDay(existing.Date, c.Date) || existing.Index == c.Index {
			return challenge.ErrDuplicateCheckin
		}
	}
	cp := *c
	r.Checkins = append(r.Checkins, &cp)
	return nil
}

func (r *Repo) CheckinCount(_ context.Context, participantID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}

	count := 0
	for _, c := range r.Checkins {
		if c.ParticipantID == participantID {
			count++
		}
	}
	return count, nil
}

func (r *Repo) CheckinsByParticipant(_ context.Context, participantID string) ([]*challenge.Checkin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	var out []*challenge.Checkin
	for _, c := range r.Checkins {
		if c.ParticipantID == participantID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *Repo) LatestCheckin(_ context.Context, participantID string) (*challenge.Checkin, error) {
	all, err := r.CheckinsByParticipant(context.Background(), participantID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, challenge.ErrNotFound
	}
	return all[len(all)-1], nil
}

func (r *Repo) CertificateByNickname(_ context.Context, periodID, nickname string) (*challenge.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	c, ok := r.Certificates[periodID+"/"+nickname]
	if !ok {
		return nil, challenge.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *Repo) ClaimPublication(_ context.Context, periodID string, day int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}

	p, ok := r.Periods[periodID]
	if !ok || p.LastPublishedDay >= day {
		return false, nil
	}
	p.LastPublishedDay = day
	return true, nil
}
