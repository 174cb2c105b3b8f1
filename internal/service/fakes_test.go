package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"valve_control/internal/models"
	"valve_control/internal/repository"
)

// memValveRepo is an in-memory repository.ValveRepo and repository.ScheduleRepo.
type memValveRepo struct {
	mu        sync.Mutex
	valves    map[int]models.Valve
	listErr   error
	updateErr error
	updates   int
}

func newMemValveRepo(vs ...models.Valve) *memValveRepo {
	r := &memValveRepo{valves: make(map[int]models.Valve)}
	for _, v := range vs {
		if v.Schedule == nil {
			v.Schedule = []models.ScheduleEntry{}
		}
		r.valves[v.Number] = v
	}
	return r
}

func (r *memValveRepo) Create(ctx context.Context, v models.Valve) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.valves[v.Number]; ok {
		return repository.ErrDuplicate
	}
	v.Schedule = []models.ScheduleEntry{}
	r.valves[v.Number] = v
	return nil
}

func (r *memValveRepo) Get(ctx context.Context, number int) (models.Valve, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.valves[number]
	if !ok {
		return models.Valve{}, repository.ErrNotFound
	}
	v.Schedule = append([]models.ScheduleEntry{}, v.Schedule...)
	return v, nil
}

func (r *memValveRepo) List(ctx context.Context) ([]models.Valve, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.Valve, 0, len(r.valves))
	for _, v := range r.valves {
		v.Schedule = append([]models.ScheduleEntry{}, v.Schedule...)
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *memValveRepo) UpdateStatus(ctx context.Context, number int, auto models.AutomationStatus, st models.ValveStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	v, ok := r.valves[number]
	if !ok {
		return repository.ErrNotFound
	}
	r.updates++
	v.AutomationStatus, v.ValveStatus, v.UpdatedAt = auto, st, at
	r.valves[number] = v
	return nil
}

func (r *memValveRepo) SetValveStatus(ctx context.Context, number int, expect models.AutomationStatus, st models.ValveStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	v, ok := r.valves[number]
	if !ok || v.AutomationStatus != expect {
		return repository.ErrStale
	}
	r.updates++
	v.ValveStatus, v.UpdatedAt = st, at
	r.valves[number] = v
	return nil
}

func (r *memValveRepo) Delete(ctx context.Context, number int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.valves[number]; !ok {
		return repository.ErrNotFound
	}
	delete(r.valves, number)
	return nil
}

func (r *memValveRepo) Add(ctx context.Context, number int, e models.ScheduleEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.valves[number]
	for _, have := range v.Schedule {
		if have == e {
			return repository.ErrDuplicate
		}
	}
	v.Schedule = append(v.Schedule, e)
	r.valves[number] = v
	return nil
}

func (r *memValveRepo) Remove(ctx context.Context, number int, e models.ScheduleEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.valves[number]
	if !ok {
		return repository.ErrNotFound
	}
	for i, have := range v.Schedule {
		if have == e {
			v.Schedule = append(v.Schedule[:i], v.Schedule[i+1:]...)
			r.valves[number] = v
			return nil
		}
	}
	return repository.ErrNotFound
}

// frozenListRepo answers List with a snapshot taken earlier, as a tick does
// while it works through the valves it read.
type frozenListRepo struct {
	*memValveRepo
	snapshot []models.Valve
}

func (r *frozenListRepo) List(ctx context.Context) ([]models.Valve, error) {
	return r.snapshot, nil
}

// fakeEventRepo records appends and answers List with canned data.
// appendErr fails every Append without recording it.
type fakeEventRepo struct {
	mu        sync.Mutex
	appended  []models.ValveEvent
	events    []models.ValveEvent
	err       error
	appendErr error
	gotQuery  repository.EventQuery
	calls     int
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.ValveEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeEventRepo) List(ctx context.Context, q repository.EventQuery) ([]models.ValveEvent, error) {
	f.calls++
	f.gotQuery = q
	return f.events, f.err
}

func (f *fakeEventRepo) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.appended))
	for _, e := range f.appended {
		out = append(out, e.Type)
	}
	return out
}

// fakeController records pushes; err is returned for every push.
type fakeController struct {
	mu     sync.Mutex
	pushes map[int]models.ValveStatus
	calls  int
	err    error
}

func (c *fakeController) Push(ctx context.Context, number int, st models.ValveStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pushes == nil {
		c.pushes = make(map[int]models.ValveStatus)
	}
	c.calls++
	c.pushes[number] = st
	return c.err
}

// monday returns 2024-01-01 (a Monday) at the given local time.
func monday(h, m int) time.Time {
	return time.Date(2024, 1, 1, h, m, 0, 0, time.Local)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var morning = models.ScheduleEntry{Day: models.Weekday(time.Monday), Begin: 8 * 3600, End: 9 * 3600}
