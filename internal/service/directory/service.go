package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/people-api/backend/internal/model/person"
)

var (
	ErrNotFound = errors.New("person not found")
	ErrConflict = errors.New("person already exists")
	ErrInvalid  = person.ErrInvalid
)

// EventType names the kind of mutation an Event reports.
type EventType string

const (
	EventCreated  EventType = "created"
	EventReplaced EventType = "replaced"
	EventDeleted  EventType = "deleted"
)

// Event describes one successful mutation of the directory.
type Event struct {
	ID     string         `json:"id"`
	Type   EventType      `json:"type"`
	LName  string         `json:"lname"`
	Person *person.Person `json:"person,omitempty"`
	At     time.Time      `json:"at"`
}

// Publisher receives mutation events. Implementations must not block.
type Publisher interface {
	Publish(Event)
}

// Option configures a Service.
type Option func(*Service)

// WithSeed preloads the directory. Later entries win on duplicate keys.
func WithSeed(people []person.Person) Option {
	return func(s *Service) {
		for _, p := range people {
			s.people[p.LName] = p.Clone()
		}
	}
}

// WithClock overrides the time source used for stamping and events.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithStamping controls whether Create and Replace fill in a missing timestamp.
func WithStamping(enabled bool) Option {
	return func(s *Service) {
		s.stamp = enabled
	}
}

// WithPublisher attaches a sink for mutation events.
func WithPublisher(pub Publisher) Option {
	return func(s *Service) {
		s.pub = pub
	}
}

// Service owns the in-memory person directory keyed by last name.
type Service struct {
	mu     sync.RWMutex
	people map[string]person.Person
	now    func() time.Time
	stamp  bool
	pub    Publisher
}

// New builds an empty directory and applies opts in order.
func New(opts ...Option) *Service {
	s := &Service{
		people: make(map[string]person.Person),
		now:    time.Now,
		stamp:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len reports how many people are stored.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.people)
}

// List returns every person ordered by last name.
func (s *Service) List(_ context.Context) []person.Person {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.people))
	for k := range s.people {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]person.Person, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.people[k].Clone())
	}
	return out
}

// Get looks up a person by last name.
func (s *Service) Get(_ context.Context, lname string) (person.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[lname]
	if !ok {
		return person.Person{}, fmt.Errorf("%w: %s", ErrNotFound, lname)
	}
	return p.Clone(), nil
}

// Create inserts p under p.LName. An existing entry is never overwritten.
func (s *Service) Create(_ context.Context, p person.Person) (person.Person, error) {
	if p.LName == "" {
		return person.Person{}, fmt.Errorf("%w: lname is required", ErrInvalid)
	}

	p = p.Clone()
	if s.stamp && p.Timestamp == "" {
		p.Timestamp = person.FormatTimestamp(s.now())
	}

	if err := s.insert(p); err != nil {
		return person.Person{}, err
	}
	return p.Clone(), nil
}

// Replace overwrites the entry stored under lname with p. The body's own
// lname is stored as given and not compared against the key.
func (s *Service) Replace(_ context.Context, lname string, p person.Person) (person.Person, error) {
	if p.LName == "" {
		return person.Person{}, fmt.Errorf("%w: lname is required", ErrInvalid)
	}

	p = p.Clone()
	if s.stamp && p.Timestamp == "" {
		p.Timestamp = person.FormatTimestamp(s.now())
	}

	if err := s.overwrite(lname, p); err != nil {
		return person.Person{}, err
	}
	return p.Clone(), nil
}

// Delete removes the entry stored under lname.
func (s *Service) Delete(_ context.Context, lname string) error {
	return s.remove(lname)
}

func (s *Service) insert(p person.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.people[p.LName]; exists {
		return fmt.Errorf("%w: %s", ErrConflict, p.LName)
	}
	s.people[p.LName] = p
	s.publish(EventCreated, p.LName, &p)
	return nil
}

func (s *Service) overwrite(lname string, p person.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.people[lname]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, lname)
	}
	s.people[lname] = p
	s.publish(EventReplaced, lname, &p)
	return nil
}

func (s *Service) remove(lname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.people[lname]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, lname)
	}
	delete(s.people, lname)
	s.publish(EventDeleted, lname, nil)
	return nil
}

// publish is called with mu held so events leave in mutation order.
func (s *Service) publish(kind EventType, lname string, p *person.Person) {
	if s.pub == nil {
		return
	}

	var snapshot *person.Person
	if p != nil {
		c := p.Clone()
		snapshot = &c
	}

	s.pub.Publish(Event{
		ID:     uuid.NewString(),
		Type:   kind,
		LName:  lname,
		Person: snapshot,
		At:     s.now().UTC(),
	})
}
