// Package state holds the in-memory projection of the cached tables. It is a
// disposable view rebuilt from the cache; mutation goes through the methods
// below only.
package state

import (
	"slices"
	"sort"
	"sync"

	"github.com/mamadbah2/cortinas/internal/domain/models"
)

// Listener is called after a change with the names of the changed tables.
type Listener func(tables []string)

// State is the application-owned in-memory catalog.
type State struct {
	mu            sync.RWMutex
	customers     map[string]models.Customer
	products      map[string]models.Product
	accessories   map[string]models.Accessory
	budgets       map[string]models.Budget
	visits        map[string]models.Visit
	configuration *models.Configuration

	listenersMu sync.RWMutex
	listeners   []Listener
}

// New returns an empty state.
func New() *State {
	return &State{
		customers:   map[string]models.Customer{},
		products:    map[string]models.Product{},
		accessories: map[string]models.Accessory{},
		budgets:     map[string]models.Budget{},
		visits:      map[string]models.Visit{},
	}
}

// Subscribe registers fn for change notifications.
func (s *State) Subscribe(fn Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *State) notify(tables ...string) {
	s.listenersMu.RLock()
	listeners := slices.Clone(s.listeners)
	s.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(tables)
	}
}

// Replace swaps the whole state for snap.
func (s *State) Replace(snap models.Snapshot) {
	s.mu.Lock()
	s.customers = index(snap.Customers)
	s.products = index(snap.Products)
	s.accessories = index(snap.Accessories)
	s.budgets = index(snap.Budgets)
	s.visits = index(snap.Visits)
	s.configuration = nil
	if snap.Configuration != nil {
		cfg := *snap.Configuration
		s.configuration = &cfg
	}
	s.mu.Unlock()

	s.notify(models.EntityTables...)
}

// Snapshot copies the whole state, every table sorted by id.
func (s *State) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := models.Snapshot{
		Customers:   values(s.customers),
		Products:    values(s.products),
		Accessories: values(s.accessories),
		Budgets:     values(s.budgets),
		Visits:      values(s.visits),
	}
	if s.configuration != nil {
		cfg := *s.configuration
		snap.Configuration = &cfg
	}
	return snap
}

func (s *State) Customers() []models.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return values(s.customers)
}

func (s *State) Customer(id string) (models.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	return c, ok
}

func (s *State) PutCustomer(c models.Customer) {
	s.mu.Lock()
	s.customers[c.ID] = c
	s.mu.Unlock()
	s.notify(models.TableCustomers)
}

func (s *State) RemoveCustomer(id string) {
	s.mu.Lock()
	delete(s.customers, id)
	s.mu.Unlock()
	s.notify(models.TableCustomers)
}

func (s *State) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return values(s.products)
}

func (s *State) Product(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *State) PutProduct(p models.Product) {
	s.mu.Lock()
	s.products[p.ID] = p
	s.mu.Unlock()
	s.notify(models.TableProducts)
}

func (s *State) RemoveProduct(id string) {
	s.mu.Lock()
	delete(s.products, id)
	s.mu.Unlock()
	s.notify(models.TableProducts)
}

func (s *State) Accessories() []models.Accessory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return values(s.accessories)
}

func (s *State) Accessory(id string) (models.Accessory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accessories[id]
	return a, ok
}

func (s *State) PutAccessory(a models.Accessory) {
	s.mu.Lock()
	s.accessories[a.ID] = a
	s.mu.Unlock()
	s.notify(models.TableAccessories)
}

func (s *State) RemoveAccessory(id string) {
	s.mu.Lock()
	delete(s.accessories, id)
	s.mu.Unlock()
	s.notify(models.TableAccessories)
}

func (s *State) Budgets() []models.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return values(s.budgets)
}

func (s *State) Budget(id string) (models.Budget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	return b, ok
}

func (s *State) PutBudget(b models.Budget) {
	s.mu.Lock()
	s.budgets[b.ID] = b
	s.mu.Unlock()
	s.notify(models.TableBudgets)
}

func (s *State) RemoveBudget(id string) {
	s.mu.Lock()
	delete(s.budgets, id)
	s.mu.Unlock()
	s.notify(models.TableBudgets)
}

// Visits returns every cached visit, confirmed ones included.
func (s *State) Visits() []models.Visit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return values(s.visits)
}

// ActiveVisits is the working set: scheduled visits ordered by date.
func (s *State) ActiveVisits() []models.Visit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var active []models.Visit
	for _, v := range s.visits {
		if v.Status != models.VisitConfirmed {
			active = append(active, v)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].DateTime.Before(active[j].DateTime) })
	return active
}

func (s *State) Visit(id string) (models.Visit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.visits[id]
	return v, ok
}

func (s *State) PutVisit(v models.Visit) {
	s.mu.Lock()
	s.visits[v.ID] = v
	s.mu.Unlock()
	s.notify(models.TableVisits)
}

func (s *State) RemoveVisit(id string) {
	s.mu.Lock()
	delete(s.visits, id)
	s.mu.Unlock()
	s.notify(models.TableVisits)
}

// Configuration returns the settings singleton, if loaded.
func (s *State) Configuration() (models.Configuration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.configuration == nil {
		return models.Configuration{}, false
	}
	return *s.configuration, true
}

// QuoteValidityDays is the global validity window, 0 when not configured.
func (s *State) QuoteValidityDays() int {
	cfg, ok := s.Configuration()
	if !ok {
		return 0
	}
	return cfg.QuoteValidityDays
}

func (s *State) PutConfiguration(cfg models.Configuration) {
	s.mu.Lock()
	s.configuration = &cfg
	s.mu.Unlock()
	s.notify(models.TableConfiguration)
}

func index[T models.Record](records []T) map[string]T {
	m := make(map[string]T, len(records))
	for _, r := range records {
		m[r.Key()] = r
	}
	return m
}

func values[T models.Record](m map[string]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
