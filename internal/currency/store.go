package currency

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Persistence is the client-local storage boundary: a single key/value
// pair holding the preferred currency. The HTTP layer binds it to a
// cookie; tests use MemoryPersistence.
type Persistence interface {
	Load() (string, bool)
	Save(value string) error
}

// MemoryPersistence is an in-memory Persistence, used in tests and as a
// stand-in when no client storage is available
type MemoryPersistence struct {
	mu    sync.Mutex
	value string
	set   bool
}

func (m *MemoryPersistence) Load() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.set
}

func (m *MemoryPersistence) Save(value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = value
	m.set = true
	return nil
}

// Store holds the active display currency and the cached rate table for
// one browsing session. It is an explicit, injected object with exactly
// one writer path (its own operations). Initialize and LoadRates are
// independent and safe to run in any relative order.
type Store struct {
	source  Source
	persist Persistence
	logger  zerolog.Logger

	mu      sync.Mutex
	active  Currency
	rates   map[Currency]float64
	loading bool
	subs    map[int]func(Currency)
	nextSub int
}

// NewStore creates a currency store. The active currency starts at the
// default until Initialize runs.
func NewStore(source Source, persist Persistence, logger zerolog.Logger) *Store {
	return &Store{
		source:  source,
		persist: persist,
		logger:  logger,
		active:  DefaultCurrency,
		rates:   make(map[Currency]float64),
		subs:    make(map[int]func(Currency)),
	}
}

// Initialize resolves the active currency: the persisted choice when one
// exists, otherwise auto-detection from the locale hint, falling back to
// the default. The result becomes the active currency.
func (s *Store) Initialize(localeHint string) {
	active := DefaultCurrency
	if raw, ok := s.persist.Load(); ok {
		if parsed, valid := Parse(raw); valid {
			active = parsed
		} else {
			active = Detect(localeHint)
		}
	} else {
		active = Detect(localeHint)
	}

	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
}

// LoadRates fetches the rate table. Failure leaves the table empty and
// is not retried; conversions then degrade to the identity fallback.
func (s *Store) LoadRates(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	rates, err := s.source.FetchRates(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.logger.Warn().Err(err).Msg("Exchange-rate fetch failed, conversions degrade to identity")
		return
	}
	for _, r := range rates {
		s.rates[r.Currency] = r.Rate
	}
}

// Loading reports whether a rate fetch is in flight
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Active returns the active display currency
func (s *Store) Active() Currency {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// HasRates reports whether the rate table is populated
func (s *Store) HasRates() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rates) > 0
}

// Rates returns a stable-ordered copy of the rate table
func (s *Store) Rates() []Rate {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Rate, 0, len(s.rates))
	for c, r := range s.rates {
		out = append(out, Rate{Currency: c, Rate: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// SetCurrency updates the active currency, persists the choice, and
// notifies subscribers. Overlapping calls are last-write-wins.
func (s *Store) SetCurrency(c Currency) error {
	if _, ok := Lookup(c); !ok {
		c = DefaultCurrency
	}

	s.mu.Lock()
	s.active = c
	fns := s.snapshotSubs()
	s.mu.Unlock()

	if err := s.persist.Save(string(c)); err != nil {
		return err
	}
	for _, fn := range fns {
		fn(c)
	}
	return nil
}

// ConvertPrice converts amount from the given currency into the active
// one. Same-currency conversions short-circuit to the exact amount; a
// missing rate degrades to multiplier 1.
func (s *Store) ConvertPrice(amount float64, from Currency) float64 {
	s.mu.Lock()
	active := s.active
	rateFrom, okFrom := s.rateLocked(from)
	rateActive, okActive := s.rateLocked(active)
	s.mu.Unlock()

	if from == active {
		return amount
	}
	if !okFrom || !okActive {
		return amount
	}

	// amount -> base (KES) -> active
	return amount / rateFrom * rateActive
}

// FormatPrice converts and renders amount with the active currency's
// fixed symbol and decimal rules
func (s *Store) FormatPrice(amount float64, from Currency, showDecimals bool) string {
	converted := s.ConvertPrice(amount, from)

	active := s.Active()
	info, _ := Lookup(active)

	decimals := 0
	if showDecimals {
		decimals = info.Decimals
	}

	text := groupThousands(strconv.FormatFloat(converted, 'f', decimals, 64))
	if len(info.Symbol) > 1 {
		return info.Symbol + " " + text
	}
	return info.Symbol + text
}

// Subscribe registers an observer for currency changes. The returned
// function unsubscribes.
func (s *Store) Subscribe(fn func(Currency)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// rateLocked must be called with the lock held. The base currency always
// has rate 1.
func (s *Store) rateLocked(c Currency) (float64, bool) {
	if c == Base {
		return 1, true
	}
	r, ok := s.rates[c]
	return r, ok
}

// snapshotSubs must be called with the lock held
func (s *Store) snapshotSubs() []func(Currency) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Currency), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	return fns
}

// groupThousands inserts comma separators into the integer part of a
// formatted decimal number
func groupThousands(num string) string {
	sign := ""
	if strings.HasPrefix(num, "-") {
		sign = "-"
		num = num[1:]
	}

	intPart := num
	fracPart := ""
	if i := strings.IndexByte(num, '.'); i >= 0 {
		intPart = num[:i]
		fracPart = num[i:]
	}

	if len(intPart) <= 3 {
		return sign + intPart + fracPart
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + fracPart
}
