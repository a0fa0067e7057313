package currency

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	rates []Rate
	err   error
}

func (s *fakeSource) FetchRates(ctx context.Context) ([]Rate, error) {
	return s.rates, s.err
}

func testRates() []Rate {
	return []Rate{
		{Currency: USD, Rate: 0.0077},
		{Currency: EUR, Rate: 0.0071},
		{Currency: GBP, Rate: 0.0061},
	}
}

func newTestStore(source Source) (*Store, *MemoryPersistence) {
	persist := &MemoryPersistence{}
	return NewStore(source, persist, zerolog.Nop()), persist
}

func TestStore_InitializePrefersPersistedChoice(t *testing.T) {
	store, persist := newTestStore(&fakeSource{})
	require.NoError(t, persist.Save("EUR"))

	store.Initialize("en-KE")
	assert.Equal(t, EUR, store.Active())
}

func TestStore_InitializeDetectsFromLocale(t *testing.T) {
	tests := []struct {
		hint string
		want Currency
	}{
		{"en-KE", KES},
		{"en-GB", GBP},
		{"de-DE", EUR},
		{"ja-JP", DefaultCurrency},
	}

	for _, tt := range tests {
		store, _ := newTestStore(&fakeSource{})
		store.Initialize(tt.hint)
		assert.Equal(t, tt.want, store.Active(), "hint %q", tt.hint)
	}
}

func TestStore_InitializeIgnoresCorruptPersistedValue(t *testing.T) {
	store, persist := newTestStore(&fakeSource{})
	require.NoError(t, persist.Save("DOGE"))

	store.Initialize("en-KE")
	assert.Equal(t, KES, store.Active())
}

func TestStore_SetCurrencyPersistsAndNotifies(t *testing.T) {
	store, persist := newTestStore(&fakeSource{})

	var notified []Currency
	unsubscribe := store.Subscribe(func(c Currency) { notified = append(notified, c) })
	defer unsubscribe()

	require.NoError(t, store.SetCurrency(GBP))

	assert.Equal(t, GBP, store.Active())
	assert.Equal(t, []Currency{GBP}, notified)

	saved, ok := persist.Load()
	require.True(t, ok)
	assert.Equal(t, "GBP", saved)
}

func TestStore_SetCurrencyInvalidFallsBack(t *testing.T) {
	store, _ := newTestStore(&fakeSource{})
	require.NoError(t, store.SetCurrency("XAU"))
	assert.Equal(t, DefaultCurrency, store.Active())
}

func TestStore_PersistedChoiceSurvivesNewStore(t *testing.T) {
	source := &fakeSource{rates: testRates()}
	persist := &MemoryPersistence{}

	first := NewStore(source, persist, zerolog.Nop())
	first.Initialize("en-KE")
	require.NoError(t, first.SetCurrency(EUR))

	// A fresh store over the same persistence resolves the saved choice,
	// not the locale
	second := NewStore(source, persist, zerolog.Nop())
	second.Initialize("en-KE")
	assert.Equal(t, EUR, second.Active())
}

func TestStore_ConvertPrice(t *testing.T) {
	store, _ := newTestStore(&fakeSource{rates: testRates()})
	store.LoadRates(context.Background())
	require.True(t, store.HasRates())

	require.NoError(t, store.SetCurrency(USD))

	// 1000 KES at 0.0077 USD per KES
	assert.InDelta(t, 7.7, store.ConvertPrice(1000, KES), 1e-9)

	// Cross rate goes through the base: USD -> KES -> EUR
	assert.InDelta(t, 100/0.0077*0.0071, store.ConvertPrice(100, USD), 1e-9)
}

func TestStore_ConvertPriceIdentity(t *testing.T) {
	store, _ := newTestStore(&fakeSource{rates: testRates()})
	store.LoadRates(context.Background())

	require.NoError(t, store.SetCurrency(USD))
	assert.Equal(t, 123.45, store.ConvertPrice(123.45, USD))

	require.NoError(t, store.SetCurrency(KES))
	assert.Equal(t, 1000.0, store.ConvertPrice(1000, KES))
}

func TestStore_ConvertPriceWithoutRatesDegradesToIdentity(t *testing.T) {
	store, _ := newTestStore(&fakeSource{err: errors.New("upstream down")})
	store.LoadRates(context.Background())

	require.False(t, store.HasRates())
	require.NoError(t, store.SetCurrency(USD))

	// No multiplier available, amount passes through unchanged
	assert.Equal(t, 1000.0, store.ConvertPrice(1000, KES))
	assert.False(t, store.Loading())
}

func TestStore_FormatPrice(t *testing.T) {
	store, _ := newTestStore(&fakeSource{rates: testRates()})
	store.LoadRates(context.Background())

	require.NoError(t, store.SetCurrency(KES))
	assert.Equal(t, "KSh 1,500,000", store.FormatPrice(1500000, KES, false))
	// KES renders with zero decimals even when decimals are requested
	assert.Equal(t, "KSh 1,500,000", store.FormatPrice(1500000, KES, true))

	require.NoError(t, store.SetCurrency(USD))
	assert.Equal(t, "$7.70", store.FormatPrice(1000, KES, true))
	assert.Equal(t, "$1,000,000.00", store.FormatPrice(1000000, USD, true))
	assert.Equal(t, "$500", store.FormatPrice(500, USD, false))
}

func TestGroupThousands(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"999", "999"},
		{"1000", "1,000"},
		{"1500000", "1,500,000"},
		{"1234567.89", "1,234,567.89"},
		{"-45000", "-45,000"},
	}

	for _, tt := range tests {
		if got := groupThousands(tt.in); got != tt.want {
			t.Errorf("groupThousands(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHTTPSource_FetchRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base":"KES","rates":{"USD":0.0077,"EUR":0.0071,"GBP":0.0061,"JPY":1.15}}`))
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL, time.Second)
	rates, err := source.FetchRates(context.Background())
	require.NoError(t, err)

	// JPY is filtered out, the base never appears in its own table
	assert.Equal(t, []Rate{
		{Currency: USD, Rate: 0.0077},
		{Currency: EUR, Rate: 0.0071},
		{Currency: GBP, Rate: 0.0061},
	}, rates)
}

func TestHTTPSource_FetchRatesRejectsWrongBase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base":"USD","rates":{"KES":130.0}}`))
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL, time.Second)
	_, err := source.FetchRates(context.Background())
	assert.Error(t, err)
}

func TestHTTPSource_FetchRatesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL, time.Second)
	_, err := source.FetchRates(context.Background())
	assert.Error(t, err)
}
