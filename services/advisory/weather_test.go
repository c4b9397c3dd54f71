package advisory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string][]byte)
	}
	c.data[key] = value
	return nil
}

func openMeteoStub(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Nairobi", r.URL.Query().Get("name"))
		w.Write([]byte(`{"results":[{"name":"Nairobi","latitude":-1.2833,"longitude":36.8167}]}`))
	})
	mux.HandleFunc("/v1/forecast", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "2025-06-03", r.URL.Query().Get("start_date"))
		w.Write([]byte(`{"daily":{"time":["2025-06-03"],"weather_code":[61],"temperature_2m_max":[24.1],"temperature_2m_min":[12.5],"precipitation_probability_max":[70]}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestWeather(baseURL string, cache Cache) *OpenMeteoProvider {
	p := NewOpenMeteoProvider(baseURL, baseURL, cache, time.Hour, time.Second, zap.NewNop())
	p.Now = func() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestGetWeatherForecast(t *testing.T) {
	var calls atomic.Int32
	srv := openMeteoStub(t, &calls)
	cache := &memoryCache{}
	p := newTestWeather(srv.URL, cache)
	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)

	got := p.GetWeatherForecast(context.Background(), day, "Nairobi")

	require.True(t, got.Available, got.Reason)
	assert.Equal(t, "2025-06-03", got.Value.Date)
	assert.Equal(t, "Nairobi", got.Value.Location)
	assert.Equal(t, 70, got.Value.PrecipitationProbability)
	assert.Equal(t, "Rain", got.Value.Summary)
	assert.Equal(t, int32(2), calls.Load())

	again := p.GetWeatherForecast(context.Background(), day, "nairobi")
	require.True(t, again.Available)
	assert.Equal(t, got.Value, again.Value)
	assert.Equal(t, int32(2), calls.Load(), "second lookup served from cache")
}

func TestGetWeatherForecast_Unavailable(t *testing.T) {
	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)

	t.Run("upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		got := newTestWeather(srv.URL, nil).GetWeatherForecast(context.Background(), day, "Nairobi")
		assert.False(t, got.Available)
	})

	t.Run("unknown place", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()
		got := newTestWeather(srv.URL, nil).GetWeatherForecast(context.Background(), day, "Atlantis")
		assert.False(t, got.Available)
	})

	t.Run("slow upstream", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)
		p := newTestWeather(srv.URL, nil)
		p.Timeout = 30 * time.Millisecond
		got := p.GetWeatherForecast(context.Background(), day, "Nairobi")
		assert.False(t, got.Available)
	})

	t.Run("blank location", func(t *testing.T) {
		got := newTestWeather("http://127.0.0.1:1", nil).GetWeatherForecast(context.Background(), day, "  ")
		assert.False(t, got.Available)
	})
}
