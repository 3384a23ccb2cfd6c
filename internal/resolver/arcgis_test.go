package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/username/refuse-schedule/internal/weekday"
	"go.uber.org/zap"
)

const (
	candidatesJSON = `{"candidates":[{"address":"1 S Sandusky St, Delaware, Ohio, 43015","location":{"x":-83.0680,"y":40.2987},"score":100}]}`
	featuresJSON   = `{"features":[{"attributes":{"OBJECTID":7,"Day":"MONDAY"}}]}`
)

type fakeArcGIS struct {
	geocode string
	query   string
	status  int

	geocodeParams atomic.Value
	queryParams   atomic.Value
	calls         atomic.Int32
}

func (f *fakeArcGIS) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/geocode", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		f.geocodeParams.Store(r.URL.Query())
		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		w.Write([]byte(f.geocode))
	})
	mux.HandleFunc("/layer/query", func(w http.ResponseWriter, r *http.Request) {
		f.queryParams.Store(r.URL.Query())
		w.Write([]byte(f.query))
	})
	return mux
}

func newTestClient(t *testing.T, fake *fakeArcGIS) *ArcGISClient {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	logger, _ := zap.NewDevelopment()
	c := NewArcGISClient(Options{
		GeocodeURL: server.URL + "/geocode",
		LayerURL:   server.URL + "/layer/",
		Timeout:    5 * time.Second,
	}, logger)
	c.retryDelay = time.Millisecond
	return c
}

func TestLookupCollectionDay(t *testing.T) {
	fake := &fakeArcGIS{geocode: candidatesJSON, query: featuresJSON}
	c := newTestClient(t, fake)

	lookup, err := c.LookupCollectionDay(context.Background(), "1 S Sandusky St")
	if err != nil {
		t.Fatalf("LookupCollectionDay() error = %v", err)
	}
	if lookup.CollectionDay != weekday.Monday {
		t.Errorf("CollectionDay = %q, want Monday", lookup.CollectionDay)
	}
	if lookup.Zone != "7" {
		t.Errorf("Zone = %q, want 7", lookup.Zone)
	}
	if lookup.MatchedAddress != "1 S Sandusky St, Delaware, Ohio, 43015" {
		t.Errorf("MatchedAddress = %q", lookup.MatchedAddress)
	}

	geo := fake.geocodeParams.Load().(url.Values)
	if geo["city"][0] != "Delaware" || geo["state"][0] != "OH" || geo["address"][0] != "1 S Sandusky St" {
		t.Errorf("geocode params = %v", geo)
	}

	query := fake.queryParams.Load().(url.Values)
	if query["geometry"][0] != "-83.068,40.2987" {
		t.Errorf("geometry = %q", query["geometry"][0])
	}
	if query["geometryType"][0] != "esriGeometryPoint" || query["inSR"][0] != "4326" || query["returnGeometry"][0] != "false" {
		t.Errorf("query params = %v", query)
	}
}

func TestLookupCollectionDay_LookupErrors(t *testing.T) {
	tests := []struct {
		name     string
		geocode  string
		query    string
		wantKind ErrorKind
	}{
		{"no candidates", `{"candidates":[]}`, featuresJSON, AddressNotFound},
		{"no features", candidatesJSON, `{"features":[]}`, ZoneNotFound},
		{"blank day", candidatesJSON, `{"features":[{"attributes":{"OBJECTID":7,"Day":"  "}}]}`, CollectionDayUnset},
		{"null day", candidatesJSON, `{"features":[{"attributes":{"OBJECTID":7,"Day":null}}]}`, CollectionDayUnset},
		{"missing day", candidatesJSON, `{"features":[{"attributes":{"OBJECTID":7}}]}`, CollectionDayUnset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeArcGIS{geocode: tt.geocode, query: tt.query})

			_, err := c.LookupCollectionDay(context.Background(), "999 Nowhere Rd")
			kind, ok := KindOf(err)
			if !ok {
				t.Fatalf("LookupCollectionDay() error = %v, want a LookupError", err)
			}
			if kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", kind, tt.wantKind)
			}

			var le *LookupError
			if !errors.As(err, &le) || le.Address != "999 Nowhere Rd" {
				t.Errorf("LookupError address = %+v", le)
			}
		})
	}
}

func TestLookupCollectionDay_TransportErrors(t *testing.T) {
	t.Run("server error is retried", func(t *testing.T) {
		fake := &fakeArcGIS{status: http.StatusBadGateway}
		c := newTestClient(t, fake)

		_, err := c.LookupCollectionDay(context.Background(), "1 S Sandusky St")
		if err == nil {
			t.Fatal("LookupCollectionDay() expected error")
		}
		if _, ok := KindOf(err); ok {
			t.Errorf("transport failure reported as LookupError: %v", err)
		}
		if got := fake.calls.Load(); got != defaultRetries {
			t.Errorf("geocode called %d times, want %d", got, defaultRetries)
		}
	})

	t.Run("client error is not retried", func(t *testing.T) {
		fake := &fakeArcGIS{status: http.StatusBadRequest}
		c := newTestClient(t, fake)

		if _, err := c.LookupCollectionDay(context.Background(), "1 S Sandusky St"); err == nil {
			t.Fatal("LookupCollectionDay() expected error")
		}
		if got := fake.calls.Load(); got != 1 {
			t.Errorf("geocode called %d times, want 1", got)
		}
	})

	t.Run("api error payload", func(t *testing.T) {
		c := newTestClient(t, &fakeArcGIS{
			geocode: `{"error":{"code":498,"message":"Invalid token","details":[]}}`,
			query:   featuresJSON,
		})

		_, err := c.LookupCollectionDay(context.Background(), "1 S Sandusky St")
		if err == nil {
			t.Fatal("LookupCollectionDay() expected error")
		}
		if _, ok := KindOf(err); ok {
			t.Errorf("API error reported as LookupError: %v", err)
		}
	})

	t.Run("unknown day value", func(t *testing.T) {
		c := newTestClient(t, &fakeArcGIS{
			geocode: candidatesJSON,
			query:   `{"features":[{"attributes":{"Day":"Someday"}}]}`,
		})

		_, err := c.LookupCollectionDay(context.Background(), "1 S Sandusky St")
		if !errors.Is(err, weekday.ErrInvalidWeekday) {
			t.Errorf("LookupCollectionDay() error = %v, want ErrInvalidWeekday", err)
		}
	})
}

func TestStatic(t *testing.T) {
	lookup, err := Static{Day: weekday.Thursday}.LookupCollectionDay(context.Background(), "a")
	if err != nil || lookup.CollectionDay != weekday.Thursday {
		t.Errorf("Static.LookupCollectionDay() = %+v, %v", lookup, err)
	}

	if _, err := (Static{}).LookupCollectionDay(context.Background(), "a"); err == nil {
		t.Error("empty Static should fail")
	} else if kind, _ := KindOf(err); kind != CollectionDayUnset {
		t.Errorf("kind = %s, want collection_day_unset", kind)
	}
}

func TestLookupErrorMessages(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{AddressNotFound, "address not found: 5 Main St"},
		{ZoneNotFound, "no collection zone found for address: 5 Main St"},
		{CollectionDayUnset, "collection day not set for address: 5 Main St"},
	}

	for _, tt := range tests {
		err := &LookupError{Kind: tt.kind, Address: "5 Main St"}
		if err.Error() != tt.want {
			t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
		}
	}
}
