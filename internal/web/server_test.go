package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/hall-sensor/internal/input"
	"github.com/sweeney/hall-sensor/internal/journal"
	"github.com/sweeney/hall-sensor/internal/status"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeInfo struct {
	text  string
	ready bool
}

func (f *fakeInfo) Info() (string, bool) { return f.text, f.ready }

type fakeEvents struct {
	records   []journal.Record
	err       error
	lastLimit int
}

func (f *fakeEvents) Recent(limit int) ([]journal.Record, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.records) {
		return f.records[len(f.records)-limit:], nil
	}
	return f.records, nil
}

type rig struct {
	ts      *httptest.Server
	tracker *status.Tracker
	info    *fakeInfo
	events  *fakeEvents
	reg     *prometheus.Registry
}

func newRig(t *testing.T) *rig {
	t.Helper()
	cfg := status.Config{
		GPIO:      42,
		ActiveLow: true,
		Wakeup:    true,
		MinUV:     1800000,
		MaxUV:     1800000,
		Broker:    "tcp://192.168.1.200:1883",
		HTTPAddr:  ":80",
	}
	r := &rig{
		tracker: status.NewTracker(start, cfg),
		info:    &fakeInfo{text: "IC:OCH175VAD,vendor:Unique Semi\n"},
		events:  &fakeEvents{},
		reg:     prometheus.NewRegistry(),
	}
	srv := New(":0", r.tracker, Options{Info: r.info, Events: r.events, Metrics: r.reg})
	r.ts = httptest.NewServer(srv.Handler())
	t.Cleanup(r.ts.Close)
	return r
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func lid(at time.Time, value int32) []input.Event {
	return []input.Event{
		{Time: at, Type: input.EvSw, Code: input.SwLid, Value: value},
		{Time: at, Type: input.EvSyn, Code: input.SynReport},
	}
}

func TestJSONEndpoint(t *testing.T) {
	r := newRig(t)
	r.tracker.SetLifecycle("ready")
	r.tracker.Deliver(lid(start.Add(time.Second), 1))
	r.tracker.SetMQTTConnected(true)

	resp, body := get(t, r.ts.URL+"/index.json")
	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(body), &sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if sj.Status.Switch != "NEAR" {
		t.Errorf("Switch: got %q, want NEAR", sj.Status.Switch)
	}
	if !sj.Status.Ready {
		t.Error("expected Ready=true")
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.Counts.Near != 1 {
		t.Errorf("Counts.Near: got %d, want 1", sj.Status.Counts.Near)
	}
	if sj.Status.Config.GPIO != 42 {
		t.Errorf("Config.GPIO: got %d, want 42", sj.Status.Config.GPIO)
	}
}

func TestHTMLEndpoints(t *testing.T) {
	r := newRig(t)
	r.tracker.Deliver(lid(start, 0))

	for _, path := range []string{"/", "/index.html"} {
		resp, body := get(t, r.ts.URL+path)
		if resp.StatusCode != 200 {
			t.Errorf("%s: status %d, want 200", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s: Content-Type %q, want text/html", path, ct)
		}
		if !strings.Contains(body, `class="far">FAR`) {
			t.Errorf("%s: expected FAR state in page", path)
		}
		if !strings.Contains(body, "/dev/input/hall_dev") {
			t.Errorf("%s: expected phys path in page", path)
		}
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	r := newRig(t)
	resp, _ := get(t, r.ts.URL+"/nonexistent")
	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestInfoOnlyWhenReady(t *testing.T) {
	r := newRig(t)

	resp, _ := get(t, r.ts.URL+"/android_hall/info")
	if resp.StatusCode != 404 {
		t.Errorf("before ready: got %d, want 404", resp.StatusCode)
	}

	r.info.ready = true
	resp, body := get(t, r.ts.URL+"/android_hall/info")
	if resp.StatusCode != 200 {
		t.Fatalf("ready: got %d, want 200", resp.StatusCode)
	}
	if body != "IC:OCH175VAD,vendor:Unique Semi\n" {
		t.Errorf("body: got %q", body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type: got %q", ct)
	}
}

func TestEventsEndpoint(t *testing.T) {
	r := newRig(t)
	for i := 1; i <= 30; i++ {
		v := int32(i % 2)
		r.events.records = append(r.events.records, journal.Record{
			Seq: uint64(i), Time: start.Add(time.Duration(i) * time.Second), Value: v, State: input.StateName(v),
		})
	}

	resp, body := get(t, r.ts.URL+"/events.json")
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if r.events.lastLimit != defaultEventLimit {
		t.Errorf("default limit: got %d", r.events.lastLimit)
	}
	var ej EventsJSON
	if err := json.Unmarshal([]byte(body), &ej); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ej.Events) != defaultEventLimit {
		t.Errorf("events: got %d", len(ej.Events))
	}
	if last := ej.Events[len(ej.Events)-1]; last.Seq != 30 || last.State != "FAR" {
		t.Errorf("last event: %+v", last)
	}

	get(t, r.ts.URL+"/events.json?limit=5000")
	if r.events.lastLimit != maxEventLimit {
		t.Errorf("limit clamp: got %d", r.events.lastLimit)
	}
}

func TestEventsEndpointErrors(t *testing.T) {
	r := newRig(t)

	for _, q := range []string{"abc", "0", "-3"} {
		resp, _ := get(t, r.ts.URL+"/events.json?limit="+q)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("limit=%s: got %d, want 400", q, resp.StatusCode)
		}
	}

	_, body := get(t, r.ts.URL+"/events.json")
	if !strings.Contains(body, `"events":[]`) {
		t.Errorf("empty journal: got %s", body)
	}

	r.events.err = errors.New("disk gone")
	resp, _ := get(t, r.ts.URL+"/events.json")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("store error: got %d, want 500", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newRig(t)
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "hall_sensor_test_total", Help: "test"})
	r.reg.MustRegister(c)
	c.Add(3)

	resp, body := get(t, r.ts.URL+"/metrics")
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "hall_sensor_test_total 3") {
		t.Errorf("metrics body missing counter:\n%s", body)
	}
}

func TestOptionalRoutesWithoutSources(t *testing.T) {
	tr := status.NewTracker(start, status.Config{})
	ts := httptest.NewServer(New(":0", tr, Options{}).Handler())
	defer ts.Close()

	for _, path := range []string{"/android_hall/info", "/events.json", "/metrics"} {
		resp, _ := get(t, ts.URL+path)
		if resp.StatusCode != 404 {
			t.Errorf("%s: got %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	r := newRig(t)

	var sj1 status.StatusJSON
	_, body := get(t, r.ts.URL+"/index.json")
	json.Unmarshal([]byte(body), &sj1)
	if sj1.Status.Ready || sj1.Status.Switch != "UNKNOWN" {
		t.Errorf("initial: ready=%v switch=%s", sj1.Status.Ready, sj1.Status.Switch)
	}

	r.tracker.SetLifecycle("ready")
	r.tracker.Deliver(lid(start, 1))

	var sj2 status.StatusJSON
	_, body = get(t, r.ts.URL+"/index.json")
	json.Unmarshal([]byte(body), &sj2)
	if !sj2.Status.Ready {
		t.Error("expected Ready=true after update")
	}
	if sj2.Status.Switch != "NEAR" {
		t.Errorf("Switch: got %q, want NEAR", sj2.Status.Switch)
	}
}
