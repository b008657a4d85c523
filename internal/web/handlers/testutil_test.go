package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/vbartonek/face-attendance/internal/attendance"
	"github.com/vbartonek/face-attendance/internal/gallery"
	"github.com/vbartonek/face-attendance/internal/gallery/mock"
	"github.com/vbartonek/face-attendance/internal/landmark"
	"github.com/vbartonek/face-attendance/internal/match"
)

// testFace returns a frontal synthetic face with enough named key points for
// sparse scoring, eyes level at y=200 and an outer-eye distance of 160 units.
func testFace() landmark.Set {
	return landmark.Set{
		KeyPoints: []landmark.Point{
			{Name: landmark.LeftEyeOuter, X: 240, Y: 200, Z: 8},
			{Name: landmark.LeftEyeInner, X: 284, Y: 202, Z: 3},
			{Name: landmark.LeftEye, X: 262, Y: 200, Z: 5},
			{Name: landmark.RightEyeOuter, X: 400, Y: 200, Z: 8},
			{Name: landmark.RightEyeInner, X: 356, Y: 202, Z: 3},
			{Name: landmark.RightEye, X: 378, Y: 200, Z: 5},
			{Name: landmark.NoseBridge, X: 320, Y: 205, Z: 0},
			{Name: landmark.NoseTip, X: 320, Y: 260, Z: -12},
			{Name: landmark.NoseBase, X: 320, Y: 278, Z: -6},
			{Name: landmark.MouthLeft, X: 276, Y: 316, Z: 2},
			{Name: landmark.MouthRight, X: 364, Y: 316, Z: 2},
			{Name: landmark.MouthTop, X: 320, Y: 306, Z: -4},
			{Name: landmark.MouthBottom, X: 320, Y: 330, Z: -2},
			{Name: landmark.Chin, X: 320, Y: 380, Z: 0},
			{Name: landmark.JawLeft, X: 230, Y: 330, Z: 25},
			{Name: landmark.JawRight, X: 410, Y: 330, Z: 25},
			{Name: landmark.Forehead, X: 320, Y: 140, Z: 2},
		},
		Box:       landmark.Box{MinX: 200, MinY: 120, MaxX: 440, MaxY: 400},
		SourceTag: "test-detector",
		Quality:   0.95,
	}
}

func testEntry(personID, sampleID string) gallery.Entry {
	return gallery.Entry{
		PersonID:  personID,
		SampleID:  sampleID,
		Landmarks: testFace(),
		CreatedAt: time.Date(2026, 5, 12, 8, 0, 0, 0, time.UTC),
	}
}

// annaStore seeds a mock store with one person holding three samples.
func annaStore() *mock.Store {
	return mock.NewStore().Seed(
		gallery.Person{ID: "anna", DisplayName: "Anna Svobodová"},
		testEntry("anna", "a1"),
		testEntry("anna", "a2"),
		testEntry("anna", "a3"),
	)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newValidator() *validator.Validate {
	return validator.New()
}

// newTestService wires a matching service over the given store with an
// in-memory event log.
func newTestService(t *testing.T, store gallery.Store) (*attendance.Service, *attendance.MemoryEvents) {
	t.Helper()

	events := attendance.NewMemoryEvents()
	svc, err := attendance.NewService(attendance.Deps{
		Snapshot: gallery.NewSnapshot(store, time.Minute),
		Matcher:  match.NewMatcher(match.Config{}, nil, quietLogger()),
		Events:   events,
	}, attendance.Config{}, quietLogger())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return svc, events
}

// jsonBody encodes a value as a JSON request body.
func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	return bytes.NewBuffer(data)
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
