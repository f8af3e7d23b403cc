// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reachwell/reachwell/internal/pose"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// NewJSONRequest creates a test HTTP request carrying a JSON body.
func NewJSONRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeJSONResponse decodes a recorder's JSON body into dst.
func DecodeJSONResponse(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rec.Body.String(), err)
	}
}

// UprightFrame builds a full landmark frame for a subject standing
// upright facing the camera: shoulders level, arms at the sides, hips
// and legs visible. Tests mutate individual landmarks from there.
func UprightFrame() *pose.Frame {
	f := pose.NewFrame()
	vis := func(x, y float64) pose.Point { return pose.Point{X: x, Y: y, Visibility: 0.95} }

	f.Set(pose.Nose, vis(0.50, 0.15))
	f.Set(pose.LeftShoulder, vis(0.60, 0.35))
	f.Set(pose.RightShoulder, vis(0.40, 0.35))
	f.Set(pose.LeftElbow, vis(0.63, 0.50))
	f.Set(pose.RightElbow, vis(0.37, 0.50))
	f.Set(pose.LeftWrist, vis(0.65, 0.62))
	f.Set(pose.RightWrist, vis(0.35, 0.62))
	f.Set(pose.LeftHip, vis(0.57, 0.60))
	f.Set(pose.RightHip, vis(0.43, 0.60))
	f.Set(pose.LeftKnee, vis(0.57, 0.78))
	f.Set(pose.RightKnee, vis(0.43, 0.78))
	f.Set(pose.LeftAnkle, vis(0.57, 0.93))
	f.Set(pose.RightAnkle, vis(0.43, 0.93))
	return f
}

// SetLandmark places a landmark with full visibility.
func SetLandmark(f *pose.Frame, i int, x, y float64) {
	f.Set(i, pose.Point{X: x, Y: y, Visibility: 0.95})
}
