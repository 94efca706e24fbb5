package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/shreyas/cadence/scheduler"
)

func TestScheduleHTTPJob(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name: "valid request with AT_MOST_ONCE",
			requestBody: map[string]interface{}{
				"id":   "j1",
				"name": "webhook-job",
				"cron": "0 0 * * *",
				"api":  "https://example.com/webhook",
				"type": "AT_MOST_ONCE",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "valid request with AT_LEAST_ONCE",
			requestBody: map[string]interface{}{
				"id":   "j2",
				"name": "callback-job",
				"cron": "*/5 * * * *",
				"api":  "https://api.example.com/callback",
				"type": "AT_LEAST_ONCE",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing id field",
			requestBody: map[string]interface{}{
				"name": "x",
				"api":  "https://example.com/webhook",
				"type": "AT_MOST_ONCE",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_REQUEST",
		},
		{
			name: "invalid type value",
			requestBody: map[string]interface{}{
				"id":   "j3",
				"name": "x",
				"api":  "https://example.com/webhook",
				"type": "SOMETHING_ELSE",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_TYPE",
		},
		{
			name: "invalid url - no scheme",
			requestBody: map[string]interface{}{
				"id":   "j4",
				"name": "x",
				"api":  "example.com/webhook",
				"type": "AT_MOST_ONCE",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "JOB_CREATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handlers{Scheduler: scheduler.New()}

			body, _ := json.Marshal(tt.requestBody)
			req := httptest.NewRequest(http.MethodPost, "/v1/schedule/http-job", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = req

			h.ScheduleHTTPJob(c)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d (body: %s)", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.expectedError != "" {
				var errResp ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
					t.Fatalf("failed to parse error response: %v", err)
				}
				if errResp.Error.Code != tt.expectedError {
					t.Errorf("expected error code %s, got %s", tt.expectedError, errResp.Error.Code)
				}
				return
			}

			var resp definitionResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse success response: %v", err)
			}
			if resp.ID != tt.requestBody["id"] {
				t.Errorf("expected id %v, got %v", tt.requestBody["id"], resp.ID)
			}
			if _, ok := h.Scheduler.GetByID(resp.ID); !ok {
				t.Errorf("expected definition %s to be registered on the scheduler", resp.ID)
			}
		})
	}
}

func TestListDefinitions_ReturnsRegistrationOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{Scheduler: scheduler.New()}
	for _, req := range []map[string]interface{}{
		{"id": "a", "name": "a", "api": "https://example.com/a", "type": "AT_MOST_ONCE"},
		{"id": "b", "name": "b", "api": "https://example.com/b", "type": "AT_MOST_ONCE"},
	} {
		body, _ := json.Marshal(req)
		r := httptest.NewRequest(http.MethodPost, "/v1/schedule/http-job", bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = r
		h.ScheduleHTTPJob(c)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/definitions", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	h.ListDefinitions(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp SuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	items, ok := resp.Data.([]interface{})
	if !ok || len(items) != 2 {
		t.Fatalf("expected 2 definitions, got %v", resp.Data)
	}
	for i, want := range []string{"a", "b"} {
		item, _ := items[i].(map[string]interface{})
		if item["id"] != want {
			t.Fatalf("definition %d id = %v, want %s", i, item["id"], want)
		}
	}
}

func TestForceStartDefinition_UnknownID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &Handlers{Scheduler: scheduler.New()}

	req := httptest.NewRequest(http.MethodPost, "/v1/definitions/missing/force-start", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.ForceStartDefinition(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
