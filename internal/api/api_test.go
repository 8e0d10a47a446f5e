package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/cloud"
	"github.com/erazemk/zaloga/internal/db"
	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

const testAuthSecret = "test-secret"

type testEnv struct {
	server  *httptest.Server
	store   *store.Store
	commits *atomic.Int32
}

func setupTestServer(t *testing.T) testEnv {
	t.Helper()

	items := store.New(filepath.Join(t.TempDir(), db.FileName))
	t.Cleanup(func() { items.Close() })

	var commits atomic.Int32
	firestoreServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		commits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"commitTime":"2024-01-01T00:00:00Z"}`))
	}))
	t.Cleanup(firestoreServer.Close)

	fs, err := cloud.NewFirestore(context.Background(), cloud.Config{Project: "demo", Endpoint: firestoreServer.URL + "/"})
	if err != nil {
		t.Fatalf("NewFirestore: %v", err)
	}

	server := httptest.NewServer(NewRouter(items, cloud.NewMirror(fs), testAuthSecret))
	t.Cleanup(server.Close)

	return testEnv{server: server, store: items, commits: &commits}
}

func doRequest(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestItemsAPIFlow(t *testing.T) {
	env := setupTestServer(t)

	// Create item.
	resp := doRequest(t, "POST", env.server.URL+"/api/items", "", map[string]any{
		"name":      "Bolt",
		"quantity":  500,
		"price":     1.005,
		"warehouse": "Main",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created model.Item
	json.NewDecoder(resp.Body).Decode(&created)
	if created.ID == nil || created.Price != 1.01 || created.UpdatedAt == nil {
		t.Fatalf("unexpected created item %+v", created)
	}
	id := *created.ID

	// Update it.
	resp = doRequest(t, "PUT", env.server.URL+"/api/items/"+itoa(id), "", map[string]any{
		"name":      "Bolt",
		"quantity":  450,
		"price":     1.01,
		"warehouse": "North",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d", resp.StatusCode)
	}

	// Get it back.
	resp = doRequest(t, "GET", env.server.URL+"/api/items/"+itoa(id), "", nil)
	var got model.Item
	json.NewDecoder(resp.Body).Decode(&got)
	if got.Quantity != 450 || got.Warehouse != "North" {
		t.Errorf("unexpected item after update: %+v", got)
	}

	// Filter by warehouse.
	resp = doRequest(t, "GET", env.server.URL+"/api/items?warehouse=Main", "", nil)
	var list []model.Item
	json.NewDecoder(resp.Body).Decode(&list)
	if len(list) != 0 {
		t.Errorf("expected no items in Main, got %d", len(list))
	}

	// Delete it.
	resp = doRequest(t, "DELETE", env.server.URL+"/api/items/"+itoa(id), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", resp.StatusCode)
	}
	resp = doRequest(t, "GET", env.server.URL+"/api/items/"+itoa(id), "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestCreateItemValidation(t *testing.T) {
	env := setupTestServer(t)

	resp := doRequest(t, "POST", env.server.URL+"/api/items", "", map[string]any{
		"name":     "",
		"quantity": -5,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["error"] != "name is required" {
		t.Errorf("expected the name to be reported first, got %q", body["error"])
	}

	items, _ := env.store.GetAll(context.Background())
	if len(items) != 0 {
		t.Errorf("expected nothing persisted, got %d items", len(items))
	}
}

func TestUpdateMissingItem(t *testing.T) {
	env := setupTestServer(t)

	resp := doRequest(t, "PUT", env.server.URL+"/api/items/777", "", map[string]any{
		"name": "Ghost", "warehouse": "Main",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestUpdateReadBackFailure(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	id, err := env.store.Create(ctx, model.Item{Name: "Bolt", Warehouse: "Main"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Leave the row unreadable after every update.
	database, err := env.store.DB(ctx)
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	_, err = database.Exec(`CREATE TRIGGER spoil AFTER UPDATE ON items
		BEGIN UPDATE items SET warehouse = '' WHERE id = NEW.id; END`)
	if err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	resp := doRequest(t, "PUT", env.server.URL+"/api/items/"+itoa(id), "", map[string]any{
		"name": "Bolt", "warehouse": "North",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["error"] == "" {
		t.Errorf("expected an error body, got %v", body)
	}
}

func TestListInvalidSort(t *testing.T) {
	env := setupTestServer(t)

	resp := doRequest(t, "GET", env.server.URL+"/api/items?sort=colour", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPushRequiresSession(t *testing.T) {
	env := setupTestServer(t)

	resp := doRequest(t, "POST", env.server.URL+"/api/sync/push", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without a session, got %d", resp.StatusCode)
	}

	resp = doRequest(t, "POST", env.server.URL+"/api/sync/push", "garbage", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for a bad token, got %d", resp.StatusCode)
	}

	if env.commits.Load() != 0 {
		t.Errorf("expected no cloud writes, got %d", env.commits.Load())
	}
}

func TestPushAPIFlow(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	env.store.Create(ctx, model.Item{Name: "Bolt", Quantity: 1, Price: 1, Warehouse: "Main"})
	env.store.Create(ctx, model.Item{Name: "Nut", Quantity: 2, Price: 2, Warehouse: "Main"})

	token, err := auth.GenerateToken(testAuthSecret, "uid-1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	resp := doRequest(t, "POST", env.server.URL+"/api/sync/push", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var res cloud.Result
	json.NewDecoder(resp.Body).Decode(&res)
	if res.Pushed != 2 || res.Skipped != 0 {
		t.Errorf("expected pushed=2 skipped=0, got %+v", res)
	}
	if env.commits.Load() != 1 {
		t.Errorf("expected one commit, got %d", env.commits.Load())
	}
}

func TestPushWithoutMirror(t *testing.T) {
	items := store.New(filepath.Join(t.TempDir(), db.FileName))
	t.Cleanup(func() { items.Close() })
	server := httptest.NewServer(NewRouter(items, nil, testAuthSecret))
	t.Cleanup(server.Close)

	token, _ := auth.GenerateToken(testAuthSecret, "uid-1")
	resp := doRequest(t, "POST", server.URL+"/api/sync/push", token, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a cloud project, got %d", resp.StatusCode)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
