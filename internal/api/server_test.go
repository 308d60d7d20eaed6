package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zulandar/switchboard/internal/backend"
	"github.com/zulandar/switchboard/internal/engine"
	"github.com/zulandar/switchboard/internal/extract"
	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/stage"
)

type echoGateway struct{}

func (echoGateway) Extract(_ context.Context, _ string, _ []extract.Message, userText string) (*extract.Result, error) {
	if userText == "bye" {
		return &extract.Result{Kind: extract.KindCommand, Command: extract.CommandExit, Summary: "exit"}, nil
	}
	return &extract.Result{Kind: extract.KindFreeText, Text: "echo: " + userText, Summary: "unknown"}, nil
}

func newTestAPI(t *testing.T) (*gin.Engine, *backend.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Ticket{}, &models.Device{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := backend.NewStore(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	stages, err := stage.NewManager(stage.ManagerOpts{})
	if err != nil {
		t.Fatalf("stage manager: %v", err)
	}
	eng, err := engine.NewRouter(engine.RouterOpts{
		Gateway:   echoGateway{},
		Backend:   store,
		Stages:    stages,
		LogOutput: io.Discard,
	})
	if err != nil {
		t.Fatalf("engine router: %v", err)
	}

	router := gin.New()
	h := &handlers{
		engine:   eng,
		store:    store,
		sessions: make(map[string]*sessionSlot),
	}
	h.register(router)
	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("parse response %q: %v", w.Body.String(), err)
		}
	}
	return w, parsed
}

func TestSessionLifecycle(t *testing.T) {
	router, _ := newTestAPI(t)

	w, created := doJSON(t, router, "POST", "/api/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: status %d", w.Code)
	}
	id, _ := created["session_id"].(string)
	if id == "" || created["stage"] != "main" {
		t.Fatalf("unexpected create response: %v", created)
	}

	w, turn := doJSON(t, router, "POST", "/api/sessions/"+id+"/turns", map[string]string{"text": "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("post turn: status %d", w.Code)
	}
	if turn["response"] != "echo: hello" || turn["stage"] != "main" {
		t.Errorf("unexpected turn response: %v", turn)
	}

	w, got := doJSON(t, router, "GET", "/api/sessions/"+id, nil)
	if w.Code != http.StatusOK || got["status"] != "active" {
		t.Errorf("unexpected session state: %d %v", w.Code, got)
	}

	w, _ = doJSON(t, router, "POST", "/api/sessions/"+id+"/turns", map[string]string{"text": "bye"})
	if w.Code != http.StatusOK {
		t.Fatalf("exit turn: status %d", w.Code)
	}
	_, got = doJSON(t, router, "GET", "/api/sessions/"+id, nil)
	if got["status"] != "ended" || got["stage"] != "terminated" {
		t.Errorf("expected ended session, got %v", got)
	}
}

func TestPostTurn_Validation(t *testing.T) {
	router, _ := newTestAPI(t)

	w, _ := doJSON(t, router, "POST", "/api/sessions/nope/turns", map[string]string{"text": "hi"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown session: expected 404, got %d", w.Code)
	}

	_, created := doJSON(t, router, "POST", "/api/sessions", nil)
	id := created["session_id"].(string)

	w, _ = doJSON(t, router, "POST", "/api/sessions/"+id+"/turns", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing text: expected 400, got %d", w.Code)
	}
}

func TestTicketEndpoints(t *testing.T) {
	router, store := newTestAPI(t)

	id, err := store.CreateTicket(context.Background(), backend.TicketFields{
		SerialNumber:       "SN200",
		DeviceType:         "laptop",
		ProblemDescription: "slow",
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}

	w, list := doJSON(t, router, "GET", "/api/tickets", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list tickets: status %d", w.Code)
	}
	tickets, _ := list["tickets"].([]interface{})
	if len(tickets) != 1 {
		t.Errorf("expected 1 ticket, got %d", len(tickets))
	}

	w, got := doJSON(t, router, "GET", "/api/tickets/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get ticket: status %d", w.Code)
	}
	if got["SerialNumber"] != "SN200" {
		t.Errorf("unexpected ticket payload: %v", got)
	}

	w, _ = doJSON(t, router, "GET", "/api/tickets/TK-zzzzz", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing ticket: expected 404, got %d", w.Code)
	}
}

func TestListTickets_FilterBySerial(t *testing.T) {
	router, store := newTestAPI(t)

	for _, f := range []backend.TicketFields{
		{SerialNumber: "SN100", DeviceType: "printer", ProblemDescription: "jam"},
		{SerialNumber: "SN200", DeviceType: "laptop", ProblemDescription: "slow"},
	} {
		if _, err := store.CreateTicket(context.Background(), f); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	_, list := doJSON(t, router, "GET", "/api/tickets?serial_number=SN100", nil)
	tickets, _ := list["tickets"].([]interface{})
	if len(tickets) != 1 {
		t.Errorf("expected 1 filtered ticket, got %d", len(tickets))
	}
}
