package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	httpadapter "github.com/randomtoy/arcana-go/internal/adapters/http"
	"github.com/randomtoy/arcana-go/internal/app"
	"github.com/randomtoy/arcana-go/internal/crisis"
	"github.com/randomtoy/arcana-go/internal/domain"
	"github.com/randomtoy/arcana-go/internal/ports"
	"github.com/randomtoy/arcana-go/internal/telemetry"
)

type stubSpreads struct {
	def domain.SpreadDefinition
}

func (s *stubSpreads) Get(key string) (domain.SpreadDefinition, error) {
	if key != s.def.Key {
		return domain.SpreadDefinition{}, fmt.Errorf("%w: %s", domain.ErrUnknownSpread, key)
	}
	return s.def, nil
}

func (s *stubSpreads) All() ([]domain.SpreadDefinition, error) {
	return []domain.SpreadDefinition{s.def}, nil
}

type stubDecks struct {
	deck domain.Deck
}

func (s *stubDecks) GetDeck(_ context.Context, deckID string) (domain.Deck, error) {
	if deckID != "" && deckID != s.deck.ID {
		return domain.Deck{}, domain.ErrDeckNotFound
	}
	return s.deck, nil
}

type stubBackend struct {
	text string
}

func (b *stubBackend) Name() string { return "primary" }

func (b *stubBackend) Generate(_ context.Context, _ domain.PromptBundle) (string, error) {
	return b.text, nil
}

func testSpread() domain.SpreadDefinition {
	return domain.SpreadDefinition{
		Key:  "three_card",
		Name: "Three Card",
		Positions: []domain.Position{
			{Index: 1, Key: "past", Title: "Past", Hook: "what shaped this", Weight: domain.WeightMedium},
			{Index: 2, Key: "present", Title: "Present", Hook: "where things stand", Weight: domain.WeightHigh},
			{Index: 3, Key: "future", Title: "Future", Hook: "where the current flows", Weight: domain.WeightMedium},
		},
	}
}

func testDeck() domain.Deck {
	return domain.Deck{
		ID: "rws",
		Cards: []domain.Card{
			{ID: "fool", Name: "The Fool", Suit: domain.SuitMajor, Element: domain.Air, Upright: "a fresh start"},
			{ID: "tower", Name: "The Tower", Suit: domain.SuitMajor, Element: domain.Fire, Upright: "a structure failing"},
			{ID: "star", Name: "The Star", Suit: domain.SuitMajor, Element: domain.Air, Upright: "quiet renewal"},
		},
	}
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	scanner, err := crisis.Default()
	if err != nil {
		t.Fatalf("load crisis patterns: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	spreadReg := &stubSpreads{def: testSpread()}

	svc := app.NewReadingService(
		spreadReg,
		&stubDecks{deck: testDeck()},
		nil,
		[]ports.GenerationBackend{&stubBackend{
			text: "The Fool opens, The Tower turns, The Star settles the reading.",
		}},
		scanner,
		app.NewGate(nil, 0, logger),
		telemetry.NewCollector(logger, nil, false),
		app.Options{},
		logger,
	)

	e := echo.New()
	e.Use(httpadapter.RequestIDMiddleware())
	httpadapter.NewHandler(svc, spreadReg).Register(e)
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const validBody = `{
	"spread": "three_card",
	"cards": [
		{"position": 1, "card_id": "fool", "orientation": "upright"},
		{"position": 2, "card_id": "tower", "orientation": "reversed"},
		{"position": 3, "card_id": "star", "orientation": "upright"}
	],
	"question": "What should I focus on?"
}`

func TestCreateReading_Success(t *testing.T) {
	e := newTestServer(t)
	rec := postJSON(e, "/v1/readings", validBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp httpadapter.ReadingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.BackendUsed != "primary" {
		t.Errorf("backend %s", resp.BackendUsed)
	}
	if resp.Narrative == "" {
		t.Error("empty narrative")
	}
	if resp.Metrics.CardCoverage != 1.0 {
		t.Errorf("coverage %.2f", resp.Metrics.CardCoverage)
	}
	if resp.Meta.RequestID == "" {
		t.Error("request ID missing from response meta")
	}
}

// A typoed field must fail loudly, not silently default.
func TestCreateReading_UnknownFieldRejected(t *testing.T) {
	e := newTestServer(t)
	body := strings.Replace(validBody, `"question"`, `"qeustion"`, 1)
	rec := postJSON(e, "/v1/readings", body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "qeustion") {
		t.Errorf("error does not name the offending field: %s", rec.Body.String())
	}
}

func TestCreateReading_Validation(t *testing.T) {
	e := newTestServer(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"spread": `, http.StatusBadRequest},
		{"missing spread", `{"cards": [{"position": 1, "card_id": "fool", "orientation": "upright"}]}`, http.StatusBadRequest},
		{"missing cards", `{"spread": "three_card"}`, http.StatusBadRequest},
		{"unknown spread", strings.Replace(validBody, "three_card", "nine_card", 1), http.StatusBadRequest},
		{"unknown deck", strings.Replace(validBody, `"spread": "three_card",`, `"spread": "three_card", "deck": "marseille",`, 1), http.StatusNotFound},
		{"unknown card", strings.Replace(validBody, `"fool"`, `"not_a_card"`, 1), http.StatusBadRequest},
		{"bad orientation", strings.Replace(validBody, `"upright"`, `"sideways"`, 1), http.StatusBadRequest},
		{"question too long", strings.Replace(validBody, "What should I focus on?", strings.Repeat("x", 501), 1), http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(e, "/v1/readings", tc.body)
			if rec.Code != tc.want {
				t.Errorf("status %d, want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestCreateReading_CrisisReturns200(t *testing.T) {
	e := newTestServer(t)
	body := strings.Replace(validBody, "What should I focus on?", "I want to hurt myself", 1)
	rec := postJSON(e, "/v1/readings", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("crisis path status %d, want 200", rec.Code)
	}
	var resp httpadapter.ReadingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.GateBlocked || !strings.HasPrefix(resp.GateReason, "crisis_") {
		t.Errorf("crisis provenance missing: %+v", resp.GateReason)
	}
}

func TestListSpreads(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/spreads", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var out []httpadapter.SpreadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 1 || out[0].Key != "three_card" || out[0].CardCount != 3 {
		t.Errorf("unexpected spreads payload: %+v", out)
	}
}

func TestHealthz(t *testing.T) {
	e := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestFollowUp_RequiresNarrativeAndQuestion(t *testing.T) {
	e := newTestServer(t)
	rec := postJSON(e, "/v1/readings/follow-up", `{"narrative": "", "question": "and then?"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestFollowUp_Success(t *testing.T) {
	e := newTestServer(t)
	rec := postJSON(e, "/v1/readings/follow-up",
		`{"narrative": "The Fool opened the reading.", "question": "What about work?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp httpadapter.ReadingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Narrative == "" {
		t.Error("empty follow-up narrative")
	}
}
