package http

import (
	"github.com/randomtoy/arcana-go/internal/app"
	"github.com/randomtoy/arcana-go/internal/domain"
)

// ReadingRequest is the JSON body of POST /v1/readings. Unknown fields are
// rejected so a typoed knob fails loudly instead of silently defaulting.
type ReadingRequest struct {
	Spread          string               `json:"spread"`
	Deck            string               `json:"deck,omitempty"`
	Cards           []CardRequest        `json:"cards"`
	Question        string               `json:"question,omitempty"`
	Reflections     []string             `json:"reflections,omitempty"`
	Personalization *PersonalizationReq  `json:"personalization,omitempty"`
	VisualTone      *VisualToneReq       `json:"visual_tone,omitempty"`
}

type CardRequest struct {
	Position    int    `json:"position"`
	CardID      string `json:"card_id"`
	Orientation string `json:"orientation"`
}

type PersonalizationReq struct {
	DisplayName     string `json:"display_name,omitempty"`
	Tone            string `json:"tone,omitempty"`
	Frame           string `json:"frame,omitempty"`
	ExperienceLevel string `json:"experience_level,omitempty"`
}

type VisualToneReq struct {
	Palette string `json:"palette,omitempty"`
	Mood    string `json:"mood,omitempty"`
}

// FollowUpRequest is the JSON body of POST /v1/readings/follow-up.
type FollowUpRequest struct {
	Narrative       string              `json:"narrative"`
	Question        string              `json:"question"`
	Personalization *PersonalizationReq `json:"personalization,omitempty"`
}

// ReadingResponse is the JSON shape of a completed reading.
type ReadingResponse struct {
	Narrative   string                  `json:"narrative"`
	BackendUsed string                  `json:"backend_used"`
	GateBlocked bool                    `json:"gate_blocked"`
	GateReason  string                  `json:"gate_reason,omitempty"`
	Metrics     domain.NarrativeMetrics `json:"metrics"`
	PromptMeta  domain.PromptMeta       `json:"prompt_meta"`
	Evaluation  domain.EvaluationResult `json:"evaluation"`
	Attempts    []domain.BackendAttempt `json:"attempts,omitempty"`
	Meta        MetaResp                `json:"meta"`
}

type MetaResp struct {
	RequestID string `json:"request_id"`
	LatencyMS int64  `json:"latency_ms"`
}

// SpreadResponse describes one spread topology for GET /v1/spreads.
type SpreadResponse struct {
	Key       string             `json:"key"`
	Title     string             `json:"title"`
	CardCount int                `json:"card_count"`
	Positions []PositionResponse `json:"positions"`
}

type PositionResponse struct {
	Index  int    `json:"index"`
	Key    string `json:"key"`
	Title  string `json:"title"`
	Hook   string `json:"hook"`
	Weight string `json:"weight"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (r ReadingRequest) toApp() app.ReadRequest {
	out := app.ReadRequest{
		SpreadKey:   r.Spread,
		DeckID:      r.Deck,
		Question:    r.Question,
		Reflections: r.Reflections,
	}
	for _, c := range r.Cards {
		out.Cards = append(out.Cards, app.CardRef{
			Position:    c.Position,
			CardID:      c.CardID,
			Orientation: domain.Orientation(c.Orientation),
		})
	}
	if r.Personalization != nil {
		out.Personalization = r.Personalization.toDomain()
	}
	if r.VisualTone != nil {
		out.VisualTone = &domain.VisualTone{
			Palette: r.VisualTone.Palette,
			Mood:    r.VisualTone.Mood,
		}
	}
	return out
}

func (p PersonalizationReq) toDomain() domain.Personalization {
	return domain.Personalization{
		DisplayName:     p.DisplayName,
		Tone:            p.Tone,
		Frame:           p.Frame,
		ExperienceLevel: p.ExperienceLevel,
	}
}

func toReadingResponse(fin domain.FinalNarrative, requestID string, latencyMS int64) ReadingResponse {
	return ReadingResponse{
		Narrative:   fin.Text,
		BackendUsed: fin.BackendUsed,
		GateBlocked: fin.GateBlocked,
		GateReason:  fin.GateReason,
		Metrics:     fin.Metrics,
		PromptMeta:  fin.PromptMeta,
		Evaluation:  fin.Evaluation,
		Attempts:    fin.Attempts,
		Meta:        MetaResp{RequestID: requestID, LatencyMS: latencyMS},
	}
}

func toSpreadResponse(def domain.SpreadDefinition) SpreadResponse {
	out := SpreadResponse{
		Key:       def.Key,
		Title:     def.Name,
		CardCount: len(def.Positions),
	}
	for _, p := range def.Positions {
		out.Positions = append(out.Positions, PositionResponse{
			Index:  p.Index,
			Key:    p.Key,
			Title:  p.Title,
			Hook:   p.Hook,
			Weight: string(p.Weight),
		})
	}
	return out
}
