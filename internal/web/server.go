// Package web exposes the build research pipeline as a small chat-style HTTP
// API plus generated HTML report pages.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/buildscout/internal/config"
	"github.com/sells-group/buildscout/internal/images"
	"github.com/sells-group/buildscout/internal/model"
	"github.com/sells-group/buildscout/internal/research"
	"github.com/sells-group/buildscout/internal/source"
)

// Conversation steps for the chat endpoint.
const (
	stepInitial         = "initial"
	stepWaitingSource   = "waiting_source"
	stepWaitingLanguage = "waiting_language"
)

const defaultLocale = "es"

var titleCaser = cases.Title(language.Und)

// ChatState is the client-held conversation state, echoed back on each turn.
type ChatState struct {
	Step          string   `json:"step"`
	Game          string   `json:"game,omitempty"`
	Character     string   `json:"character,omitempty"`
	RequestedKeys []string `json:"requested_keys,omitempty"`
	SourceChoice  string   `json:"source_choice,omitempty"`
	Locale        string   `json:"locale,omitempty"`
}

type chatRequest struct {
	Message string    `json:"message"`
	State   ChatState `json:"state"`
}

type chatResponse struct {
	Response string                  `json:"response"`
	State    ChatState               `json:"state"`
	Game     string                  `json:"game,omitempty"`
	Data     model.BuildRecord       `json:"data,omitempty"`
	Images   []model.ScoredCandidate `json:"images,omitempty"`
	Report   string                  `json:"report,omitempty"`
}

// Server handles chat requests and serves generated reports.
type Server struct {
	registry     *source.Registry
	orchestrator *research.Orchestrator
	images       *images.Pipeline
	reports      *ReportWriter
	cfg          config.ServerConfig
}

// NewServer wires the HTTP layer.
func NewServer(
	registry *source.Registry,
	orchestrator *research.Orchestrator,
	imagePipeline *images.Pipeline,
	reports *ReportWriter,
	cfg config.ServerConfig,
) *Server {
	return &Server{
		registry:     registry,
		orchestrator: orchestrator,
		images:       imagePipeline,
		reports:      reports,
		cfg:          cfg,
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)

	fileServer := http.StripPrefix("/reports/", http.FileServer(http.Dir(s.cfg.ReportsDir)))
	r.Get("/reports/*", fileServer.ServeHTTP)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat advances the conversation one turn: name the character, pick a
// source, pick a language, then run the research and image pipelines.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	input := strings.TrimSpace(req.Message)
	state := req.State
	if state.Step == "" {
		state.Step = stepInitial
	}

	var resp chatResponse
	switch state.Step {
	case stepInitial:
		resp = s.stepInitial(input)
	case stepWaitingSource:
		resp = s.stepSource(input, state)
	case stepWaitingLanguage:
		resp = s.stepRun(r, input, state)
	default:
		resp = chatResponse{
			Response: "Something went wrong with the conversation state. Starting over.",
			State:    ChatState{Step: stepInitial},
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) stepInitial(input string) chatResponse {
	query := ParseQuery(s.registry, input)
	if query.Character == "" {
		return chatResponse{
			Response: "I couldn't identify the character name. Please be more specific (e.g. 'Build for Acheron HSR').",
			State:    ChatState{Step: stepInitial},
		}
	}

	var options []string
	for i, src := range query.Game.Sources {
		options = append(options, fmt.Sprintf("%d: %s", i+1, src.Code))
	}
	return chatResponse{
		Response: fmt.Sprintf("Got it, researching %s. Preferred source? (%s), or leave blank for priority order.",
			titleCaser.String(query.Character), strings.Join(options, ", ")),
		State: ChatState{
			Step:          stepWaitingSource,
			Game:          query.Game.Code,
			Character:     query.Character,
			RequestedKeys: query.RequestedKeys,
		},
	}
}

func (s *Server) stepSource(input string, state ChatState) chatResponse {
	state.SourceChoice = s.sourceForChoice(state.Game, input)
	state.Step = stepWaitingLanguage
	return chatResponse{
		Response: "Which language for the results? ('es', 'en', 'jp', 'cn', 'fr', 'kr'; blank for 'es')",
		State:    state,
	}
}

// stepRun executes the research run and the image search concurrently; the
// record drives the report, images are best-effort enrichment.
func (s *Server) stepRun(r *http.Request, input string, state ChatState) chatResponse {
	state.Locale = defaultLocale
	if input != "" {
		state.Locale = strings.ToLower(input)
	}

	ctx := r.Context()
	var (
		record   model.BuildRecord
		runErr   error
		pictures []model.ScoredCandidate
	)
	var g errgroup.Group
	g.Go(func() error {
		record, runErr = s.orchestrator.Run(ctx, research.Request{
			Game:            state.Game,
			Character:       state.Character,
			PreferredSource: state.SourceChoice,
			Locale:          state.Locale,
		})
		return nil
	})
	gameName := state.Game
	if game, ok := s.registry.Game(state.Game); ok {
		gameName = game.Name
	}
	g.Go(func() error {
		label := fmt.Sprintf("%s %s hoyoverse", state.Character, gameName)
		pictures = s.images.Find(ctx, label, 0)
		return nil
	})
	_ = g.Wait()

	if runErr != nil {
		zap.L().Warn("web: research run failed",
			zap.String("game", state.Game),
			zap.String("character", state.Character),
			zap.Error(runErr),
		)
		return chatResponse{
			Response: fmt.Sprintf("Sorry, I couldn't put together a build for %s. Want to try another character?",
				titleCaser.String(state.Character)),
			Game:  state.Game,
			State: ChatState{Step: stepInitial},
		}
	}

	resp := chatResponse{
		Response: fmt.Sprintf("Here is the build for %s. Need another one?", titleCaser.String(state.Character)),
		Game:     state.Game,
		Data:     record.Filter(state.RequestedKeys),
		Images:   pictures,
		State:    ChatState{Step: stepInitial},
	}

	report, err := s.reports.Write(record, pictures, state.Game, state.Character)
	if err != nil {
		zap.L().Warn("web: report generation failed", zap.Error(err))
	} else {
		resp.Report = "/reports/" + report
	}
	return resp
}

// sourceForChoice maps a numeric menu answer onto the game's source list.
// Anything unrecognized means "no preference."
func (s *Server) sourceForChoice(gameCode, input string) string {
	game, ok := s.registry.Game(gameCode)
	if !ok {
		return ""
	}
	idx, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || idx < 1 || idx > len(game.Sources) {
		return ""
	}
	return game.Sources[idx-1].Code
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("web: write response failed", zap.Error(err))
	}
}
