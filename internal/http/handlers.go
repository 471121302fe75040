package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chess-club/internal/club"
	"github.com/mauv0809/chess-club/internal/pubsub"
	"github.com/mauv0809/chess-club/internal/roster"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) ListBatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := s.Batches.List(r.Context())
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, keys)
	}
}

func (s *Server) CreateBatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		h, err := s.Batches.Create(r.Context(), name)
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, batchResponse{ID: h.ID, Key: h.Key})
	}
}

func (s *Server) ListStudentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		students, err := handleFromContext(r).Roster.ListStudents(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, students)
	}
}

func (s *Server) AddStudentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in roster.NewStudent
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, fmt.Errorf("invalid student: %w", err), http.StatusBadRequest)
			return
		}
		student, err := handleFromContext(r).Roster.AddStudent(r.Context(), in)
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, student)
	}
}

func (s *Server) UpdateStudentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u roster.StudentUpdate
		if err := decodeJSON(r, &u); err != nil {
			writeError(w, fmt.Errorf("invalid student: %w", err), http.StatusBadRequest)
			return
		}
		student, err := handleFromContext(r).Roster.UpdateStudent(r.Context(), r.PathValue("id"), u)
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, student)
	}
}

func (s *Server) TogglePaidHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		student, err := handleFromContext(r).Roster.TogglePaid(r.Context(), r.PathValue("id"))
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, student)
	}
}

func (s *Server) MarkAllPaidHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := handleFromContext(r).Roster.MarkAllPaid(r.Context())
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
	}
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := handleFromContext(r).Ledger.ListMatches(r.Context())
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func (s *Server) ListHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := handleFromContext(r).Ledger.ListHistory(r.Context())
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func (s *Server) GenerateMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxMatches := s.Cfg.DefaultMaxMatches
		if raw := r.URL.Query().Get("max_matches"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, fmt.Errorf("%w: max_matches must be a number", club.ErrValidation), http.StatusBadRequest)
				return
			}
			maxMatches = n
		}

		matches, err := s.Tournament.GenerateMatches(r.Context(), handleFromContext(r), maxMatches, isDryRunFromContext(r))
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, matches)
	}
}

func (s *Server) CreateMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMatchRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, fmt.Errorf("invalid match: %w", err), http.StatusBadRequest)
			return
		}
		match, err := handleFromContext(r).Ledger.CreateMatch(r.Context(), req.Student1ID, req.Student2ID)
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, match)
	}
}

func (s *Server) RecordResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, fmt.Errorf("%w: match id must be a number", club.ErrValidation), http.StatusBadRequest)
			return
		}
		var req resultRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, fmt.Errorf("invalid result: %w", err), http.StatusBadRequest)
			return
		}
		outcome, err := club.ParseOutcome(req.Outcome)
		if err != nil {
			respondErr(w, err)
			return
		}

		match, err := s.Tournament.RecordResult(r.Context(), handleFromContext(r), matchID, outcome, isDryRunFromContext(r))
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, match)
	}
}

func (s *Server) ArchiveMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := s.Tournament.ArchiveCompleted(r.Context(), handleFromContext(r), isDryRunFromContext(r))
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"archived": n})
	}
}

// scopeFromRequest reads the standings scope. A month always selects the
// archived matches of that month.
func scopeFromRequest(r *http.Request) (club.Scope, error) {
	q := r.URL.Query()
	if month := q.Get("month"); month != "" {
		return club.MonthScope(month), nil
	}
	switch q.Get("scope") {
	case "", string(club.ScopeCurrent):
		return club.CurrentScope(), nil
	case string(club.ScopeHistory):
		return club.HistoryScope(), nil
	default:
		return club.Scope{}, fmt.Errorf("%w: unknown scope %q", club.ErrValidation, q.Get("scope"))
	}
}

func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			respondErr(w, err)
			return
		}
		standings, err := s.Tournament.Standings(r.Context(), handleFromContext(r), scope, r.URL.Query().Get("class"))
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, standings)
	}
}

func (s *Server) NotifyLeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			respondErr(w, err)
			return
		}
		standings, err := s.Tournament.NotifyLeaderboard(r.Context(), handleFromContext(r), scope, r.URL.Query().Get("class"), isDryRunFromContext(r))
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, standings)
	}
}

func (s *Server) ReconcileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := s.Tournament.Reconcile(r.Context(), handleFromContext(r))
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"corrected": n})
	}
}

func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.Tournament.Dashboard(r.Context(), handleFromContext(r))
		if err != nil {
			respondErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// LeaderboardCommandHandler returns a handler for the /leaderboard Slack
// command. The command text is "<batch> [YYYY-MM]". Without a month the
// all-time standings are shown.
func (s *Server) LeaderboardCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		args := strings.Fields(r.FormValue("text"))
		if len(args) == 0 {
			http.Error(w, "Batch name is required.", http.StatusBadRequest)
			return
		}
		scope := club.HistoryScope()
		if len(args) > 1 {
			if month := club.MonthScope(args[len(args)-1]); month.Validate() == nil {
				scope = month
				args = args[:len(args)-1]
			}
		}
		name := strings.Join(args, " ")
		log.Info("Received leaderboard command", "batch", name, "scope", scope.String())

		h, err := s.Batches.Open(r.Context(), name)
		if err != nil {
			respondErr(w, err)
			return
		}
		standings, err := s.Tournament.Standings(r.Context(), h, scope, "")
		if err != nil {
			respondErr(w, err)
			return
		}
		msg, err := s.Notifier.FormatLeaderboardResponse(h.Key, scope, standings)
		if err != nil {
			log.Error("Failed to format leaderboard", "error", err)
			http.Error(w, "Failed to format leaderboard", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}

// EventPushHandler receives tournament events pushed by a Pub/Sub
// subscription and logs them.
func (s *Server) EventPushHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var push pushRequest
		if err := json.NewDecoder(r.Body).Decode(&push); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		rawData, err := base64.StdEncoding.DecodeString(push.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}

		eventType := pubsub.EventType(push.Message.Attributes["event"])
		var event any
		switch eventType {
		case pubsub.EventRoundGenerated:
			event = &pubsub.RoundGenerated{}
		case pubsub.EventResultRecorded:
			event = &pubsub.ResultRecorded{}
		case pubsub.EventMatchesArchived:
			event = &pubsub.MatchesArchived{}
		default:
			writeError(w, errors.New("unknown event type"), http.StatusBadRequest)
			return
		}
		if err := s.pubsub.ProcessMessage(rawData, event); err != nil {
			http.Error(w, "Invalid event payload", http.StatusBadRequest)
			return
		}
		log.Info("Received event", "type", eventType, "subscription", push.Subscription, "event", event)
		w.Write([]byte("OK"))
	}
}
