package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/focusquest/focusquest/internal/app/engagement"
	"github.com/focusquest/focusquest/internal/domain"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names, not Go ones.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ─── Request Types ──────────────────────────────────────────────────────────

type profileRequest struct {
	DisplayName         *string `json:"display_name" validate:"omitempty,min=1,max=100"`
	Motivation          *string `json:"motivation" validate:"omitempty,max=500"`
	PreferredTheme      *string `json:"preferred_theme" validate:"omitempty,oneof=studies exercise health work creativity mindfulness"`
	XPEnabled           *bool   `json:"xp_enabled"`
	StreaksEnabled      *bool   `json:"streaks_enabled"`
	LeaderboardsEnabled *bool   `json:"leaderboards_enabled"`
}

type createHabitRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Notes      string `json:"notes" validate:"max=2000"`
	Theme      string `json:"theme" validate:"omitempty,oneof=studies exercise health work creativity mindfulness"`
	Difficulty string `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Frequency  string `json:"frequency" validate:"omitempty,oneof=daily weekly"`
}

type updateHabitRequest struct {
	Title      *string `json:"title" validate:"omitempty,min=1,max=200"`
	Notes      *string `json:"notes" validate:"omitempty,max=2000"`
	Theme      *string `json:"theme" validate:"omitempty,oneof=studies exercise health work creativity mindfulness"`
	Difficulty *string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Frequency  *string `json:"frequency" validate:"omitempty,oneof=daily weekly"`
}

type createTaskRequest struct {
	Title      string     `json:"title" validate:"required,max=200"`
	Notes      string     `json:"notes" validate:"max=2000"`
	Theme      string     `json:"theme" validate:"omitempty,oneof=studies exercise health work creativity mindfulness"`
	Difficulty string     `json:"difficulty" validate:"required,oneof=easy medium hard"`
	DueDate    string     `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Deadline   *time.Time `json:"deadline"`
	Subtasks   []string   `json:"subtasks" validate:"max=50,dive,required,max=500"`
}

type updateTaskRequest struct {
	Title      *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Notes      *string    `json:"notes" validate:"omitempty,max=2000"`
	Theme      *string    `json:"theme" validate:"omitempty,oneof=studies exercise health work creativity mindfulness"`
	Difficulty *string    `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	DueDate    *string    `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Deadline   *time.Time `json:"deadline"`
}

type subtaskRequest struct {
	Description string `json:"description" validate:"required,max=500"`
}

type focusRequest struct {
	DurationMinutes   int `json:"duration_minutes" validate:"required,min=1,max=1440"`
	SessionsCompleted int `json:"sessions_completed" validate:"omitempty,min=1,max=100"`
}

// taskResponse adds the computed overdue flag.
type taskResponse struct {
	domain.Task
	Overdue bool `json:"overdue"`
}

// decodeRequest reads a JSON body into dst and validates it.
func decodeRequest(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", domain.ErrInvalidArgument, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "datetime":
		return fe.Field() + " must be a YYYY-MM-DD date"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrInvalidArgument, chi.URLParam(r, "id"))
	}
	return id, nil
}

func parseDueDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(*s)
	if err != nil {
		return nil, fmt.Errorf("%w: due_date: %v", domain.ErrInvalidArgument, err)
	}
	return &d, nil
}

// ─── Profile & Dashboard ────────────────────────────────────────────────────

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	d, err := s.svc.Dashboard(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	var req profileRequest
	if err := decodeRequest(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	p, err := s.svc.UpdateProfile(r.Context(), userID, engagement.ProfileUpdate{
		DisplayName:         req.DisplayName,
		Motivation:          req.Motivation,
		PreferredTheme:      req.PreferredTheme,
		XPEnabled:           req.XPEnabled,
		StreaksEnabled:      req.StreaksEnabled,
		LeaderboardsEnabled: req.LeaderboardsEnabled,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ─── Habits ─────────────────────────────────────────────────────────────────

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	habits, err := s.svc.ListHabits(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	var req createHabitRequest
	if err := decodeRequest(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	h, err := s.svc.CreateHabit(r.Context(), userID, engagement.HabitInput{
		Title:      req.Title,
		Notes:      req.Notes,
		Theme:      req.Theme,
		Difficulty: req.Difficulty,
		Frequency:  req.Frequency,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	h, err := s.svc.GetHabit(r.Context(), userID, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var req updateHabitRequest
	if err := decodeRequest(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	h, err := s.svc.UpdateHabit(r.Context(), userID, id, engagement.HabitPatch{
		Title:      req.Title,
		Notes:      req.Notes,
		Theme:      req.Theme,
		Difficulty: req.Difficulty,
		Frequency:  req.Frequency,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.svc.DeleteHabit(r.Context(), userID, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	res, err := s.svc.CompleteHabit(r.Context(), userID, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	tasks, err := s.svc.ListTasks(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = taskResponse{Task: t, Overdue: s.svc.IsOverdue(t)}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	var req createTaskRequest
	if err := decodeRequest(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	due, err := parseDueDate(&req.DueDate)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	t, err := s.svc.CreateTask(r.Context(), userID, engagement.TaskInput{
		Title:      req.Title,
		Notes:      req.Notes,
		Theme:      req.Theme,
		Difficulty: req.Difficulty,
		DueDate:    due,
		Deadline:   req.Deadline,
		Subtasks:   req.Subtasks,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, taskResponse{Task: t, Overdue: s.svc.IsOverdue(t)})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	t, err := s.svc.GetTask(r.Context(), userID, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{Task: t, Overdue: s.svc.IsOverdue(t)})
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var req updateTaskRequest
	if err := decodeRequest(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	t, err := s.svc.UpdateTask(r.Context(), userID, id, engagement.TaskPatch{
		Title:      req.Title,
		Notes:      req.Notes,
		Theme:      req.Theme,
		Difficulty: req.Difficulty,
		DueDate:    due,
		Deadline:   req.Deadline,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{Task: t, Overdue: s.svc.IsOverdue(t)})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.svc.DeleteTask(r.Context(), userID, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	res, err := s.svc.CompleteTask(r.Context(), userID, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAddSubtask(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var req subtaskRequest
	if err := decodeRequest(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	st, err := s.svc.AddSubtask(r.Context(), userID, id, req.Description)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleToggleSubtask(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	res, err := s.svc.ToggleSubtask(r.Context(), userID, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Focus, Leaderboard & Progress ──────────────────────────────────────────

func (s *Server) handleListFocusSessions(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	sessions, err := s.svc.ListFocusSessions(r.Context(), userID, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []domain.FocusSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleRecordFocusSession(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	var req focusRequest
	if err := decodeRequest(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	res, err := s.svc.RecordFocusSession(r.Context(), userID, req.DurationMinutes, req.SessionsCompleted)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = string(domain.BoardXP)
	}
	entries, err := s.svc.Leaderboard(r.Context(), kind)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "Invalid leaderboard type")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	points, err := s.svc.Progress(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}
