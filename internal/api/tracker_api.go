package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/levelup-labs/lifequest/internal/app/tracker"
	"github.com/levelup-labs/lifequest/internal/domain"
)

// ─── LifeQuest API (/api/users/{userID}/*) ──────────────────────────────────
// Every route acts on one user document. Dates travel as YYYY-MM-DD.

const defaultRangeDays = 30

func userID(r *http.Request) string { return chi.URLParam(r, "userID") }

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Invalid("body", err.Error())
	}
	return nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(key, "must be an integer")
	}
	return n, nil
}

// queryRange reads from/to, defaulting to the last 30 days ending today.
func (s *Server) queryRange(r *http.Request) (domain.DateRange, error) {
	q := r.URL.Query()
	end := s.svc.Today()
	if raw := q.Get("to"); raw != "" {
		d, err := domain.ParseDate(raw)
		if err != nil {
			return domain.DateRange{}, domain.Invalid("to", err.Error())
		}
		end = d
	}
	start := end.AddDays(-(defaultRangeDays - 1))
	if raw := q.Get("from"); raw != "" {
		d, err := domain.ParseDate(raw)
		if err != nil {
			return domain.DateRange{}, domain.Invalid("from", err.Error())
		}
		start = d
	}
	if end < start {
		return domain.DateRange{}, domain.Invalid("to", "must not be before from")
	}
	return domain.NewDateRange(start, end), nil
}

// ─── Users & Levels ─────────────────────────────────────────────────────────

func (s *Server) handleLevelTable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"thresholds": s.svc.Levels().Thresholds(),
		"max_level":  s.svc.Levels().MaxLevel(),
		"tiers":      s.svc.Levels().Tiers(),
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Users(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.State(r.Context(), userID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard(r.Context(), userID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.Level(r.Context(), userID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ─── Records ────────────────────────────────────────────────────────────────

type recordRequest struct {
	Date     *domain.Date `json:"date,omitempty"` // defaults to today
	Value    float64      `json:"value"`
	TaskType string       `json:"task_type,omitempty"`
	Notes    string       `json:"notes,omitempty"`
}

func (s *Server) recordInput(r *http.Request) (tracker.RecordInput, error) {
	var req recordRequest
	if err := decode(r, &req); err != nil {
		return tracker.RecordInput{}, err
	}
	in := tracker.RecordInput{Date: s.svc.Today(), Value: req.Value, TaskType: req.TaskType, Notes: req.Notes}
	if req.Date != nil {
		in.Date = *req.Date
	}
	return in, nil
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	f := tracker.RecordFilter{TaskID: r.URL.Query().Get("task")}
	if r.URL.Query().Get("from") != "" || r.URL.Query().Get("to") != "" {
		rng, err := s.queryRange(r)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		f.Range = &rng
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	f.Limit = limit

	records, err := s.svc.ListRecords(r.Context(), userID(r), f)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	in, err := s.recordInput(r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	res, err := s.svc.AddRecord(r.Context(), userID(r), in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	in, err := s.recordInput(r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	res, err := s.svc.UpdateRecord(r.Context(), userID(r), chi.URLParam(r, "recordID"), in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteRecord(r.Context(), userID(r), chi.URLParam(r, "recordID")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.ListTasks(r.Context(), userID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in tracker.TaskInput
	if err := decode(r, &in); err != nil {
		s.writeErr(w, r, err)
		return
	}
	task, err := s.svc.CreateTask(r.Context(), userID(r), in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var in tracker.TaskInput
	if err := decode(r, &in); err != nil {
		s.writeErr(w, r, err)
		return
	}
	task, err := s.svc.UpdateTask(r.Context(), userID(r), chi.URLParam(r, "taskID"), in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteTask(r.Context(), userID(r), chi.URLParam(r, "taskID")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Streaks & Stats ────────────────────────────────────────────────────────

func (s *Server) handleStreaks(w http.ResponseWriter, r *http.Request) {
	streaks, err := s.svc.Streaks(r.Context(), userID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"streaks": streaks})
}

func (s *Server) handleConsistency(w http.ResponseWriter, r *http.Request) {
	window, err := queryInt(r, "window", s.svc.Rules().ConsistencyWindow)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	pct, err := s.svc.Consistency(r.Context(), userID(r), r.URL.Query().Get("task"), window)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"window_days": window, "consistency": pct})
}

func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	rng, err := s.queryRange(r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	total, err := s.svc.Total(r.Context(), userID(r), rng, r.URL.Query().Get("task"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"from": rng.Start, "to": rng.End, "total": total})
}

func (s *Server) handleDistributionByTask(w http.ResponseWriter, r *http.Request) {
	rng, err := s.queryRange(r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	slices, err := s.svc.DistributionByTask(r.Context(), userID(r), rng)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": slices})
}

func (s *Server) handleDistributionByWeekday(w http.ResponseWriter, r *http.Request) {
	rng, err := s.queryRange(r)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	days, err := s.svc.DistributionByWeekday(r.Context(), userID(r), rng, r.URL.Query().Get("task"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"weekdays": days})
}

func (s *Server) handleRollup(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n", 8)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	interval := domain.GoalInterval(r.URL.Query().Get("interval"))
	if interval == "" {
		interval = domain.IntervalWeekly
	}
	periods, err := s.svc.Rollup(r.Context(), userID(r), interval, n, r.URL.Query().Get("task"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"interval": interval, "periods": periods})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 365)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	series, err := s.svc.Heatmap(r.Context(), userID(r), r.URL.Query().Get("task"), days)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": series})
}

// ─── Goals ──────────────────────────────────────────────────────────────────

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.svc.GoalProgress(r.Context(), userID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": progress})
}

func (s *Server) handleEvaluateGoal(w http.ResponseWriter, r *http.Request) {
	ev, err := s.svc.EvaluateGoal(r.Context(), userID(r), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if ev == nil {
		writeError(w, http.StatusUnprocessableEntity, "task has no goal")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleEvaluateAllGoals(w http.ResponseWriter, r *http.Request) {
	evs, err := s.svc.EvaluateAllGoals(r.Context(), userID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"evaluations": evs})
}

func (s *Server) handleHighGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.HighGoals(r.Context(), userID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"high_goals": goals})
}

func (s *Server) handleCreateHighGoal(w http.ResponseWriter, r *http.Request) {
	var in tracker.HighGoalInput
	if err := decode(r, &in); err != nil {
		s.writeErr(w, r, err)
		return
	}
	g, err := s.svc.CreateHighGoal(r.Context(), userID(r), in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleUpdateHighGoal(w http.ResponseWriter, r *http.Request) {
	var in tracker.HighGoalInput
	if err := decode(r, &in); err != nil {
		s.writeErr(w, r, err)
		return
	}
	g, err := s.svc.UpdateHighGoal(r.Context(), userID(r), chi.URLParam(r, "goalID"), in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteHighGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteHighGoal(r.Context(), userID(r), chi.URLParam(r, "goalID")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Constellations ─────────────────────────────────────────────────────────

func (s *Server) handleConstellation(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Constellation(r.Context(), userID(r), chi.URLParam(r, "taskID"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type unlockRequest struct {
	SkillID string  `json:"skill_id"`
	TaskID  string  `json:"task_id"`
	Cost    float64 `json:"cost"`
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	res, err := s.svc.Unlock(r.Context(), userID(r), req.SkillID, req.TaskID, req.Cost)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleUnlockNode(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.UnlockNode(r.Context(), userID(r), chi.URLParam(r, "taskID"), chi.URLParam(r, "node"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ─── Pacts & Breaches ───────────────────────────────────────────────────────

func (s *Server) handlePacts(w http.ResponseWriter, r *http.Request) {
	pacts, err := s.svc.Pacts(r.Context(), userID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pacts": pacts})
}

func (s *Server) handleCreatePact(w http.ResponseWriter, r *http.Request) {
	var in tracker.PactInput
	if err := decode(r, &in); err != nil {
		s.writeErr(w, r, err)
		return
	}
	p, err := s.svc.CreatePact(r.Context(), userID(r), in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePact(w http.ResponseWriter, r *http.Request) {
	var in tracker.PactInput
	if err := decode(r, &in); err != nil {
		s.writeErr(w, r, err)
		return
	}
	p, err := s.svc.UpdatePact(r.Context(), userID(r), chi.URLParam(r, "pactID"), in)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleTogglePact(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.TogglePact(r.Context(), userID(r), chi.URLParam(r, "pactID"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePact(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePact(r.Context(), userID(r), chi.URLParam(r, "pactID")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Sweep(r.Context(), userID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleBreaches(w http.ResponseWriter, r *http.Request) {
	openOnly := r.URL.Query().Get("open") == "true"
	breaches, err := s.svc.Breaches(r.Context(), userID(r), openOnly)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"breaches": breaches})
}

func (s *Server) handleAcceptDare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			s.writeErr(w, r, err)
			return
		}
	}
	dare, err := s.svc.AcceptDare(r.Context(), userID(r), chi.URLParam(r, "breachID"), req.Text)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dare)
}

func (s *Server) handleDeclineDare(w http.ResponseWriter, r *http.Request) {
	extra, err := s.svc.DeclineDare(r.Context(), userID(r), chi.URLParam(r, "breachID"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"extra_penalty": extra})
}

func (s *Server) handleFreeze(w http.ResponseWriter, r *http.Request) {
	frozen, err := s.svc.FreezeBreach(r.Context(), userID(r), chi.URLParam(r, "breachID"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if !frozen {
		writeError(w, http.StatusConflict, "no freeze crystal left")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"frozen": true})
}

// ─── Social & Rewards ───────────────────────────────────────────────────────

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.svc.CompareFriends(r.Context(), userID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": board})
}

func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FriendID string `json:"friend_id"`
	}
	if err := decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.svc.AddFriend(r.Context(), userID(r), req.FriendID); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveFriend(r.Context(), userID(r), chi.URLParam(r, "friendID")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.svc.SetDisplayName(r.Context(), userID(r), req.DisplayName); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Achievements(r.Context(), userID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"achievements": list})
}

func (s *Server) handleCheckAchievements(w http.ResponseWriter, r *http.Request) {
	o, err := s.svc.CheckAchievements(r.Context(), userID(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleBonus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
		Reason string  `json:"reason"`
	}
	if err := decode(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	o, err := s.svc.AdjustBonus(r.Context(), userID(r), req.Amount, req.Reason)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleXPHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if limit < 1 || limit > 1000 {
		s.writeErr(w, r, domain.Invalid("limit", "must be between 1 and 1000"))
		return
	}
	entries, err := s.svc.XPHistory(r.Context(), userID(r), limit)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
