package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mergeminder/pkg/domain/model"
	"github.com/secmon-lab/mergeminder/pkg/domain/types"
	"github.com/secmon-lab/mergeminder/pkg/utils/async"
	"github.com/secmon-lab/mergeminder/pkg/utils/errutil"
)

func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // header already committed
}

func statusForError(err error) int {
	if errors.Is(err, types.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// triggerMind starts a minding cycle in the background. Manual triggers are
// never gated by the schedule.
func (s *Server) triggerMind(w http.ResponseWriter, r *http.Request) {
	async.Dispatch(r.Context(), func(ctx context.Context) error {
		return s.uc.MindAll(ctx)
	})
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// triggerPurge starts a purge pass in the background.
func (s *Server) triggerPurge(w http.ResponseWriter, r *http.Request) {
	async.Dispatch(r.Context(), func(ctx context.Context) error {
		_, err := s.uc.Purge(ctx)
		return err
	})
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type mergeResponse struct {
	ID               int64     `json:"id"`
	IID              int64     `json:"iid"`
	Project          string    `json:"project"`
	Assignee         string    `json:"assignee"`
	AssigneeEmail    string    `json:"assignee_email,omitempty"`
	LastReminderTier int64     `json:"last_reminder_tier"`
	AssignedAt       time.Time `json:"assigned_at"`
	LastUpdated      time.Time `json:"last_updated"`
}

func toMergeResponse(mr *model.MergeRequest) mergeResponse {
	return mergeResponse{
		ID:               int64(mr.ID),
		IID:              mr.IID,
		Project:          mr.Project,
		Assignee:         mr.Assignee,
		AssigneeEmail:    mr.AssigneeEmail,
		LastReminderTier: mr.LastReminderTier,
		AssignedAt:       mr.AssignedAt,
		LastUpdated:      mr.LastUpdated,
	}
}

func (s *Server) listMerges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := s.uc.Repository().MergeRequest().GetAll(ctx)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		return
	}

	resp := make([]mergeResponse, len(rows))
	for i, row := range rows {
		resp[i] = toMergeResponse(row)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) getMerge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid merge request ID"), http.StatusBadRequest)
		return
	}

	row, err := s.uc.Repository().MergeRequest().Get(ctx, types.MergeRequestID(id))
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, statusForError(err))
		return
	}

	respondJSON(w, http.StatusOK, toMergeResponse(row))
}

type projectResponse struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Path      string `json:"path"`
}

func toProjectResponse(p *model.Project) projectResponse {
	return projectResponse{
		ID:        p.ID.String(),
		Namespace: p.Namespace,
		Name:      p.Name,
		Path:      p.FullPath(),
	}
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projects, err := s.uc.ListProjects(ctx)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		return
	}

	resp := make([]projectResponse, len(projects))
	for i, p := range projects {
		resp[i] = toProjectResponse(p)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) addProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	project, err := s.uc.AddProject(ctx, req.Path)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusCreated, toProjectResponse(project))
}

func (s *Server) removeProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := types.ProjectID(chi.URLParam(r, "id"))
	if err := s.uc.RemoveProject(ctx, id); err != nil {
		errutil.HandleHTTP(ctx, w, err, statusForError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type mappingResponse struct {
	ID             string `json:"id"`
	GitlabUsername string `json:"gitlab_username"`
	GitlabName     string `json:"gitlab_name,omitempty"`
	SlackUID       string `json:"slack_uid,omitempty"`
	SlackEmail     string `json:"slack_email,omitempty"`
	Unresolved     bool   `json:"unresolved"`
}

func toMappingResponse(m *model.UserMapping) mappingResponse {
	return mappingResponse{
		ID:             m.ID.String(),
		GitlabUsername: m.GitlabUsername,
		GitlabName:     m.GitlabName,
		SlackUID:       m.SlackUID.String(),
		SlackEmail:     m.SlackEmail,
		Unresolved:     m.Unresolved(),
	}
}

func (s *Server) listMappings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mappings, err := s.uc.ListMappings(ctx)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		return
	}

	resp := make([]mappingResponse, len(mappings))
	for i, m := range mappings {
		resp[i] = toMappingResponse(m)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) createMapping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		GitlabUsername string `json:"gitlab_username"`
		GitlabName     string `json:"gitlab_name"`
		Value          string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	mapping, err := s.uc.CreateMapping(ctx, req.GitlabUsername, req.GitlabName, req.Value)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusCreated, toMappingResponse(mapping))
}

func (s *Server) updateMapping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	id := types.MappingID(chi.URLParam(r, "id"))
	mapping, err := s.uc.SetMapping(ctx, id, req.Value)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, statusForError(err))
		return
	}

	respondJSON(w, http.StatusOK, toMappingResponse(mapping))
}

type userResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	Email    string `json:"email,omitempty"`
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := s.uc.SearchSlackUsers(ctx, r.URL.Query().Get("q"))
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = userResponse{
			ID:       u.ID.String(),
			Name:     u.Name,
			RealName: u.RealName,
			Email:    u.Email,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
