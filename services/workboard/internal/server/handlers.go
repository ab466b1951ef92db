package server

import (
	"net/http"
	"strconv"
	"strings"

	"workboard/pkg/domain"
	"workboard/services/workboard/internal/app"
)

type idResponse struct {
	ID string `json:"id"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type assignRequest struct {
	PartID string `json:"part_id"`
	UserID string `json:"user_id"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		roles, err := s.app.ListRoles(r.Context())
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, roles)
	case http.MethodPost:
		if !s.allowWrite(w, r, "/roles") {
			return
		}
		var in app.RoleInput
		if !decodeJSON(w, r, &in) {
			return
		}
		role, err := s.app.CreateRole(r.Context(), in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, idResponse{ID: role.Name})
	default:
		allowMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		users, err := s.app.ListUsers(r.Context())
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	case http.MethodPost:
		if !s.allowWrite(w, r, "/users") {
			return
		}
		var in app.UserInput
		if !decodeJSON(w, r, &in) {
			return
		}
		user, err := s.app.CreateUser(r.Context(), in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, idResponse{ID: user.ID})
	default:
		allowMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// /users/{id}/workload
func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r.URL.Path, "/users/")
	if len(segs) != 2 || segs[1] != "workload" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	wl, err := s.app.Workload(r.Context(), segs[0])
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		query := app.ProjectQuery{
			Tag:   q.Get("tag"),
			Owner: q.Get("owner"),
			Sort:  q.Get("sort"),
		}
		if raw := strings.TrimSpace(q.Get("archived")); raw != "" {
			archived, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "archived must be a boolean")
				return
			}
			query.Archived = &archived
		}
		projects, err := s.app.SearchProjects(r.Context(), query)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, projects)
	case http.MethodPost:
		if !s.allowWrite(w, r, "/projects") {
			return
		}
		var in app.ProjectInput
		if !decodeJSON(w, r, &in) {
			return
		}
		project, err := s.app.CreateProject(r.Context(), in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, idResponse{ID: project.ID})
	default:
		allowMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// /projects/{id}
func (s *Server) handleProjectByID(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r.URL.Path, "/projects/")
	if len(segs) != 1 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	project, err := s.app.GetProject(r.Context(), segs[0])
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleParts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		parts, err := s.app.ListParts(r.Context(), app.PartQuery{
			ProjectID: q.Get("project_id"),
			UserID:    q.Get("user_id"),
			Status:    q.Get("status"),
		})
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, parts)
	case http.MethodPost:
		if !s.allowWrite(w, r, "/parts") {
			return
		}
		var in app.PartInput
		if !decodeJSON(w, r, &in) {
			return
		}
		part, err := s.app.CreatePart(r.Context(), in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, idResponse{ID: part.ID})
	default:
		allowMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if !s.allowWrite(w, r, "/parts/assign") {
		return
	}
	var req assignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.PartID) == "" || strings.TrimSpace(req.UserID) == "" {
		writeError(w, http.StatusBadRequest, "part_id and user_id required")
		return
	}
	if err := s.app.AssignPart(r.Context(), req.PartID, req.UserID); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// /parts/{id} and /parts/{id}/status
func (s *Server) handlePartByID(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r.URL.Path, "/parts/")
	switch {
	case len(segs) == 1:
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		part, err := s.app.GetPart(r.Context(), segs[0])
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, part)
	case len(segs) == 2 && segs[1] == "status":
		s.handlePartStatus(w, r, segs[0])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handlePartStatus takes the status from ?status= or, when absent, a JSON body.
func (s *Server) handlePartStatus(w http.ResponseWriter, r *http.Request, partID string) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if !s.allowWrite(w, r, "/parts/status") {
		return
	}
	status := r.URL.Query().Get("status")
	if status == "" && r.ContentLength != 0 {
		var req statusRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		status = req.Status
	}
	if err := s.app.SetPartStatus(r.Context(), partID, domain.PartStatus(status)); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if !s.allowWrite(w, r, "/notifications") {
		return
	}
	var in app.NotificationInput
	if !decodeJSON(w, r, &in) {
		return
	}
	n, err := s.app.CreateNotification(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: n.ID})
}

// /notifications/{user_id}
func (s *Server) handleNotificationsByUser(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r.URL.Path, "/notifications/")
	if len(segs) != 1 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	items, err := s.app.ListNotifications(r.Context(), segs[0])
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSystemInsights(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	res, err := s.app.SystemInsights(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// /insights/user/{user_id}
func (s *Server) handleUserInsights(w http.ResponseWriter, r *http.Request) {
	segs := pathSegments(r.URL.Path, "/insights/user/")
	if len(segs) != 1 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	res, err := s.app.UserInsights(r.Context(), segs[0])
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
