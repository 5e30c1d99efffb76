// Package collabhttp exposes the collaboration domain over HTTP.
package collabhttp

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventsync/server/internal/port/inbound"
	"github.com/eventsync/server/internal/shared/response"
	"github.com/eventsync/server/internal/utils/middleware"
)

// Handler handles collaboration HTTP requests.
type Handler struct {
	domain inbound.CollaborationDomain
}

// NewHandler creates a new collaboration handler.
func NewHandler(domain inbound.CollaborationDomain) *Handler {
	return &Handler{domain: domain}
}

// RegisterRoutes registers collaboration routes. The middlewares run on every
// route and must include authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	teams := r.Group("/teams")
	teams.Use(middlewares...)
	{
		teams.POST("", h.CreateTeam)
		teams.GET("/:id", h.GetTeam)
		teams.POST("/:id/cancel", h.CancelTeam)

		// Members
		teams.POST("/:id/members", h.AddMember)
		teams.DELETE("/:id/members/:enrollment_no", h.RemoveMember)
		teams.GET("/:id/members/:enrollment_no/tasks", h.ListMemberTasks)

		// Invitations
		teams.GET("/:id/invitations", h.ListTeamInvitations)

		// Roles
		teams.GET("/:id/roles", h.ListRoles)
		teams.GET("/:id/roles/:enrollment_no", h.GetRole)
		teams.PUT("/:id/roles/:enrollment_no", h.AssignRole)

		// Tasks
		teams.POST("/:id/tasks", h.CreateTask)
		teams.GET("/:id/tasks", h.ListTasks)
	}

	invitations := r.Group("/invitations")
	invitations.Use(middlewares...)
	{
		invitations.GET("", h.ListMyInvitations)
		invitations.POST("/:id/accept", h.AcceptInvitation)
		invitations.POST("/:id/decline", h.DeclineInvitation)
	}

	tasks := r.Group("/tasks")
	tasks.Use(middlewares...)
	{
		tasks.GET("/:id", h.GetTask)
		tasks.POST("/:id/start", h.StartWork)
		tasks.POST("/:id/submit", h.Submit)
		tasks.POST("/:id/review", h.Review)
		tasks.POST("/:id/approve", h.QuickApprove)
	}

	students := r.Group("/students")
	students.Use(middlewares...)
	{
		students.GET("/:enrollment_no/teams", h.ListStudentTeams)
	}
}

// ========== Team Handlers ==========

// CreateTeam handles team creation. The caller becomes the leader.
func (h *Handler) CreateTeam(c *gin.Context) {
	var input inbound.CreateTeamInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	team, err := h.domain.CreateTeam(c.Request.Context(), middleware.GetActor(c), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

// GetTeam handles getting a team.
func (h *Handler) GetTeam(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	team, err := h.domain.GetTeam(c.Request.Context(), teamID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// CancelTeam handles team cancellation.
func (h *Handler) CancelTeam(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.domain.CancelTeam(c.Request.Context(), teamID, middleware.GetActor(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListStudentTeams lists the teams a student belongs to.
func (h *Handler) ListStudentTeams(c *gin.Context) {
	teams, err := h.domain.ListTeamsForStudent(c.Request.Context(), c.Param("enrollment_no"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

// ========== Member Handlers ==========

// AddMember adds a member directly or sends an invitation, depending on the
// team's membership mode.
func (h *Handler) AddMember(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input inbound.AddMemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.domain.AddMember(c.Request.Context(), teamID, input.EnrollmentNo, middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.IsInvitation() {
		c.JSON(http.StatusAccepted, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// RemoveMember removes a member from a team.
func (h *Handler) RemoveMember(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	err := h.domain.RemoveMember(c.Request.Context(), teamID, c.Param("enrollment_no"), middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMemberTasks lists the tasks assigned to one member.
func (h *Handler) ListMemberTasks(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	tasks, err := h.domain.GetTasksForMember(c.Request.Context(), teamID, c.Param("enrollment_no"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// ========== Invitation Handlers ==========

// ListTeamInvitations lists a team's invitations.
func (h *Handler) ListTeamInvitations(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	invitations, err := h.domain.ListTeamInvitations(c.Request.Context(), teamID, middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invitations})
}

// ListMyInvitations lists the caller's pending invitations.
func (h *Handler) ListMyInvitations(c *gin.Context) {
	invitations, err := h.domain.ListMyInvitations(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invitations})
}

// AcceptInvitation accepts an invitation addressed to the caller.
func (h *Handler) AcceptInvitation(c *gin.Context) {
	invitationID, ok := parseID(c, "id")
	if !ok {
		return
	}

	member, err := h.domain.AcceptInvitation(c.Request.Context(), invitationID, middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// DeclineInvitation declines an invitation addressed to the caller.
func (h *Handler) DeclineInvitation(c *gin.Context) {
	invitationID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.domain.DeclineInvitation(c.Request.Context(), invitationID, middleware.GetActor(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ========== Role Handlers ==========

// AssignRole replaces a member's role.
func (h *Handler) AssignRole(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input inbound.RoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	role, err := h.domain.AssignRole(c.Request.Context(), teamID, c.Param("enrollment_no"), &input, middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

// GetRole returns a member's role.
func (h *Handler) GetRole(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	role, err := h.domain.GetRole(c.Request.Context(), teamID, c.Param("enrollment_no"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, role)
}

// ListRoles lists the effective role of every member, implicit leader and member roles included.
func (h *Handler) ListRoles(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	roles, err := h.domain.ListRoles(c.Request.Context(), teamID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

// ========== Task Handlers ==========

// CreateTask creates a task on a team.
func (h *Handler) CreateTask(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input inbound.CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.domain.CreateTask(c.Request.Context(), teamID, &input, middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// ListTasks lists a team's tasks.
func (h *Handler) ListTasks(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	tasks, err := h.domain.ListTasks(c.Request.Context(), teamID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// GetTask returns a task.
func (h *Handler) GetTask(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := h.domain.GetTask(c.Request.Context(), taskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// StartWork moves a task to in_progress.
func (h *Handler) StartWork(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := h.domain.StartWork(c.Request.Context(), taskID, middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Submit records a task submission.
func (h *Handler) Submit(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input inbound.SubmitTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.domain.Submit(c.Request.Context(), taskID, middleware.GetActor(c), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Review records a review decision on a submitted task.
func (h *Handler) Review(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input inbound.ReviewTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.domain.Review(c.Request.Context(), taskID, middleware.GetActor(c), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type approveRequest struct {
	Notes string `json:"notes" binding:"max=5000"`
}

// QuickApprove approves a submitted task in one step.
func (h *Handler) QuickApprove(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input approveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	task, err := h.domain.QuickApprove(c.Request.Context(), taskID, middleware.GetActor(c), input.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ========== Helpers ==========

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.BadRequest(c, "invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}
