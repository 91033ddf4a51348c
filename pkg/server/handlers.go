package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fsminer/pkg/common/errors"
)

// ProjectStatus is one row of the status endpoint.
type ProjectStatus struct {
	ID    string `json:"id"`
	Facts uint64 `json:"facts"`
}

// handleProjects returns a list of available projects.
func (s *Server) handleProjects(c *gin.Context) {
	projects, err := s.manager.ListProjects()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// handleStatus reports the fact count per project.
func (s *Server) handleStatus(c *gin.Context) {
	projects, err := s.manager.ListProjects()
	if err != nil {
		handleError(c, err)
		return
	}

	statuses := make([]ProjectStatus, 0, len(projects))
	for _, p := range projects {
		store, err := s.manager.GetStore(p.ID)
		if err != nil {
			handleError(c, err)
			return
		}
		statuses = append(statuses, ProjectStatus{ID: p.ID, Facts: store.Len()})
	}
	c.JSON(http.StatusOK, statuses)
}

// handleResources returns the facts describing one subject:
// GET /v1/resources/:project?subject=<id>&graph=<name>
func (s *Server) handleResources(c *gin.Context) {
	subject := c.Query("subject")
	if subject == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing subject parameter", nil))
		return
	}

	store, err := s.manager.GetStore(c.Param("project"))
	if err != nil {
		handleError(c, err)
		return
	}

	facts, err := store.ScanSubject(c.Query("graph"), subject)
	if err != nil {
		handleError(c, err)
		return
	}
	if len(facts) == 0 {
		handleError(c, errors.NewAppError(http.StatusNotFound, "No facts for subject", nil))
		return
	}
	c.JSON(http.StatusOK, gin.H{"subject": subject, "facts": facts})
}

// handleGraph dumps every fact in a graph partition:
// GET /v1/graphs/:project?graph=<name>
func (s *Server) handleGraph(c *gin.Context) {
	store, err := s.manager.GetStore(c.Param("project"))
	if err != nil {
		handleError(c, err)
		return
	}

	facts, err := store.ScanGraph(c.Query("graph"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"facts": facts})
}

func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
