// Package server exposes indexed extraction results over a small REST API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fsminer/internal/manager"
)

// Server holds the state for the REST API server.
type Server struct {
	manager *manager.StoreManager
	router  *gin.Engine
}

// NewServer creates a new Server instance.
func NewServer(mgr *manager.StoreManager) *Server {
	r := gin.Default()
	s := &Server{
		manager: mgr,
		router:  r,
	}
	s.setupRoutes()
	return s
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/v1/projects", s.handleProjects)
	s.router.GET("/v1/status", s.handleStatus)
	s.router.GET("/v1/resources/:project", s.handleResources)
	s.router.GET("/v1/graphs/:project", s.handleGraph)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}
