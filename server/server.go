// Package server is the HTTP surface of the storefront's auth lifecycle:
// the login redirect, the OAuth callback, logout, and the bearer-protected
// API routes that ride on the session manager.
package server

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/partsbay/storefront/authsession"
	"github.com/partsbay/storefront/httpclient"
	"github.com/partsbay/storefront/internal/config"
)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	sessions *authsession.Manager
	api      *httpclient.Client
}

func New(cfg config.Config, sessions *authsession.Manager, api *httpclient.Client) (*Server, error) {
	if sessions == nil {
		return nil, fmt.Errorf("[server.New] session manager is required")
	}
	if api == nil {
		return nil, fmt.Errorf("[server.New] api client is required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		sessions: sessions,
		api:      api,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		log.Debug().Str("route", route).Msg("registered")
	}
}
