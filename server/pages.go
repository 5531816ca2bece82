package server

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

const contentTypeHTML = "text/html; charset=utf-8"

// interstitialTmpl shows a short message, then navigates. The delay keeps
// the message readable before the browser moves on.
var interstitialTmpl = template.Must(template.New("interstitial").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="{{.Delay}};url={{.Target}}">
<title>{{.Title}}</title>
</head>
<body>
<p>{{.Message}}</p>
</body>
</html>`))

var failurePageTmpl = template.Must(template.New("failure").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Sign-in failed</title>
</head>
<body>
<h1>Sign-in failed</h1>
<p>{{.Message}}</p>
<p><a href="` + RouteLogin + `">Try again</a></p>
</body>
</html>`))

type interstitialData struct {
	Delay   string
	Target  string
	Title   string
	Message string
}

func (s *Server) renderSuccessInterstitial(w http.ResponseWriter, target string) {
	s.renderInterstitial(w, interstitialData{
		Delay:   fmt.Sprintf("%g", s.config.GetSuccessRedirectDelay().Seconds()),
		Target:  target,
		Title:   "Signed in",
		Message: "You are signed in. Redirecting…",
	})
}

func (s *Server) renderFailureInterstitial(w http.ResponseWriter, message string) {
	target := RouteLoginFailed + "?error=" + url.QueryEscape(message)
	s.renderInterstitial(w, interstitialData{
		Delay:   fmt.Sprintf("%g", s.config.GetFailureRedirectDelay().Seconds()),
		Target:  target,
		Title:   "Sign-in failed",
		Message: message,
	})
}

func (s *Server) renderInterstitial(w http.ResponseWriter, data interstitialData) {
	w.Header().Set("Content-Type", contentTypeHTML)
	if err := interstitialTmpl.Execute(w, data); err != nil {
		log.Err(err).Msg("failed to render interstitial page")
	}
}

func (s *Server) renderFailurePage(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", contentTypeHTML)
	if err := failurePageTmpl.Execute(w, struct{ Message string }{Message: message}); err != nil {
		log.Err(err).Msg("failed to render failure page")
	}
}
