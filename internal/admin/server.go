package admin

import (
	"context"
	"embed"
	"encoding/csv"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"syncbench/internal/sink"
)

// Source provides the rows and progress of the running sweep.
type Source interface {
	Rows() []sink.Row
	Progress() sink.Progress
}

// Server exposes sweep progress and results over HTTP while a sweep runs.
type Server struct {
	src      Source
	overview *sink.Overview
	counters []string
	tpl      *template.Template
	e        *echo.Echo
}

//go:embed templates/index.html
var content embed.FS

func NewServer(src Source, ov *sink.Overview, counters []string) *Server {
	tpl := template.Must(template.New("index.html").Funcs(template.FuncMap{
		"record": func(r sink.Row) []string { return r.Record(counters) },
	}).ParseFS(content, "templates/index.html"))
	s := &Server{src: src, overview: ov, counters: counters, tpl: tpl}
	s.e = echo.New()
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Use(middleware.Recover())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.e.GET("/", s.handleIndex)
	s.e.GET("/progress", s.handleProgress)
	s.e.GET("/results", s.handleResults)
	s.e.GET("/results.csv", s.handleResultsCSV)
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler { return s.e }

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) handleIndex(c echo.Context) error {
	data := struct {
		Overview *sink.Overview
		Progress sink.Progress
		Header   []string
		Rows     []sink.Row
	}{
		Overview: s.overview,
		Progress: s.src.Progress(),
		Header:   sink.Header(s.counters),
		Rows:     s.src.Rows(),
	}
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return s.tpl.Execute(c.Response(), data)
}

func (s *Server) handleProgress(c echo.Context) error {
	return c.JSON(http.StatusOK, s.src.Progress())
}

// filterRows applies the optional impl, param, run and node query filters.
func (s *Server) filterRows(c echo.Context) ([]sink.Row, error) {
	impl := c.QueryParam("impl")
	run := c.QueryParam("run")
	node := c.QueryParam("node")
	param := -1
	if p := c.QueryParam("param"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		param = n
	}
	rows := s.src.Rows()
	out := rows[:0]
	for _, r := range rows {
		if impl != "" && r.Implementation != impl {
			continue
		}
		if param >= 0 && r.Param != param {
			continue
		}
		if run != "" && r.Run != run {
			continue
		}
		if node != "" && r.Node != node {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Server) handleResults(c echo.Context) error {
	rows, err := s.filterRows(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "param must be an integer"})
	}
	return c.JSON(http.StatusOK, rows)
}

func (s *Server) handleResultsCSV(c echo.Context) error {
	rows, err := s.filterRows(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "param must be an integer"})
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().WriteHeader(http.StatusOK)
	w := csv.NewWriter(c.Response())
	if err := w.Write(sink.Header(s.counters)); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.Record(s.counters)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
