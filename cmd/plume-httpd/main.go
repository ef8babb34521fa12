// plume-httpd is an HTTP server configured and scripted with plume.
//
// Usage:
//
//	plume-httpd [script.plume]
//
// A script argument is evaluated at startup; afterwards a REPL runs on a
// terminal, or standard input is evaluated when piped. The server is
// driven entirely by script commands:
//
//	route GET /path {script}   - register a route handler
//	listen 8080                - start the HTTP server on a port
//	stop                       - stop the HTTP server
//	response body              - set the response body (handler only)
//	status code                - set the HTTP status code (handler only)
//	header name value          - set a response header (handler only)
//	request method             - request method (handler only)
//	request path               - request path (handler only)
//	request header name        - request header (handler only)
//	request query name         - query parameter (handler only)
//	request body               - request body (handler only)
//	template list              - list available templates
//	template show name         - show template source
//	template render name data  - render a template into the response
//	template errors            - list templates with parse errors
//
// Templates load from the "templates" directory and reload when their
// files change. Supported extensions: .html, .tmpl. The data word of
// template render is a list of alternating keys and values:
//
//	route GET /hello {template render hello.html {name World}}
//
// Example session:
//
//	% route GET / {response "Hello, World!"}
//	% listen 8080
//	Listening on :8080
//	% stop
//	Server stopped
package main

import (
	"bufio"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/plume-lang/plume"
)

// templateEntry is one parsed template plus the mtime it was parsed at.
type templateEntry struct {
	tmpl    *template.Template
	modTime int64
	err     error
}

// requestContext carries per-request state for the handler commands.
type requestContext struct {
	req     *http.Request
	status  int
	headers map[string]string
	body    string
}

// Server routes HTTP requests to handler scripts held in a plume
// interpreter.
type Server struct {
	interp *plume.Interp

	mu      sync.Mutex
	httpd   *http.Server
	routes  map[string]string // "METHOD /path" -> handler script
	running bool

	templateDir string
	templateMu  sync.RWMutex
	templates   map[string]*templateEntry

	// the interpreter runs one script at a time; handlerMu serializes
	// requests and requestMu guards the context pointer
	handlerMu sync.Mutex
	requestMu sync.Mutex
	request   *requestContext
}

func main() {
	i := plume.New()
	defer i.Close()

	srv := &Server{
		interp:      i,
		routes:      make(map[string]string),
		templateDir: "templates",
		templates:   make(map[string]*templateEntry),
	}
	srv.registerCommands()

	if len(os.Args) > 1 {
		script, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading script: %v\n", err)
			os.Exit(1)
		}
		if _, err := i.Eval(string(script)); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		runREPL(i)
		return
	}

	script, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading stdin: %v\n", err)
		os.Exit(1)
	}
	if len(script) > 0 {
		if _, err := i.Eval(string(script)); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	srv.mu.Lock()
	running := srv.running
	srv.mu.Unlock()
	if running {
		select {} // serve until killed
	}
}

func (s *Server) registerCommands() {
	s.interp.RegisterCommand("route", s.cmdRoute, nil)
	s.interp.RegisterCommand("listen", s.cmdListen, nil)
	s.interp.RegisterCommand("stop", s.cmdStop, nil)
	s.interp.RegisterCommand("response", s.cmdResponse, nil)
	s.interp.RegisterCommand("status", s.cmdStatus, nil)
	s.interp.RegisterCommand("header", s.cmdHeader, nil)
	s.interp.RegisterCommand("request", s.cmdRequest, nil)
	s.interp.RegisterCommand("template", s.cmdTemplate, nil)
}

// current returns the in-flight request context, or nil outside a
// handler.
func (s *Server) current() *requestContext {
	s.requestMu.Lock()
	defer s.requestMu.Unlock()
	return s.request
}

// cmdRoute registers a handler script for a method and path.
func (s *Server) cmdRoute(in *plume.Interp, args []string, _ any) plume.Result {
	if len(args) != 4 {
		return plume.Error(`wrong # args: should be "route method path script"`)
	}
	key := strings.ToUpper(args[1]) + " " + args[2]
	s.mu.Lock()
	s.routes[key] = args[3]
	s.mu.Unlock()
	return plume.OK("")
}

// cmdListen starts the HTTP server on a port.
func (s *Server) cmdListen(in *plume.Interp, args []string, _ any) plume.Result {
	if len(args) != 2 {
		return plume.Error(`wrong # args: should be "listen port"`)
	}
	addr := ":" + args[1]

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return plume.Error("server already running")
	}
	s.httpd = &http.Server{Addr: addr, Handler: s}
	s.running = true
	httpd := s.httpd
	s.mu.Unlock()

	go func() {
		err := httpd.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		}
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	fmt.Printf("Listening on %s\n", addr)
	return plume.OK("")
}

// cmdStop shuts the HTTP server down.
func (s *Server) cmdStop(in *plume.Interp, args []string, _ any) plume.Result {
	if len(args) != 1 {
		return plume.Error(`wrong # args: should be "stop"`)
	}
	s.mu.Lock()
	if !s.running || s.httpd == nil {
		s.mu.Unlock()
		return plume.Error("server not running")
	}
	httpd := s.httpd
	s.mu.Unlock()

	if err := httpd.Shutdown(context.Background()); err != nil {
		return plume.Errorf("shutdown error: %v", err)
	}
	fmt.Println("Server stopped")
	return plume.OK("")
}

// cmdResponse sets the response body of the in-flight request.
func (s *Server) cmdResponse(in *plume.Interp, args []string, _ any) plume.Result {
	ctx := s.current()
	if ctx == nil {
		return plume.Error("response: not in request context")
	}
	if len(args) != 2 {
		return plume.Error(`wrong # args: should be "response body"`)
	}
	ctx.body = args[1]
	return plume.OK("")
}

// cmdStatus sets the HTTP status code of the in-flight request.
func (s *Server) cmdStatus(in *plume.Interp, args []string, _ any) plume.Result {
	ctx := s.current()
	if ctx == nil {
		return plume.Error("status: not in request context")
	}
	if len(args) != 2 {
		return plume.Error(`wrong # args: should be "status code"`)
	}
	code, err := plume.NewValue(args[1]).Int()
	if err != nil {
		return plume.Errorf("status: invalid code: %v", err)
	}
	ctx.status = int(code)
	return plume.OK("")
}

// cmdHeader sets a response header of the in-flight request.
func (s *Server) cmdHeader(in *plume.Interp, args []string, _ any) plume.Result {
	ctx := s.current()
	if ctx == nil {
		return plume.Error("header: not in request context")
	}
	if len(args) != 3 {
		return plume.Error(`wrong # args: should be "header name value"`)
	}
	ctx.headers[args[1]] = args[2]
	return plume.OK("")
}

// cmdRequest exposes properties of the in-flight request.
func (s *Server) cmdRequest(in *plume.Interp, args []string, _ any) plume.Result {
	ctx := s.current()
	if ctx == nil {
		return plume.Error("request: not in request context")
	}
	if len(args) < 2 {
		return plume.Error(`wrong # args: should be "request subcommand ?arg?"`)
	}
	switch args[1] {
	case "method":
		return plume.OK(ctx.req.Method)
	case "path":
		return plume.OK(ctx.req.URL.Path)
	case "header":
		if len(args) != 3 {
			return plume.Error(`wrong # args: should be "request header name"`)
		}
		return plume.OK(ctx.req.Header.Get(args[2]))
	case "query":
		if len(args) != 3 {
			return plume.Error(`wrong # args: should be "request query name"`)
		}
		return plume.OK(ctx.req.URL.Query().Get(args[2]))
	case "body":
		body, err := io.ReadAll(ctx.req.Body)
		if err != nil {
			return plume.Errorf("request body: %v", err)
		}
		return plume.OK(string(body))
	}
	return plume.Errorf("request: unknown subcommand %q", args[1])
}

// refreshTemplates scans the template directory and reparses changed
// files.
func (s *Server) refreshTemplates() {
	s.templateMu.Lock()
	defer s.templateMu.Unlock()

	seen := make(map[string]bool)
	filepath.Walk(s.templateDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".html" && ext != ".tmpl" {
			return nil
		}
		name, err := filepath.Rel(s.templateDir, path)
		if err != nil {
			return nil
		}

		seen[name] = true
		modTime := info.ModTime().UnixNano()
		if existing, ok := s.templates[name]; ok && existing.modTime == modTime {
			return nil
		}

		tmpl, parseErr := template.ParseFiles(path)
		s.templates[name] = &templateEntry{tmpl: tmpl, modTime: modTime, err: parseErr}
		return nil
	})

	for name := range s.templates {
		if !seen[name] {
			delete(s.templates, name)
		}
	}
}

// cmdTemplate dispatches the template subcommands.
func (s *Server) cmdTemplate(in *plume.Interp, args []string, _ any) plume.Result {
	if len(args) < 2 {
		return plume.Error(`wrong # args: should be "template subcommand ?args?"`)
	}
	switch args[1] {
	case "list":
		return s.templateList()
	case "show":
		return s.templateShow(args[2:])
	case "render":
		return s.templateRender(args[2:])
	case "errors":
		return s.templateErrors()
	}
	return plume.Errorf("template: unknown subcommand %q", args[1])
}

// templateList lists template names as a list result.
func (s *Server) templateList() plume.Result {
	s.refreshTemplates()

	s.templateMu.RLock()
	defer s.templateMu.RUnlock()

	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return plume.OK(plume.List(names...))
}

// templateShow returns a template's source text.
func (s *Server) templateShow(args []string) plume.Result {
	if len(args) != 1 {
		return plume.Error(`wrong # args: should be "template show name"`)
	}
	content, err := os.ReadFile(filepath.Join(s.templateDir, args[0]))
	if err != nil {
		return plume.Errorf("template show: %v", err)
	}
	return plume.OK(string(content))
}

// templateRender renders a template into the response body. The data
// word is a list of alternating keys and values.
func (s *Server) templateRender(args []string) plume.Result {
	ctx := s.current()
	if ctx == nil {
		return plume.Error("template render: not in request context")
	}
	if len(args) != 2 {
		return plume.Error(`wrong # args: should be "template render name data"`)
	}
	name := args[0]

	s.refreshTemplates()

	s.templateMu.RLock()
	entry, ok := s.templates[name]
	s.templateMu.RUnlock()

	if !ok {
		return plume.Errorf("template render: template %q not found", name)
	}
	if entry.err != nil {
		return plume.Errorf("template render: template %q has parse error: %v", name, entry.err)
	}

	pairs, err := plume.NewValue(args[1]).List()
	if err != nil {
		return plume.Errorf("template render: %v", err)
	}
	if len(pairs)%2 != 0 {
		return plume.Error("template render: data must have an even number of elements")
	}
	data := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		data[pairs[i].String()] = pairs[i+1].String()
	}

	var buf strings.Builder
	if err := entry.tmpl.Execute(&buf, data); err != nil {
		return plume.Errorf("template render: %v", err)
	}
	ctx.body = buf.String()
	return plume.OK("")
}

// templateErrors lists templates with parse errors as alternating
// name/message pairs.
func (s *Server) templateErrors() plume.Result {
	s.refreshTemplates()

	s.templateMu.RLock()
	defer s.templateMu.RUnlock()

	names := make([]string, 0, len(s.templates))
	for name, entry := range s.templates {
		if entry.err != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var pairs []string
	for _, name := range names {
		pairs = append(pairs, name, s.templates[name].err.Error())
	}
	return plume.OK(plume.List(pairs...))
}

// ServeHTTP looks up the route for the request and evaluates its handler
// script.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	s.mu.Lock()
	script, ok := s.routes[key]
	if !ok {
		script, ok = s.routes["ANY "+r.URL.Path]
	}
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()

	ctx := &requestContext{
		req:     r,
		status:  http.StatusOK,
		headers: make(map[string]string),
	}
	s.requestMu.Lock()
	s.request = ctx
	s.requestMu.Unlock()
	defer func() {
		s.requestMu.Lock()
		s.request = nil
		s.requestMu.Unlock()
	}()

	if _, err := s.interp.Eval(script); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for name, value := range ctx.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(ctx.status)
	if ctx.body != "" {
		w.Write([]byte(ctx.body))
	}
}

func runREPL(i *plume.Interp) {
	scanner := bufio.NewScanner(os.Stdin)
	var inputBuffer string

	for {
		if inputBuffer == "" {
			fmt.Print("% ")
		} else {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()
		if inputBuffer != "" {
			inputBuffer += "\n" + line
		} else {
			inputBuffer = line
		}

		if i.Parse(inputBuffer).Status == plume.ParseIncomplete {
			continue
		}

		result, err := i.Eval(inputBuffer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		} else if result.String() != "" {
			fmt.Println(result.String())
		}
		inputBuffer = ""
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error reading input: %v\n", err)
	}
}
