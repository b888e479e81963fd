// ABOUTME: Web UI server with embedded templates
// ABOUTME: Serves the deal table and kanban board with htmx partials and drag-and-drop
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/harperreed/dealflow/kanban"
	"github.com/harperreed/dealflow/models"
	"github.com/harperreed/dealflow/prefs"
	"github.com/harperreed/dealflow/views"
	"github.com/harperreed/dealflow/viz"
)

//go:embed templates/*
var templatesFS embed.FS

// Options tunes a Server. Zero values pick the defaults.
type Options struct {
	// Delays are the cosmetic pauses before form actions. Nil means views.DefaultDelays.
	Delays *views.Delays

	// SessionTTL evicts sessions idle for longer. Zero keeps them forever.
	SessionTTL time.Duration

	Now func() time.Time
}

type Server struct {
	templates *template.Template
	sessions  *sessionManager
	ttl       time.Duration
}

func NewServer(backend Backend, opts Options) (*Server, error) {
	funcMap := template.FuncMap{
		"formatDate":  views.FormatDate,
		"fieldLabel":  views.FieldLabel,
		"toggleLabel": func(field string, visible bool) string { return views.ToggleLabel(views.FieldLabel(field), visible) },
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	delays := views.DefaultDelays()
	if opts.Delays != nil {
		delays = *opts.Delays
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Server{
		templates: tmpl,
		sessions:  newSessionManager(backend, delays, opts.SessionTTL, now),
		ttl:       opts.SessionTTL,
	}, nil
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /view", s.handleSetView)

	// Partials for HTMX
	mux.HandleFunc("GET /partials/table", s.handleTable)
	mux.HandleFunc("GET /partials/board", s.handleBoard)
	mux.HandleFunc("GET /partials/notices", s.handleNotices)
	mux.HandleFunc("POST /board/drop", s.handleDrop)
	mux.HandleFunc("POST /notices/{id}/dismiss", s.handleDismiss)

	mux.HandleFunc("POST /prefs/columns", s.handleColumnPref)
	mux.HandleFunc("POST /prefs/kanban", s.handleKanbanPref)
	mux.HandleFunc("POST /prefs/theme", s.handleThemePref)

	mux.HandleFunc("GET /deals/new", s.handleNewForm)
	mux.HandleFunc("POST /deals/new", s.handleCreate)
	mux.HandleFunc("GET /deals/{id}", s.handleDetail)
	mux.HandleFunc("GET /deals/{id}/edit", s.handleEditForm)
	mux.HandleFunc("POST /deals/{id}/edit", s.handleUpdate)
	mux.HandleFunc("GET /deals/{id}/delete", s.handleDeleteConfirm)
	mux.HandleFunc("POST /deals/{id}/delete", s.handleDelete)

	mux.HandleFunc("GET /graphs/pipeline", s.handlePipelineGraph)

	return logRequests(mux)
}

// Start serves on port until ctx is cancelled, evicting idle sessions meanwhile.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.ttl > 0 {
		go s.evictLoop(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting web server at http://localhost%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessions.evictIdle()
		}
	}
}

// session resolves the caller's profile cookie to its session. A new session
// loads deals and entities before it is used.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session {
	sess, created := s.sessions.get(profileFor(w, r))
	if created {
		s.load(r.Context(), sess)
	}
	return sess
}

// load fetches into the session's store. The session outlives the request,
// so an aborted request must not leave it holding a fetch error.
func (s *Server) load(ctx context.Context, sess *session) {
	ctx = context.WithoutCancel(ctx)
	// Failures land in the store's error string, which the views render.
	_ = sess.store.FetchDeals(ctx)
	_ = sess.store.FetchEntities(ctx)
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	err := s.templates.ExecuteTemplate(w, name, data)
	if err != nil {
		log.Printf("Template error rendering %s: %v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

type layoutData struct {
	Title string
	Theme prefs.Theme
	View  viewData
}

type viewData struct {
	Mode  prefs.ViewMode
	Table tableData
	Board boardData
}

type rowView struct {
	ID          models.DealID
	ClientName  string
	ProductName string
	Stage       models.Stage
	CreatedAt   string
	Deleting    bool
}

type tableData struct {
	Rows    []rowView
	Columns []views.Column
	Page    views.Page
	Query   string
	Error   string
	Loading bool

	SelfURL string
	PrevURL string
	NextURL string
}

func tableURL(query string, page int) string {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	v.Set("page", strconv.Itoa(page))
	return "/partials/table?" + v.Encode()
}

type toggle struct {
	Field   string
	Visible bool
}

type boardData struct {
	Columns []views.StageColumn
	Meta    prefs.KanbanMetadata
	Toggles []toggle
	Error   string
	Loading bool
}

func (s *Server) tableData(sess *session, query string, page int) tableData {
	st := sess.store.Snapshot()
	filtered := views.FilterDeals(st.Deals, query)
	rows, p := views.Paginate(filtered, page, views.PageSize)

	data := tableData{
		Columns: views.TableColumns(st.Prefs.Columns),
		Page:    p,
		Query:   query,
		Error:   st.Error,
		Loading: st.Loading,
		SelfURL: tableURL(query, p.Number),
		PrevURL: tableURL(query, p.Prev()),
		NextURL: tableURL(query, p.Next()),
	}
	for _, d := range rows {
		data.Rows = append(data.Rows, rowView{
			ID:          d.ID,
			ClientName:  d.ClientName,
			ProductName: d.ProductName,
			Stage:       d.Stage,
			CreatedAt:   views.FormatDate(d.CreatedAt),
			Deleting:    sess.actions.Tracker.InFlight(d.ID),
		})
	}
	return data
}

func (s *Server) boardData(sess *session) boardData {
	st := sess.store.Snapshot()
	data := boardData{
		Columns: views.GroupByStage(st.Deals),
		Meta:    st.Prefs.Kanban,
		Error:   st.Error,
		Loading: st.Loading,
	}
	for _, f := range st.Prefs.Kanban.Fields() {
		visible, _ := st.Prefs.Kanban.Get(f)
		data.Toggles = append(data.Toggles, toggle{Field: f, Visible: visible})
	}
	return data
}

func (s *Server) viewData(sess *session, r *http.Request) viewData {
	mode := sess.store.Prefs().View
	v := viewData{Mode: mode}
	if mode == prefs.ViewKanban {
		v.Board = s.boardData(sess)
	} else {
		v.Table = s.tableData(sess, r.FormValue("q"), pageParam(r))
	}
	return v
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// A full page load always refetches.
	sess, _ := s.sessions.get(profileFor(w, r))
	s.load(r.Context(), sess)

	data := layoutData{
		Title: "Deals",
		Theme: sess.store.Prefs().Theme,
		View:  s.viewData(sess, r),
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	mode, err := prefs.ParseViewMode(r.FormValue("view"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.store.SetCurrentView(r.Context(), mode); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.renderTemplate(w, "view", s.viewData(sess, r))
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.renderTemplate(w, "table-body", s.tableData(sess, r.FormValue("q"), pageParam(r)))
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.renderTemplate(w, "board-body", s.boardData(sess))
}

// handleDrop feeds a finished drag into the engine and returns the board as
// it looks after the optimistic move. The server write continues afterwards.
func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	active := r.FormValue("active")
	over := r.FormValue("over")

	ev := kanban.Cancel(active)
	if over != "" {
		ev = kanban.Drop(active, over)
	}
	res := sess.engine.HandleDragEnd(r.Context(), ev)
	w.Header().Set("X-Drop-Outcome", res.Outcome.String())

	s.renderTemplate(w, "board-body", s.boardData(sess))
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess.unsignalled() {
		// A rollback changed deals behind the browser's back.
		w.Header().Set("HX-Trigger", "dealsChanged")
	}
	s.renderTemplate(w, "notices", sess.store.Notifications())
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.store.DismissNotification(r.PathValue("id"))
	s.renderTemplate(w, "notices", sess.store.Notifications())
}

func (s *Server) handleColumnPref(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	visible, err := strconv.ParseBool(r.FormValue("visible"))
	if err != nil {
		http.Error(w, "visible must be true or false", http.StatusBadRequest)
		return
	}
	if err := sess.store.SetColumnVisible(r.Context(), r.FormValue("field"), visible); err != nil {
		prefError(w, err)
		return
	}
	s.renderTemplate(w, "table-body", s.tableData(sess, r.FormValue("q"), pageParam(r)))
}

func (s *Server) handleKanbanPref(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	visible, err := strconv.ParseBool(r.FormValue("visible"))
	if err != nil {
		http.Error(w, "visible must be true or false", http.StatusBadRequest)
		return
	}
	if err := sess.store.SetKanbanMetadataVisible(r.Context(), r.FormValue("field"), visible); err != nil {
		prefError(w, err)
		return
	}
	s.renderTemplate(w, "board-body", s.boardData(sess))
}

func (s *Server) handleThemePref(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	theme := sess.store.Prefs().Theme.Toggle()
	if v := r.FormValue("theme"); v != "" {
		t, err := prefs.ParseTheme(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		theme = t
	}
	if err := sess.store.SetTheme(r.Context(), theme); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("HX-Refresh", "true")
	w.WriteHeader(http.StatusNoContent)
}

func prefError(w http.ResponseWriter, err error) {
	if errors.Is(err, prefs.ErrUnknownField) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

type formData struct {
	Action   string
	Title    string
	Submit   string
	Busy     string
	Alert    string
	Deal     models.Deal
	Stages   []models.Stage
	Clients  []models.Client
	Products []models.Product
}

func (s *Server) newFormData(sess *session) formData {
	st := sess.store.Snapshot()
	return formData{
		Action:   "/deals/new",
		Title:    "New Deal",
		Submit:   "Create Deal",
		Busy:     views.LabelCreating,
		Deal:     models.Deal{Stage: models.DefaultStage},
		Stages:   models.Stages(),
		Clients:  st.Clients,
		Products: st.Products,
	}
}

func (s *Server) editFormData(sess *session, deal models.Deal) formData {
	data := s.newFormData(sess)
	data.Action = fmt.Sprintf("/deals/%s/edit", deal.ID)
	data.Title = "Edit Deal"
	data.Submit = "Update Deal"
	data.Busy = views.LabelUpdating
	data.Deal = deal
	return data
}

func (s *Server) handleNewForm(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.renderTemplate(w, "deal-form", s.newFormData(sess))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	draft := models.DealDraft{
		ClientName:  r.FormValue("clientName"),
		ProductName: r.FormValue("productName"),
		Stage:       models.Stage(r.FormValue("stage")),
		Description: r.FormValue("description"),
	}

	_, err := sess.actions.Create(context.WithoutCancel(r.Context()), draft)
	if msg := views.AlertMessage(err); msg != "" {
		data := s.newFormData(sess)
		data.Alert = msg
		data.Deal = draft.WithID(0)
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.renderTemplate(w, "deal-form", data)
		return
	}
	s.closeModal(w)
}

func (s *Server) dealParam(w http.ResponseWriter, r *http.Request, sess *session) (models.Deal, bool) {
	id, err := models.ParseDealID(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return models.Deal{}, false
	}
	deal, ok := sess.store.Deal(id)
	if !ok {
		http.Error(w, "Deal not found", http.StatusNotFound)
		return models.Deal{}, false
	}
	return deal, true
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	deal, ok := s.dealParam(w, r, sess)
	if !ok {
		return
	}
	s.renderTemplate(w, "deal-detail", deal)
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	deal, ok := s.dealParam(w, r, sess)
	if !ok {
		return
	}
	s.renderTemplate(w, "deal-form", s.editFormData(sess, deal))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	deal, ok := s.dealParam(w, r, sess)
	if !ok {
		return
	}

	client := r.FormValue("clientName")
	product := r.FormValue("productName")
	stage := models.Stage(r.FormValue("stage"))
	description := r.FormValue("description")
	patch := models.DealPatch{
		ClientName:  &client,
		ProductName: &product,
		Stage:       &stage,
		Description: &description,
	}

	_, err := sess.actions.Update(context.WithoutCancel(r.Context()), deal.ID, patch)
	if msg := views.AlertMessage(err); msg != "" {
		data := s.editFormData(sess, deal.Apply(patch))
		data.Alert = msg
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.renderTemplate(w, "deal-form", data)
		return
	}
	s.closeModal(w)
}

type deleteData struct {
	Deal     models.Deal
	Confirm  string
	Busy     string
	Deleting bool
}

func (s *Server) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	deal, ok := s.dealParam(w, r, sess)
	if !ok {
		return
	}
	s.renderTemplate(w, "delete-confirm", deleteData{
		Deal:     deal,
		Confirm:  views.ConfirmDelete,
		Busy:     views.LabelDeleting,
		Deleting: sess.actions.Tracker.InFlight(deal.ID),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	id, err := models.ParseDealID(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	err = sess.actions.Delete(context.WithoutCancel(r.Context()), id)
	if errors.Is(err, views.ErrDeleteInFlight) {
		http.Error(w, views.LabelDeleting, http.StatusConflict)
		return
	}
	// Other failures are in the store's error string.
	s.closeModal(w)
}

// closeModal empties the modal and asks the page to refresh its deal view.
func (s *Server) closeModal(w http.ResponseWriter) {
	w.Header().Set("HX-Trigger", "dealsChanged")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handlePipelineGraph(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	svg, err := viz.RenderPipelineSVG(r.Context(), sess.store.Deals())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, err = w.Write([]byte(svg))
	if err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.FormValue("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[web] method=%s path=%s status=%d latency=%s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
