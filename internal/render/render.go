// Package render turns snapshots into HTML: the card list, the details view,
// the facet selectors and the full directory and login pages.
//
// Templates are embedded and parsed once by New. Every render executes into
// a buffer first, so a failed render writes nothing.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/roach88/staffdir/internal/filter"
	"github.com/roach88/staffdir/internal/roster"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Defaults for Options. The card and details photo directories differ in
// case; both are kept as configured because the asset layout is external.
const (
	DefaultCardPhotoDir    = "assets/images/coun"
	DefaultDetailPhotoDir  = "assets/images/Coun"
	DefaultLogo            = "assets/images/logo.png"
	DefaultMessagingPrefix = "https://wa.me/+200"
	DefaultDetailsPath     = "/employees/"
	DefaultTitle           = "دليل المستشارين"
)

// LoginFailedMessage is shown when credentials are rejected.
const LoginFailedMessage = "بيانات الدخول غير صحيحة!"

// Options controls asset paths and links in rendered markup.
type Options struct {
	CardPhotoDir    string
	DetailPhotoDir  string
	Logo            string
	MessagingPrefix string

	// DetailsPath is prefixed to an identifier to link a card to its
	// details view.
	DetailsPath string

	Title string
}

// DefaultOptions returns the reference asset layout.
func DefaultOptions() Options {
	return Options{
		CardPhotoDir:    DefaultCardPhotoDir,
		DetailPhotoDir:  DefaultDetailPhotoDir,
		Logo:            DefaultLogo,
		MessagingPrefix: DefaultMessagingPrefix,
		DetailsPath:     DefaultDetailsPath,
		Title:           DefaultTitle,
	}
}

// withDefaults fills empty fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CardPhotoDir == "" {
		o.CardPhotoDir = d.CardPhotoDir
	}
	if o.DetailPhotoDir == "" {
		o.DetailPhotoDir = d.DetailPhotoDir
	}
	if o.Logo == "" {
		o.Logo = d.Logo
	}
	if o.MessagingPrefix == "" {
		o.MessagingPrefix = d.MessagingPrefix
	}
	if o.DetailsPath == "" {
		o.DetailsPath = d.DetailsPath
	}
	if o.Title == "" {
		o.Title = d.Title
	}
	return o
}

// Renderer renders directory markup. It is safe for concurrent use.
type Renderer struct {
	opts Options
	tmpl *template.Template
}

// New parses the embedded templates.
func New(opts Options) (*Renderer, error) {
	tmpl, err := template.New("staffdir").
		Funcs(template.FuncMap{"fold": filter.Fold}).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{opts: opts.withDefaults(), tmpl: tmpl}, nil
}

// Options returns the effective options.
func (r *Renderer) Options() Options {
	return r.opts
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

type cardsData struct {
	Employees   roster.Snapshot
	PhotoDir    string
	Logo        string
	DetailsPath string
}

func (r *Renderer) cardsData(list roster.Snapshot) cardsData {
	return cardsData{
		Employees:   list,
		PhotoDir:    r.opts.CardPhotoDir,
		Logo:        r.opts.Logo,
		DetailsPath: r.opts.DetailsPath,
	}
}

// Cards renders one card per record, in order. Each card carries the facet
// values and the folded name as data attributes and links to its details
// view.
func (r *Renderer) Cards(w io.Writer, list roster.Snapshot) error {
	return r.execute(w, "cards", r.cardsData(list))
}

type detailsData struct {
	Record        roster.EmployeeRecord
	PhotoDir      string
	Logo          string
	Phone         string
	MessagingLink string
}

func (r *Renderer) detailsData(snap roster.Snapshot, id int) (detailsData, error) {
	rec, err := snap.Find(id)
	if err != nil {
		return detailsData{}, err
	}
	phone := rec.PhoneNumber.String()
	return detailsData{
		Record:        rec,
		PhotoDir:      r.opts.DetailPhotoDir,
		Logo:          r.opts.Logo,
		Phone:         DisplayPhone(phone),
		MessagingLink: r.MessagingLink(phone),
	}, nil
}

// Details renders the expanded view of the record with the given identifier.
// snap should be the full snapshot, not a filtered subset.
// Returns an error wrapping roster.ErrNotFound for an unknown identifier.
func (r *Renderer) Details(w io.Writer, snap roster.Snapshot, id int) error {
	data, err := r.detailsData(snap, id)
	if err != nil {
		return err
	}
	return r.execute(w, "details", data)
}

// DetailsPageData is the input to DetailsPage.
type DetailsPageData struct {
	Snapshot roster.Snapshot
	ID       int
	DarkMode bool

	// BackPath links back to the list. Defaults to "/".
	BackPath string
}

// DetailsPage renders Details as a standalone document.
func (r *Renderer) DetailsPage(w io.Writer, data DetailsPageData) error {
	details, err := r.detailsData(data.Snapshot, data.ID)
	if err != nil {
		return err
	}
	back := data.BackPath
	if back == "" {
		back = "/"
	}
	return r.execute(w, "details_page", struct {
		Title    string
		DarkMode bool
		BackPath string
		Details  detailsData
	}{
		Title:    details.Record.Name,
		DarkMode: data.DarkMode,
		BackPath: back,
		Details:  details,
	})
}

type option struct {
	Value    string
	Selected bool
}

type selector struct {
	ID      string
	Name    string
	Options []option
}

func selectors(snap roster.Snapshot, c roster.Criteria) []selector {
	out := make([]selector, 0, len(roster.Facets))
	for _, f := range roster.Facets {
		current := c.Get(f)
		values := filter.DistinctValues(snap, f)
		opts := make([]option, len(values))
		for i, v := range values {
			opts[i] = option{Value: v, Selected: v != "" && v == current}
		}
		out = append(out, selector{ID: f.SelectID(), Name: string(f), Options: opts})
	}
	return out
}

// FacetOptions renders the four facet selectors. Each starts with an "all"
// option carrying the empty value, followed by the distinct values in order
// of first occurrence. The value matching c is marked selected.
func (r *Renderer) FacetOptions(w io.Writer, snap roster.Snapshot, c roster.Criteria) error {
	return r.execute(w, "facets", selectors(snap, c))
}

// PageData is the input to Page.
type PageData struct {
	// Snapshot is the full snapshot; facet options are derived from it.
	Snapshot roster.Snapshot

	// Results is the filtered subset shown as cards.
	Results roster.Snapshot

	Criteria roster.Criteria
	DarkMode bool
	Debounce time.Duration
}

// Page renders the directory document.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	return r.execute(w, "page", struct {
		Title      string
		DarkMode   bool
		DebounceMS int64
		Search     string
		Selectors  []selector
		Count      string
		Cards      cardsData
	}{
		Title:      r.opts.Title,
		DarkMode:   data.DarkMode,
		DebounceMS: data.Debounce.Milliseconds(),
		Search:     data.Criteria.Search,
		Selectors:  selectors(data.Snapshot, data.Criteria),
		Count:      ResultsCount(len(data.Results)),
		Cards:      r.cardsData(data.Results),
	})
}

// LoginData is the input to Login.
type LoginData struct {
	// Failed shows LoginFailedMessage above the form.
	Failed   bool
	Username string

	// Next is where to go after a successful login.
	Next     string
	DarkMode bool
}

// Login renders the login gate.
func (r *Renderer) Login(w io.Writer, data LoginData) error {
	next := data.Next
	if next == "" {
		next = "/"
	}
	return r.execute(w, "login", struct {
		Title    string
		DarkMode bool
		Failed   bool
		Message  string
		Username string
		Next     string
	}{
		Title:    "تسجيل الدخول",
		DarkMode: data.DarkMode,
		Failed:   data.Failed,
		Message:  LoginFailedMessage,
		Username: data.Username,
		Next:     next,
	})
}

// ResultsCount formats the number of displayed records.
func ResultsCount(n int) string {
	return fmt.Sprintf("عدد النتائج: %d", n)
}

// DisplayPhone restores the leading zero dropped from stored numbers.
func DisplayPhone(phone string) string {
	if phone == "" {
		return ""
	}
	return "0" + phone
}

// MessagingLink returns the outbound messaging link for a stored number.
func (r *Renderer) MessagingLink(phone string) string {
	return r.opts.MessagingPrefix + phone
}
