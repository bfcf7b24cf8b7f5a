// Package web renders the server-side pages of the site.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
)

// Page names accepted by Renderer.Render.
const (
	PageHome        = "home"
	PageSignIn      = "sign_in"
	PageSignUp      = "sign_up"
	PageWaitingList = "waiting_list"
	PageDashboard   = "dashboard"
	PageLoading     = "loading"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{PageHome, PageSignIn, PageSignUp, PageWaitingList, PageDashboard, PageLoading}

var funcs = template.FuncMap{
	"year": func() int { return time.Now().Year() },
}

// Renderer implements echo.Renderer. Every page is parsed together with the
// shared layout into its own template set.
type Renderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*Renderer)(nil)

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("web: parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// MustRenderer is NewRenderer that panics on a template error.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("web: unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// Page is the part of every view the layout reads.
type Page struct {
	Title     string
	CSRFToken string
	Identity  *domain.Identity
	// Refresh, when positive, reloads the page after that many seconds.
	Refresh int
}

type CurrencyOption struct {
	Code     string
	Selected bool
}

type HomeView struct {
	Page
	Features     []Card
	ComingSoon   []Card
	Testimonials []Testimonial
	FAQ          []FAQItem
	Plans        []ports.PlanQuote
	Currencies   []CurrencyOption
	Annual       bool
}

// NewHomeView fills the landing page around a priced plan list.
func NewHomeView(page Page, plans []ports.PlanQuote, currency domain.Currency, annual bool) HomeView {
	opts := make([]CurrencyOption, 0, len(domain.Currencies))
	for _, c := range domain.Currencies {
		opts = append(opts, CurrencyOption{Code: string(c), Selected: c == currency})
	}
	return HomeView{
		Page:         page,
		Features:     Features,
		ComingSoon:   ComingSoon,
		Testimonials: Testimonials,
		FAQ:          FAQ,
		Plans:        plans,
		Currencies:   opts,
		Annual:       annual,
	}
}

// FormView backs the sign-in and sign-up pages.
type FormView struct {
	Page
	Email      string
	Error      string
	SignInLink bool
}

type WaitlistView struct {
	Page
	ConvertKitUID string
	Email         string
	Message       string
	Error         string
}

type DashboardView struct {
	Page
	Nav        []NavItem
	Stats      []Stat
	Activity   []Activity
	EventsPath string
}
