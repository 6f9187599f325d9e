// internal/shell/routes.go
package shell

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Route is a resolved console path.
type Route struct {
	Page Page   `json:"page"`
	ID   string `json:"id,omitempty"`
}

var detailPages = map[Page]bool{
	PageStoreDetail:    true,
	PageVisitDetail:    true,
	PageEmployeeDetail: true,
}

// newRouter builds the path table. Handlers are never invoked; the router is
// only used for matching.
func newRouter() *mux.Router {
	r := mux.NewRouter().StrictSlash(false)
	noop := func(http.ResponseWriter, *http.Request) {}

	r.HandleFunc("/login", noop).Name(string(PageLogin))
	for _, e := range DefaultNav {
		r.HandleFunc(e.Path, noop).Name(string(e.Page))
	}
	r.HandleFunc("/stores/{id}", noop).Name(string(PageStoreDetail))
	r.HandleFunc("/visits/{id}", noop).Name(string(PageVisitDetail))
	r.HandleFunc("/employees/{id}", noop).Name(string(PageEmployeeDetail))
	return r
}

var router = newRouter()

func match(path string) Route {
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return Route{Page: PageNotFound}
	}

	var m mux.RouteMatch
	if !router.Match(req, &m) || m.Route == nil {
		return Route{Page: PageNotFound}
	}

	route := Route{Page: Page(m.Route.GetName())}
	if detailPages[route.Page] {
		route.ID = m.Vars["id"]
	}
	return route
}

// PathFor builds the URL of a page, filling the id segment for detail pages.
func PathFor(page Page, id string) (string, error) {
	r := router.Get(string(page))
	if r == nil {
		return "", mux.ErrNotFound
	}
	var pairs []string
	if detailPages[page] {
		pairs = []string{"id", id}
	}
	u, err := r.URLPath(pairs...)
	if err != nil {
		return "", err
	}
	return u.Path, nil
}
