package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/markstash/markstash/internal/httpserver/deps"
	"github.com/markstash/markstash/internal/httpserver/handlers"
	"github.com/markstash/markstash/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	auth := mw.Auth(d.AuthToken, d.Logger)
	base := "/api/categories/{category}/bundles/{bundle}/bookmarks"
	r.With(auth).Post(base, handlers.CreateBookmark(d))
	r.With(auth).Patch(base+"/{id}", handlers.UpdateBookmark(d))
	r.With(auth).Delete(base+"/{id}", handlers.DeleteBookmark(d))
}
