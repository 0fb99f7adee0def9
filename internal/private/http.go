// Copyright (c) 2026 Custos. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package private serves the access-controlled document namespace.

Every request below /private/* resolves to one stored document. The HTTP
method decides the required access level, and the layered evaluator in
internal/access decides whether the authenticated caller holds that level on
the requested path.
*/
package private

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/custos/internal/access"
	"github.com/taibuivan/custos/internal/platform/apperr"
	"github.com/taibuivan/custos/internal/platform/constants"
	requestutil "github.com/taibuivan/custos/internal/platform/request"
	"github.com/taibuivan/custos/internal/platform/respond"
	"github.com/taibuivan/custos/internal/store"
)

// Handler implements the /private endpoint set.
type Handler struct {
	documents *store.Store
	evaluator *access.Evaluator
}

// NewHandler constructs a [Handler] over the document store and access
// evaluator.
func NewHandler(documents *store.Store, evaluator *access.Evaluator) *Handler {
	return &Handler{documents: documents, evaluator: evaluator}
}

// Routes returns a [chi.Router] serving the private namespace. The wildcard
// captures the full resource path below /private/.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/*", handler.read)
	router.Post("/*", handler.write)
	router.Delete("/*", handler.remove)
	return router
}

// # Access Gate

// requiredLevel maps the HTTP method onto an access level character.
func requiredLevel(method string) rune {
	switch method {
	case http.MethodPost:
		return access.LevelWrite
	case http.MethodDelete:
		return access.LevelDelete
	default:
		return access.LevelRead
	}
}

// resourcePath normalises the wildcard capture and refuses any form that
// would escape the private namespace. The wildcard arrives URL-unescaped, so
// encoded dot segments ("%2e%2e") land here as literal "..".
func resourcePath(raw string) (string, bool) {
	cleaned := path.Clean(strings.ReplaceAll(raw, "\\", "/"))
	if cleaned == "." || cleaned == ".." ||
		strings.HasPrefix(cleaned, "../") || strings.HasPrefix(cleaned, "/") {
		return "", false
	}
	return cleaned, true
}

// authorize resolves the caller and checks the access level the method
// demands on the requested path. Anonymous callers get 401, denied callers
// get 403, and a path that would leave the namespace is reported as absent.
func (handler *Handler) authorize(request *http.Request) (string, error) {
	caller, err := requestutil.RequiredUser(request)
	if err != nil {
		return "", err
	}

	resource, ok := resourcePath(requestutil.Wildcard(request))
	if !ok {
		return "", apperr.NotFound("Not found")
	}

	allowed, err := handler.evaluator.Check(caller, resource, requiredLevel(request.Method))
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", apperr.Forbidden("Access denied")
	}
	return resource, nil
}

// # Resource Operations

/*
read returns the stored document.

GET /private/:path (HEAD served identically with an empty body)

Response:
  - 200: the document as stored
  - 401: no bearer token
  - 403: caller lacks read access
  - 404: no document at the path
*/
func (handler *Handler) read(writer http.ResponseWriter, request *http.Request) {
	path, err := handler.authorize(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var document any
	if err := handler.documents.Load(documentPath(path), &document); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respond.Error(writer, request, apperr.NotFound("Not found"))
			return
		}
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, document)
}

/*
write stores the request body as the document, creating or replacing it.

POST /private/:path

The body may be JSON, a form, or raw text; it is persisted as given.

Response:
  - 201: {success: true}
  - 401: no bearer token
  - 403: caller lacks write access
*/
func (handler *Handler) write(writer http.ResponseWriter, request *http.Request) {
	path, err := handler.authorize(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	document, err := requestutil.ParseBody(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.documents.Save(documentPath(path), document); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, map[string]bool{"success": true})
}

/*
remove deletes the stored document.

DELETE /private/:path

Response:
  - 200: {success: true}
  - 401: no bearer token
  - 403: caller lacks delete access
  - 404: no document at the path
*/
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	path, err := handler.authorize(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	present, err := handler.documents.Exists(documentPath(path))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if !present {
		respond.Error(writer, request, apperr.NotFound("Not found"))
		return
	}

	if err := handler.documents.Drop(documentPath(path)); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]bool{"success": true})
}

// documentPath maps a normalised resource path onto its storage location.
func documentPath(resource string) string {
	return constants.PrivatePrefix + "/" + resource
}
