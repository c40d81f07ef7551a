package handlers

import (
	"net/http"
)

// API bundles the handlers mounted under /api
type API struct {
	Families      *FamilyHandler
	Persons       *PersonHandler
	Relationships *RelationshipHandler
	Trees         *TreeHandler
	Activity      *ActivityHandler
	// Metrics is served at /metrics when set
	Metrics http.Handler
}

// Routes registers every route on a new mux and wraps it with the request
// id and logging middleware
func (a *API) Routes(m *Middleware) http.Handler {
	mux := http.NewServeMux()

	if a.Metrics != nil {
		mux.Handle("GET /metrics", a.Metrics)
	}

	auth := m.RequireAuth
	write := func(h http.HandlerFunc) http.HandlerFunc { return m.RequireAuth(m.RateLimit(h)) }

	mux.HandleFunc("POST /api/families", write(a.Families.CreateFamily))
	mux.HandleFunc("GET /api/families", auth(a.Families.ListFamilies))
	mux.HandleFunc("POST /api/families/join", write(a.Families.JoinFamily))
	mux.HandleFunc("GET /api/families/{familyID}", auth(a.Families.GetFamily))
	mux.HandleFunc("POST /api/families/{familyID}/leave", write(a.Families.LeaveFamily))
	mux.HandleFunc("GET /api/families/{familyID}/members", auth(a.Families.ListMembers))
	mux.HandleFunc("PUT /api/families/{familyID}/members/{userID}/role", write(a.Families.ChangeMemberRole))

	mux.HandleFunc("GET /api/families/{familyID}/persons", auth(a.Persons.ListPersons))
	mux.HandleFunc("POST /api/families/{familyID}/persons", write(a.Persons.CreatePerson))
	mux.HandleFunc("GET /api/families/{familyID}/persons/search", auth(a.Persons.SearchPersons))
	mux.HandleFunc("GET /api/families/{familyID}/persons/autocomplete", auth(a.Persons.Autocomplete))
	mux.HandleFunc("GET /api/families/{familyID}/persons/{personID}", auth(a.Persons.GetPerson))
	mux.HandleFunc("PUT /api/families/{familyID}/persons/{personID}", write(a.Persons.UpdatePerson))
	mux.HandleFunc("DELETE /api/families/{familyID}/persons/{personID}", write(a.Persons.DeletePerson))
	mux.HandleFunc("GET /api/families/{familyID}/persons/{personID}/spouse-candidates", auth(a.Persons.SpouseCandidates))

	mux.HandleFunc("GET /api/families/{familyID}/persons/{personID}/relationships", auth(a.Relationships.ListForPerson))
	mux.HandleFunc("POST /api/families/{familyID}/persons/{personID}/relationships", write(a.Relationships.CreateRelationship))
	mux.HandleFunc("DELETE /api/families/{familyID}/relationships/{relationshipID}", write(a.Relationships.DeleteRelationship))

	mux.HandleFunc("GET /api/families/{familyID}/path", auth(a.Trees.Path))
	mux.HandleFunc("GET /api/families/{familyID}/persons/{personID}/ancestors", auth(a.Trees.Ancestors))
	mux.HandleFunc("GET /api/families/{familyID}/persons/{personID}/descendants", auth(a.Trees.Descendants))
	mux.HandleFunc("GET /api/families/{familyID}/tree/{personID}", auth(a.Trees.Tree))

	mux.HandleFunc("GET /api/families/{familyID}/activity", auth(a.Activity.ListActivity))

	return m.RequestID(m.Logging(mux))
}
