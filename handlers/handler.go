package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mohammedsw45/blue-basks/apperrors"
	"github.com/mohammedsw45/blue-basks/auth"
	"github.com/mohammedsw45/blue-basks/logging"
)

// statusForKind maps the error taxonomy onto HTTP statuses. This mapping is
// the whole contract between the core and the wire.
func statusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.Unauthenticated:
		return http.StatusUnauthorized
	case apperrors.Forbidden:
		return http.StatusForbidden
	case apperrors.NotFound:
		return http.StatusNotFound
	case apperrors.ValidationFailed:
		return http.StatusBadRequest
	case apperrors.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.Internal {
		logging.Logger.Errorf("Event ID: INTERNAL_ERROR, Description: %v", err)
	}
	writeJSON(w, statusForKind(kind), map[string]string{"error": apperrors.MessageOf(err)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// requireActor pulls the authenticated actor off the request context. The
// middleware puts it there; a request that skipped it gets a 401.
func requireActor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		writeError(w, apperrors.New(apperrors.Unauthenticated, "authentication required"))
		return auth.Actor{}, false
	}
	return actor, true
}

// pathID parses the {name} route variable as an object id.
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		writeError(w, apperrors.Newf(apperrors.ValidationFailed, "invalid %s format", name))
		return primitive.NilObjectID, false
	}
	return id, true
}
