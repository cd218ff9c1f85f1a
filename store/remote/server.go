package remote

import (
	"encoding/json"
	stderrs "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bobg/rs"
	"github.com/bobg/rs/tag"
)

// Handler serves a blob store over HTTP in the format Client expects.
type Handler struct {
	s tag.Store
}

// maxBlobSize is the largest blob body a server will accept.
const maxBlobSize = 1 << 30

const maxPageSize = 10000

// NewHandler produces an http.Handler serving the given store.
func NewHandler(s tag.Store) http.Handler {
	h := &Handler{s: s}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)

	mux.HandleFunc("POST /v1/blobs", h.putBlob)
	mux.HandleFunc("GET /v1/blobs/{ref}", h.getBlob)
	mux.HandleFunc("HEAD /v1/blobs/{ref}", h.containsBlob)
	mux.HandleFunc("GET /v1/refs", h.listRefs)

	mux.HandleFunc("GET /v1/tags", h.listTags)
	mux.HandleFunc("GET /v1/tags/{name}", h.getTag)
	mux.HandleFunc("PUT /v1/tags/{name}", h.putTag)

	return mux
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{Status: "ok"})
}

func (h *Handler) getBlob(w http.ResponseWriter, r *http.Request) {
	ref, err := rs.RefFromHex(r.PathValue("ref"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ref", err)
		return
	}

	blob, err := h.s.Get(r.Context(), ref)
	if stderrs.Is(err, rs.ErrNotFound) {
		writeError(w, http.StatusNotFound, "blob not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "getting blob", err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(blob)
}

func (h *Handler) containsBlob(w http.ResponseWriter, r *http.Request) {
	ref, err := rs.RefFromHex(r.PathValue("ref"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ref", err)
		return
	}

	ok, err := h.s.Contains(r.Context(), ref)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "checking blob", err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) putBlob(w http.ResponseWriter, r *http.Request) {
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBlobSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading blob body", err)
		return
	}

	ref, added, err := h.s.Put(r.Context(), blob)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storing blob", err)
		return
	}

	writeJSON(w, http.StatusOK, PutBlobResponse{Ref: ref.String(), Added: added})
}

// errPageFull stops a List callback when a page is complete.
var errPageFull = stderrs.New("page full")

func (h *Handler) listRefs(w http.ResponseWriter, r *http.Request) {
	var start rs.Ref
	if s := r.URL.Query().Get("start"); s != "" {
		if err := start.FromHex(s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid start ref", err)
			return
		}
	}
	limit := intParam(r, "limit", defaultPageSize)

	refs := []string{}
	err := h.s.ListRefs(r.Context(), start, func(ref rs.Ref) error {
		refs = append(refs, ref.String())
		if len(refs) >= limit {
			return errPageFull
		}
		return nil
	})
	if err != nil && !stderrs.Is(err, errPageFull) {
		writeError(w, http.StatusInternalServerError, "listing refs", err)
		return
	}

	writeJSON(w, http.StatusOK, ListRefsResponse{Refs: refs})
}

func (h *Handler) getTag(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	atstr := r.URL.Query().Get("at")
	if atstr == "" {
		writeError(w, http.StatusBadRequest, `missing "at" parameter`, nil)
		return
	}
	at, err := time.Parse(time.RFC3339Nano, atstr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid time", err)
		return
	}

	ref, err := h.s.GetTag(r.Context(), name, at)
	if stderrs.Is(err, rs.ErrNotFound) {
		writeError(w, http.StatusNotFound, "tag not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "getting tag", err)
		return
	}

	writeJSON(w, http.StatusOK, TagResponse{Ref: ref.String()})
}

func (h *Handler) putTag(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req PutTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	ref, err := rs.RefFromHex(req.Ref)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ref", err)
		return
	}

	if err := h.s.PutTag(r.Context(), name, ref, req.At); err != nil {
		writeError(w, http.StatusInternalServerError, "storing tag", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listTags returns up to limit tag assignments for names after start.
// It extends a full page to the end of the current name's assignments,
// so that a page boundary never splits a name
// and clients can safely resume from the last name they saw.
func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	limit := intParam(r, "limit", defaultPageSize)

	entries := []TagEntry{}
	err := h.s.ListTags(r.Context(), start, func(name string, ref rs.Ref, at time.Time) error {
		if len(entries) >= limit && entries[len(entries)-1].Name != name {
			return errPageFull
		}
		entries = append(entries, TagEntry{Name: name, Ref: ref.String(), At: at})
		return nil
	})
	if err != nil && !stderrs.Is(err, errPageFull) {
		writeError(w, http.StatusInternalServerError, "listing tags", err)
		return
	}

	writeJSON(w, http.StatusOK, ListTagsResponse{Tags: entries})
}

func intParam(r *http.Request, name string, dflt int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return dflt
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return dflt
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
