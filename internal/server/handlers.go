package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hanscompark/castleblock/pkg/block"
	apperrors "github.com/hanscompark/castleblock/pkg/errors"
	"github.com/hanscompark/castleblock/pkg/pipeline"
	"github.com/hanscompark/castleblock/pkg/render"
	"github.com/hanscompark/castleblock/pkg/store"
)

// Response headers describing a render.
const (
	headerCache         = "X-Castleblock-Cache"
	headerPast          = "X-Castleblock-Past"
	headerSourceVersion = "X-Castleblock-Source-Version"
)

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (a *api) schema(w http.ResponseWriter, r *http.Request) {
	v := a.schemaVersion
	if q := r.URL.Query().Get("version"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || !block.Version(n).Valid() {
			a.fail(w, r, apperrors.New(apperrors.ErrCodeInvalidVersion, "unknown schema version %q", q))
			return
		}
		v = block.Version(n)
	}
	data, err := a.runner.Registration(r.Context(), v)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, data)
}

// renderBody renders the attribute document in the request body.
func (a *api) renderBody(mode render.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := a.readBody(w, r)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		attrs, from, err := decodeAttributes(body)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		res, err := a.runner.Render(r.Context(), attrs, pipeline.Options{Mode: mode, Logger: a.logger})
		if err != nil {
			a.fail(w, r, err)
			return
		}
		w.Header().Set(headerSourceVersion, strconv.Itoa(int(from)))
		writeHTML(w, res)
	}
}

func (a *api) migrate(w http.ResponseWriter, r *http.Request) {
	body, err := a.readBody(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out, from, err := block.Upgrade(body)
	if err != nil {
		a.fail(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid attributes"))
		return
	}
	w.Header().Set(headerSourceVersion, strconv.Itoa(int(from)))
	writeRaw(w, http.StatusOK, out)
}

func (a *api) insert(w http.ResponseWriter, r *http.Request) {
	body, err := a.readBody(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var attrs *block.Attributes
	if len(bytes.TrimSpace(body)) > 0 {
		decoded, _, err := decodeAttributes(body)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		attrs = &decoded
	}
	pageID := chi.URLParam(r, "pageID")
	rec, err := a.blocks.Insert(r.Context(), pageID, attrs)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

func (a *api) list(w http.ResponseWriter, r *http.Request) {
	recs, err := a.blocks.List(r.Context(), chi.URLParam(r, "pageID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (a *api) get(w http.ResponseWriter, r *http.Request) {
	rec, err := a.blocks.Get(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "blockID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *api) replace(w http.ResponseWriter, r *http.Request) {
	body, err := a.readBody(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	attrs, _, err := decodeAttributes(body)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	rec, err := a.blocks.Replace(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "blockID"), attrs)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *api) patch(w http.ResponseWriter, r *http.Request) {
	body, err := a.readBody(w, r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var values map[string]any
	if err := json.Unmarshal(body, &values); err != nil || values == nil {
		a.fail(w, r, apperrors.New(apperrors.ErrCodeInvalidInput, "patch body must be a JSON object"))
		return
	}
	rec, err := a.blocks.Patch(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "blockID"), values)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *api) remove(w http.ResponseWriter, r *http.Request) {
	if err := a.blocks.Remove(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "blockID")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) html(w http.ResponseWriter, r *http.Request) {
	mode, err := render.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		a.fail(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidMode, err, "invalid mode"))
		return
	}
	rec, err := a.blocks.Get(r.Context(), chi.URLParam(r, "pageID"), chi.URLParam(r, "blockID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.runner.Render(r.Context(), rec.Attributes, pipeline.Options{Mode: mode, Logger: a.logger})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set(headerSourceVersion, strconv.Itoa(int(rec.Version)))
	writeHTML(w, res)
}

func (a *api) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "cannot read request body")
	}
	return body, nil
}

func decodeAttributes(body []byte) (block.Attributes, block.Version, error) {
	attrs, from, err := block.Decode(body)
	if err != nil {
		return attrs, from, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid attributes")
	}
	return attrs, from, nil
}

func writeHTML(w http.ResponseWriter, res *pipeline.Result) {
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set(headerPast, strconv.FormatBool(res.Past))
	if res.CacheHit {
		h.Set(headerCache, "hit")
	} else {
		h.Set(headerCache, "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.HTML)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, apperrors.ErrCodeInternal, "internal error")
		return
	}
	writeRaw(w, status, data)
}
