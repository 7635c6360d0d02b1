package fedtest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/t2bot/data-package-repo/common/config"
	"github.com/t2bot/data-package-repo/common/rcontext"
	"github.com/t2bot/data-package-repo/federation"
)

// NewServer exposes node over the DataONE REST v1 API.
func NewServer(node *Node) *httptest.Server {
	ctx := rcontext.WithConfig(config.NewDefaultMainConfig())
	h := &handler{node: node, ctx: ctx}

	router := mux.NewRouter()
	router.UseEncodedPath()
	router.HandleFunc("/v1/object/{pid}", h.getObject).Methods(http.MethodGet)
	router.HandleFunc("/v1/meta/{pid}", h.getMeta).Methods(http.MethodGet)
	router.HandleFunc("/v1/resolve/{pid}", h.resolve).Methods(http.MethodGet)
	router.HandleFunc("/v1/node", h.listNodes).Methods(http.MethodGet)
	router.HandleFunc("/v1/object", h.create).Methods(http.MethodPost)
	router.HandleFunc("/v1/object/{pid}", h.update).Methods(http.MethodPut)
	return httptest.NewServer(router)
}

type handler struct {
	node *Node
	ctx  rcontext.RequestContext
}

func pidVar(r *http.Request) (string, error) {
	return url.PathUnescape(mux.Vars(r)["pid"])
}

func writeFailure(w http.ResponseWriter, err error) {
	if resp, ok := err.(federation.ErrorResponse); ok {
		resp.Write(w)
		return
	}
	federation.NewErrorResponse(http.StatusInternalServerError, "ServiceFailure", err.Error()).Write(w)
}

func notFound(w http.ResponseWriter, pid string) {
	federation.NewErrorResponse(http.StatusNotFound, "NotFound", "no object with identifier "+pid).Write(w)
}

func (h *handler) getObject(w http.ResponseWriter, r *http.Request) {
	pid, err := pidVar(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	body, found, err := h.node.Get(h.ctx, pid)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if !found {
		notFound(w, pid)
		return
	}
	defer body.Close()
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = io.Copy(w, body)
}

func (h *handler) getMeta(w http.ResponseWriter, r *http.Request) {
	pid, err := pidVar(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	meta, found, err := h.node.GetSystemMetadata(h.ctx, pid)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if !found {
		notFound(w, pid)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	_ = federation.EncodeSystemMetadata(w, meta)
}

func (h *handler) resolve(w http.ResponseWriter, r *http.Request) {
	pid, err := pidVar(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	locations, found, err := h.node.Resolve(h.ctx, pid)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if !found {
		notFound(w, pid)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	if len(locations) > 0 {
		w.Header().Set("Location", locations[0].Url)
	}
	w.WriteHeader(http.StatusSeeOther)
	_ = federation.EncodeObjectLocations(w, pid, locations)
}

func (h *handler) listNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.node.ListNodes(h.ctx)
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	_ = federation.EncodeNodes(w, nodes)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	h.publish(w, r, "pid", "")
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	obsoletes, err := pidVar(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	h.publish(w, r, "newPid", obsoletes)
}

func (h *handler) publish(w http.ResponseWriter, r *http.Request, pidField string, obsoletes string) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		federation.NewErrorResponse(http.StatusBadRequest, "InvalidRequest", err.Error()).Write(w)
		return
	}
	pid := r.FormValue(pidField)

	object, objectHeader, err := r.FormFile("object")
	if err != nil {
		federation.NewErrorResponse(http.StatusBadRequest, "InvalidRequest", "missing object part").Write(w)
		return
	}
	defer object.Close()
	body, err := io.ReadAll(object)
	if err != nil {
		writeFailure(w, err)
		return
	}

	sysmetaFile, _, err := r.FormFile("sysmeta")
	if err != nil {
		federation.NewErrorResponse(http.StatusBadRequest, "InvalidRequest", "missing sysmeta part").Write(w)
		return
	}
	defer sysmetaFile.Close()
	meta, err := federation.DecodeSystemMetadata(sysmetaFile)
	if err != nil {
		federation.NewErrorResponse(http.StatusBadRequest, "InvalidSystemMetadata", err.Error()).Write(w)
		return
	}

	typed := federation.WithContentType(bytes.NewReader(body), objectHeader.Header.Get("Content-Type"))
	if obsoletes == "" {
		_, err = h.node.Create(h.ctx, pid, typed, meta)
	} else {
		_, err = h.node.Update(h.ctx, pid, typed, obsoletes, meta)
	}
	if err != nil {
		writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	_ = federation.EncodeIdentifier(w, pid)
}
