package server

import (
	"bytes"
	"math"
	"net/http"
	"sync"

	"github.com/ant0ine/go-json-rest/rest"
	"github.com/google/uuid"
	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/samehada"
	"github.com/ryogrid/SamehadaDict/session"
	"github.com/ryogrid/SamehadaDict/stmtcache"
	"github.com/ryogrid/SamehadaDict/types"
	"github.com/ugorji/go/codec"
	"go.uber.org/zap"
)

// SessionHeader carries the id returned by /Session. Requests without it
// run in the admin session of the server.
const SessionHeader = "X-Session-Id"

type SessionInput struct {
	User string
}

type SessionOutput struct {
	SessionID string
	Error     string
}

type QueryInput struct {
	Query string
	Args  []interface{}
}

type StmtInput struct {
	StmtID uint32
	Args   []interface{}
}

type Row struct {
	C []interface{}
}

type QueryOutput struct {
	Result []Row
	Info   map[string]interface{}
	Error  string
	Code   uint32
}

type PrepareOutput struct {
	Result map[string]interface{}
	Error  string
	Code   uint32
}

/**
 * Server exposes the execution facade over HTTP. Every request is run
 * through the request manager so the engine sees one caller at a time.
 */
type Server struct {
	sdb        *samehada.SamehadaDB
	reqManager *samehada.RequestManager
	admin      *session.Session

	mutex    sync.Mutex
	sessions map[uuid.UUID]*session.Session
	stopped  bool
}

func NewServer(sdb *samehada.SamehadaDB) (*Server, error) {
	admin, err := sdb.NewSession("admin")
	if err != nil {
		return nil, err
	}
	reqManager := samehada.NewRequestManager(sdb)
	reqManager.StartTh()
	return &Server{
		sdb:        sdb,
		reqManager: reqManager,
		admin:      admin,
		sessions:   make(map[uuid.UUID]*session.Session),
	}, nil
}

// Stop rejects new requests, closes every session and waits for the
// queued requests to finish.
func (srv *Server) Stop() {
	srv.mutex.Lock()
	srv.stopped = true
	sessions := srv.sessions
	srv.sessions = make(map[uuid.UUID]*session.Session)
	srv.mutex.Unlock()
	srv.reqManager.StopTh()
	for _, s := range sessions {
		srv.sdb.CloseSession(s)
	}
	srv.sdb.CloseSession(srv.admin)
}

func (srv *Server) IsStopped() bool {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	return srv.stopped
}

func (srv *Server) sessionOf(req *rest.Request) (*session.Session, error) {
	hdr := req.Header.Get(SessionHeader)
	if hdr == "" {
		return srv.admin, nil
	}
	id, err := uuid.Parse(hdr)
	if err != nil {
		return nil, common.NewClientError(common.ER_ILLEGAL_PARAMS, "bad session id "+hdr)
	}
	srv.mutex.Lock()
	defer srv.mutex.Unlock()
	s, ok := srv.sessions[id]
	if !ok {
		return nil, common.NewClientError(common.ER_ILLEGAL_PARAMS, "unknown session "+hdr)
	}
	return s, nil
}

// argValues converts decoded JSON arguments. JSON has only one number
// type, so integral numbers bind as integers.
func argValues(args []interface{}) ([]types.Value, error) {
	conv := make([]interface{}, len(args))
	for i, a := range args {
		if f, ok := a.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			conv[i] = int64(f)
			continue
		}
		conv[i] = a
	}
	return samehada.ConvValues(conv)
}

func errorStatus(err error) int {
	switch {
	case common.IsAuthorization(err):
		return http.StatusForbidden
	case common.IsNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func writeError(w rest.ResponseWriter, err error) {
	w.WriteHeader(errorStatus(err))
	w.WriteJson(&QueryOutput{Error: common.ErrorMessage(err), Code: uint32(common.GetErrorCode(err))})
}

func toRows(port *samehada.Port) []Row {
	rows := make([]Row, 0, len(port.Rows))
	for _, row := range port.Values() {
		rows = append(rows, Row{row})
	}
	return rows
}

func (srv *Server) available(w rest.ResponseWriter) bool {
	if srv.IsStopped() {
		rest.Error(w, "Server is stopped", http.StatusGone)
		return false
	}
	return true
}

func (srv *Server) postSession(w rest.ResponseWriter, req *rest.Request) {
	if !srv.available(w) {
		return
	}
	input := SessionInput{}
	if err := req.DecodeJsonPayload(&input); err != nil {
		rest.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if input.User == "" {
		input.User = "guest"
	}
	s, err := srv.sdb.NewSession(input.User)
	if err != nil {
		writeError(w, err)
		return
	}
	srv.mutex.Lock()
	srv.sessions[s.ID()] = s
	srv.mutex.Unlock()
	w.WriteJson(&SessionOutput{SessionID: s.ID().String(), Error: "SUCCESS"})
}

func (srv *Server) deleteSession(w rest.ResponseWriter, req *rest.Request) {
	if !srv.available(w) {
		return
	}
	s, err := srv.sessionOf(req)
	if err != nil {
		writeError(w, err)
		return
	}
	if s == srv.admin {
		rest.Error(w, "the admin session can't be closed", http.StatusBadRequest)
		return
	}
	srv.mutex.Lock()
	delete(srv.sessions, s.ID())
	srv.mutex.Unlock()
	srv.reqManager.Do(func(sdb *samehada.SamehadaDB) (*samehada.Port, error) {
		sdb.CloseSession(s)
		return nil, nil
	})
	w.WriteJson(&SessionOutput{SessionID: s.ID().String(), Error: "SUCCESS"})
}

func (srv *Server) runQuery(req *rest.Request) (*samehada.Port, error) {
	s, err := srv.sessionOf(req)
	if err != nil {
		return nil, err
	}
	input := QueryInput{}
	if err := req.DecodeJsonPayload(&input); err != nil {
		return nil, common.NewClientError(common.ER_ILLEGAL_PARAMS, err.Error())
	}
	if input.Query == "" {
		return nil, common.NewClientError(common.ER_ILLEGAL_PARAMS, "Query is required")
	}
	binds, err := argValues(input.Args)
	if err != nil {
		return nil, err
	}
	return srv.reqManager.Do(func(sdb *samehada.SamehadaDB) (*samehada.Port, error) {
		return sdb.Execute(s, input.Query, binds)
	})
}

func writePort(w rest.ResponseWriter, port *samehada.Port) {
	out := &QueryOutput{Result: toRows(port), Error: "SUCCESS"}
	if port.Format == samehada.DML_EXECUTE {
		out.Info = port.Dump()["sql_info"].(map[string]interface{})
	}
	w.WriteJson(out)
}

func (srv *Server) postQuery(w rest.ResponseWriter, req *rest.Request) {
	if !srv.available(w) {
		return
	}
	port, err := srv.runQuery(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writePort(w, port)
}

func (srv *Server) postQueryMsgPack(w rest.ResponseWriter, req *rest.Request) {
	if !srv.available(w) {
		return
	}
	port, err := srv.runQuery(req)
	if err != nil {
		http.Error(w.(http.ResponseWriter), common.ErrorMessage(err), errorStatus(err))
		return
	}
	buf := new(bytes.Buffer)
	enc := codec.NewEncoder(buf, new(codec.MsgpackHandle))
	if err := enc.Encode(port.Dump()); err != nil {
		http.Error(w.(http.ResponseWriter), err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.(http.ResponseWriter).Write(buf.Bytes())
}

func (srv *Server) postPrepare(w rest.ResponseWriter, req *rest.Request) {
	if !srv.available(w) {
		return
	}
	s, err := srv.sessionOf(req)
	if err != nil {
		writeError(w, err)
		return
	}
	input := QueryInput{}
	if err := req.DecodeJsonPayload(&input); err != nil {
		rest.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	port, err := srv.reqManager.Do(func(sdb *samehada.SamehadaDB) (*samehada.Port, error) {
		return sdb.Prepare(s, input.Query)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteJson(&PrepareOutput{Result: port.Dump(), Error: "SUCCESS"})
}

func (srv *Server) postExecute(w rest.ResponseWriter, req *rest.Request) {
	if !srv.available(w) {
		return
	}
	s, err := srv.sessionOf(req)
	if err != nil {
		writeError(w, err)
		return
	}
	input := StmtInput{}
	if err := req.DecodeJsonPayload(&input); err != nil {
		rest.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	binds, err := argValues(input.Args)
	if err != nil {
		writeError(w, err)
		return
	}
	port, err := srv.reqManager.Do(func(sdb *samehada.SamehadaDB) (*samehada.Port, error) {
		return sdb.ExecutePrepared(s, stmtcache.StmtID(input.StmtID), binds)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writePort(w, port)
}

func (srv *Server) postUnprepare(w rest.ResponseWriter, req *rest.Request) {
	if !srv.available(w) {
		return
	}
	s, err := srv.sessionOf(req)
	if err != nil {
		writeError(w, err)
		return
	}
	input := StmtInput{}
	if err := req.DecodeJsonPayload(&input); err != nil {
		rest.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_, err = srv.reqManager.Do(func(sdb *samehada.SamehadaDB) (*samehada.Port, error) {
		return nil, sdb.Unprepare(s, stmtcache.StmtID(input.StmtID))
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteJson(&QueryOutput{Error: "SUCCESS"})
}

// MakeHandler builds the REST api with the middleware stack of the
// server.
func (srv *Server) MakeHandler() (http.Handler, error) {
	api := rest.NewApi()
	api.Use(rest.DefaultCommonStack...)
	api.Use(&rest.CorsMiddleware{
		RejectNonCorsRequests: false,
		OriginValidator: func(origin string, request *rest.Request) bool {
			return true
		},
		AllowedMethods:                []string{"POST", "DELETE"},
		AllowedHeaders:                []string{"Accept", "content-type", SessionHeader},
		AccessControlAllowCredentials: true,
		AccessControlMaxAge:           3600,
	})

	router, err := rest.MakeRouter(
		rest.Post("/Session", srv.postSession),
		rest.Delete("/Session", srv.deleteSession),
		rest.Post("/Query", srv.postQuery),
		rest.Post("/QueryMsgPack", srv.postQueryMsgPack),
		rest.Post("/Prepare", srv.postPrepare),
		rest.Post("/Execute", srv.postExecute),
		rest.Post("/Unprepare", srv.postUnprepare),
	)
	if err != nil {
		return nil, err
	}
	api.SetApp(router)
	return api.MakeHandler(), nil
}

// ListenAndServe blocks serving addr until the listener fails.
func (srv *Server) ListenAndServe(addr string) error {
	handler, err := srv.MakeHandler()
	if err != nil {
		return err
	}
	common.Logger().Info("server started", zap.String("addr", addr))
	return http.ListenAndServe(addr, handler)
}
