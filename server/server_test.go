package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ryogrid/SamehadaDict/common"
	"github.com/ryogrid/SamehadaDict/samehada"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ugorji/go/codec"
)

type testServer struct {
	t       *testing.T
	srv     *Server
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	sdb, err := samehada.NewSamehadaDB(nil)
	require.NoError(t, err)
	srv, err := NewServer(sdb)
	require.NoError(t, err)
	handler, err := srv.MakeHandler()
	require.NoError(t, err)
	t.Cleanup(func() {
		srv.Stop()
		sdb.Shutdown()
	})
	return &testServer{t, srv, handler}
}

func (ts *testServer) post(path string, sessionID string, body interface{}) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	require.NoError(ts.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) openSession(user string) string {
	rec := ts.post("/Session", "", &SessionInput{User: user})
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	out := SessionOutput{}
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.SessionID
}

func decodeQuery(t *testing.T, rec *httptest.ResponseRecorder) QueryOutput {
	out := QueryOutput{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestQueryEndpoint(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.post("/Query", "", &QueryInput{Query: "CREATE TABLE t (a INT PRIMARY KEY, b VARCHAR(8))"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.post("/Query", "", &QueryInput{Query: "INSERT INTO t VALUES (?, ?)", Args: []interface{}{1, "one"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeQuery(t, rec)
	assert.Equal(t, float64(1), out.Info["row_count"])

	rec = ts.post("/Query", "", &QueryInput{Query: "SELECT b FROM t WHERE a = ?", Args: []interface{}{1}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out = decodeQuery(t, rec)
	assert.Equal(t, []Row{{C: []interface{}{"one"}}}, out.Result)

	rec = ts.post("/Query", "", &QueryInput{Query: "SELECT nope FROM t"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	out = decodeQuery(t, rec)
	assert.Equal(t, uint32(common.ER_SQL_NO_SUCH_COLUMN), out.Code)

	rec = ts.post("/Query", "", &QueryInput{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryMsgPack(t *testing.T) {
	ts := newTestServer(t)
	ts.post("/Query", "", &QueryInput{Query: "CREATE TABLE t (a INT PRIMARY KEY)"})
	ts.post("/Query", "", &QueryInput{Query: "INSERT INTO t VALUES (5)"})

	rec := ts.post("/QueryMsgPack", "", &QueryInput{Query: "SELECT a FROM t"})
	require.Equal(t, http.StatusOK, rec.Code)
	var decoded map[string]interface{}
	require.NoError(t, codec.NewDecoderBytes(rec.Body.Bytes(), new(codec.MsgpackHandle)).Decode(&decoded))
	rows, ok := decoded["rows"].([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 5, rows[0].([]interface{})[0])
}

func TestPreparedStatementsPerSession(t *testing.T) {
	ts := newTestServer(t)
	ts.post("/Query", "", &QueryInput{Query: "CREATE TABLE t (a INT PRIMARY KEY)"})
	ts.post("/Query", "", &QueryInput{Query: "INSERT INTO t VALUES (1), (2)"})
	a := ts.openSession("admin")
	b := ts.openSession("admin")

	rec := ts.post("/Prepare", a, &QueryInput{Query: "SELECT a FROM t WHERE a > ?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	prep := PrepareOutput{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prep))
	stmtID := uint32(prep.Result["stmt_id"].(float64))
	assert.Equal(t, float64(1), prep.Result["param_count"])

	rec = ts.post("/Execute", a, &StmtInput{StmtID: stmtID, Args: []interface{}{1}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []Row{{C: []interface{}{float64(2)}}}, decodeQuery(t, rec).Result)

	rec = ts.post("/Unprepare", b, &StmtInput{StmtID: stmtID})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, uint32(common.ER_WRONG_QUERY_ID), decodeQuery(t, rec).Code)

	rec = ts.post("/Unprepare", a, &StmtInput{StmtID: stmtID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.post("/Execute", a, &StmtInput{StmtID: stmtID})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.post("/Query", "not-a-uuid", &QueryInput{Query: "SELECT 1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
