package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rustyeddy/stockdash/chart"
	"github.com/rustyeddy/stockdash/internal/logger"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(testTable(t), Options{}, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

var sessionAttr = regexp.MustCompile(`data-session="([0-9A-Z]+)"`)

func openPage(t *testing.T, ts *httptest.Server) (string, string) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	m := sessionAttr.FindStringSubmatch(string(body))
	require.Len(t, m, 2, "page carries a session id")
	return string(body), m[1]
}

func postUpdate(t *testing.T, ts *httptest.Server, req UpdateRequest) (*http.Response, UpdateResponse) {
	t.Helper()
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/_dash/update", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out UpdateResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestIndexPage(t *testing.T) {
	t.Parallel()
	s, ts := newTestServer(t)

	body, sid := openPage(t, ts)
	assert.Contains(t, body, "<title>NFLX Stock Dashboard</title>")
	assert.Contains(t, body, `id="metric-dropdown"`)
	assert.Contains(t, body, `id="top-5-dropdown"`)
	for _, g := range []string{LineOutput, SubplotsOutput, TopFiveOutput} {
		assert.Contains(t, body, `id="`+g+`"`)
	}
	assert.Contains(t, body, `<option value="Volume" selected>Volume</option>`)
	assert.Contains(t, body, `<option value="High" selected>Top 5 Highest Stock Prices</option>`)
	assert.Contains(t, body, "Volume Subplots by Day, Month, and Year")

	_, ok := s.Sessions().Get(sid)
	assert.True(t, ok)

	// each page load starts over
	_, sid2 := openPage(t, ts)
	assert.NotEqual(t, sid, sid2)
}

func TestStaticAndLayout(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/static/dashboard.js")
	require.NoError(t, err)
	js, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(js), "/_dash/ws")

	resp, err = http.Get(ts.URL + "/_dash/layout")
	require.NoError(t, err)
	defer resp.Body.Close()
	var l Layout
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&l))
	assert.Equal(t, DefaultLayout("NFLX", chart.DefaultTheme), l)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	health := func() Health {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		var h Health
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
		return h
	}

	assert.Equal(t, Health{Status: "ok", Rows: 6, Sessions: 0}, health())

	openPage(t, ts)
	assert.Equal(t, Health{Status: "ok", Rows: 6, Sessions: 1}, health())

	resp, err := http.Post(ts.URL+"/health", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	s, ts := newTestServer(t)
	_, sid := openPage(t, ts)

	resp, out := postUpdate(t, ts, UpdateRequest{Session: sid, Control: MetricControl, Event: EventChange, Value: "Low"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out.Updates, 2)
	assert.Equal(t, LineOutput, out.Updates[0].Output)
	assert.Equal(t, "NFLX Low over Time", out.Updates[0].Figure.TitleText())
	assert.Equal(t, chart.Red, out.Updates[0].Figure.Data[0].Line.Color)
	assert.Equal(t, SubplotsOutput, out.Updates[1].Output)
	assert.Equal(t, "Low", s.Sessions().Value(sid, MetricControl))

	resp, out = postUpdate(t, ts, UpdateRequest{Session: sid, Control: DirectionControl, Value: "High"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out.Updates, 1)
	assert.Equal(t, []float64{60, 50, 40, 30, 20}, out.Updates[0].Figure.Data[0].Y)
}

func TestUpdateErrors(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	resp, _ := postUpdate(t, ts, UpdateRequest{Control: "slider", Value: "1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err := http.Post(ts.URL+"/_dash/update", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out := postUpdate(t, ts, UpdateRequest{Control: MetricControl, Value: "Adj Close"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out.Updates, 2)
	assert.True(t, out.Updates[0].Figure.Empty())
}

func dialSession(t *testing.T, ts *httptest.Server, sid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/_dash/ws?session=" + sid
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestWebSocket(t *testing.T) {
	t.Parallel()
	s, ts := newTestServer(t)
	_, sid := openPage(t, ts)

	conn := dialSession(t, ts, sid)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, conn.WriteJSON(UpdateRequest{Control: DirectionControl, Event: EventChange, Value: "Low"}))
	var resp UpdateResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Empty(t, resp.Error)
	require.Len(t, resp.Updates, 1)
	assert.Equal(t, TopFiveOutput, resp.Updates[0].Output)
	assert.Equal(t, "Top 5 Dates with Lowest Stock Price (Low)", resp.Updates[0].Figure.TitleText())
	assert.Equal(t, "Low", s.Sessions().Value(sid, DirectionControl))

	// errors are reported and the socket stays open
	require.NoError(t, conn.WriteJSON(UpdateRequest{Control: "nope"}))
	resp = UpdateResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Contains(t, resp.Error, ErrUnknownControl.Error())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	resp = UpdateResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "invalid message", resp.Error)

	require.NoError(t, conn.WriteJSON(UpdateRequest{Control: MetricControl, Value: "Open"}))
	resp = UpdateResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Len(t, resp.Updates, 2)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool {
		_, ok := s.Sessions().Get(sid)
		return !ok
	}, 2*time.Second, 10*time.Millisecond, "session removed when the socket closes")
}

func TestWebSocketUnknownSession(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/_dash/ws?session=missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChartPNG(t *testing.T) {
	t.Parallel()
	s, ts := newTestServer(t)
	_, sid := openPage(t, ts)
	require.NoError(t, s.Sessions().Set(sid, MetricControl, "Close"))

	for _, path := range []string{
		"/chart/line-chart.png?width=600&height=300",
		"/chart/line-chart.png?session=" + sid,
		"/chart/volume-subplots.png",
		"/chart/top-5-bar.png?value=Low",
	} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err, path)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"), path)
		assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")), path)
	}

	tests := []struct {
		path   string
		status int
	}{
		{"/chart/pie-chart.png", http.StatusNotFound},
		{"/chart/line-chart.svg", http.StatusNotFound},
		{"/chart/top-5-bar.png?value=Median", http.StatusUnprocessableEntity},
		{"/chart/line-chart.png?width=9000&height=6000", http.StatusBadRequest},
		{"/chart/volume-subplots.png?width=4001", http.StatusBadRequest},
		{"/chart/top-5-bar.png?height=2001", http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, err := http.Get(ts.URL + tt.path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tt.status, resp.StatusCode, tt.path)
	}
}

func TestRequestLogging(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.InfoLevel)
	s, err := New(testTable(t), Options{}, logger.FromZap(zap.New(core)))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_dash/layout", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	entries := logs.FilterMessage("request").AllUntimed()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/_dash/layout", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
	assert.Equal(t, rec.Header().Get("X-Request-Id"), fields["request_id"])
}

func TestServeShutsDown(t *testing.T) {
	t.Parallel()
	s, err := New(testTable(t), Options{PruneEvery: 10 * time.Millisecond}, nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}
