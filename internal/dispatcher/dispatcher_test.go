package dispatcher_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"valve_control/internal/dispatcher"
	"valve_control/internal/logger"
)

type captured struct {
	Method      string
	Path        string
	Body        string
	ContentType string
	Referer     string
}

// recorder stands in for the valve server and records every request it receives.
type recorder struct {
	mu     sync.Mutex
	reqs   []captured
	status int
}

func newRecorder(t *testing.T, status int) (*recorder, *httptest.Server) {
	t.Helper()
	rec := &recorder{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.reqs = append(rec.reqs, captured{r.Method, r.URL.Path, string(b), r.Header.Get("Content-Type"), r.Referer()})
		rec.mu.Unlock()
		w.WriteHeader(rec.status)
	}))
	t.Cleanup(srv.Close)
	return rec, srv
}

func (r *recorder) requests() []captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]captured(nil), r.reqs...)
}

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestStatusRadio_PostsJSONString(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusOK)
	doc := newFakeDocument(srv.URL + "/")
	radio := doc.add(dispatcher.ClassStatusRadio, map[string]string{"valve_number": "3"}, "on")

	d := dispatcher.New(doc, dispatcher.WithClient(srv.Client()))
	require.NoError(t, d.Init())

	radio.Click()
	d.Wait()

	require.Len(t, rec.requests(), 1)
	assert.Equal(t, captured{
		Method:      http.MethodPost,
		Path:        "/valves/3/status",
		Body:        `"on"`,
		ContentType: "application/json",
	}, rec.requests()[0])
	assert.Equal(t, int32(1), doc.reloads.Load())
}

func TestStatusForm_ReadsValueAtClick(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusOK)
	doc := newFakeDocument(srv.URL + "/")
	form := doc.add(dispatcher.ClassStatusForm, map[string]string{"valve_number": "1"}, "ForceOpen")

	d := dispatcher.New(doc, dispatcher.WithClient(srv.Client()))
	require.NoError(t, d.Init())

	form.value = "Scheduled"
	form.Click()
	d.Wait()

	require.Len(t, rec.requests(), 1)
	assert.Equal(t, `"Scheduled"`, rec.requests()[0].Body)
}

func TestDeleteValve_ByIndexAttribute(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusOK)
	doc := newFakeDocument(srv.URL + "/")
	btn := doc.add(dispatcher.ClassDeleteValve, map[string]string{"index": "7"}, "")

	d := dispatcher.New(doc, dispatcher.WithClient(srv.Client()))
	require.NoError(t, d.Init())

	btn.Click()
	d.Wait()

	require.Len(t, rec.requests(), 1)
	got := rec.requests()[0]
	assert.Equal(t, http.MethodDelete, got.Method)
	assert.Equal(t, "/valves/7/", got.Path)
	assert.Empty(t, got.Body)
	assert.Empty(t, got.ContentType)
	assert.Equal(t, int32(1), doc.reloads.Load())
}

func TestDeleteSchedule_UsesDocumentURI(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusOK)
	doc := newFakeDocument(srv.URL + "/valves/3?tab=week#mon")
	btn := doc.add(dispatcher.ClassDeleteSchedule, map[string]string{"day": "Mon", "begin": "08:00", "end": "09:00"}, "")

	d := dispatcher.New(doc, dispatcher.WithClient(srv.Client()))
	require.NoError(t, d.Init())

	btn.Click()
	d.Wait()

	require.Len(t, rec.requests(), 1)
	got := rec.requests()[0]
	assert.Equal(t, http.MethodDelete, got.Method)
	assert.Equal(t, "/valves/3/timetable", got.Path)
	assert.Equal(t, `{"day":"Mon","start_time":"08:00","end_time":"09:00"}`, got.Body)
	assert.Equal(t, "application/json", got.ContentType)
}

func TestErrorStatusStillReloads(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		rec, srv := newRecorder(t, status)
		doc := newFakeDocument(srv.URL + "/")
		btn := doc.add(dispatcher.ClassDeleteValve, map[string]string{"valve_number": "2"}, "")

		d := dispatcher.New(doc, dispatcher.WithClient(srv.Client()))
		require.NoError(t, d.Init())
		btn.Click()
		d.Wait()

		assert.Len(t, rec.requests(), 1)
		assert.Equal(t, int32(1), doc.reloads.Load(), "status %d", status)
	}
}

type failingDoer struct{ calls int }

func (f *failingDoer) Do(*http.Request) (*http.Response, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func TestTransportFailure_LogsAndKeepsPage(t *testing.T) {
	log, logs := observedLogger()
	doc := newFakeDocument("http://valves.local/")
	radio := doc.add(dispatcher.ClassStatusRadio, map[string]string{"valve_number": "3"}, "ForceClose")
	client := &failingDoer{}

	d := dispatcher.New(doc, dispatcher.WithClient(client), dispatcher.WithLogger(log))
	require.NoError(t, d.Init())

	radio.Click()
	d.Wait()

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, int32(0), doc.reloads.Load())
	failed := logs.FilterMessage("dispatch_failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "http://valves.local/valves/3/status", failed[0].ContextMap()["url"])
}

func TestRepeatedClicksReissue(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusOK)
	doc := newFakeDocument(srv.URL + "/")
	btn := doc.add(dispatcher.ClassDeleteValve, map[string]string{"valve_number": "4"}, "")

	d := dispatcher.New(doc, dispatcher.WithClient(srv.Client()))
	require.NoError(t, d.Init())

	btn.Click()
	btn.Click()
	btn.Click()
	d.Wait()

	assert.Len(t, rec.requests(), 3)
	assert.Equal(t, int32(3), doc.reloads.Load())
}

func TestMissingAttributeFailsLoudly(t *testing.T) {
	log, logs := observedLogger()
	doc := newFakeDocument("http://valves.local/")
	bad := doc.add(dispatcher.ClassStatusRadio, map[string]string{}, "on")
	good := doc.add(dispatcher.ClassDeleteValve, map[string]string{"valve_number": "1"}, "")
	partial := doc.add(dispatcher.ClassDeleteSchedule, map[string]string{"day": "Tue", "begin": "10:00"}, "")

	d := dispatcher.New(doc, dispatcher.WithLogger(log))
	err := d.Init()
	require.Error(t, err)

	var attrErr *dispatcher.AttributeError
	require.ErrorAs(t, err, &attrErr)
	assert.Equal(t, dispatcher.ClassStatusRadio, attrErr.Class)
	assert.Contains(t, err.Error(), "schedule_delete_button")

	assert.Zero(t, bad.bound())
	assert.Zero(t, partial.bound())
	assert.Equal(t, 1, good.bound())
	entries := logs.FilterMessage("dispatcher_bind_incomplete").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "http://valves.local/", fields["uri"])
	assert.Contains(t, fields["err"], "automation_status_radio")
	assert.Equal(t, 1, logs.Len(), "bind failures are logged once")
}

func TestValveAttributesOverride(t *testing.T) {
	doc := newFakeDocument("http://valves.local/")
	doc.add(dispatcher.ClassDeleteValve, map[string]string{"valve_number": "1"}, "")

	d := dispatcher.New(doc, dispatcher.WithValveAttributes("index"))
	var attrErr *dispatcher.AttributeError
	require.ErrorAs(t, d.Init(), &attrErr)
	assert.Equal(t, []string{"index"}, attrErr.Attrs)
}

func TestInitTwice(t *testing.T) {
	d := dispatcher.New(newFakeDocument("http://valves.local/"))
	require.NoError(t, d.Init())
	assert.ErrorIs(t, d.Init(), dispatcher.ErrAlreadyInitialized)
}
