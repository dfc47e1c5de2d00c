package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pdf-assistant-be/internal/bootstrap"
	"pdf-assistant-be/internal/config"
	"pdf-assistant-be/internal/pkg/serverutils"
	"pdf-assistant-be/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fake engine: one document lineage doc1 -> doc2 (rotate) -> doc3 (merge)
func newEngineStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		json.NewEncoder(w).Encode(map[string]interface{}{"file_id": "doc1", "filename": "report.pdf"})
	})
	mux.HandleFunc("/process-pdf", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FileId  string `json:"file_id"`
			Command string `json:"command"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if strings.Contains(req.Command, "merge") {
			json.NewEncoder(w).Encode(map[string]interface{}{"message": "Please upload a file to merge.", "requires_upload": true})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"message": "Rotated", "file_id": "doc2"})
	})
	mux.HandleFunc("/merge-pdfs", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		json.NewEncoder(w).Encode(map[string]interface{}{"message": "Merged successfully", "file_id": "doc3", "filename": "merged.pdf"})
	})
	mux.HandleFunc("/get-pdf/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 stub"))
	})
	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newTestApp(t *testing.T, engineURL string) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{
			Port:               "0",
			Environment:        "development",
			LogFilePath:        t.TempDir() + "/app.log",
			CorsAllowedOrigins: "http://localhost:5173",
			MaxUploadMB:        25,
		},
		Engine:  config.EngineConfig{BaseURL: engineURL, TimeoutSeconds: 5},
		Session: config.SessionConfig{TTLMinutes: 60, PurgeMinutes: 10},
	}
	container := bootstrap.NewContainer(cfg)
	return server.New(cfg, container).GetApp()
}

func decodeEnvelope(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env serverutils.BaseResponse[json.RawMessage]
	require.NoError(t, json.Unmarshal(body, &env))
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
}

func decodeError(t *testing.T, resp *http.Response) serverutils.BaseResponse[any] {
	t.Helper()
	var env serverutils.BaseResponse[any]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func uploadPDF(t *testing.T, app *fiber.App, filename string) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/session/v1/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func dispatchJSON(t *testing.T, app *fiber.App, sessionID, utterance string) *http.Response {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"utterance": utterance})
	req := httptest.NewRequest(http.MethodPost, "/api/session/v1/"+sessionID+"/dispatch", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	engine := newEngineStub(t)
	app := newTestApp(t, engine.URL)

	// 1. Upload establishes the session and the first document.
	resp := uploadPDF(t, app, "report.pdf")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var started struct {
		SessionId string `json:"session_id"`
		Document  struct {
			DocumentId string `json:"document_id"`
			Filename   string `json:"filename"`
		} `json:"document"`
		Transcript []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"transcript"`
	}
	decodeEnvelope(t, resp, &started)
	require.NotEmpty(t, started.SessionId)
	assert.Equal(t, "doc1", started.Document.DocumentId)
	require.Len(t, started.Transcript, 1)
	assert.Equal(t, "assistant", started.Transcript[0].Role)
	assert.Contains(t, started.Transcript[0].Content, "report.pdf")

	// 2. A mutating command replaces the current document.
	resp = dispatchJSON(t, app, started.SessionId, "rotate page 3 90 degrees")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dispatched struct {
		Result   string `json:"result"`
		Document struct {
			DocumentId string `json:"document_id"`
		} `json:"document"`
		MergePending bool `json:"merge_pending"`
	}
	decodeEnvelope(t, resp, &dispatched)
	assert.Equal(t, "mutation", dispatched.Result)
	assert.Equal(t, "doc2", dispatched.Document.DocumentId)
	assert.False(t, dispatched.MergePending)

	// 3. A merge command opens the sub-workflow and further dispatch conflicts.
	resp = dispatchJSON(t, app, started.SessionId, "merge with another PDF")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeEnvelope(t, resp, &dispatched)
	assert.True(t, dispatched.MergePending)

	resp = dispatchJSON(t, app, started.SessionId, "rotate page 1 180 degrees")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	conflict := decodeError(t, resp)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.NotEmpty(t, conflict.Message)

	// 4. Supplying the second PDF completes the merge.
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", "other.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/session/v1/"+started.SessionId+"/merge", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var merged struct {
		Merged   bool `json:"merged"`
		Document struct {
			DocumentId string `json:"document_id"`
			Filename   string `json:"filename"`
		} `json:"document"`
	}
	decodeEnvelope(t, resp, &merged)
	assert.True(t, merged.Merged)
	assert.Equal(t, "doc3", merged.Document.DocumentId)
	assert.Equal(t, "merged.pdf", merged.Document.Filename)

	// 5. Snapshot reflects the full history.
	req = httptest.NewRequest(http.MethodGet, "/api/session/v1/"+started.SessionId, nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap struct {
		Document struct {
			DocumentId string `json:"document_id"`
		} `json:"document"`
		MergePending bool `json:"merge_pending"`
		Transcript   []struct {
			Seq uint64 `json:"seq"`
		} `json:"transcript"`
	}
	decodeEnvelope(t, resp, &snap)
	assert.Equal(t, "doc3", snap.Document.DocumentId)
	assert.False(t, snap.MergePending)
	// welcome + 3 dispatch/submit pairs (two dispatches + one submit)
	assert.Len(t, snap.Transcript, 7)

	// 6. Document preview proxies the engine bytes.
	req = httptest.NewRequest(http.MethodGet, "/api/session/v1/"+started.SessionId+"/document", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	previewBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(previewBytes, []byte("%PDF")))
}

func TestUploadRejectsNonPDF(t *testing.T) {
	engine := newEngineStub(t)
	app := newTestApp(t, engine.URL)

	resp := uploadPDF(t, app, "notes.txt")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDispatchValidation(t *testing.T) {
	engine := newEngineStub(t)
	app := newTestApp(t, engine.URL)

	resp := uploadPDF(t, app, "report.pdf")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var started struct {
		SessionId string `json:"session_id"`
	}
	decodeEnvelope(t, resp, &started)

	// Empty utterance fails validation before it reaches the service.
	resp = dispatchJSON(t, app, started.SessionId, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown session is a 404.
	resp = dispatchJSON(t, app, "00000000-0000-0000-0000-000000000000", "rotate")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	notFound := decodeError(t, resp)
	assert.Equal(t, http.StatusNotFound, notFound.Code)
}

func TestCancelMergeOverHTTP(t *testing.T) {
	engine := newEngineStub(t)
	app := newTestApp(t, engine.URL)

	resp := uploadPDF(t, app, "report.pdf")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var started struct {
		SessionId string `json:"session_id"`
	}
	decodeEnvelope(t, resp, &started)

	resp = dispatchJSON(t, app, started.SessionId, "merge with another PDF")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel := func() *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/session/v1/"+started.SessionId+"/merge/cancel", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp = cancel()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cancelled struct {
		MergePending bool `json:"merge_pending"`
		Reply        *struct {
			Content string `json:"content"`
		} `json:"reply"`
	}
	decodeEnvelope(t, resp, &cancelled)
	assert.False(t, cancelled.MergePending)
	require.NotNil(t, cancelled.Reply)

	// Cancelling again is a silent no-op, not an error.
	resp = cancel()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeEnvelope(t, resp, &cancelled)
	assert.False(t, cancelled.MergePending)
}
