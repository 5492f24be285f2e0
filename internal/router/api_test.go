package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sem0ark/projecthub/db"
	"github.com/sem0ark/projecthub/internal/auth"
	"github.com/sem0ark/projecthub/internal/blob"
	"github.com/sem0ark/projecthub/internal/store"
)

type testEnv struct {
	router *gin.Engine
	blobs  *blob.LocalStore
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, conn.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.Migrate(conn))

	blobs, err := blob.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	r := New(Deps{
		Users:     store.NewUserStore(conn),
		Projects:  store.NewProjectStore(conn),
		Documents: store.NewDocumentStore(conn),
		Blobs:     blobs,
		Tokens:    auth.NewTokenManager("test-secret", time.Hour),
		LogoSize:  200,
	})

	return &testEnv{router: r, blobs: blobs}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	return w
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	return e.do(t, method, path, token, bytes.NewReader(body), "application/json")
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))

	return decoded
}

func (e *testEnv) register(t *testing.T, login, password string) {
	t.Helper()

	w := e.doJSON(t, http.MethodPost, "/auth", "", gin.H{"login": login, "password": password})
	require.Equal(t, http.StatusCreated, w.Code)
}

func (e *testEnv) loginToken(t *testing.T, login, password string) string {
	t.Helper()

	w := e.doJSON(t, http.MethodPost, "/login", "", gin.H{"login": login, "password": password})
	require.Equal(t, http.StatusOK, w.Code)

	decoded := decodeJSON(t, w)
	require.Equal(t, "bearer", decoded["token_type"])

	return decoded["access_token"].(string)
}

func (e *testEnv) createProject(t *testing.T, token, name string) uint {
	t.Helper()

	w := e.doJSON(t, http.MethodPost, "/project/", token, gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code)

	return uint(decodeJSON(t, w)["id"].(float64))
}

// multipartBody builds a single-file multipart form with an explicit part
// content type, the way browsers send uploads.
func multipartBody(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)

	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func TestRegister(t *testing.T) {
	t.Parallel()

	env := newEnv(t)

	w := env.doJSON(t, http.MethodPost, "/auth", "", gin.H{"login": "alice", "password": "short"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.doJSON(t, http.MethodPost, "/auth", "", gin.H{"login": "alice", "password": "secret-password"})
	require.Equal(t, http.StatusCreated, w.Code)
	decoded := decodeJSON(t, w)
	assert.Equal(t, "alice", decoded["login"])
	assert.NotZero(t, decoded["id"])

	w = env.doJSON(t, http.MethodPost, "/auth", "", gin.H{"login": "alice", "password": "other-password"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	env.register(t, "alice", "secret-password")

	w := env.doJSON(t, http.MethodPost, "/login", "", gin.H{"login": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.doJSON(t, http.MethodPost, "/login", "", gin.H{"login": "nobody", "password": "secret-password"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	token := env.loginToken(t, "alice", "secret-password")

	w = env.do(t, http.MethodGet, "/project/", token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginForm(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	env.register(t, "alice", "secret-password")

	form := url.Values{"username": {"alice"}, "password": {"secret-password"}}
	w := env.do(t, http.MethodPost, "/login_form", "", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bearer", decodeJSON(t, w)["token_type"])
}

func TestAuthHeaders(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	env.register(t, "alice", "secret-password")
	token := env.loginToken(t, "alice", "secret-password")

	w := env.do(t, http.MethodGet, "/project/", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/project/", "not-a-token", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The custom header is accepted as an alternative transport.
	req := httptest.NewRequest(http.MethodGet, "/project/", nil)
	req.Header.Set("X-Access-Token", token)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProjectAccessScenario(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	env.register(t, "alice", "secret-password")
	env.register(t, "bob", "secret-password")
	aliceToken := env.loginToken(t, "alice", "secret-password")
	bobToken := env.loginToken(t, "bob", "secret-password")

	projectID := env.createProject(t, aliceToken, "Foo")
	path := fmt.Sprintf("/project/%d", projectID)

	// Bob has no grant: the project exists, so this is forbidden.
	w := env.do(t, http.MethodGet, path, bobToken, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Participants cannot invite or delete.
	w = env.do(t, http.MethodPost, path+"/invite?login=bob", bobToken, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, path+"/invite?login=nobody", aliceToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, path+"/invite?login=bob", aliceToken, nil, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, path, bobToken, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, path+"/invite?login=bob", aliceToken, nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodDelete, path, bobToken, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, path, aliceToken, nil, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	// Deleted projects are gone for everyone.
	w = env.do(t, http.MethodGet, path, bobToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, path, aliceToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectUpdatePartial(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	env.register(t, "alice", "secret-password")
	token := env.loginToken(t, "alice", "secret-password")

	projectID := env.createProject(t, token, "Foo")
	path := fmt.Sprintf("/project/%d", projectID)

	w := env.doJSON(t, http.MethodPut, path, token, gin.H{"description": "a description"})
	require.Equal(t, http.StatusOK, w.Code)
	decoded := decodeJSON(t, w)
	assert.Equal(t, "Foo", decoded["name"])
	assert.Equal(t, "a description", decoded["description"])

	// Omitted description stays, explicit empty string clears.
	w = env.doJSON(t, http.MethodPut, path, token, gin.H{"name": "Bar"})
	require.Equal(t, http.StatusOK, w.Code)
	decoded = decodeJSON(t, w)
	assert.Equal(t, "Bar", decoded["name"])
	assert.Equal(t, "a description", decoded["description"])

	w = env.doJSON(t, http.MethodPut, path, token, gin.H{"description": ""})
	require.Equal(t, http.StatusOK, w.Code)
	decoded = decodeJSON(t, w)
	assert.Equal(t, "Bar", decoded["name"])
	assert.Equal(t, "", decoded["description"])
}

func TestProjectListPagination(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	env.register(t, "alice", "secret-password")
	token := env.loginToken(t, "alice", "secret-password")

	for _, name := range []string{"one", "two", "three"} {
		env.createProject(t, token, name)
	}

	w := env.do(t, http.MethodGet, "/project/?limit=2", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, "one", listed[0]["name"])
	assert.Equal(t, "two", listed[1]["name"])

	w = env.do(t, http.MethodGet, "/project/?limit=2&offset=2", token, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "three", listed[0]["name"])
}

func TestDocumentLifecycle(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	env.register(t, "alice", "secret-password")
	env.register(t, "bob", "secret-password")
	aliceToken := env.loginToken(t, "alice", "secret-password")
	bobToken := env.loginToken(t, "bob", "secret-password")

	projectID := env.createProject(t, aliceToken, "Foo")
	documentsPath := fmt.Sprintf("/project/%d/documents", projectID)

	// Disallowed MIME types are rejected before anything is stored.
	body, contentType := multipartBody(t, "notes.txt", "text/plain", []byte("plain text"))
	w := env.do(t, http.MethodPost, documentsPath, aliceToken, body, contentType)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Outsiders cannot upload.
	body, contentType = multipartBody(t, "report.pdf", "application/pdf", []byte("%PDF-1.4 outsider"))
	w = env.do(t, http.MethodPost, documentsPath, bobToken, body, contentType)
	assert.Equal(t, http.StatusForbidden, w.Code)

	body, contentType = multipartBody(t, "report.pdf", "application/pdf", []byte("%PDF-1.4 original"))
	w = env.do(t, http.MethodPost, documentsPath, aliceToken, body, contentType)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeJSON(t, w)
	documentID := created["id"].(string)
	assert.Equal(t, "report.pdf", created["name"])

	w = env.do(t, http.MethodGet, documentsPath, aliceToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	documentPath := "/document/" + documentID

	// Round-trip: same name, same bytes.
	w = env.do(t, http.MethodGet, documentPath, aliceToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 original", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report.pdf")

	w = env.do(t, http.MethodGet, documentPath, bobToken, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Re-upload replaces the bytes and renames the row.
	body, contentType = multipartBody(t, "final.pdf", "application/pdf", []byte("%PDF-1.4 replaced"))
	w = env.do(t, http.MethodPut, documentPath, aliceToken, body, contentType)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "final.pdf", decodeJSON(t, w)["name"])

	w = env.do(t, http.MethodGet, documentPath, aliceToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 replaced", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "final.pdf")

	// Delete is owner-only: grant Bob access and verify he still cannot.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/project/%d/invite?login=bob", projectID), aliceToken, nil, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodDelete, documentPath, bobToken, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, documentPath, aliceToken, nil, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, documentPath, aliceToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The blob went with the row.
	ids, err := env.blobs.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDocumentMissingFile(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	env.register(t, "alice", "secret-password")
	token := env.loginToken(t, "alice", "secret-password")

	projectID := env.createProject(t, token, "Foo")

	w := env.doJSON(t, http.MethodPost, fmt.Sprintf("/project/%d/documents", projectID), token, gin.H{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestOutsiderUploadsForbidden(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	env.register(t, "alice", "secret-password")
	env.register(t, "bob", "secret-password")
	aliceToken := env.loginToken(t, "alice", "secret-password")
	bobToken := env.loginToken(t, "bob", "secret-password")

	projectID := env.createProject(t, aliceToken, "Foo")

	// Access is checked before payload validation, so outsiders see 403
	// even for requests that would otherwise fail validation.
	body, contentType := multipartBody(t, "notes.txt", "text/plain", []byte("plain text"))
	w := env.do(t, http.MethodPost, fmt.Sprintf("/project/%d/documents", projectID), bobToken, body, contentType)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.doJSON(t, http.MethodPost, fmt.Sprintf("/project/%d/documents", projectID), bobToken, gin.H{})
	assert.Equal(t, http.StatusForbidden, w.Code)

	body, contentType = multipartBody(t, "logo.txt", "text/plain", []byte("not an image"))
	w = env.do(t, http.MethodPut, fmt.Sprintf("/project/%d/logo", projectID), bobToken, body, contentType)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Same ordering on the document replace path.
	body, contentType = multipartBody(t, "report.pdf", "application/pdf", []byte("%PDF-1.4 original"))
	w = env.do(t, http.MethodPost, fmt.Sprintf("/project/%d/documents", projectID), aliceToken, body, contentType)
	require.Equal(t, http.StatusCreated, w.Code)
	documentID := decodeJSON(t, w)["id"].(string)

	body, contentType = multipartBody(t, "notes.txt", "text/plain", []byte("plain text"))
	w = env.do(t, http.MethodPut, "/document/"+documentID, bobToken, body, contentType)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLogoLifecycle(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	env.register(t, "alice", "secret-password")
	env.register(t, "bob", "secret-password")
	aliceToken := env.loginToken(t, "alice", "secret-password")
	bobToken := env.loginToken(t, "bob", "secret-password")

	projectID := env.createProject(t, aliceToken, "Foo")
	logoPath := fmt.Sprintf("/project/%d/logo", projectID)

	w := env.do(t, http.MethodGet, logoPath, aliceToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Wrong type is rejected before any storage write.
	body, contentType := multipartBody(t, "logo.txt", "text/plain", []byte("not an image"))
	w = env.do(t, http.MethodPut, logoPath, aliceToken, body, contentType)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	ids, err := env.blobs.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, ids)

	body, contentType = multipartBody(t, "logo.png", "image/png", pngBytes(t, 600, 400))
	w = env.do(t, http.MethodPut, logoPath, aliceToken, body, contentType)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, logoPath, aliceToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	decoded, err := jpeg.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	bounds := decoded.Bounds()
	assert.Equal(t, bounds.Dx(), bounds.Dy())
	assert.LessOrEqual(t, bounds.Dx(), 200)

	// A declared image that fails to decode rolls the reference back.
	body, contentType = multipartBody(t, "logo.png", "image/png", []byte("corrupt bytes"))
	w = env.do(t, http.MethodPut, logoPath, aliceToken, body, contentType)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = env.do(t, http.MethodGet, logoPath, aliceToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Fresh upload, then exercise delete permissions.
	body, contentType = multipartBody(t, "logo.png", "image/png", pngBytes(t, 300, 300))
	w = env.do(t, http.MethodPut, logoPath, aliceToken, body, contentType)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodDelete, logoPath, bobToken, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, logoPath, aliceToken, nil, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, logoPath, aliceToken, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Deleting an absent logo is a no-op success.
	w = env.do(t, http.MethodDelete, logoPath, aliceToken, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
