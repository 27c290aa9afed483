package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/resultsphere/internal/app/controllers"
	"github.com/yigit/resultsphere/internal/app/models"
	"github.com/yigit/resultsphere/internal/app/models/dto"
	"github.com/yigit/resultsphere/internal/app/repositories/memory"
	"github.com/yigit/resultsphere/internal/app/routes"
	"github.com/yigit/resultsphere/internal/app/services"
	"github.com/yigit/resultsphere/internal/ingestion"
	"github.com/yigit/resultsphere/internal/middleware"
	"github.com/yigit/resultsphere/internal/pkg/auth"
	"github.com/yigit/resultsphere/internal/pkg/email"
	"github.com/yigit/resultsphere/internal/pkg/pdftable"
	"github.com/yigit/resultsphere/internal/pkg/validation"
	"github.com/yigit/resultsphere/internal/pkg/workqueue"
)

const (
	studentRoll  = "20HN1A0501"
	studentEmail = "student@college.test"
	password     = "results2025"
	maxUpload    = 4096
)

type stubExtractor struct {
	rows []any
	err  error
}

func (e *stubExtractor) Extract(context.Context, []byte) (*pdftable.Result, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &pdftable.Result{Rows: e.rows}, nil
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

type testAPI struct {
	router    *gin.Engine
	extractor *stubExtractor
	users     *memory.UserStore
	jwt       *auth.JWTService
	queue     *workqueue.Queue
	mail      *email.LogSender
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.RegisterGinRules())

	lgr := zerolog.Nop()
	users := memory.NewUserStore()
	results := memory.NewResultStore()
	branches := memory.NewBranchPerformanceStore()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "controller-test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "resultsphere.test",
	})
	extractor := &stubExtractor{}
	processor := ingestion.NewProcessor(extractor, results, branches, nil,
		ingestion.Options{EmailDomain: "college.test"}, lgr)

	queue := workqueue.New(workqueue.Config{Workers: 1, QueueSize: 16}, lgr)
	t.Cleanup(func() { _ = queue.Close(context.Background()) })
	mail := email.NewLogSender(lgr)

	router := gin.New()
	routes.SetupRouter(router,
		controllers.NewAuthController(services.NewAuthService(users, memory.NewTokenStore(), jwtService, lgr), lgr),
		controllers.NewUserController(services.NewUserService(users, lgr), lgr),
		controllers.NewResultController(
			services.NewUploadService(processor, nil, lgr),
			services.NewResultService(results, lgr),
			maxUpload,
			lgr,
		),
		controllers.NewBranchPerformanceController(services.NewBranchPerformanceService(branches)),
		controllers.NewUpdateController(services.NewUpdateService(memory.NewUpdateStore(), users, queue, mail, lgr), lgr),
		middleware.NewAuthMiddleware(jwtService),
	)

	return &testAPI{router: router, extractor: extractor, users: users, jwt: jwtService, queue: queue, mail: mail}
}

func (a *testAPI) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func jsonRequest(method, path string, body any, token string) *http.Request {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func uploadRequest(t *testing.T, semester string, file []byte, token string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if semester != "" {
		require.NoError(t, mw.WriteField("semester", semester))
	}
	if file != nil {
		part, err := mw.CreateFormFile("file", "grades.pdf")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/results/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (a *testAPI) registerStudent(t *testing.T) dto.AuthResponse {
	t.Helper()
	w, env := a.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Roll: studentRoll, Email: studentEmail, Password: password,
	}, ""))
	require.Equal(t, http.StatusCreated, w.Code, string(env.Data))

	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	return resp
}

func (a *testAPI) adminToken(t *testing.T) string {
	t.Helper()
	admin := &models.User{Roll: "ADMIN", Email: "admin@college.test", Password: "x", IsAdmin: true}
	require.NoError(t, a.users.Create(context.Background(), admin))
	pair, err := a.jwt.GenerateTokenPair(admin)
	require.NoError(t, err)
	return pair.AccessToken
}

func gradeRows() []any {
	rows := []any{[]any{"SNO", "HTNO", "SUBCODE", "SUBNAME", "INTERNALS", "GRADE", "CREDITS"}}
	sno := 1
	for _, roll := range []string{studentRoll, "20HN1A0502"} {
		for i := 1; i <= 6; i++ {
			grade := "A"
			if roll == "20HN1A0502" && i == 1 {
				grade = "F"
			}
			code := fmt.Sprintf("R20CS1%02d", i)
			rows = append(rows, []any{sno, roll, code, "Subject " + code, 18, grade, 3})
			sno++
		}
	}
	return rows
}

func TestHealthAndPing(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/health", "/ping"} {
		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRegisterLoginAndProfile(t *testing.T) {
	api := newTestAPI(t)
	registered := api.registerStudent(t)
	assert.Equal(t, studentRoll, registered.User.Roll)
	assert.NotEmpty(t, registered.Token.RefreshToken)

	t.Run("duplicate roll", func(t *testing.T) {
		w, env := api.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
			Roll: studentRoll, Email: "other@college.test", Password: password,
		}, ""))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrorCodeResourceAlreadyExists, env.Error.Code)
	})

	t.Run("invalid payload", func(t *testing.T) {
		w, env := api.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
			Roll: "bad", Email: "not-an-email", Password: "short",
		}, ""))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)
	})

	t.Run("login by roll", func(t *testing.T) {
		w, env := api.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
			Roll: studentRoll, Password: password,
		}, ""))
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.AuthResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))

		w, env = api.do(t, jsonRequest(http.MethodGet, "/api/v1/auth/profile", nil, resp.Token.AccessToken))
		require.Equal(t, http.StatusOK, w.Code)
		var profile dto.UserProfile
		require.NoError(t, json.Unmarshal(env.Data, &profile))
		assert.Equal(t, studentEmail, profile.Email)
		assert.Equal(t, string(models.RoleStudent), profile.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		w, env := api.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
			Email: studentEmail, Password: "wrong-pass1",
		}, ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeInvalidCredentials, env.Error.Code)
	})

	t.Run("profile needs a token", func(t *testing.T) {
		w, env := api.do(t, jsonRequest(http.MethodGet, "/api/v1/auth/profile", nil, ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeUnauthorized, env.Error.Code)
	})
}

func TestRefreshTokenRotation(t *testing.T) {
	api := newTestAPI(t)
	registered := api.registerStudent(t)
	oldToken := registered.Token.RefreshToken

	w, env := api.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/refresh", dto.RefreshTokenRequest{RefreshToken: oldToken}, ""))
	require.Equal(t, http.StatusOK, w.Code)
	var rotated dto.TokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &rotated))
	assert.NotEqual(t, oldToken, rotated.RefreshToken)

	w, _ = api.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/refresh", dto.RefreshTokenRequest{RefreshToken: oldToken}, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadRequiresAdmin(t *testing.T) {
	api := newTestAPI(t)
	student := api.registerStudent(t)

	w, _ := api.do(t, uploadRequest(t, "1-1", []byte("%PDF"), ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := api.do(t, uploadRequest(t, "1-1", []byte("%PDF"), student.Token.AccessToken))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrorCodeForbidden, env.Error.Code)
}

func TestUploadThenQueryResults(t *testing.T) {
	api := newTestAPI(t)
	api.extractor.rows = gradeRows()
	student := api.registerStudent(t)
	admin := api.adminToken(t)

	w, env := api.do(t, uploadRequest(t, "1-1", []byte("%PDF-1.4"), admin))
	require.Equal(t, http.StatusOK, w.Code, string(env.Data))
	var summary dto.UploadGradeSheetResponse
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "1-1", summary.Semester)
	assert.Equal(t, 12, summary.ProcessedCount)
	assert.Equal(t, 2, summary.SavedCount)
	assert.True(t, summary.StatisticsSaved)
	assert.True(t, summary.Success)

	t.Run("student reads own semester", func(t *testing.T) {
		w, env := api.do(t, jsonRequest(http.MethodGet, "/api/v1/results/"+studentRoll+"/1-1", nil, student.Token.AccessToken))
		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.StudentResultsResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		require.Len(t, resp.Results, 1)
		assert.Len(t, resp.Results[0].Record.Subjects, 6)
		assert.Equal(t, studentRoll+"@college.test", resp.Results[0].Record.Email)
	})

	t.Run("student reads all semesters", func(t *testing.T) {
		w, env := api.do(t, jsonRequest(http.MethodGet, "/api/v1/results/"+studentRoll+"/all", nil, student.Token.AccessToken))
		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.StudentResultsResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "1-1", resp.Results[0].Semester)
	})

	t.Run("student cannot read another roll", func(t *testing.T) {
		w, _ := api.do(t, jsonRequest(http.MethodGet, "/api/v1/results/20HN1A0502/1-1", nil, student.Token.AccessToken))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing semester record", func(t *testing.T) {
		w, _ := api.do(t, jsonRequest(http.MethodGet, "/api/v1/results/"+studentRoll+"/2-1", nil, student.Token.AccessToken))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("admin lists rolls", func(t *testing.T) {
		w, env := api.do(t, jsonRequest(http.MethodGet, "/api/v1/semesters/1-1/rolls", nil, admin))
		require.Equal(t, http.StatusOK, w.Code)
		var rolls []string
		require.NoError(t, json.Unmarshal(env.Data, &rolls))
		assert.ElementsMatch(t, []string{studentRoll, "20HN1A0502"}, rolls)
	})

	t.Run("branch performance is public", func(t *testing.T) {
		w, env := api.do(t, jsonRequest(http.MethodGet, "/api/v1/branch-performance/1-1", nil, ""))
		require.Equal(t, http.StatusOK, w.Code)
		var record models.BranchPerformanceRecord
		require.NoError(t, json.Unmarshal(env.Data, &record))
		cse := record.Branch(models.BranchCSE)
		require.NotNil(t, cse)
		assert.Equal(t, 2, cse.TotalStudents)
		assert.Equal(t, 1, cse.PassedStudents)
	})
}

func TestUploadRejections(t *testing.T) {
	api := newTestAPI(t)
	admin := api.adminToken(t)

	tests := []struct {
		name     string
		semester string
		file     []byte
		extract  error
		status   int
		code     dto.ErrorCode
	}{
		{name: "missing semester", file: []byte("%PDF"), status: http.StatusBadRequest, code: dto.ErrorCodeValidationFailed},
		{name: "invalid semester", semester: "5-3", file: []byte("%PDF"), status: http.StatusBadRequest, code: dto.ErrorCodeValidationFailed},
		{name: "missing file", semester: "1-1", status: http.StatusBadRequest, code: dto.ErrorCodeValidationFailed},
		{name: "too large", semester: "1-1", file: bytes.Repeat([]byte("x"), maxUpload+1), status: http.StatusRequestEntityTooLarge, code: dto.ErrorCodePayloadTooLarge},
		{name: "unreadable pdf", semester: "1-1", file: []byte("junk"), extract: errors.New("no xref"), status: http.StatusBadRequest, code: dto.ErrorCodeInvalidGradeSheet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api.extractor.err = tt.extract
			w, env := api.do(t, uploadRequest(t, tt.semester, tt.file, admin))
			assert.Equal(t, tt.status, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestBranchPerformanceErrors(t *testing.T) {
	api := newTestAPI(t)

	w, _ := api.do(t, jsonRequest(http.MethodGet, "/api/v1/branch-performance/3-2", nil, ""))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := api.do(t, jsonRequest(http.MethodGet, "/api/v1/branch-performance/9-9", nil, ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeBadRequest, env.Error.Code)
}
