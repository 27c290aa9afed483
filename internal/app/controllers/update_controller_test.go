package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/resultsphere/internal/app/models/dto"
)

func TestPostAndListUpdates(t *testing.T) {
	api := newTestAPI(t)
	student := api.registerStudent(t)
	admin := api.adminToken(t)

	t.Run("students cannot post", func(t *testing.T) {
		w, _ := api.do(t, jsonRequest(http.MethodPost, "/api/v1/updates", dto.CreateUpdateRequest{
			Title: "x", Description: "y", Date: "2025-07-01",
		}, student.Token.AccessToken))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing date", func(t *testing.T) {
		w, env := api.do(t, jsonRequest(http.MethodPost, "/api/v1/updates", dto.CreateUpdateRequest{
			Title: "x", Description: "y",
		}, admin))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeValidationFailed, env.Error.Code)
	})

	t.Run("admin posts json", func(t *testing.T) {
		w, env := api.do(t, jsonRequest(http.MethodPost, "/api/v1/updates", dto.CreateUpdateRequest{
			Title: "Exam schedule", Description: "4-1 exams start on 10 Nov.", Date: "2025-10-20",
		}, admin))
		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.CreateUpdateResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "Exam schedule", resp.Title)
		assert.Equal(t, 2, resp.QueuedEmails)
	})

	t.Run("admin posts form fields", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("title", "Holiday"))
		require.NoError(t, mw.WriteField("description", "Campus closed."))
		require.NoError(t, mw.WriteField("date", "2025-10-21"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/updates", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+admin)
		w, _ := api.do(t, req)
		require.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("anyone lists newest first", func(t *testing.T) {
		w, env := api.do(t, jsonRequest(http.MethodGet, "/api/v1/updates", nil, ""))
		require.Equal(t, http.StatusOK, w.Code)

		var updates []dto.UpdateResponse
		require.NoError(t, json.Unmarshal(env.Data, &updates))
		require.Len(t, updates, 2)
		assert.Equal(t, "Holiday", updates[0].Title)
		assert.Equal(t, "2025-10-20", updates[1].Date)
	})

	require.NoError(t, api.queue.Close(context.Background()))
	sent := api.mail.Sent()
	require.Len(t, sent, 4)
	assert.Equal(t, "New Update Posted", sent[0].Subject)
}
