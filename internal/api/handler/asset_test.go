package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/namebase_server/internal/api/middleware"
	"github.com/qs3c/namebase_server/internal/model"
	"github.com/qs3c/namebase_server/internal/pkg/response"
	"github.com/qs3c/namebase_server/internal/testutil"
)

func setupAssetRouter(env *testEnv, userID string) *gin.Engine {
	h := NewAssetHandler(env.Assets, env.Registry)

	r := gin.New()
	r.Use(middleware.Session())
	if userID != "" {
		r.Use(mockAuth(userID))
	}
	names := r.Group("/api/v1/names/:id")
	{
		names.POST("/domains", h.Toggle(model.AssetDomains))
		names.POST("/npm", h.Toggle(model.AssetNpm))
		names.POST("/logo", h.Toggle(model.AssetLogo))
		names.POST("/one-pager", h.Toggle(model.AssetOnePager))
	}
	return r
}

func TestAssetHandler_Domains(t *testing.T) {
	env := newTestEnv(t)
	profile := testutil.TestProfile(t, env.DB)
	name := testutil.TestName(t, env.DB, testutil.WithNameText("Acme Labs"), testutil.WithCreator(profile.ID))
	r := setupAssetRouter(env, profile.ID)
	path := "/api/v1/names/" + name.ID + "/domains"

	w := performRequest(r, http.MethodPost, path, nil)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data := dataMap(t, resp)
	assert.Equal(t, true, data["visible"])
	assert.Equal(t, false, data["cached"])
	domains, ok := data["domains"].([]interface{})
	require.True(t, ok)
	require.Len(t, domains, 1)
	domain := domains[0].(map[string]interface{})
	assert.Equal(t, "acme.io", domain["domain"])
	assert.Contains(t, domain["purchase_link"], "domainToCheck=acme.io")

	// 再次切换为收起
	w = performRequest(r, http.MethodPost, path, nil)
	data = dataMap(t, parseResponse(t, w))
	assert.Equal(t, false, data["visible"])
	assert.Nil(t, data["domains"])

	// 第三次展开走缓存
	w = performRequest(r, http.MethodPost, path, nil)
	data = dataMap(t, parseResponse(t, w))
	assert.Equal(t, true, data["visible"])
	assert.Equal(t, true, data["cached"])
}

func TestAssetHandler_Npm(t *testing.T) {
	env := newTestEnv(t)
	profile := testutil.TestProfile(t, env.DB)
	name := testutil.TestName(t, env.DB, testutil.WithNameText("Acme"), testutil.WithCreator(profile.ID))
	r := setupAssetRouter(env, profile.ID)

	w := performRequest(r, http.MethodPost, "/api/v1/names/"+name.ID+"/npm", nil)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	packages, ok := dataMap(t, resp)["packages"].([]interface{})
	require.True(t, ok)
	require.Len(t, packages, 2)
	assert.Equal(t, "npm i acme", packages[0].(map[string]interface{})["npm_name"])
	assert.Equal(t, "npm i alphajs", packages[1].(map[string]interface{})["npm_name"])
	assert.Equal(t, "https://www.npmjs.com/package/alphajs", packages[1].(map[string]interface{})["purchase_link"])
}

func TestAssetHandler_LogoAndOnePager(t *testing.T) {
	env := newTestEnv(t)
	profile := testutil.TestProfile(t, env.DB)
	name := testutil.TestName(t, env.DB, testutil.WithNameText("Acme"), testutil.WithCreator(profile.ID))
	r := setupAssetRouter(env, profile.ID)

	w := performRequest(r, http.MethodPost, "/api/v1/names/"+name.ID+"/logo", nil)
	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, "https://img.test/logo.png", dataMap(t, resp)["logo_url"])

	w = performRequest(r, http.MethodPost, "/api/v1/names/"+name.ID+"/one-pager", nil)
	resp = parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)
	assert.Equal(t, "https://docs.test/one-pager.pdf", dataMap(t, resp)["one_pager_url"])
}

func TestAssetHandler_ProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	profile := testutil.TestProfile(t, env.DB)
	name := testutil.TestName(t, env.DB, testutil.WithNameText("broken"), testutil.WithCreator(profile.ID))
	r := setupAssetRouter(env, profile.ID)

	w := performRequest(r, http.MethodPost, "/api/v1/names/"+name.ID+"/domains", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeProviderFailed, parseResponse(t, w).Code)
}

func TestAssetHandler_Anonymous(t *testing.T) {
	env := newTestEnv(t)
	sessionID := uuid.NewString()
	name := testutil.TestName(t, env.DB, testutil.WithSession(sessionID))
	r := setupAssetRouter(env, "")

	w := performRequestWithHeaders(r, http.MethodPost, "/api/v1/names/"+name.ID+"/logo", nil,
		map[string]string{middleware.SessionHeader: sessionID})

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeQuotaExceeded, resp.Code)
	notice := dataMap(t, resp)["notice"].(map[string]interface{})
	assert.Equal(t, "Please create an account", notice["title"])
	action := notice["action"].(map[string]interface{})
	assert.Equal(t, "/signup?ids="+name.ID, action["url"])
}

func TestAssetHandler_NameNotFound(t *testing.T) {
	env := newTestEnv(t)
	profile := testutil.TestProfile(t, env.DB)
	r := setupAssetRouter(env, profile.ID)

	w := performRequest(r, http.MethodPost, "/api/v1/names/"+uuid.NewString()+"/domains", nil)

	assert.Equal(t, response.CodeResourceNotFound, parseResponse(t, w).Code)
}
