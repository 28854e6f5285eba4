package https_server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_chat_server/internal/config"
	"market_chat_server/internal/dao/mysql/testdb"
	"market_chat_server/internal/dto/respond"
	"market_chat_server/internal/handler"
	"market_chat_server/internal/router"
	"market_chat_server/internal/service"
	"market_chat_server/pkg/errorx"
	"market_chat_server/pkg/util/jwt"
)

// recordingGateway 记录 HTTP 发送后触发的推送
type recordingGateway struct {
	mu   sync.Mutex
	sent []*respond.MessageRespond
}

func (g *recordingGateway) Serve(w http.ResponseWriter, _ *http.Request, _ uint64) error {
	w.WriteHeader(http.StatusTeapot)
	return nil
}

func (g *recordingGateway) NotifyMessageSent(_ context.Context, msg *respond.MessageRespond) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, msg)
}

func (g *recordingGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

type apiEnv struct {
	engine  *gin.Engine
	gateway *recordingGateway
}

type envelope struct {
	Code int             `json:"code"`
	Msg  any             `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwt.Init("http-test-secret-0123456789abcdef", "test", 60)
	require.NoError(t, handler.InitTrans("en"))

	_, repos := testdb.New(t)
	conf := config.Default()
	conf.StaticFilePath = t.TempDir()
	conf.StaticAvatarPath = t.TempDir()

	svc := service.NewServices(repos, nil, conf.StaticFilePath)
	gw := &recordingGateway{}
	engine := Init(conf, router.NewRouter(handler.NewHandlers(svc, gw), svc.Auth))
	return &apiEnv{engine: engine, gateway: gw}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.serve(t, req)
}

func (e *apiEnv) serve(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (e *apiEnv) register(t *testing.T, username string) respond.LoginRespond {
	t.Helper()
	code, env := e.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": username, "email": username + "@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, code, env.Msg)
	var rsp respond.LoginRespond
	require.NoError(t, json.Unmarshal(env.Data, &rsp))
	require.NotEmpty(t, rsp.AccessToken)
	return rsp
}

func TestHealthAndMetrics(t *testing.T) {
	e := newAPIEnv(t)
	code, _ := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "market_chat_http_requests_total")
}

func TestAuthRoutes(t *testing.T) {
	e := newAPIEnv(t)
	alice := e.register(t, "alice")
	assert.Equal(t, "alice", alice.Username)

	code, env := e.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "alice", "email": "other@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, errorx.CodeUserExist, env.Code)

	code, env = e.do(t, http.MethodPost, "/auth/register", "", map[string]any{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errorx.CodeInvalidParam, env.Code)

	code, _ = e.do(t, http.MethodPost, "/auth/login", "", map[string]any{"username": "alice", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = e.do(t, http.MethodPost, "/auth/login", "", map[string]any{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, code)
	var rsp respond.LoginRespond
	require.NoError(t, json.Unmarshal(env.Data, &rsp))
	assert.Equal(t, alice.Id, rsp.Id)
}

func TestMessageRoutesRequireToken(t *testing.T) {
	e := newAPIEnv(t)
	code, env := e.do(t, http.MethodGet, "/messages/chats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, errorx.CodeUnauthorized, env.Code)

	code, _ = e.do(t, http.MethodGet, "/messages/chats", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	// /wss 在升级前完成认证
	code, env = e.do(t, http.MethodGet, "/wss?token=nope", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, errorx.CodeUnauthorized, env.Code)
}

func TestWsRouteAcceptsQueryOrHeaderToken(t *testing.T) {
	e := newAPIEnv(t)
	alice := e.register(t, "alice")

	code, _ := e.do(t, http.MethodGet, "/wss?token="+alice.AccessToken, "", nil)
	assert.Equal(t, http.StatusTeapot, code)
	code, _ = e.do(t, http.MethodGet, "/wss", alice.AccessToken, nil)
	assert.Equal(t, http.StatusTeapot, code)
}

func TestMessageLifecycleOverHTTP(t *testing.T) {
	e := newAPIEnv(t)
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")

	code, env := e.do(t, http.MethodPost, "/messages", alice.AccessToken, map[string]any{
		"content": "can you start monday?", "receiverId": bob.Id,
	})
	require.Equal(t, http.StatusOK, code, env.Msg)
	var msg respond.MessageRespond
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, alice.Id, msg.SenderId)
	assert.Equal(t, 1, e.gateway.count(), "http send shares the realtime fan-out")

	code, env = e.do(t, http.MethodPost, "/messages", alice.AccessToken, map[string]any{"content": "me", "receiverId": alice.Id})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, errorx.CodeForbidden, env.Code)

	code, _ = e.do(t, http.MethodPost, "/messages", alice.AccessToken, map[string]any{"content": "no receiver"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = e.do(t, http.MethodPost, "/messages", alice.AccessToken, map[string]any{"content": "ghost", "receiverId": 99999})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 1, e.gateway.count())

	code, env = e.do(t, http.MethodGet, "/messages/chats", bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	var chats []respond.ChatRespond
	require.NoError(t, json.Unmarshal(env.Data, &chats))
	require.Len(t, chats, 1)
	assert.Equal(t, alice.Id, chats[0].CompanionId)
	assert.Equal(t, int64(1), chats[0].UnreadCount)
	assert.Equal(t, "can you start monday?", chats[0].LastMessageContent)

	code, env = e.do(t, http.MethodGet, "/messages/unread", bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"unreadCount":1}`, string(env.Data))

	code, env = e.do(t, http.MethodGet, "/messages?userId="+strconv.FormatUint(alice.Id, 10), bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	var list []respond.MessageRespond
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)

	code, env = e.do(t, http.MethodPost, "/messages/"+strconv.FormatUint(alice.Id, 10)+"/read", bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	var marked respond.MarkAsReadRespond
	require.NoError(t, json.Unmarshal(env.Data, &marked))
	assert.True(t, marked.Success)
	assert.Equal(t, int64(0), marked.UnreadCount)

	msgPath := "/messages/" + strconv.FormatUint(msg.Id, 10)
	code, env = e.do(t, http.MethodPatch, msgPath, bob.AccessToken, map[string]any{"content": "hijack"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "you can only update your own messages", env.Msg)

	code, env = e.do(t, http.MethodPatch, msgPath, alice.AccessToken, map[string]any{"content": "can you start tuesday?"})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, "can you start tuesday?", msg.Content)

	code, _ = e.do(t, http.MethodGet, msgPath, bob.AccessToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = e.do(t, http.MethodDelete, msgPath, bob.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = e.do(t, http.MethodDelete, msgPath, alice.AccessToken, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.do(t, http.MethodGet, msgPath, alice.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = e.do(t, http.MethodGet, "/messages/chats", alice.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &chats))
	require.Len(t, chats, 1)
	assert.Equal(t, "No messages", chats[0].LastMessageContent)

	code, _ = e.do(t, http.MethodGet, "/messages/abc", alice.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSendImageOverHTTP(t *testing.T) {
	e := newAPIEnv(t)
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("receiverId", strconv.FormatUint(bob.Id, 10)))
	require.NoError(t, mw.WriteField("content", "draft v2"))
	fw, err := mw.CreateFormFile("image", "draft.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/messages/with-image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice.AccessToken)
	code, env := e.serve(t, req)
	require.Equal(t, http.StatusOK, code, env.Msg)

	var msg respond.MessageRespond
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.True(t, strings.HasPrefix(msg.AttachmentUrl, "/static/files/"))
	assert.Equal(t, "draft v2", msg.Content)
	assert.Equal(t, 1, e.gateway.count())

	// 静态目录可以取回刚上传的文件
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, msg.AttachmentUrl, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// 缺少文件
	var empty bytes.Buffer
	mw = multipart.NewWriter(&empty)
	require.NoError(t, mw.WriteField("receiverId", strconv.FormatUint(bob.Id, 10)))
	require.NoError(t, mw.Close())
	req = httptest.NewRequest(http.MethodPost, "/messages/with-image", &empty)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice.AccessToken)
	code, _ = e.serve(t, req)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateMessageIgnoresClientAttachmentUrl(t *testing.T) {
	e := newAPIEnv(t)
	alice := e.register(t, "alice")
	bob := e.register(t, "bob")

	// 只带附件地址的请求视为空消息
	code, env := e.do(t, http.MethodPost, "/messages", alice.AccessToken, map[string]any{
		"receiverId": bob.Id, "attachmentUrl": "https://elsewhere.example/x.png",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, errorx.CodeInvalidParam, env.Code)

	code, env = e.do(t, http.MethodPost, "/messages", alice.AccessToken, map[string]any{
		"content": "see file", "receiverId": bob.Id, "attachmentUrl": "/static/files/someone-else.png",
	})
	require.Equal(t, http.StatusOK, code, env.Msg)
	var msg respond.MessageRespond
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Empty(t, msg.AttachmentUrl)

	code, env = e.do(t, http.MethodGet, "/messages/chats", bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	var chats []respond.ChatRespond
	require.NoError(t, json.Unmarshal(env.Data, &chats))
	require.Len(t, chats, 1)
	assert.Equal(t, "see file", chats[0].LastMessageContent)
}
