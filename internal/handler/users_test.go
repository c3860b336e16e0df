package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sampleapi/users-service/internal/auth"
	"github.com/sampleapi/users-service/internal/handler"
	"github.com/sampleapi/users-service/internal/identity"
	"github.com/sampleapi/users-service/internal/model"
	"github.com/sampleapi/users-service/internal/pagination"
	"github.com/sampleapi/users-service/internal/repository/memory"
	"github.com/sampleapi/users-service/internal/service"
)

type api struct {
	t      *testing.T
	router *gin.Engine
	users  *memory.UserStore
	authn  *auth.Authenticator
	token  string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zerolog.New(io.Discard)
	roles := memory.NewSeededRoleStore()
	users := memory.NewUserStore(roles)
	idp := identity.NewManager(users, roles, logger, identity.WithBcryptCost(bcrypt.MinCost))
	svc := service.NewUserService(users, idp, memory.TxManager{}, 2, logger)
	authn := auth.NewAuthenticator("0123456789abcdef0123456789abcdef", "users-service", time.Hour)

	r := gin.New()
	r.Use(handler.RequestID(), handler.RequestLogger(logger))
	handler.Register(r, handler.Deps{
		Storage:        memory.Pinger{},
		Users:          svc,
		Authn:          authn.Authenticate(),
		Pagination:     pagination.Bounds{MinLimit: 10, MaxLimit: 100},
		RequestTimeout: time.Second,
	})

	token, err := authn.Issue("tester", 2, auth.AllUserPermissions)
	require.NoError(t, err)
	return &api{t: t, router: r, users: users, authn: authn, token: token}
}

func (a *api) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *api) seed(email, name string) model.User {
	a.t.Helper()
	u, err := a.users.Create(context.Background(), model.User{UserName: email, Email: email, Name: name, TenantID: 2})
	require.NoError(a.t, err)
	return u
}

func usersURL(id int64) string {
	return handler.APIV1Prefix + "/users/" + strconv.FormatInt(id, 10)
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestList_ClampsAndSetsHeaders(t *testing.T) {
	a := newAPI(t)
	for i := 0; i < 3; i++ {
		a.seed("u"+strconv.Itoa(i)+"@x.com", "U")
	}

	w := a.do(http.MethodGet, handler.APIV1Prefix+"/users?page=0&limit=1000", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1", w.Header().Get(pagination.HeaderPage))
	assert.Equal(t, "100", w.Header().Get(pagination.HeaderLimit))
	assert.Equal(t, "3", w.Header().Get(pagination.HeaderTotal))
	assert.Len(t, decode[[]model.User](t, w), 3)
	assert.NotEmpty(t, w.Header().Get(handler.HeaderRequestID))
}

func TestList_EmptyAndDefaults(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodGet, handler.APIV1Prefix+"/users?page=abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Equal(t, "1", w.Header().Get(pagination.HeaderPage))
	assert.Equal(t, "10", w.Header().Get(pagination.HeaderLimit))
	assert.Equal(t, "0", w.Header().Get(pagination.HeaderTotal))
}

func TestList_SecondPage(t *testing.T) {
	a := newAPI(t)
	for i := 0; i < 12; i++ {
		a.seed("u"+strconv.Itoa(i)+"@x.com", "U")
	}
	w := a.do(http.MethodGet, handler.APIV1Prefix+"/users?page=2&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.User](t, w), 2)
	assert.Equal(t, "12", w.Header().Get(pagination.HeaderTotal))
}

func TestList_PagePastEndIsEmpty(t *testing.T) {
	a := newAPI(t)
	for i := 0; i < 3; i++ {
		a.seed("u"+strconv.Itoa(i)+"@x.com", "U")
	}

	for _, page := range []string{"2", "4611686018427387904", "9223372036854775807"} {
		w := a.do(http.MethodGet, handler.APIV1Prefix+"/users?page="+page+"&limit=100", nil)
		require.Equal(t, http.StatusOK, w.Code, page)
		assert.JSONEq(t, `[]`, w.Body.String(), page)
		assert.Equal(t, "3", w.Header().Get(pagination.HeaderTotal))
	}
}

func TestGet(t *testing.T) {
	a := newAPI(t)
	u := a.seed("a@x.com", "Ann")

	w := a.do(http.MethodGet, usersURL(u.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.User](t, w)
	assert.Equal(t, "a@x.com", got.Email)
	assert.NotContains(t, w.Body.String(), "password")

	for _, path := range []string{usersURL(999), handler.APIV1Prefix + "/users/abc"} {
		w = a.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.JSONEq(t, `{"message":"User does not exist!"}`, w.Body.String())
	}
}

func TestCreate_OK(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodPost, handler.APIV1Prefix+"/users", map[string]any{
		"name": "Ann", "email": "ann@example.com", "password": "Secr3t!", "role_id": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"User was created successfully!"}`, w.Body.String())

	loc := w.Header().Get("Location")
	require.NotEmpty(t, loc)
	w = a.do(http.MethodGet, loc, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.User](t, w)
	assert.Equal(t, "ann@example.com", got.UserName)
	assert.Equal(t, int64(2), got.TenantID)
	assert.Equal(t, []string{"user"}, got.Roles)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	a := newAPI(t)
	a.seed("a@x.com", "Existing")

	w := a.do(http.MethodPost, handler.APIV1Prefix+"/users", map[string]any{
		"name": "Other", "email": "a@x.com", "password": "Secr3t!", "role_id": 2,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[errorBody](t, w)
	assert.Equal(t, "The request has validation errors.", body.Message)
	assert.Contains(t, body.Errors, "Email")

	n, err := a.users.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreate_BindingValidation(t *testing.T) {
	a := newAPI(t)
	cases := []struct {
		name   string
		body   any
		fields []string
	}{
		{"missing everything", map[string]any{}, []string{"Name", "Email", "Password", "RoleID"}},
		{"bad email", map[string]any{"name": "A", "email": "nope", "password": "Secr3t!", "role_id": 1}, []string{"Email"}},
		{"malformed json", `{"name":`, []string{"body"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := a.do(http.MethodPost, handler.APIV1Prefix+"/users", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			body := decode[errorBody](t, w)
			for _, f := range tc.fields {
				assert.Contains(t, body.Errors, f)
			}
		})
	}
}

func TestCreate_RoleMissingAndWeakPassword(t *testing.T) {
	a := newAPI(t)
	w := a.do(http.MethodPost, handler.APIV1Prefix+"/users", map[string]any{
		"name": "A", "email": "a@x.com", "password": "Secr3t!", "role_id": 42,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"Role does not exist"}, decode[errorBody](t, w).Errors["Role"])

	w = a.do(http.MethodPost, handler.APIV1Prefix+"/users", map[string]any{
		"name": "A", "email": "a@x.com", "password": "secret", "role_id": 2,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode[errorBody](t, w).Errors["Password"])
}

func TestUpdate_PartialMerge(t *testing.T) {
	a := newAPI(t)
	u := a.seed("a@x.com", "Ann")

	w := a.do(http.MethodPatch, usersURL(u.ID), map[string]any{"name": "X"})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Empty(t, w.Body.String())

	stored, err := a.users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "X", stored.Name)
	assert.Equal(t, "a@x.com", stored.Email)
	assert.Equal(t, u.UserName, stored.UserName)
	assert.Equal(t, u.TenantID, stored.TenantID)
}

func TestUpdate_Failures(t *testing.T) {
	a := newAPI(t)
	u := a.seed("a@x.com", "Ann")
	a.seed("b@x.com", "Bob")

	for _, body := range []map[string]any{{"name": "X"}, {"user_name": ""}, {"user_name": " ", "name": ""}} {
		w := a.do(http.MethodPatch, usersURL(999), body)
		assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
		assert.JSONEq(t, `{"message":"User does not exist!"}`, w.Body.String())
	}

	w := a.do(http.MethodPatch, usersURL(u.ID), map[string]any{"user_name": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Errors, "UserName")

	w = a.do(http.MethodPatch, usersURL(u.ID), `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPatch, usersURL(u.ID), map[string]any{"email": "b@x.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Errors, "Email")

	w = a.do(http.MethodPatch, usersURL(u.ID), map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDelete(t *testing.T) {
	a := newAPI(t)
	u := a.seed("a@x.com", "Ann")

	w := a.do(http.MethodDelete, usersURL(u.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodGet, usersURL(u.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodDelete, usersURL(5), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"User does not exist!"}`, w.Body.String())
}

func TestPermissions(t *testing.T) {
	a := newAPI(t)
	u := a.seed("a@x.com", "Ann")

	readOnly, err := a.authn.Issue("reader", 2, []string{auth.PermReadUser})
	require.NoError(t, err)

	cases := []struct {
		name   string
		token  string
		method string
		path   string
		want   int
	}{
		{"anonymous list", "", http.MethodGet, handler.APIV1Prefix + "/users", http.StatusUnauthorized},
		{"reader list", readOnly, http.MethodGet, handler.APIV1Prefix + "/users", http.StatusOK},
		{"reader create", readOnly, http.MethodPost, handler.APIV1Prefix + "/users", http.StatusForbidden},
		{"reader update", readOnly, http.MethodPatch, usersURL(u.ID), http.StatusForbidden},
		{"reader delete", readOnly, http.MethodDelete, usersURL(u.ID), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a.token = tc.token
			w := a.do(tc.method, tc.path, map[string]any{})
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}

	n, err := a.users.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestForbiddenList_HasNoPaginationHeaders(t *testing.T) {
	a := newAPI(t)
	var err error
	a.token, err = a.authn.Issue("nobody", 2, nil)
	require.NoError(t, err)

	w := a.do(http.MethodGet, handler.APIV1Prefix+"/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get(pagination.HeaderTotal))
}
