package graphql

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/local-api-gateway/internal/endpoint"
	"github.com/nerrad567/local-api-gateway/internal/host/hosttest"
)

func serve(t *testing.T, h http.Handler, contentType, body string) (*httptest.ResponseRecorder, result) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var res result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.raw))
	return rec, res
}

func TestHandler_ContentType(t *testing.T) {
	h := NewHandler(newExecutor(t, endpoint.AllEnabled(), hosttest.New()), nil)

	tests := []struct {
		name        string
		contentType string
		wantStatus  int
	}{
		{"missing", "", http.StatusBadRequest},
		{"text", "text/plain", http.StatusBadRequest},
		{"graphql media type", "application/graphql", http.StatusBadRequest},
		{"json", "application/json", http.StatusOK},
		{"json with charset", "application/json; charset=utf-8", http.StatusOK},
		{"upper case", "Application/JSON", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, res := serve(t, h, tt.contentType, `{"query":"{ screen }"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, MediaType, rec.Header().Get("Content-Type"))
			if tt.wantStatus == http.StatusBadRequest {
				require.Len(t, res.Errors, 1)
				assert.Contains(t, res.Errors[0].Message, "Content-Type must be application/json")
			}
		})
	}
}

func TestHandler_MalformedBodies(t *testing.T) {
	h := NewHandler(newExecutor(t, endpoint.AllEnabled(), hosttest.New()), nil)

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"not json", `{query`, "Invalid JSON body"},
		{"array", `[{"query":"{ screen }"}]`, "Request body must be a JSON object"},
		{"no query", `{"variables":{}}`, "Query is required"},
		{"empty query", `{"query":""}`, "Query is required"},
		{"query not a string", `{"query":42}`, "Query is required"},
		{"variables not an object", `{"query":"{ screen }","variables":[1]}`, "Invalid GraphQL request: /variables"},
		{"operation name not a string", `{"query":"{ screen }","operationName":7}`, "Invalid GraphQL request: /operationName"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, res := serve(t, h, MediaType, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.Len(t, res.Errors, 1)
			assert.Contains(t, res.Errors[0].Message, tt.wantMsg)
			assert.NotContains(t, res.raw, "data")
		})
	}
}

func TestHandler_NullOptionalMembers(t *testing.T) {
	h := NewHandler(newExecutor(t, endpoint.AllEnabled(), hosttest.New()), nil)

	rec, res := serve(t, h, MediaType, `{"query":"{ screen }","operationName":null,"variables":null,"extensions":null}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, res.Errors)
	assert.Contains(t, res.raw, "data")
}

func TestHandler_PartialSuccess(t *testing.T) {
	fake := hosttest.New()
	fake.SetScreen("Inventory")
	flags := endpoint.AllEnabled()
	flags[endpoint.Mods] = false
	h := NewHandler(newExecutor(t, flags, fake), nil)

	rec, res := serve(t, h, MediaType, `{"query":"{ screen mods { id } }"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Inventory", res.Data["screen"])
	assert.Nil(t, res.Data["mods"])
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Endpoint mods is disabled in the user's configuration", res.Errors[0].Message)
}

func TestHandler_ValidationErrorIsOK(t *testing.T) {
	h := NewHandler(newExecutor(t, endpoint.AllEnabled(), hosttest.New()), nil)

	rec, res := serve(t, h, MediaType, `{"query":"{ nope }"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, res.Errors)
	assert.NotContains(t, res.raw, "data")
}

func TestHandler_Variables(t *testing.T) {
	fake := hosttest.New()
	h := NewHandler(newExecutor(t, endpoint.AllEnabled(), fake), nil)

	body := `{"query":"mutation Run($c: String!) { sendChatCommand(command: $c) }","operationName":"Run","variables":{"c":"weather clear"}}`
	rec, res := serve(t, h, MediaType, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, res.Errors)
	assert.Equal(t, true, res.Data["sendChatCommand"])
	assert.Equal(t, []string{"weather clear"}, fake.Commands())
}

// ─── Introspection Tests ───────────────────────────────────────────

func TestIntrospection_Schema(t *testing.T) {
	exec := newExecutor(t, endpoint.Static{}, hosttest.New())

	res := execute(t, exec, `{ __schema { queryType { name } mutationType { name } subscriptionType { name } types { name } } }`, nil)

	require.Empty(t, res.Errors)
	schema := res.obj(t, "__schema")
	assert.Equal(t, map[string]any{"name": "Query"}, schema["queryType"])
	assert.Equal(t, map[string]any{"name": "Mutation"}, schema["mutationType"])
	assert.Nil(t, schema["subscriptionType"])

	var names []string
	for _, ty := range schema["types"].([]any) {
		names = append(names, ty.(map[string]any)["name"].(string))
	}
	assert.Subset(t, names, []string{"Query", "Mutation", "Player", "Mod", "WaypointSet", "Waypoint", "String", "Boolean", "Int", "__Schema"})
}

func TestIntrospection_Type(t *testing.T) {
	exec := newExecutor(t, endpoint.Static{}, hosttest.New())

	res := execute(t, exec, `{ __type(name: "WaypointSet") { kind name fields { name type { kind name ofType { kind name ofType { kind name } } } } } }`, nil)

	require.Empty(t, res.Errors)
	ty := res.obj(t, "__type")
	assert.Equal(t, "OBJECT", ty["kind"])
	assert.Equal(t, "WaypointSet", ty["name"])

	fields := ty["fields"].([]any)
	require.Len(t, fields, 2)
	assert.Equal(t, map[string]any{
		"name": "name",
		"type": map[string]any{
			"kind": "NON_NULL", "name": nil,
			"ofType": map[string]any{"kind": "SCALAR", "name": "String", "ofType": nil},
		},
	}, fields[0])
	assert.Equal(t, map[string]any{
		"name": "waypoints",
		"type": map[string]any{
			"kind": "NON_NULL", "name": nil,
			"ofType": map[string]any{
				"kind": "LIST", "name": nil,
				"ofType": map[string]any{"kind": "NON_NULL", "name": nil},
			},
		},
	}, fields[1])
}

func TestIntrospection_UnknownType(t *testing.T) {
	exec := newExecutor(t, endpoint.Static{}, hosttest.New())

	res := execute(t, exec, `{ __type(name: "Creeper") { name } }`, nil)

	require.Empty(t, res.Errors)
	assert.Contains(t, res.Data, "__type")
	assert.Nil(t, res.Data["__type"])
}

func TestIntrospection_MutationArgs(t *testing.T) {
	exec := newExecutor(t, endpoint.Static{}, hosttest.New())

	res := execute(t, exec, `{ __type(name: "Mutation") { fields { name args { name type { kind ofType { name } } } } } }`, nil)

	require.Empty(t, res.Errors)
	fields := res.obj(t, "__type")["fields"].([]any)
	byName := map[string]any{}
	for _, f := range fields {
		m := f.(map[string]any)
		byName[m["name"].(string)] = m["args"]
	}
	assert.Equal(t, []any{map[string]any{
		"name": "message",
		"type": map[string]any{"kind": "NON_NULL", "ofType": map[string]any{"name": "String"}},
	}}, byName["sendChatMessage"])
	assert.Contains(t, byName, "sendChatCommand")
	assert.Contains(t, byName, "createXaeroWaypointSet")
}
