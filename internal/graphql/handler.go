package graphql

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/nerrad567/local-api-gateway/internal/infrastructure/logging"
)

// MediaType is the only request content type accepted.
const MediaType = "application/json"

// maxRequestBytes bounds a GraphQL request body.
const maxRequestBytes = 1 << 20

// requestSchema describes the POST body.
const requestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["query"],
  "properties": {
    "query": {"type": "string", "minLength": 1},
    "operationName": {"type": ["string", "null"]},
    "variables": {"type": ["object", "null"]},
    "extensions": {"type": ["object", "null"]}
  }
}`

var compiledRequestSchema = jsonschema.MustCompileString("graphql-request.json", requestSchema)

// Handler serves POST /graphql.
type Handler struct {
	exec   *Executor
	logger *logging.Logger
}

// NewHandler creates a Handler around exec.
func NewHandler(exec *Executor, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{exec: exec, logger: logger.With("component", "graphql")}
}

// ServeHTTP decodes the request envelope, runs it and writes the result.
// Transport problems (content type, malformed JSON, missing query) are
// answered with 400 and an errors envelope; anything that reached the
// executor is answered with 200.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !acceptedContentType(r.Header.Get("Content-Type")) {
		writeResponse(w, http.StatusBadRequest, errorResponse(gqlerror.Errorf(
			"Content-Type must be %s, got %q", MediaType, r.Header.Get("Content-Type"))))
		return
	}

	req, gerr := decodeRequest(io.LimitReader(r.Body, maxRequestBytes))
	if gerr != nil {
		writeResponse(w, http.StatusBadRequest, errorResponse(gerr))
		return
	}

	resp := h.exec.Execute(r.Context(), req)
	if len(resp.Errors) > 0 {
		h.logger.Debug("graphql request completed with errors", "errors", len(resp.Errors))
	}
	writeResponse(w, http.StatusOK, resp)
}

// acceptedContentType compares the media type case-insensitively and
// ignores parameters such as charset.
func acceptedContentType(ct string) bool {
	mt, _, _ := strings.Cut(ct, ";")
	return strings.EqualFold(strings.TrimSpace(mt), MediaType)
}

// decodeRequest parses and validates a request body. Optional members are
// only set when the client sent a non-null value.
func decodeRequest(body io.Reader) (Request, *gqlerror.Error) {
	var raw any
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return Request{}, gqlerror.Errorf("Invalid JSON body: %v", err)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return Request{}, gqlerror.Errorf("Request body must be a JSON object")
	}
	if q, _ := obj["query"].(string); q == "" {
		return Request{}, gqlerror.Errorf("Query is required")
	}
	if err := compiledRequestSchema.Validate(raw); err != nil {
		return Request{}, gqlerror.Errorf("Invalid GraphQL request: %s", schemaErrorMessage(err))
	}

	req := Request{Query: obj["query"].(string)}
	if name, ok := obj["operationName"].(string); ok {
		req.OperationName = &name
	}
	if vars, ok := obj["variables"].(map[string]any); ok {
		req.Variables = vars
	}
	if ext, ok := obj["extensions"].(map[string]any); ok {
		req.Extensions = ext
	}
	return req, nil
}

// schemaErrorMessage reports the most specific validation failure.
func schemaErrorMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}

func writeResponse(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", MediaType)
	w.WriteHeader(status)
	//nolint:errcheck // Best-effort write; the client may have gone away
	json.NewEncoder(w).Encode(resp)
}
