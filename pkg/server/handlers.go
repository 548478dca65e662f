package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/elormyevu/nku-gateway/pkg/gateway"
)

// translateRequest is the JSON body for POST /v1/translate. Pointer fields
// distinguish absent from empty so the validator can report "required".
type translateRequest struct {
	Text           *string `json:"text"`
	SourceLanguage *string `json:"source_language"`
	TargetLanguage *string `json:"target_language"`
	Glossary       string  `json:"glossary,omitempty"`
}

// triageRequest is the JSON body for POST /v1/triage.
type triageRequest struct {
	Symptoms *string `json:"symptoms"`
}

// taskResponse is the success body for both task endpoints.
type taskResponse struct {
	Output   string   `json:"output"`
	Warnings []string `json:"warnings,omitempty"`
}

// errorResponse is the failure body. Message never carries user input or
// matched pattern text.
type errorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// httpRequestMetadata adapts *http.Request to the identity resolver's view
// of a transport request.
type httpRequestMetadata struct {
	r *http.Request
}

func (m httpRequestMetadata) Header(name string) string { return m.r.Header.Get(name) }
func (m httpRequestMetadata) RemoteAddr() string        { return m.r.RemoteAddr }

// taskHandler builds the handler for one task endpoint.
func (s *Server) taskHandler(task gateway.TaskKind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST", 0)
			return
		}
		if !jsonContentType(r) {
			writeError(w, http.StatusUnsupportedMediaType, "unsupported_media_type",
				"Content-Type must be application/json", 0)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

		req, err := decodeTaskRequest(task, r)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, http.StatusRequestEntityTooLarge, "request_too_large",
					"request body exceeds limit", 0)
				return
			}
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body", 0)
			return
		}
		req.Metadata = httpRequestMetadata{r: r}

		result, err := s.gateway.Handle(r.Context(), req)
		if err != nil {
			s.writeRejection(w, err)
			return
		}

		writeJSON(w, http.StatusOK, taskResponse{
			Output:   result.Output,
			Warnings: result.Warnings,
		})
	})
}

func decodeTaskRequest(task gateway.TaskKind, r *http.Request) (*gateway.Request, error) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	switch task {
	case gateway.TaskTriage:
		var body triageRequest
		if err := dec.Decode(&body); err != nil {
			return nil, err
		}
		return &gateway.Request{
			Task: gateway.TaskTriage,
			Text: body.Symptoms,
		}, nil
	default:
		var body translateRequest
		if err := dec.Decode(&body); err != nil {
			return nil, err
		}
		return &gateway.Request{
			Task:           gateway.TaskTranslate,
			Text:           body.Text,
			SourceLanguage: body.SourceLanguage,
			TargetLanguage: body.TargetLanguage,
			Glossary:       body.Glossary,
		}, nil
	}
}

// writeRejection maps a pipeline error to an HTTP response. Unrecognized
// errors are internal faults and get a generic 500.
func (s *Server) writeRejection(w http.ResponseWriter, err error) {
	rej, ok := gateway.AsRejection(err)
	if !ok {
		s.logger.Error("unhandled gateway error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", 0)
		return
	}

	switch rej.Kind {
	case gateway.KindValidationError:
		writeError(w, http.StatusBadRequest, rej.Kind, rej.Message, 0)
	case gateway.KindRateLimitExceeded:
		w.Header().Set("Retry-After", strconv.Itoa(rej.RetryAfter))
		writeError(w, http.StatusTooManyRequests, rej.Kind, rej.Message, rej.RetryAfter)
	case gateway.KindGenerationFailed:
		writeError(w, http.StatusBadGateway, rej.Kind, rej.Message, 0)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", 0)
	}
}

func jsonContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, kind, message string, retryAfter int) {
	writeJSON(w, status, errorResponse{Error: kind, Message: message, RetryAfter: retryAfter})
}
