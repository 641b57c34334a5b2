// Package jobtest provides a scriptable stand-in for the generation service.
package jobtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// Response is one scripted reply
type Response struct {
	Status int
	Body   string
	Header http.Header
}

// JSON builds a response whose body is v encoded as JSON
func JSON(status int, v interface{}) Response {
	body, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("jobtest: cannot encode response: %v", err))
	}
	return Response{Status: status, Body: string(body)}
}

// Raw builds a response with a literal body
func Raw(status int, body string) Response {
	return Response{Status: status, Body: body}
}

// Server replays scripted responses per endpoint. Each queue is consumed in
// order and its last entry repeats once the rest are used up.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	generate    []Response
	statuses    map[string][]Response
	models      map[string]Response
	submissions []map[string]string
	statusCalls map[string]int
	requestIDs  []string
}

func NewServer(t testing.TB) *Server {
	s := &Server{
		statuses:    make(map[string][]Response),
		models:      make(map[string]Response),
		statusCalls: make(map[string]int),
	}

	router := mux.NewRouter()
	router.HandleFunc("/generate", s.handleGenerate).Methods(http.MethodPost)
	router.HandleFunc("/status/{taskID}", s.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/model/{taskID}", s.handleModel).Methods(http.MethodGet)

	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Close)
	return s
}

// OnGenerate scripts replies for POST /generate
func (s *Server) OnGenerate(responses ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generate = append(s.generate, responses...)
}

// OnStatus scripts replies for GET /status/{taskID}
func (s *Server) OnStatus(taskID string, responses ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[taskID] = append(s.statuses[taskID], responses...)
}

// OnModel serves body as the artifact of taskID
func (s *Server) OnModel(taskID string, body []byte, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	header := http.Header{}
	header.Set("Content-Type", "model/gltf-binary")
	if filename != "" {
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	}
	s.models[taskID] = Response{Status: http.StatusOK, Body: string(body), Header: header}
}

// Submissions returns the decoded bodies received on /generate
func (s *Server) Submissions() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]string(nil), s.submissions...)
}

// StatusCalls returns how many times the status of taskID was requested
func (s *Server) StatusCalls(taskID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCalls[taskID]
}

// RequestIDs returns the X-Request-ID headers seen so far
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	decodeErr := json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	s.requestIDs = append(s.requestIDs, r.Header.Get("X-Request-ID"))
	if decodeErr == nil {
		s.submissions = append(s.submissions, body)
	}
	resp, ok := next(&s.generate)
	s.mu.Unlock()

	if decodeErr != nil {
		write(w, JSON(http.StatusUnprocessableEntity, map[string]string{"detail": decodeErr.Error()}))
		return
	}
	if !ok {
		write(w, JSON(http.StatusInternalServerError, map[string]string{"detail": "no scripted response"}))
		return
	}
	write(w, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	s.mu.Lock()
	s.requestIDs = append(s.requestIDs, r.Header.Get("X-Request-ID"))
	s.statusCalls[taskID]++
	queue := s.statuses[taskID]
	resp, ok := next(&queue)
	s.statuses[taskID] = queue
	s.mu.Unlock()

	if !ok {
		write(w, JSON(http.StatusNotFound, map[string]string{"detail": "Task not found"}))
		return
	}
	write(w, resp)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]

	s.mu.Lock()
	resp, ok := s.models[taskID]
	s.mu.Unlock()

	if !ok {
		write(w, JSON(http.StatusNotFound, map[string]string{"detail": "Model not found"}))
		return
	}
	write(w, resp)
}

func next(queue *[]Response) (Response, bool) {
	if len(*queue) == 0 {
		return Response{}, false
	}
	resp := (*queue)[0]
	if len(*queue) > 1 {
		*queue = (*queue)[1:]
	}
	return resp, true
}

func write(w http.ResponseWriter, resp Response) {
	for key, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write([]byte(resp.Body))
}
