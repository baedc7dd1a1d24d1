package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// handleCreateSession handles POST /api/v1/session
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.CreateSession()
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create session: %v", err))
		return
	}

	response := SessionCreateResponse{
		SessionID: session.ID,
		CreatedAt: session.CreatedAt,
	}

	writeJSON(w, http.StatusCreated, response)
}

// handleListSessions handles GET /api/v1/session
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.sessions.ListSessions()

	response := map[string]interface{}{
		"sessions": ids,
		"count":    len(ids),
	}

	writeJSON(w, http.StatusOK, response)
}

// handleGetSessionStatus handles GET /api/v1/session/{id}
func (s *Server) handleGetSessionStatus(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	response := SessionStatusResponse{
		SessionID:  sessionID,
		Loaded:     session.Chunk != nil,
		IP:         session.Debugger.VM.IP(),
		StackDepth: session.Debugger.VM.StackDepth(),
		Running:    session.Debugger.Running,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleDestroySession handles DELETE /api/v1/session/{id}
func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if err := s.sessions.DestroySession(sessionID); err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Session destroyed",
	})
}

// handleLoadProgram handles POST /api/v1/session/{id}/load
func (s *Server) handleLoadProgram(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req LoadProgramRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session.Debugger.VM.TraceExecution = req.TraceExecution

	ok, diags := s.sessions.LoadSource(session, req.Source)
	if !ok {
		debugLog("session %s: compile failed: %v", sessionID, diags.AsError())
		errList := make([]string, len(diags.Errors))
		for i, e := range diags.Errors {
			errList[i] = e.Error()
		}
		writeJSON(w, http.StatusBadRequest, LoadProgramResponse{Success: false, Errors: errList})
		return
	}

	writeJSON(w, http.StatusOK, LoadProgramResponse{Success: true})
}

// handleRun handles POST /api/v1/session/{id}/run, running to completion
// or to the first breakpoint hit.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if session.Chunk == nil {
		writeError(w, http.StatusConflict, "No program loaded")
		return
	}

	if err := session.Debugger.ExecuteCommand("continue"); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.publishState(sessionID, session)
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: session.Debugger.GetOutput()})
}

// handleStop handles POST /api/v1/session/{id}/stop
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	session.Debugger.Running = false
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handleStep handles POST /api/v1/session/{id}/step
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if session.Chunk == nil {
		writeError(w, http.StatusConflict, "No program loaded")
		return
	}

	if err := session.Debugger.ExecuteCommand("step"); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.publishState(sessionID, session)
	s.handleGetSessionStatus(w, r, sessionID)
}

// handleReset handles POST /api/v1/session/{id}/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if session.Chunk == nil {
		writeError(w, http.StatusConflict, "No program loaded")
		return
	}
	if err := session.Debugger.ExecuteCommand("reset"); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handleGetStack handles GET /api/v1/session/{id}/stack
func (s *Server) handleGetStack(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	depth := session.Debugger.VM.StackDepth()
	values := make([]string, depth)
	for i := 0; i < depth; i++ {
		values[i] = session.Debugger.VM.StackSlot(i).String()
	}

	writeJSON(w, http.StatusOK, StackResponse{IP: session.Debugger.VM.IP(), Values: values})
}

// handleGetDisassembly handles GET /api/v1/session/{id}/disassembly
func (s *Server) handleGetDisassembly(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if session.Chunk == nil {
		writeError(w, http.StatusConflict, "No program loaded")
		return
	}

	writeJSON(w, http.StatusOK, DisassemblyResponse{Listing: session.Chunk.Disassemble(sessionID)})
}

// handleGetConsoleOutput handles GET /api/v1/session/{id}/console
func (s *Server) handleGetConsoleOutput(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	output := session.Debugger.GetOutput()
	if programOut, ok := session.Debugger.VM.Stdout.(*SessionOutputWriter); ok {
		output += programOut.Drain()
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: output})
}

// handleBreakpoint handles POST /api/v1/session/{id}/breakpoint
func (s *Server) handleBreakpoint(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req BreakpointRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	bp := session.Debugger.Breakpoints.AddBreakpoint(req.Offset, req.Temporary)
	writeJSON(w, http.StatusCreated, BreakpointInfo{ID: bp.ID, Offset: bp.Offset, Enabled: bp.Enabled, HitCount: bp.HitCount})
}

// handleListBreakpoints handles GET /api/v1/session/{id}/breakpoints
func (s *Server) handleListBreakpoints(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	all := session.Debugger.Breakpoints.GetAllBreakpoints()
	infos := make([]BreakpointInfo, len(all))
	for i, bp := range all {
		infos[i] = BreakpointInfo{ID: bp.ID, Offset: bp.Offset, Enabled: bp.Enabled, HitCount: bp.HitCount}
	}
	writeJSON(w, http.StatusOK, BreakpointsResponse{Breakpoints: infos})
}

// handleDeleteBreakpoint handles DELETE /api/v1/session/{id}/breakpoint/{breakpointID}
func (s *Server) handleDeleteBreakpoint(w http.ResponseWriter, r *http.Request, sessionID string, breakpointID int) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	if err := session.Debugger.Breakpoints.DeleteBreakpoint(breakpointID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handleEvaluateExpression handles POST /api/v1/session/{id}/evaluate
func (s *Server) handleEvaluateExpression(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req EvaluateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := session.Debugger.Evaluator.EvaluateExpression(req.Expression, session.Debugger.VM)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, EvaluateResponse{Value: result})
}

// publishState publishes the VM's current IP and stack depth onto the
// session event bus for any watching WebSocket client. Program output
// doesn't need a similar call here: the VM's Stdout writer, installed
// in SessionManager.CreateSession, already publishes it as it's printed.
func (s *Server) publishState(sessionID string, session *Session) {
	if s.bus == nil {
		return
	}
	s.bus.PublishState(sessionID, map[string]interface{}{
		"ip":         session.Debugger.VM.IP(),
		"stackDepth": session.Debugger.VM.StackDepth(),
		"running":    session.Debugger.Running,
	})
}

// parseIntSegment parses a non-negative integer path segment, used for
// breakpoint IDs embedded in the URL.
func parseIntSegment(segment string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(segment))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid id %q", segment)
	}
	return n, nil
}
