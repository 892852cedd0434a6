package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	scriptapi "google.golang.org/api/script/v1"
)

// StackFrame is one frame of an Apps Script stack trace
type StackFrame struct {
	Function string
	Line     int64
}

// ScriptError is the structured form of an error returned by a script
// that executed but failed. Distinct from transport errors, which mean
// the script likely never ran.
type ScriptError struct {
	Type    string
	Message string
	Frames  []StackFrame
}

// ErrorHandler processes a script-level error and produces the value
// returned to the caller in its place.
type ErrorHandler func(*ScriptError) interface{}

// LogScriptError is the default handler: it logs the message and any
// stack frames, then returns the literal string "Error".
func LogScriptError(scriptErr *ScriptError) interface{} {
	log.Error().Str("error_message", scriptErr.Message).Msg("Script error")
	if len(scriptErr.Frames) > 0 {
		log.Error().Msg("Script error stacktrace follows")
		for _, frame := range scriptErr.Frames {
			log.Error().
				Str("function", frame.Function).
				Int64("line", frame.Line).
				Msg("Script stack frame")
		}
	}
	return "Error"
}

// Runner invokes functions in one Apps Script project
type Runner struct {
	service  *scriptapi.Service
	scriptID string
	handler  ErrorHandler
}

// NewRunner creates a runner for the script identified by settings,
// using LogScriptError for script-level failures.
func NewRunner(service *scriptapi.Service, settings *Settings) *Runner {
	return &Runner{
		service:  service,
		scriptID: settings.ScriptID(),
		handler:  LogScriptError,
	}
}

// WithErrorHandler replaces the script-level error handler
func (r *Runner) WithErrorHandler(handler ErrorHandler) *Runner {
	r.handler = handler
	return r
}

// Call runs a script function and returns its result. devMode true runs
// the latest saved code rather than the last deployment.
//
// A script-level error is passed to the handler exactly once and the
// handler's value returned without error. A transport-level failure is
// logged raw and returned; the script likely never executed.
func (r *Runner) Call(ctx context.Context, function string, parameters []interface{}, devMode bool) (interface{}, error) {
	request := &scriptapi.ExecutionRequest{
		Function:   function,
		Parameters: parameters,
		DevMode:    devMode,
	}

	log.Debug().
		Str("function", function).
		Bool("dev_mode", devMode).
		Str("script_id", r.scriptID).
		Msg("Calling Apps Script")

	op, err := r.service.Scripts.Run(r.scriptID, request).Context(ctx).Do()
	if err != nil {
		logTransportError(err)
		return nil, fmt.Errorf("apps script call failed: %w", err)
	}

	if op.Error != nil {
		return r.handler(decodeScriptError(op.Error)), nil
	}

	return decodeResult(op.Response)
}

// decodeScriptError extracts the first structured error detail. The
// detail shape comes from the Apps Script execution API: errorMessage,
// errorType, and scriptStackTraceElements.
func decodeScriptError(status *scriptapi.Status) *ScriptError {
	scriptErr := &ScriptError{Message: status.Message}
	if len(status.Details) == 0 {
		return scriptErr
	}

	var detail struct {
		ErrorMessage string `json:"errorMessage"`
		ErrorType    string `json:"errorType"`
		Trace        []struct {
			Function   string `json:"function"`
			LineNumber int64  `json:"lineNumber"`
		} `json:"scriptStackTraceElements"`
	}

	if err := json.Unmarshal(status.Details[0], &detail); err != nil {
		log.Warn().Err(err).Msg("Unparseable script error detail")
		return scriptErr
	}

	if detail.ErrorMessage != "" {
		scriptErr.Message = detail.ErrorMessage
	}
	scriptErr.Type = detail.ErrorType
	for _, frame := range detail.Trace {
		scriptErr.Frames = append(scriptErr.Frames, StackFrame{
			Function: frame.Function,
			Line:     frame.LineNumber,
		})
	}

	return scriptErr
}

// decodeResult unwraps the result field of a successful execution,
// returning an empty map when the script produced nothing.
func decodeResult(raw googleapi.RawMessage) (interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}

	var response struct {
		Result interface{} `json:"result"`
	}
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("failed to decode script response: %w", err)
	}

	if response.Result == nil {
		return map[string]interface{}{}, nil
	}
	return response.Result, nil
}

// logTransportError logs the raw error content of an HTTP-level failure
func logTransportError(err error) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		log.Error().
			Int("status", apiErr.Code).
			Str("body", apiErr.Body).
			Msg("Apps Script transport error")
		return
	}
	log.Error().Err(err).Msg("Apps Script transport error")
}
