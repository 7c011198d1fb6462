package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/savings-vault/vault-cranker/module/component"
	"github.com/savings-vault/vault-cranker/module/irrecoverable"
)

const (
	// RunCommandPath is the route at which admin commands are accepted.
	RunCommandPath = "/admin/run_command"

	maxRequestSize  = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// CommandRequest is a single invocation of an admin command.
type CommandRequest struct {
	// Data is the decoded data field of the request.
	Data interface{}
	// ValidatorData may be set by the command validator and is passed on to the handler.
	ValidatorData interface{}
}

// CommandHandler executes a validated request and returns the output shown to the caller.
type CommandHandler func(ctx context.Context, request *CommandRequest) (interface{}, error)

// CommandValidator checks the request data before it is handled. All errors indicate an invalid request.
type CommandValidator func(request *CommandRequest) error

// runCommandRequest is the JSON body of a run_command request.
type runCommandRequest struct {
	CommandName string      `json:"commandName"`
	Data        interface{} `json:"data"`
}

type runCommandResponse struct {
	Output interface{} `json:"output,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// CommandRunnerBootstrapper collects the commands before the runner is created.
type CommandRunnerBootstrapper struct {
	handlers   map[string]CommandHandler
	validators map[string]CommandValidator
}

func NewCommandRunnerBootstrapper() *CommandRunnerBootstrapper {
	return &CommandRunnerBootstrapper{
		handlers:   make(map[string]CommandHandler),
		validators: make(map[string]CommandValidator),
	}
}

// RegisterHandler registers the handler of command. It returns false if a handler was already registered.
func (r *CommandRunnerBootstrapper) RegisterHandler(command string, handler CommandHandler) bool {
	if _, ok := r.handlers[command]; ok {
		return false
	}
	r.handlers[command] = handler
	return true
}

// RegisterValidator registers the validator of command. It returns false if a validator was already registered.
func (r *CommandRunnerBootstrapper) RegisterValidator(command string, validator CommandValidator) bool {
	if _, ok := r.validators[command]; ok {
		return false
	}
	r.validators[command] = validator
	return true
}

// Bootstrap creates the runner serving the registered commands at address.
func (r *CommandRunnerBootstrapper) Bootstrap(log zerolog.Logger, address string) *CommandRunner {
	runner := &CommandRunner{
		log:        log.With().Str("component", "admin_command_runner").Logger(),
		address:    address,
		handlers:   r.handlers,
		validators: r.validators,
	}

	router := mux.NewRouter()
	router.HandleFunc(RunCommandPath, runner.serveRunCommand).Methods(http.MethodPost)
	runner.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	runner.ComponentManager = component.NewComponentManagerBuilder().
		AddWorker(runner.serve).
		Build()

	return runner
}

// CommandRunner serves admin commands over HTTP.
type CommandRunner struct {
	*component.ComponentManager

	log        zerolog.Logger
	address    string
	server     *http.Server
	handlers   map[string]CommandHandler
	validators map[string]CommandValidator
}

var _ component.Component = (*CommandRunner)(nil)

// Handler returns the HTTP handler of the runner.
func (r *CommandRunner) Handler() http.Handler {
	return r.server.Handler
}

// RunCommand validates and handles a single command.
// Expected errors during normal operations:
//   - ErrCommandNotFound if no handler is registered for command
//   - InvalidAdminReqError if the validator of the command rejected the data
func (r *CommandRunner) RunCommand(ctx context.Context, command string, data interface{}) (interface{}, error) {
	handler, ok := r.handlers[command]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCommandNotFound, command)
	}

	req := &CommandRequest{Data: data}
	if validator, ok := r.validators[command]; ok {
		if err := validator(req); err != nil {
			if IsInvalidAdminParameterError(err) {
				return nil, err
			}
			return nil, InvalidAdminReqError{Err: err}
		}
	}

	return handler(ctx, req)
}

func (r *CommandRunner) serve(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	listener, err := net.Listen("tcp", r.address)
	if err != nil {
		ctx.Throw(fmt.Errorf("could not listen on admin address %s: %w", r.address, err))
		return
	}
	r.log.Info().Str("address", listener.Addr().String()).Msg("admin server started")
	ready()

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := r.server.Shutdown(shutdownCtx); err != nil {
			r.log.Warn().Err(err).Msg("admin server did not shut down gracefully")
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			ctx.Throw(fmt.Errorf("admin server failed: %w", err))
		}
	}
}

func (r *CommandRunner) serveRunCommand(w http.ResponseWriter, req *http.Request) {
	var body runCommandRequest
	decoder := json.NewDecoder(io.LimitReader(req.Body, maxRequestSize))
	if err := decoder.Decode(&body); err != nil {
		r.respond(w, http.StatusBadRequest, runCommandResponse{Error: fmt.Sprintf("could not decode request: %v", err)})
		return
	}

	log := r.log.With().Str("command", body.CommandName).Logger()
	output, err := r.RunCommand(req.Context(), body.CommandName, body.Data)
	switch {
	case err == nil:
		log.Info().Msg("admin command executed")
		r.respond(w, http.StatusOK, runCommandResponse{Output: output})
	case errors.Is(err, ErrCommandNotFound):
		log.Warn().Msg("unknown admin command")
		r.respond(w, http.StatusNotFound, runCommandResponse{Error: err.Error()})
	case IsInvalidAdminParameterError(err):
		log.Warn().Err(err).Msg("invalid admin command request")
		r.respond(w, http.StatusBadRequest, runCommandResponse{Error: err.Error()})
	default:
		log.Error().Err(err).Msg("admin command failed")
		r.respond(w, http.StatusInternalServerError, runCommandResponse{Error: err.Error()})
	}
}

func (r *CommandRunner) respond(w http.ResponseWriter, status int, response runCommandResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		r.log.Warn().Err(err).Msg("could not write admin response")
	}
}
