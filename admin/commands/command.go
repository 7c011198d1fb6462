package commands

import (
	"context"

	"github.com/savings-vault/vault-cranker/admin"
)

// AdminCommand defines the interface expected for admin command handlers.
type AdminCommand interface {
	// Validator is responsible for validating that the input forms a valid request.
	// By convention, Validator may set the ValidatorData field on the request, and
	// this will persist when the request is passed to Handler.
	// All errors indicate an invalid request, and should be admin.InvalidAdminReqError.
	Validator(request *admin.CommandRequest) error
	// Handler is responsible for handling the request. It applies any state
	// changes associated with the request and returns any values which should
	// be displayed to the initiator of the request.
	// All errors indicate a benign failure to satisfy the request.
	Handler(ctx context.Context, request *admin.CommandRequest) (interface{}, error)
}

// Register adds command to the bootstrapper under name.
// It returns false if a command was already registered under name.
func Register(bootstrapper *admin.CommandRunnerBootstrapper, name string, command AdminCommand) bool {
	if !bootstrapper.RegisterHandler(name, command.Handler) {
		return false
	}
	return bootstrapper.RegisterValidator(name, command.Validator)
}
