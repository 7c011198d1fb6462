package common

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/savings-vault/vault-cranker/admin"
	"github.com/savings-vault/vault-cranker/admin/commands"
)

var _ commands.AdminCommand = (*SetLogLevelCommand)(nil)

// SetLogLevelCommand changes the global log level of the process.
type SetLogLevelCommand struct{}

func (s *SetLogLevelCommand) Handler(_ context.Context, req *admin.CommandRequest) (interface{}, error) {
	level := req.ValidatorData.(zerolog.Level)
	old := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(level)

	return map[string]interface{}{
		"oldValue": old.String(),
		"newValue": level.String(),
	}, nil
}

// Validator validates the request.
// Returns admin.InvalidAdminReqError for invalid/malformed requests.
func (s *SetLogLevelCommand) Validator(req *admin.CommandRequest) error {
	value, ok := req.Data.(string)
	if !ok {
		return admin.NewInvalidAdminReqFormatError("expected a log level string")
	}
	level, err := zerolog.ParseLevel(value)
	if err != nil || level == zerolog.NoLevel {
		return admin.NewInvalidAdminReqParameterError("data", "unknown log level", value)
	}
	req.ValidatorData = level
	return nil
}
