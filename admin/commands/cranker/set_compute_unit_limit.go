package cranker

import (
	"context"
	"fmt"
	"math"

	"github.com/savings-vault/vault-cranker/admin"
	"github.com/savings-vault/vault-cranker/admin/commands"
	"github.com/savings-vault/vault-cranker/module/crank"
)

// ComputeUnitLimitSetter is implemented by crank.Builder.
type ComputeUnitLimitSetter interface {
	SetComputeUnitLimit(limit uint32) (uint32, error)
}

var _ commands.AdminCommand = (*SetComputeUnitLimitCommand)(nil)
var _ ComputeUnitLimitSetter = (*crank.Builder)(nil)

// SetComputeUnitLimitCommand changes the compute unit ceiling of subsequent crank transactions.
type SetComputeUnitLimitCommand struct {
	builder ComputeUnitLimitSetter
}

func NewSetComputeUnitLimitCommand(builder ComputeUnitLimitSetter) *SetComputeUnitLimitCommand {
	return &SetComputeUnitLimitCommand{builder: builder}
}

func (c *SetComputeUnitLimitCommand) Handler(_ context.Context, req *admin.CommandRequest) (interface{}, error) {
	limit := req.ValidatorData.(uint32)

	old, err := c.builder.SetComputeUnitLimit(limit)
	if err != nil {
		return nil, fmt.Errorf("could not set compute unit limit: %w", err)
	}
	return map[string]interface{}{
		"oldValue": old,
		"newValue": limit,
	}, nil
}

// Validator validates the request.
// Returns admin.InvalidAdminReqError for invalid/malformed requests.
func (c *SetComputeUnitLimitCommand) Validator(req *admin.CommandRequest) error {
	// JSON numbers are decoded as float64
	value, ok := req.Data.(float64)
	if !ok {
		return admin.NewInvalidAdminReqFormatError("expected a number")
	}
	if value != math.Trunc(value) || value < 1 || value > float64(crank.MaxComputeUnitLimit) {
		return admin.NewInvalidAdminReqParameterError("data", fmt.Sprintf("must be an integer in [1, %d]", crank.MaxComputeUnitLimit), value)
	}
	req.ValidatorData = uint32(value)
	return nil
}
