package cranker

import (
	"context"

	"github.com/savings-vault/vault-cranker/admin"
	"github.com/savings-vault/vault-cranker/admin/commands"
	"github.com/savings-vault/vault-cranker/module/scheduler"
)

// Schedules gives access to the schedulers of all cranked pairs. It is implemented by scheduler.Runner.
type Schedules interface {
	States() []scheduler.State
	Trigger(pair scheduler.Pair) bool
	TriggerAll()
}

var _ commands.AdminCommand = (*CrankNowCommand)(nil)
var _ Schedules = (*scheduler.Runner)(nil)

// CrankNowCommand starts a crank cycle immediately, regardless of whether the pair is due.
// The data field is either empty, to crank every pair, or a single "wallet/asset" pair.
type CrankNowCommand struct {
	schedules Schedules
}

func NewCrankNowCommand(schedules Schedules) *CrankNowCommand {
	return &CrankNowCommand{schedules: schedules}
}

func (c *CrankNowCommand) Handler(_ context.Context, req *admin.CommandRequest) (interface{}, error) {
	pair, ok := req.ValidatorData.(scheduler.Pair)
	if !ok {
		c.schedules.TriggerAll()
		triggered := make([]string, 0)
		for _, state := range c.schedules.States() {
			triggered = append(triggered, state.Pair.String())
		}
		return map[string]interface{}{"triggered": triggered}, nil
	}

	if !c.schedules.Trigger(pair) {
		return nil, admin.NewInvalidAdminReqParameterError("data", "pair is not cranked", pair.String())
	}
	return map[string]interface{}{"triggered": []string{pair.String()}}, nil
}

// Validator validates the request.
// Returns admin.InvalidAdminReqError for invalid/malformed requests.
func (c *CrankNowCommand) Validator(req *admin.CommandRequest) error {
	if req.Data == nil {
		return nil
	}

	s, ok := req.Data.(string)
	if !ok {
		return admin.NewInvalidAdminReqFormatError("expected a wallet/asset string or no data")
	}
	pair, err := scheduler.ParsePair(s)
	if err != nil {
		return admin.NewInvalidAdminReqParameterError("data", err.Error(), s)
	}
	req.ValidatorData = pair
	return nil
}
