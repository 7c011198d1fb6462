package cranker

import (
	"context"
	"time"

	"github.com/savings-vault/vault-cranker/admin"
	"github.com/savings-vault/vault-cranker/admin/commands"
)

var _ commands.AdminCommand = (*ListSchedulesCommand)(nil)

// ListSchedulesCommand returns the schedule of every cranked pair.
type ListSchedulesCommand struct {
	schedules Schedules
}

func NewListSchedulesCommand(schedules Schedules) *ListSchedulesCommand {
	return &ListSchedulesCommand{schedules: schedules}
}

func (c *ListSchedulesCommand) Handler(_ context.Context, _ *admin.CommandRequest) (interface{}, error) {
	states := c.schedules.States()
	result := make([]map[string]interface{}, 0, len(states))
	for _, state := range states {
		result = append(result, map[string]interface{}{
			"wallet":                  state.Pair.Wallet.String(),
			"asset":                   state.Pair.Asset.String(),
			"lastExecution":           formatTime(state.LastExecution),
			"nextDue":                 formatTime(state.NextDue),
			"lastAttempt":             formatTime(state.LastAttempt),
			"lastError":               state.LastError,
			"consecutiveFailures":     state.ConsecutiveFailures,
			"consecutiveMissingVault": state.ConsecutiveMissingVault,
			"heldUntil":               formatTime(state.HeldUntil),
		})
	}
	return result, nil
}

func (c *ListSchedulesCommand) Validator(req *admin.CommandRequest) error {
	if req.Data != nil {
		return admin.NewInvalidAdminReqFormatError("expected no data")
	}
	return nil
}

// formatTime renders t in RFC3339, or an empty string if t is not set.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
