package actors

import (
	"fmt"

	"before-after/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// respond replies with value, or with an *utils.AppError when err is set.
// Errors that are not already AppErrors are reported as database errors.
func respond(context actor.Context, value interface{}, err error) {
	if err != nil {
		if appErr, ok := utils.AsAppError(err); ok {
			context.Respond(appErr)
			return
		}
		context.Respond(utils.NewDatabaseError("Storage operation failed", err))
		return
	}
	context.Respond(value)
}

func msgType(msg interface{}) string {
	return fmt.Sprintf("%T", msg)
}
