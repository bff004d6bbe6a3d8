package job

import (
	"go.uber.org/fx"
)

// Module provides the pipeline jobs and the runner to the Fx application.
// Each job is collected into the "jobs" group; the Runner indexes them by
// name.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(NewBTSJob, fx.As(new(Job)), fx.ResultTags(`group:"jobs"`)),
		fx.Annotate(NewStatesJob, fx.As(new(Job)), fx.ResultTags(`group:"jobs"`)),
		fx.Annotate(NewFeaturesJob, fx.As(new(Job)), fx.ResultTags(`group:"jobs"`)),
		fx.Annotate(NewJoinJob, fx.As(new(Job)), fx.ResultTags(`group:"jobs"`)),
		fx.Annotate(NewRegistryJob, fx.As(new(Job)), fx.ResultTags(`group:"jobs"`)),
		fx.Annotate(NewProfileJob, fx.As(new(Job)), fx.ResultTags(`group:"jobs"`)),
	),
	fx.Provide(
		fx.Annotate(NewRunner, fx.ParamTags(`group:"jobs"`, ``)),
	),
)
