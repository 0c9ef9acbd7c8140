package cmd

import "go.uber.org/fx"

var Module = fx.Module("cli",
	fx.Provide(
		fx.Annotate(ddlCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(info, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(migrate, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(serve, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(syncCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(tables, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
