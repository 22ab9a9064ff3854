package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/declutter/pkg/client"
	"github.com/matzehuels/declutter/pkg/pipeline"
	"github.com/matzehuels/declutter/pkg/scene"
)

// remoteFlags select a declutter server instead of the local pipeline.
type remoteFlags struct {
	server  string
	session string
}

func (f *remoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.server, "server", envOr("SERVER", ""), "generalize on a declutter server ($DECLUTTER_SERVER)")
	cmd.Flags().StringVar(&f.session, "session", envOr("SESSION", ""), "server session to reuse ($DECLUTTER_SESSION)")
}

// execute posts the scene to the server. Without a session a new one is
// opened and its ID printed so later runs can pass it back.
func (f *remoteFlags) execute(ctx context.Context, sc *scene.Scene, opts pipeline.Options) (*pipeline.Result, error) {
	c, err := client.New(f.server)
	if err != nil {
		return nil, err
	}

	id := f.session
	if id == "" {
		sess, err := c.CreateSession(ctx)
		if err != nil {
			return nil, err
		}
		id = sess.ID
		printInfo("Opened session %s", StyleHighlight.Render(id))
		printDetail("Pass --session %s to keep placements across runs", id)
	}

	loggerFromContext(ctx).Debug("generalizing remotely", "server", f.server, "session", id)
	return c.Generalize(ctx, id, sc, opts)
}
