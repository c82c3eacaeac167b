package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posecoach/internal/ui"
	"github.com/teslashibe/go-posecoach/pkg/coach"
	"github.com/teslashibe/go-posecoach/pkg/session"
)

func newPracticeCmd(a *app) *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:   "practice [pose]",
		Short: "Practice a pose with live feedback in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			return a.practice(cmd, key, !noSave)
		},
	}
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the session in history")
	return cmd
}

func (a *app) practice(cmd *cobra.Command, key string, save bool) error {
	ctx := cmd.Context()

	lib, err := a.library()
	if err != nil {
		return err
	}
	ex, err := exercise(lib, key)
	if err != nil {
		return err
	}
	cl, err := a.classifier()
	if err != nil {
		return err
	}

	src := a.buildSource(nil)
	var sink coach.Sink
	if save {
		st, err := a.openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		sink = st
	}

	engine, err := a.newEngine(src.source, sink)
	if err != nil {
		return err
	}

	stopFeeds, err := a.startFeeds(ctx, engine, src)
	if err != nil {
		return err
	}
	defer stopFeeds()

	p := tea.NewProgram(ui.NewModel(ex.Reference(), cl),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	unsubscribe := engine.Subscribe(ui.Forward(p))
	defer unsubscribe()

	// Events block until the program loop is running, so the session
	// starts from its own goroutine.
	startErr := make(chan error, 1)
	go func() {
		_, err := engine.Start(ctx, ex.Reference())
		startErr <- err
		if err != nil {
			p.Quit()
		}
	}()

	final, runErr := p.Run()
	if err := <-startErr; err != nil {
		return err
	}

	if m, ok := final.(ui.Model); ok {
		if sum, ended := m.Summary(); ended {
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSummary(sum))
			return nil
		}
	}

	sum, err := engine.Stop(context.WithoutCancel(ctx))
	if err != nil && !errors.Is(err, session.ErrInvalidState) {
		a.logger.Warn("stop session", "error", err)
	}
	if sum.SessionID != "" {
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSummary(sum))
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("practice view: %w", runErr)
	}
	return nil
}
