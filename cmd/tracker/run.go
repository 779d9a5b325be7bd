package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wfunc/dungeon-tracker/internal/config"
	apperrors "github.com/wfunc/dungeon-tracker/internal/errors"
	"github.com/wfunc/dungeon-tracker/internal/game"
	"github.com/wfunc/dungeon-tracker/internal/logger"
	"github.com/wfunc/dungeon-tracker/internal/models"
	"go.uber.org/zap"
)

func newRunCmd(app *application) *cobra.Command {
	var choices []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Record one dungeon run",
		Long: `Records one run through the five rooms and saves it as a single unit.

Choices are given as room:door[:loot], one per room in order, e.g.
  tracker run --choice 1:left --choice "2:right:Gold Coin" --choice 3:l --choice 4:r --choice 5:submit
Room 5 has no door; any value is accepted there. Without --choice on a
terminal the run is recorded interactively; enter q to cancel.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.setup(cmd); err != nil {
				return err
			}
			return runRun(cmd, app, choices)
		},
	}

	cmd.Flags().StringArrayVar(&choices, "choice", nil, "room:door[:loot], repeat once per room")
	return cmd
}

func runRun(cmd *cobra.Command, app *application, choices []string) error {
	out := cmd.OutOrStdout()
	rec := app.newRecorder()

	switch {
	case len(choices) > 0:
		for _, raw := range choices {
			room, door, loot, err := parseChoice(raw)
			if err != nil {
				return err
			}
			if err := rec.RecordChoice(room, door, loot); err != nil {
				return err
			}
		}
	case app.interactive != nil && app.interactive():
		cancelled, err := app.promptRun(cmd.Context(), out, rec)
		if err != nil {
			return err
		}
		if cancelled {
			fmt.Fprintln(out, "Run cancelled.")
			return nil
		}
	default:
		return apperrors.New(apperrors.ErrInvalidParam, "没有输入任何选择，请使用 --choice")
	}

	runDate, runID := rec.RunDate(), rec.RunID()
	rows, err := rec.Commit(cmd.Context(), app.services.Catalog)
	if err != nil {
		return err
	}
	app.logger().Debug("运行已保存", zap.String("run_id", runID), zap.Int("rows", rows))

	fmt.Fprintf(out, "Saved run %s: %d rooms recorded.\n", runDate, rows)
	return nil
}

// newRecorder 按配置创建记录器
func (a *application) newRecorder() *game.Recorder {
	tc := a.trackerConfig()

	return game.NewRecorder(a.logger(),
		game.WithClock(a.now),
		game.WithDateFormat(tc.RunDateFormat),
		game.WithLocation(tc.Location()),
	)
}

// parseChoice 解析 room:door[:loot]
func parseChoice(raw string) (int, models.Door, string, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 2 {
		return 0, "", "", apperrors.Newf(apperrors.ErrInvalidParam, "选择格式应为 room:door[:loot]: %q", raw)
	}

	room, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, "", "", apperrors.Newf(apperrors.ErrInvalidParam, "房间编号无效: %q", raw)
	}

	// 第5个房间没有门，记录器会写入提交标记
	door, ok := parseDoor(parts[1])
	if !ok && room != models.FinalRoom {
		return 0, "", "", apperrors.Newf(apperrors.ErrInvalidDoor, "门只能是 left 或 right: %q", raw)
	}
	loot := ""
	if len(parts) == 3 {
		loot = parts[2]
	}
	return room, door, loot, nil
}

// promptRun 逐个房间询问选择，返回是否取消
func (a *application) promptRun(ctx context.Context, out io.Writer, rec *game.Recorder) (bool, error) {
	known, err := a.services.Catalog.ListLootItems(ctx)
	if err != nil {
		return false, err
	}
	catalog := make(map[string]struct{}, len(known))
	for _, name := range known {
		catalog[name] = struct{}{}
	}

	if a.watch {
		// 交互期间允许修改配置文件调整日志级别
		config.Watch(func(c *config.Config) {
			logger.SetLevel(c.Log.Level)
			a.logger().Info("日志级别已更新", zap.Stringer("level", logger.Level()))
		})
	}

	fmt.Fprintf(out, "Recording run %s.\n", rec.RunDate())
	if len(known) > 0 {
		fmt.Fprintf(out, "Known loot: %s\n", strings.Join(known, ", "))
	}

	rec.OnStateChange(func(from, to game.RecorderState) {
		if to == game.StateReadyToCommit {
			fmt.Fprintln(out, "All rooms recorded.")
		}
	})
	defer rec.OnStateChange(nil)

	scanner := bufio.NewScanner(a.in)
	ask := func(prompt string) (string, bool) {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return "", false
		}
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "q") {
			return "", false
		}
		return line, true
	}
	cancel := func() (bool, error) {
		rec.Reset()
		return true, scanner.Err()
	}

	for rec.State() != game.StateReadyToCommit {
		room := rec.AwaitingRoom()
		name := models.RoomName(room)

		door := models.DoorSubmit
		if room != models.FinalRoom {
			line, ok := ask(fmt.Sprintf("%s door [l/r, q to cancel]: ", name))
			if !ok {
				return cancel()
			}
			d, valid := parseDoor(line)
			if !valid {
				fmt.Fprintf(out, "Unknown door %q, enter l or r.\n", line)
				continue
			}
			door = d
		}

		var loot string
		for {
			line, ok := ask(fmt.Sprintf("%s loot (enter for none): ", name))
			if !ok {
				return cancel()
			}
			if _, found := catalog[line]; line == "" || found {
				loot = line
				break
			}
			fmt.Fprintf(out, "Unknown loot %q. Add it with \"tracker loot add\" first.\n", line)
		}

		if err := rec.RecordChoice(room, door, loot); err != nil {
			fmt.Fprintf(out, "%v\n", err)
		}
	}

	return false, printPending(out, rec.Pending())
}
