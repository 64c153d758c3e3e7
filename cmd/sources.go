package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"camhub/internal/camera"
	"camhub/internal/source"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "検出された全ソースを表示する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SOURCE\tKIND\tNAME\tSHAREABLE\tVALID")
			for _, v := range a.manager.CamerasAvailable(ctx) {
				inner := v.Inner()
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\n",
					inner.SourceString(), v.Kind(), inner.Name(), inner.IsShareable(), inner.IsValid(ctx))
			}
			return w.Flush()
		},
	}
}

func newControlsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "controls <source>",
		Short: "ソースのコントロールと現在値を表示する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			v, err := a.manager.GetVideoSource(ctx, args[0])
			if err != nil {
				return err
			}

			inner := v.Inner()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tDEFAULT\tVALUE\tSTATE")
			for _, control := range inner.Controls(ctx) {
				value := "-"
				if current, err := inner.ControlValueByID(ctx, control.ID); err == nil {
					value = strconv.FormatInt(current, 10)
				}
				state := "active"
				if control.State.IsInactive {
					state = "inactive"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
					control.ID, control.Name, describeType(control.Configuration),
					control.Configuration.DefaultValue(), value, state)
			}
			return w.Flush()
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <source> <id|name>",
		Short: "コントロールの現在値を表示する",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			v, err := a.manager.GetVideoSource(ctx, args[0])
			if err != nil {
				return err
			}

			var value int64
			if id, parseErr := strconv.ParseUint(args[1], 10, 64); parseErr == nil {
				value, err = v.Inner().ControlValueByID(ctx, id)
			} else {
				value, err = v.Inner().ControlValueByName(ctx, args[1])
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <source> <id|name> <value>",
		Short: "コントロールに値を書き込む",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			value, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("値は整数で指定してください: %s", args[2])
			}

			ctx := cmd.Context()
			id, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				// 名前からIDを引く
				v, lookupErr := a.manager.GetVideoSource(ctx, args[0])
				if lookupErr != nil {
					return lookupErr
				}
				control, ok := camera.FindControlByName(v.Inner().Controls(ctx), args[1])
				if !ok {
					return fmt.Errorf("%w: '%s'", camera.ErrControlNotFound, args[1])
				}
				id = control.ID
			}

			return a.manager.SetControl(ctx, args[0], id, value)
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <source>",
		Short: "アクティブな全コントロールを既定値に戻す",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			err = a.manager.ResetControls(cmd.Context(), args[0])
			if err == nil {
				return nil
			}

			errs := source.ResetErrors(err)
			for _, e := range errs {
				fmt.Fprintln(cmd.ErrOrStderr(), "  -", e)
			}
			return fmt.Errorf("'%s' のリセットで %d 件失敗しました", args[0], len(errs))
		},
	}
}

func newCommandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "command <source>",
		Short: "パイプラインの現在の設定に対応するffmpegコマンドを表示する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			v, err := a.manager.GetVideoSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p, ok := v.Pipeline()
			if !ok {
				return fmt.Errorf("'%s' はパイプラインではありません (%s)", args[0], v.Kind())
			}

			return printCommand(cmd.OutOrStdout(), p.Command())
		},
	}
}

func printCommand(w io.Writer, command []string) error {
	quoted := make([]string, 0, len(command))
	for _, arg := range command {
		if strings.ContainsAny(arg, " '%") {
			arg = strconv.Quote(arg)
		}
		quoted = append(quoted, arg)
	}
	_, err := fmt.Fprintln(w, strings.Join(quoted, " "))
	return err
}

// describeType はコントロールの種類と値域を文字列にする
func describeType(configuration camera.ControlType) string {
	switch c := configuration.(type) {
	case camera.BoolControl:
		return "bool"
	case camera.SliderControl:
		return fmt.Sprintf("slider[%d..%d]", c.Min, c.Max)
	case camera.MenuControl:
		values := make([]string, 0, len(c.Options))
		for _, option := range c.Options {
			if option.Name != "" {
				values = append(values, fmt.Sprintf("%d=%s", option.Value, option.Name))
			} else {
				values = append(values, strconv.FormatInt(option.Value, 10))
			}
		}
		return "menu{" + strings.Join(values, ",") + "}"
	default:
		return "unknown"
	}
}
