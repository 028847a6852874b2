// Package cli exposes a frood Dispatcher as cobra commands, so an application can
// run actions from a shell:
//
//	myapp run blog public post create title=hello tags='["go","frood"]' cover=@cover.png
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/toyz/frood/pkg/frood"
)

// ErrBogusArgument is returned for arguments not of the form name=value
var ErrBogusArgument = errors.New("bogus parameter")

// ParseArgs converts name=value arguments into Parameters. A value holding a JSON array
// literal decodes to a list and "@path" attaches the file at path.
func ParseArgs(args []string) (*frood.Parameters, error) {
	values := make(map[string]any, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("%w: %s", ErrBogusArgument, arg)
		}

		switch {
		case strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]"):
			list, err := decodeList(value)
			if err != nil {
				values[name] = value
				continue
			}
			values[name] = list
		case strings.HasPrefix(value, "@") && len(value) > 1:
			file, err := fileParameter(value[1:])
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", name, err)
			}
			values[name] = file
		default:
			values[name] = value
		}
	}
	return frood.NewParameters(values), nil
}

// decodeList decodes a JSON array literal. Whole numbers become ints so they cast to
// integer parameters.
func decodeList(literal string) ([]any, error) {
	dec := json.NewDecoder(strings.NewReader(literal))
	dec.UseNumber()

	var list []any
	if err := dec.Decode(&list); err != nil {
		return nil, err
	}
	for i, v := range list {
		list[i] = plainNumbers(v)
	}
	return list, nil
}

func plainNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := strconv.Atoi(val.String()); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []any:
		for i := range val {
			val[i] = plainNumbers(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = plainNumbers(val[k])
		}
		return val
	}
	return v
}

func fileParameter(path string) (*frood.FileParameter, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return frood.NewFileParameter(path, filepath.Base(path), info.Size(), nil), nil
}

// NewRunCommand returns the "run" command, which dispatches one action and writes the
// rendered body to stdout
func NewRunCommand(d *frood.Dispatcher) *cobra.Command {
	return newRunCommand(func() (*frood.Dispatcher, error) { return d, nil })
}

func newRunCommand(dispatcher func() (*frood.Dispatcher, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "run <module> <sub-module> <controller> <action> [name=value...]",
		Short: "Dispatch an action from the command line",
		Long: `Dispatch an action from the command line.

Parameters are given as name=value. Values holding a JSON array literal, such as
ids=[1,2,3], are decoded to lists and name=@path attaches a file.`,
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := ParseArgs(args[4:])
			if err != nil {
				return err
			}

			d, err := dispatcher()
			if err != nil {
				return err
			}

			req := frood.NewRouteRequest(args[0], args[1], args[2], args[3], params)
			res, err := d.Dispatch(cmd.Context(), req)
			if err != nil {
				return err
			}

			if res.Location != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "redirect %d: %s\n", res.StatusCode, res.Location)
				return nil
			}
			_, err = cmd.OutOrStdout().Write(res.Body)
			return err
		},
	}
}

// NewRoutesCommand returns the "routes" command, which lists the registered actions
func NewRoutesCommand(reg *frood.Registry) *cobra.Command {
	var module string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the registered actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			actions := reg.Actions()
			if module != "" {
				actions = reg.ActionsByModule(module)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tCONTROLLER\tPARAMETERS")
			for _, a := range actions {
				fmt.Fprintf(w, "%s\t%s\t%s\n", a.Path(), a.Key(), describeParams(a))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&module, "module", "m", "", "only list actions of this module")
	return cmd
}

// NewRouteCommand returns the "route" command, which shows where a URI is routed to
// without dispatching it
func NewRouteCommand(configuration func() (*frood.Configuration, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "route <uri>",
		Short: "Show the module, sub-module, controller and action a URI routes to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := configuration()
			if err != nil {
				return err
			}

			req := frood.NewRequest(args[0], nil)
			if err := fc.Route(req); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, req.String())
			fmt.Fprintf(out, "controller: %s\n", frood.ControllerKey(req.Module(), req.SubModule(), req.Controller()))
			fmt.Fprintf(out, "method: %s\n", frood.ActionMethod(req.Action()))
			if req.Parameters().Len() > 0 {
				fmt.Fprintf(out, "parameters: %s\n", req.Parameters())
			}
			return nil
		},
	}
}

func describeParams(a frood.ActionInfo) string {
	switch {
	case a.Err != nil:
		return "invalid: " + a.Err.Error()
	case a.Raw:
		return "(raw)"
	case len(a.Params) == 0:
		return "-"
	}
	specs := make([]string, len(a.Params))
	for i, p := range a.Params {
		specs[i] = p.String()
	}
	return strings.Join(specs, ", ")
}
