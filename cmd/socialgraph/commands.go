package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/efebarandurmaz/socialgraph/internal/export"
	"github.com/efebarandurmaz/socialgraph/internal/network"
)

// attributeFlags maps register flags to the attribute they set.
var attributeFlags = []struct {
	flag string
	key  network.AttributeKey
	help string
}{
	{"department", network.AttrDepartment, "Department"},
	{"role", network.AttrRole, "Role, e.g. student or teacher"},
	{"interest", network.AttrInterest, "Area of interest"},
	{"activity", network.AttrFavoriteActivity, "Favorite activity"},
	{"goal", network.AttrLifeGoal, "Life goal"},
}

func parseKey(s string) network.AttributeKey {
	if key, ok := network.ParseAttributeKey(s); ok {
		return key
	}
	return network.AttributeKey(s)
}

func notFound(id string) error {
	return &network.Error{Kind: network.KindNotFound, ID: id}
}

func newRegisterCmd(a *app) *cobra.Command {
	values := make([]string, len(attributeFlags))

	cmd := &cobra.Command{
		Use:   "register <id>",
		Short: "Register a new member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			attrs := network.Attributes{}
			details := map[string]string{}
			for i, f := range attributeFlags {
				// Only flags given on the command line are set; an omitted flag
				// leaves the attribute unset rather than empty.
				if cmd.Flags().Changed(f.flag) {
					attrs[f.key] = values[i]
					details[string(f.key)] = values[i]
				}
			}

			err := a.op(cmd.Context(), "register", func(ctx context.Context) (int, error) {
				err := a.checkRosterID(id)
				for _, f := range attributeFlags {
					if v, ok := attrs[f.key]; ok && err == nil {
						err = a.checkRosterValue(id, f.key, v)
					}
				}
				if err == nil {
					err = a.net.Register(id, attrs)
				}
				a.audit.LogRegister(ctx, id, details, err)
				return 1, err
			}, attribute.String("member.id", id))
			if err != nil {
				return err
			}

			a.mutated()
			a.log.Info("member registered", zap.String("id", id))
			a.printer().Success("registered %s", id)
			return nil
		},
	}

	for i, f := range attributeFlags {
		cmd.Flags().StringVar(&values[i], f.flag, "", f.help)
	}
	return cmd
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <attribute> <value>",
		Short: "Set a profile attribute on an existing member",
		Long: `Set a profile attribute on an existing member.

Known attributes are department, role, interest, favoriteActivity and lifeGoal.
The aliases dept, activity, game, goal and aim are accepted.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, key, value := args[0], parseKey(args[1]), args[2]

			err := a.op(cmd.Context(), "set_attribute", func(ctx context.Context) (int, error) {
				err := a.checkRosterValue(id, key, value)
				if err == nil {
					err = a.net.SetAttribute(id, key, value)
				}
				a.audit.LogAttributeUpdate(ctx, id, string(key), value, err)
				return 1, err
			}, attribute.String("member.id", id), attribute.String("member.attribute", string(key)))
			if err != nil {
				return err
			}

			a.mutated()
			a.printer().Success("set %s of %s to %s", key, id, value)
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a member's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m network.Member
			err := a.op(cmd.Context(), "member", func(ctx context.Context) (int, error) {
				var ok bool
				if m, ok = a.net.Member(args[0]); !ok {
					return 0, notFound(args[0])
				}
				return 1, nil
			})
			if err != nil {
				return err
			}
			return a.printer().Member(m)
		},
	}
}

func newMembersCmd(a *app) *cobra.Command {
	var by, value string

	cmd := &cobra.Command{
		Use:   "members",
		Short: "List members, optionally those with an attribute value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var members []network.Member
			title := "Members"

			if by == "" {
				err := a.op(cmd.Context(), "members", func(ctx context.Context) (int, error) {
					members = a.net.Members()
					return len(members), nil
				})
				if err != nil {
					return err
				}
				return a.printer().Members(title, members)
			}

			key := parseKey(by)
			title = fmt.Sprintf("Members with %s %s", key, value)
			err := a.op(cmd.Context(), "list_by_attribute", func(ctx context.Context) (int, error) {
				for _, id := range a.net.ListByAttribute(key, value) {
					if m, ok := a.net.Member(id); ok {
						members = append(members, m)
					}
				}
				return len(members), nil
			}, attribute.String("member.attribute", string(key)))
			if err != nil {
				return err
			}
			return a.printer().Members(title, members)
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "Attribute to filter on (department, role, interest, activity, goal)")
	cmd.Flags().StringVar(&value, "value", "", "Attribute value to match")
	cmd.MarkFlagsRequiredTogether("by", "value")
	return cmd
}

func newConnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <a> <b>",
		Short: "Connect two registered members",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, y := args[0], args[1]
			err := a.op(cmd.Context(), "connect", func(ctx context.Context) (int, error) {
				err := a.net.Connect(x, y)
				a.audit.LogConnect(ctx, x, y, err)
				return 1, err
			}, attribute.String("member.id", x), attribute.String("member.other", y))
			if err != nil {
				return err
			}

			a.mutated()
			a.log.Info("members connected", zap.String("a", x), zap.String("b", y))
			a.printer().Success("connected %s and %s", x, y)
			return nil
		},
	}
}

func newNetworkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "network",
		Short: "Show every member with their connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.printer()
			if p.JSON() {
				var data []byte
				err := a.op(cmd.Context(), "graph", func(ctx context.Context) (int, error) {
					var err error
					data, err = export.JSON(a.net, a.cfg.Export.GraphName)
					return a.net.MemberCount(), err
				})
				if err != nil {
					return err
				}
				p.Text(string(data))
				return nil
			}

			var overview string
			err := a.op(cmd.Context(), "overview", func(ctx context.Context) (int, error) {
				overview = export.Overview(a.net)
				return a.net.MemberCount(), nil
			})
			if err != nil {
				return err
			}
			p.Text(overview)
			return nil
		},
	}
}

func newPathCmd(a *app) *cobra.Command {
	var distanceOnly bool

	cmd := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Find the shortest chain of connections between two members",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to := args[0], args[1]
			attrs := []attribute.KeyValue{attribute.String("member.id", from), attribute.String("member.other", to)}

			if distanceOnly {
				var (
					hops  int
					found bool
				)
				err := a.op(cmd.Context(), "distance", func(ctx context.Context) (int, error) {
					hops, found = a.net.Distance(from, to)
					return hops, nil
				}, attrs...)
				if err != nil {
					return err
				}
				return a.printer().Distance(from, to, hops, found)
			}

			var (
				path  []string
				found bool
			)
			err := a.op(cmd.Context(), "shortest_path", func(ctx context.Context) (int, error) {
				path, found = a.net.ShortestPath(from, to)
				return len(path), nil
			}, attrs...)
			if err != nil {
				return err
			}
			return a.printer().Path(from, to, path, found)
		},
	}

	cmd.Flags().BoolVar(&distanceOnly, "distance", false, "Print only the number of hops")
	return cmd
}

func newMutualCmd(a *app) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "mutual <a> <b>",
		Short: "List connections two members share",
		Long: `List connections two members share.

With --filter, only mutual connections whose attribute equals the first
member's value are listed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, y := args[0], args[1]
			var ids []string
			title := fmt.Sprintf("Mutual connections of %s and %s", x, y)

			name, fn := "mutual", func(ctx context.Context) (int, error) {
				ids = a.net.MutualConnections(x, y)
				return len(ids), nil
			}
			if filter != "" {
				key := parseKey(filter)
				title = fmt.Sprintf("%s sharing %s's %s", title, x, key)
				name, fn = "mutual_filtered", func(ctx context.Context) (int, error) {
					ids = a.net.MutualFiltered(x, y, key)
					return len(ids), nil
				}
			}

			if err := a.op(cmd.Context(), name, fn, attribute.String("member.id", x), attribute.String("member.other", y)); err != nil {
				return err
			}
			return a.printer().IDs(title, ids)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Attribute the mutual connection must share with <a>")
	return cmd
}

func newSuggestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <id>",
		Short: "Suggest new connections by shared neighbors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var suggestions []network.Suggestion
			err := a.op(cmd.Context(), "suggest", func(ctx context.Context) (int, error) {
				suggestions = a.net.Suggest(args[0])
				return len(suggestions), nil
			}, attribute.String("member.id", args[0]))
			if err != nil {
				return err
			}
			return a.printer().Suggestions(args[0], suggestions)
		},
	}
}

func newMatrixCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "matrix",
		Short: "Print the adjacency matrix in registration order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var matrix string
			err := a.op(cmd.Context(), "adjacency_matrix", func(ctx context.Context) (int, error) {
				matrix = export.AdjacencyMatrix(a.net)
				return a.net.MemberCount(), nil
			})
			if err != nil {
				return err
			}
			a.printer().Text(matrix)
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show network statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats export.GraphStats
			err := a.op(cmd.Context(), "stats", func(ctx context.Context) (int, error) {
				stats = export.ComputeStats(a.net)
				return stats.TotalMembers, nil
			})
			if err != nil {
				return err
			}

			p := a.printer()
			if p.JSON() {
				return p.Value(stats)
			}
			p.Box(export.FormatStats(stats))
			return nil
		},
	}
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the network to the configured storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.save(cmd.Context()); err != nil {
				return err
			}
			a.printer().Success("saved %d members to %s storage", a.net.MemberCount(), a.backendName())
			return nil
		},
	}
}
