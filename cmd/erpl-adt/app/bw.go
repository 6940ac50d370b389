package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erpl/erpl-adt/pkg/adt/aerr"
	"github.com/erpl/erpl-adt/pkg/bw"
	"github.com/erpl/erpl-adt/pkg/bw/graph"
)

func newBWCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bw",
		Short: "SAP BW modeling: repository trees, lineage and dataflow graphs",
	}
	cmd.AddCommand(newBWNodesCmd())
	cmd.AddCommand(newBWSearchCmd())
	cmd.AddCommand(newBWLineageCmd())
	cmd.AddCommand(newBWQueryGraphCmd())
	cmd.AddCommand(newBWExportCmd())
	cmd.AddCommand(newBWMermaidCmd())
	cmd.AddCommand(newBWActivateCmd())
	cmd.AddCommand(newBWInfoCmd())
	return cmd
}

func newBWClient() (*bw.Client, error) {
	sess, err := newSession()
	if err != nil {
		return nil, err
	}
	return bw.New(sess), nil
}

func newBWNodesCmd() *cobra.Command {
	var childName, childType string

	cmd := &cobra.Command{
		Use:   "nodes TYPE NAME",
		Short: "List the repository structure below an object",
		Example: `  erpl-adt bw nodes AREA ZSALES
  erpl-adt bw nodes ADSO ZSALES_D1 --child-type DTPA`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bwClient, err := newBWClient()
			if err != nil {
				return err
			}
			nodes, err := bwClient.GetNodes(cmd.Context(), args[0], args[1], bw.NodeOptions{
				ChildName: childName,
				ChildType: childType,
			})
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(map[string]any{"nodes": nodes})
			}
			if len(nodes) == 0 {
				fmt.Println("No child nodes.")
				return nil
			}
			rows := make([][]string, 0, len(nodes))
			for _, n := range nodes {
				rows = append(rows, []string{n.Type, n.Name, n.Version, n.Description})
			}
			return renderTable([]string{"Type", "Name", "Version", "Description"}, rows)
		},
	}
	cmd.Flags().StringVar(&childName, "child-name", "", "Restrict to one child by name")
	cmd.Flags().StringVar(&childType, "child-type", "", "Restrict to one child type")
	return cmd
}

func newBWSearchCmd() *cobra.Command {
	var maxResults int
	var typeList string

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search the BW repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bwClient, err := newBWClient()
			if err != nil {
				return err
			}
			hits, err := bwClient.Search(cmd.Context(), args[0], bw.SearchOptions{
				MaxResults: maxResults,
				Types:      splitCSV(typeList),
			})
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(map[string]any{"results": hits})
			}
			if len(hits) == 0 {
				fmt.Println("No results.")
				return nil
			}
			rows := make([][]string, 0, len(hits))
			for _, h := range hits {
				rows = append(rows, []string{h.Type, h.Name, h.InfoArea, h.Description})
			}
			return renderTable([]string{"Type", "Name", "InfoArea", "Description"}, rows)
		},
	}
	cmd.Flags().IntVar(&maxResults, "max-results", 50, "Maximum number of results")
	cmd.Flags().StringVar(&typeList, "types", "", "Comma-separated object types to search")
	return cmd
}

func newBWLineageCmd() *cobra.Command {
	var version, trfnName string
	var withXref bool

	cmd := &cobra.Command{
		Use:   "lineage DTP",
		Short: "Build the field-level lineage graph of a data transfer process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bwClient, err := newBWClient()
			if err != nil {
				return err
			}
			g, err := graph.BuildDTPLineage(cmd.Context(), bwClient, args[0], graph.LineageOptions{
				Version:     version,
				IncludeXref: withXref,
				TRFNName:    trfnName,
			})
			if err != nil {
				return err
			}
			return renderGraph(g)
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "Object version (default: active)")
	cmd.Flags().StringVar(&trfnName, "trfn", "", "Pin the transformation instead of resolving it")
	cmd.Flags().BoolVar(&withXref, "xref", false, "Add consumer edges for the target infoprovider")
	return cmd
}

func newBWQueryGraphCmd() *cobra.Command {
	var version string
	var maxDepth, maxPerRole int
	var reduceRole, lineageDTP string

	cmd := &cobra.Command{
		Use:   "query-graph QUERY",
		Short: "Build the component graph of a reporting query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bwClient, err := newBWClient()
			if err != nil {
				return err
			}
			g, err := graph.BuildQueryGraph(cmd.Context(), bwClient, args[0], graph.QueryGraphOptions{
				Version:  version,
				MaxDepth: maxDepth,
			})
			if err != nil {
				return err
			}
			if reduceRole != "" {
				g = graph.Reduce(g, reduceRole, maxPerRole)
			}
			if lineageDTP != "" {
				lineage, err := graph.BuildDTPLineage(cmd.Context(), bwClient, lineageDTP, graph.LineageOptions{Version: version})
				if err != nil {
					return err
				}
				infoProvider := ""
				for _, n := range g.Nodes {
					if n.Role == "provider" {
						infoProvider = n.Name
						break
					}
				}
				g = graph.MergeUpstream(g, lineage, infoProvider)
			}
			return renderGraph(g)
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "Object version (default: active)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Component resolution depth (default 5)")
	cmd.Flags().StringVar(&reduceRole, "reduce", "", "Collapse high-fanout roles, keeping this focus role")
	cmd.Flags().IntVar(&maxPerRole, "max-per-role", 10, "Nodes kept per role when reducing")
	cmd.Flags().StringVar(&lineageDTP, "with-lineage", "", "Merge the upstream lineage of this DTP")
	return cmd
}

func newBWExportCmd() *cobra.Command {
	opts := graph.ExportOptions{}
	var typeList string

	cmd := &cobra.Command{
		Use:   "export INFOAREA",
		Short: "Export an infoarea as a dataflow document",
		Long: `Walk the infoarea tree, fetch each object's definition and emit one
JSON document with the objects, the dataflow graph and provenance.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bwClient, err := newBWClient()
			if err != nil {
				return err
			}
			opts.TypesFilter = splitCSV(typeList)
			export, err := graph.ExportInfoarea(cmd.Context(), bwClient, args[0], opts)
			if err != nil {
				return err
			}
			// The export is a document, not a report: always JSON.
			return printJSON(export)
		},
	}
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "Container traversal depth (default 3)")
	cmd.Flags().StringVar(&typeList, "types", "", "Comma-separated object types to keep")
	cmd.Flags().StringVar(&opts.Version, "version", "", "Object version (default: active)")
	cmd.Flags().BoolVar(&opts.IncludeSearchSupplement, "search-supplement", false, "Admit ELEM and IOBJ search hits missing from the tree")
	cmd.Flags().BoolVar(&opts.IncludeXrefEdges, "xref-edges", false, "Follow infoprovider cross-references")
	cmd.Flags().BoolVar(&opts.IncludeElemProviderEdges, "elem-edges", false, "Connect providers to their queries")
	cmd.Flags().BoolVar(&opts.IncludeLineage, "lineage", false, "Embed a lineage subgraph per DTP")
	return cmd
}

func newBWMermaidCmd() *cobra.Command {
	exportOpts := graph.ExportOptions{}
	mermaidOpts := graph.MermaidOptions{}
	var typeList string

	cmd := &cobra.Command{
		Use:   "mermaid INFOAREA",
		Short: "Render an infoarea's dataflow as a Mermaid diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bwClient, err := newBWClient()
			if err != nil {
				return err
			}
			exportOpts.TypesFilter = splitCSV(typeList)
			if mermaidOpts.IobjEdges {
				mermaidOpts.IncludeInfoObjects = true
			}
			export, err := graph.ExportInfoarea(cmd.Context(), bwClient, args[0], exportOpts)
			if err != nil {
				return err
			}
			diagram := graph.RenderInfoareaMermaid(export, mermaidOpts)
			fmt.Print(diagram)
			if !strings.HasSuffix(diagram, "\n") {
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&exportOpts.MaxDepth, "max-depth", 0, "Container traversal depth (default 3)")
	cmd.Flags().StringVar(&typeList, "types", "", "Comma-separated object types to keep")
	cmd.Flags().StringVar(&exportOpts.Version, "version", "", "Object version (default: active)")
	cmd.Flags().BoolVar(&exportOpts.IncludeXrefEdges, "xref-edges", false, "Follow infoprovider cross-references")
	cmd.Flags().BoolVar(&exportOpts.IncludeElemProviderEdges, "elem-edges", false, "Connect providers to their queries")
	cmd.Flags().BoolVar(&mermaidOpts.IncludeInfoObjects, "infoobjects", false, "Render InfoObject nodes in their own subgraph")
	cmd.Flags().BoolVar(&mermaidOpts.IobjEdges, "iobj-edges", false, "Add query-to-infoobject edges labelled by role")
	return cmd
}

func newBWActivateCmd() *cobra.Command {
	var mode, sourceSystem string

	cmd := &cobra.Command{
		Use:   "activate TYPE:NAME [TYPE:NAME...]",
		Short: "Validate, simulate or activate BW objects",
		Example: `  erpl-adt bw activate ADSO:ZSALES_D1
  erpl-adt bw activate --mode simulate TRFN:0ABC123 DTPA:DTP_XYZ`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objects, err := parseObjectPointers(args, sourceSystem)
			if err != nil {
				return err
			}
			activationMode, err := parseActivationMode(mode)
			if err != nil {
				return err
			}
			bwClient, err := newBWClient()
			if err != nil {
				return err
			}
			result, err := bwClient.Activate(cmd.Context(), objects, activationMode)
			if err != nil {
				return err
			}
			if flagJSON {
				if err := printJSON(result); err != nil {
					return err
				}
			} else {
				renderBWActivation(result)
			}
			if !result.Success {
				return aerr.New(aerr.KindActivationError, "BWActivate",
					fmt.Sprintf("%s failed for %d objects", activationMode, len(objects)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "execute", "One of validate, simulate, job, execute")
	cmd.Flags().StringVar(&sourceSystem, "source-system", "", "Source system for RSDS objects")
	return cmd
}

func newBWInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show BW system metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bwClient, err := newBWClient()
			if err != nil {
				return err
			}
			info, err := bwClient.SystemInfo(cmd.Context())
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(info)
			}
			renderDetail([][2]string{
				{"System", info.SystemID},
				{"Release", info.Release},
				{"BW release", info.BWRelease},
				{"Support pack", info.SupportPack},
				{"Client", info.Client},
				{"Environment", info.Environment},
				{"Changeability", info.Changeability},
			})
			return nil
		},
	}
}

func parseObjectPointers(args []string, sourceSystem string) ([]bw.ObjectPointer, error) {
	objects := make([]bw.ObjectPointer, 0, len(args))
	for _, arg := range args {
		objType, name, ok := strings.Cut(arg, ":")
		if !ok || objType == "" || name == "" {
			return nil, aerr.New(aerr.KindInternal, "BWActivate",
				fmt.Sprintf("invalid object %q, expected TYPE:NAME", arg))
		}
		obj := bw.ObjectPointer{Type: strings.ToUpper(objType), Name: name}
		if obj.Type == "RSDS" {
			obj.SourceSystem = sourceSystem
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func parseActivationMode(mode string) (bw.ActivationMode, error) {
	switch bw.ActivationMode(mode) {
	case bw.ActivationValidate, bw.ActivationSimulate, bw.ActivationJob, bw.ActivationExecute:
		return bw.ActivationMode(mode), nil
	default:
		return "", aerr.New(aerr.KindInternal, "BWActivate",
			fmt.Sprintf("unknown mode %q, expected validate, simulate, job or execute", mode))
	}
}

func renderBWActivation(result *bw.ActivationResult) {
	if result.Success {
		fmt.Println(styled(okStyle, "OK") + " " + string(result.Mode))
	} else {
		fmt.Println(styled(errorStyle, "FAILED") + " " + string(result.Mode))
	}
	if result.JobGUID != "" {
		fmt.Println("Job GUID:", result.JobGUID)
	}
	for _, m := range result.Messages {
		line := fmt.Sprintf("  [%s] %s", m.Severity, m.Text)
		if m.Object != "" {
			line = fmt.Sprintf("  [%s] %s: %s", m.Severity, m.Object, m.Text)
		}
		fmt.Println(line)
	}
}

func renderGraph(g *graph.Graph) error {
	if flagJSON {
		return printJSON(g)
	}
	rows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		rows = append(rows, []string{n.ID, n.Type, n.Name, n.Role})
	}
	if err := renderTable([]string{"ID", "Type", "Name", "Role"}, rows); err != nil {
		return err
	}
	metrics := g.Metrics()
	fmt.Printf("%d nodes, %d edges, max out-degree %d\n",
		metrics.NodeCount, metrics.EdgeCount, metrics.MaxOutDegree)
	for _, w := range g.Warnings {
		fmt.Println(styled(warnStyle, "warning: ") + w)
	}
	return nil
}
