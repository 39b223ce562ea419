package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/presenter"
	"github.com/jingkaihe/skillet/pkg/skills"
	"github.com/jingkaihe/skillet/pkg/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve local skills over MCP on stdio",
	Long: `Start an MCP (Model Context Protocol) server on stdio exposing the local
skill store, so agents can list and read installed skills as tools:

  list_skills  names and descriptions of every discovered skill
  get_skill    full document and resource listing for one skill`,
	Run: func(cmd *cobra.Command, _ []string) {
		runMCPServeCommand(cmd)
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServeCommand(cmd *cobra.Command) {
	store, err := newSkillStore(NewListConfig())
	if err != nil {
		presenter.Error(err, "failed to initialize skill store")
		os.Exit(1)
	}

	srv := mcpserver.NewMCPServer("skillet", version.Get().Version)

	listTool := mcp.NewTool("list_skills",
		mcp.WithDescription("List the locally available skills with their names and descriptions"),
	)
	srv.AddTool(listTool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		refs, err := store.Discover(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if refs == nil {
			refs = []skills.Ref{}
		}
		encoded, err := json.Marshal(refs)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	})

	getTool := mcp.NewTool("get_skill",
		mcp.WithDescription("Read one skill's full instruction document and resource listing"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The skill name as returned by list_skills"),
		),
	)
	srv.AddTool(getTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := request.GetString("name", "")
		if name == "" {
			return mcp.NewToolResultError("name is required"), nil
		}

		skill, err := store.Find(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if skill == nil {
			return mcp.NewToolResultError(fmt.Sprintf("skill %q not found", name)), nil
		}

		resources, _ := store.ListResources(skill.Directory)
		encoded, err := json.Marshal(map[string]any{
			"skill":     skill,
			"resources": resources,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	})

	if err := mcpserver.ServeStdio(srv); err != nil {
		presenter.Error(err, "MCP server stopped with error")
		os.Exit(1)
	}
}
