package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/farmguru/pkg/content"
)

const mcpServerName = "farmguru"

type listTopicsArgs struct{}

type readTopicArgs struct {
	Key     string `json:"key" jsonschema:"topic key as returned by list_topics"`
	Section string `json:"section,omitempty" jsonschema:"section key, defaults to the first section"`
}

// newMCPServer exposes the topic catalog as MCP tools.
func newMCPServer(navigator *content.Navigator, version string) *mcp.Server {
	if version == "" {
		version = "dev"
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    mcpServerName,
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_topics",
		Description: "List the farm guide topics and their sections",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args listTopicsArgs) (*mcp.CallToolResult, any, error) {
		var b strings.Builder
		for _, t := range navigator.Topics() {
			fmt.Fprintf(&b, "- %s: %s\n", t.Key, t.Title)
			for _, sec := range t.Sections {
				fmt.Fprintf(&b, "  - %s: %s\n", sec.Key, sec.Title)
			}
		}
		return textResult(b.String()), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_topic",
		Description: "Read the markdown guidance for a topic, optionally for one section",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args readTopicArgs) (*mcp.CallToolResult, any, error) {
		topic, ok := navigator.Lookup(args.Key)
		if !ok {
			return errorResult(fmt.Sprintf("unknown topic %q", args.Key)), nil, nil
		}
		if args.Section != "" {
			if _, ok := topic.Section(args.Section); !ok {
				return errorResult(fmt.Sprintf("topic %q has no section %q", args.Key, args.Section)), nil, nil
			}
		}
		if topic.Empty() {
			return textResult(fmt.Sprintf("# %s\n\nNo guidance has been written for this topic yet.\n", topic.Title)), nil, nil
		}
		return textResult(topic.Markdown(args.Section)), nil, nil
	})

	return server
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	res := textResult(text)
	res.IsError = true
	return res
}
