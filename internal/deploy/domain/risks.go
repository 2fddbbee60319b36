package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Change types reported by the risk calculation.
const (
	ChangeDeletion     = "deletion"
	ChangeModification = "modification"
)

// WorkspaceRisks is the risk report for one workspace a deployment may reach.
type WorkspaceRisks struct {
	WorkspaceName string         `json:"workspaceName"`
	OverallRisk   float64        `json:"overallRisk"`
	Services      []ServiceRisks `json:"services"`
}

// ServiceRisks lists the breaking operations of one service.
type ServiceRisks struct {
	TelemetryName string          `json:"telemetryName"`
	Operations    []OperationRisk `json:"operations"`
}

// Operation identifies an API operation.
type Operation struct {
	Protocol string `json:"protocol"`
	Method   string `json:"method"`
	Path     string `json:"path"`
}

// TracedOperation is one hop of an impacted trace.
type TracedOperation struct {
	TelemetryName string    `json:"telemetryName"`
	Operation     Operation `json:"operation"`
}

// OperationRisk describes a breaking change on a single operation.
type OperationRisk struct {
	Operation      Operation           `json:"operation"`
	Changes        OperationChanges    `json:"changes"`
	TracesImpacted [][]TracedOperation `json:"tracesImpacted"`
}

// OperationChanges holds the OpenAPI schema changes of an operation.
type OperationChanges struct {
	Type          string           `json:"type"`
	Data          json.RawMessage  `json:"data,omitempty"`
	Additions     []JSONPathValue  `json:"additions,omitempty"`
	Deletions     []JSONPathValue  `json:"deletions,omitempty"`
	Modifications []JSONPathChange `json:"modifications,omitempty"`
}

// JSONPathValue is a schema fragment added or removed at JSONPath.
type JSONPathValue struct {
	JSONPath string          `json:"jsonPath"`
	Value    json.RawMessage `json:"value"`
}

// JSONPathChange is a schema fragment modified at JSONPath.
type JSONPathChange struct {
	JSONPath string          `json:"jsonPath"`
	Before   json.RawMessage `json:"before"`
	After    json.RawMessage `json:"after"`
}

// tracePalette colors impacted traces; indexed by trace position.
var tracePalette = []string{
	"#1F77B4", "#FF7F0E", "#2CA02C", "#D62728", "#9467BD",
	"#8C564B", "#E377C2", "#7F7F7F", "#BCBD22", "#17BECF",
}

// RenderRisksComment renders the deployment risks as PR comment markdown.
func RenderRisksComment(risks []WorkspaceRisks) (string, error) {
	var sb strings.Builder
	for _, ws := range risks {
		pct := strconv.FormatFloat(ws.OverallRisk*100, 'f', -1, 64)
		fmt.Fprintf(&sb, "### The risk of deploying to the `%s` workspace is %s%%!\n\n", ws.WorkspaceName, pct)

		for _, svc := range ws.Services {
			sb.WriteString("<br />")
			fmt.Fprintf(&sb, "Breaking changes for the `%s` service:\n\n", svc.TelemetryName)

			for _, op := range svc.Operations {
				title, err := operationChangeTitle(op.Operation, op.Changes.Type)
				if err != nil {
					return "", err
				}
				changes, err := operationChangesMarkdown(op.Changes)
				if err != nil {
					return "", err
				}

				sb.WriteString("<details>\n")
				fmt.Fprintf(&sb, "<summary>%s</summary>\n\n", title)
				sb.WriteString(tracesMarkdown(op.TracesImpacted))
				sb.WriteString(changes)
				sb.WriteString("</details>\n\n")
			}
		}
	}
	return sb.String(), nil
}

func operationChangeTitle(op Operation, changeType string) (string, error) {
	if op.Protocol != "http" {
		return "", fmt.Errorf("unsupported operation protocol: %s", op.Protocol)
	}
	method := strings.ToUpper(op.Method)
	switch changeType {
	case ChangeDeletion:
		return fmt.Sprintf("<b>%s</b> <code>%s</code> route was deleted", method, op.Path), nil
	case ChangeModification:
		return fmt.Sprintf("<b>%s</b> <code>%s</code> route was modified", method, op.Path), nil
	}
	return "", fmt.Errorf("unsupported changes type: %s", changeType)
}

// tracesMarkdown draws every impacted trace as one mermaid flow, caller first.
func tracesMarkdown(traces [][]TracedOperation) string {
	if len(traces) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("#### Impacted operation traces:\n\n")
	sb.WriteString("```mermaid\ngraph LR;\n")

	link := 0
	for i, trace := range traces {
		hops := make([]TracedOperation, len(trace))
		for j := range trace {
			hops[len(trace)-1-j] = trace[j]
		}

		fmt.Fprintf(&sb, "START%d[ ]", i)
		for _, hop := range hops {
			fmt.Fprintf(&sb, "-- %s %s --> %s(%s)",
				hop.Operation.Method, hop.Operation.Path, hop.TelemetryName, hop.TelemetryName)
		}
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "style START%d fill:#FFFFFF00, stroke:#FFFFFF00\n", i)

		color := tracePalette[i%len(tracePalette)]
		for _, hop := range hops {
			fmt.Fprintf(&sb, "style %s stroke:#21FA90,stroke-width:1px\n", hop.TelemetryName)
			fmt.Fprintf(&sb, "linkStyle %d stroke-width:2px,fill:none,stroke:%s\n", link, color)
			link++
		}
	}
	sb.WriteString("```\n\n")
	return sb.String()
}

func operationChangesMarkdown(c OperationChanges) (string, error) {
	var sb strings.Builder
	switch c.Type {
	case ChangeDeletion:
		sb.WriteString("#### Removed route OpenApi schema:\n\n")
		sb.WriteString(diffBlock(prettyJSON(c.Data), ""))
	case ChangeModification:
		sb.WriteString("#### OpenApi schema changes:\n\n")
		for _, a := range c.Additions {
			fmt.Fprintf(&sb, "JSON path `%s`\n\n", a.JSONPath)
			sb.WriteString(diffBlock("", prettyJSON(a.Value)))
		}
		for _, d := range c.Deletions {
			fmt.Fprintf(&sb, "JSON path `%s`\n\n", d.JSONPath)
			sb.WriteString(diffBlock(prettyJSON(d.Value), ""))
		}
		for _, m := range c.Modifications {
			fmt.Fprintf(&sb, "JSON path `%s`\n\n", m.JSONPath)
			sb.WriteString(diffBlock(prettyJSON(m.Before), prettyJSON(m.After)))
		}
	default:
		return "", fmt.Errorf("unsupported changes type: %s", c.Type)
	}
	return sb.String(), nil
}

func diffBlock(before, after string) string {
	var sb strings.Builder
	sb.WriteString("```diff\n")
	if before != "" {
		sb.WriteString("-" + strings.ReplaceAll(before, "\n", "\n-") + "\n")
	}
	if after != "" {
		sb.WriteString("+" + strings.ReplaceAll(after, "\n", "\n+") + "\n")
	}
	sb.WriteString("```\n\n")
	return sb.String()
}

func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
